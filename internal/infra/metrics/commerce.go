package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(commerceRequestsTotal, commerceTokenFetchesTotal) }

var (
	commerceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_requests_total",
			Help: "Commerce backend calls by operation and HTTP status (0 = transport error).",
		},
		[]string{"op", "status"},
	)

	commerceTokenFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_token_fetches_total",
			Help: "Client-credential token fetches by result.",
		},
		[]string{"result"},
	)
)

func IncCommerceRequest(op string, status int) {
	commerceRequestsTotal.WithLabelValues(norm(op), strconv.Itoa(status)).Inc()
}

func IncTokenFetch(success bool) {
	result := "ok"
	if !success {
		result = "error"
	}
	commerceTokenFetchesTotal.WithLabelValues(result).Inc()
}
