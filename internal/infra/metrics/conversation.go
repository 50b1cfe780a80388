package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		conversationEventsTotal,
		conversationHandlerDuration,
		conversationConfigErrorsTotal,
	)
}

var (
	conversationEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_events_total",
			Help: "Processed user events by resolved state and outcome.",
		},
		[]string{"state", "outcome"},
	)

	conversationHandlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conversation_handler_duration_seconds",
			Help:    "Time spent in a state handler, including backend calls.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"state"},
	)

	conversationConfigErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "conversation_config_errors_total",
			Help: "Transition configuration errors. Any increase should page.",
		},
	)
)

func IncConversationEvent(state, outcome string) {
	conversationEventsTotal.WithLabelValues(state, norm(outcome)).Inc()
}

func ObserveHandler(state string, d time.Duration) {
	conversationHandlerDuration.WithLabelValues(state).Observe(d.Seconds())
}

func IncConfigError() {
	conversationConfigErrorsTotal.Inc()
}
