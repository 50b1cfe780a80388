// File: internal/infra/adapters/commerce/client.go
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/adapter"
	"telegram-storefront/internal/infra/logging"
	"telegram-storefront/internal/infra/metrics"
)

var _ adapter.Commerce = (*Client)(nil)

const maxErrorBody = 4 << 10

// Client talks to the Elastic Path (Moltin) v2 REST API. It is stateless apart
// from the shared TokenCache.
type Client struct {
	base   string
	client *http.Client
	tokens *TokenCache
	log    *zerolog.Logger
}

func NewClient(baseURL string, httpClient *http.Client, tokens *TokenCache, logger *zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	l := logger.With().Str("component", "CommerceClient").Logger()
	return &Client{base: baseURL, client: httpClient, tokens: tokens, log: &l}
}

// ---- wire types ----

type displayPrice struct {
	WithTax struct {
		Formatted string `json:"formatted"`
		Unit      struct {
			Formatted string `json:"formatted"`
		} `json:"unit"`
		Value struct {
			Formatted string `json:"formatted"`
		} `json:"value"`
	} `json:"with_tax"`
}

type productDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Weight      struct {
		Kg float64 `json:"kg"`
	} `json:"weight"`
	Meta struct {
		DisplayPrice displayPrice `json:"display_price"`
	} `json:"meta"`
	Relationships struct {
		MainImage struct {
			Data *struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"main_image"`
	} `json:"relationships"`
}

func (p productDTO) toModel() model.Product {
	out := model.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		WeightKg:    p.Weight.Kg,
		Price:       p.Meta.DisplayPrice.WithTax.Formatted,
	}
	if p.Relationships.MainImage.Data != nil {
		out.ImageID = p.Relationships.MainImage.Data.ID
	}
	return out
}

type cartDTO struct {
	ID   string `json:"id"`
	Meta struct {
		DisplayPrice displayPrice `json:"display_price"`
	} `json:"meta"`
}

type cartItemDTO struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Meta        struct {
		DisplayPrice displayPrice `json:"display_price"`
	} `json:"meta"`
}

type customerDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type envelope[T any] struct {
	Data T `json:"data"`
}

// ---- operations ----

func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var out envelope[[]productDTO]
	if err := c.do(ctx, "ListProducts", http.MethodGet, "/v2/products", nil, &out); err != nil {
		return nil, err
	}
	products := make([]model.Product, 0, len(out.Data))
	for _, p := range out.Data {
		products = append(products, p.toModel())
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	var out envelope[productDTO]
	if err := c.do(ctx, "GetProduct", http.MethodGet, "/v2/products/"+url.PathEscape(productID), nil, &out); err != nil {
		return nil, err
	}
	p := out.Data.toModel()
	return &p, nil
}

func (c *Client) GetImageURL(ctx context.Context, fileID string) (string, error) {
	var out envelope[struct {
		Link struct {
			Href string `json:"href"`
		} `json:"link"`
	}]
	if err := c.do(ctx, "GetImageURL", http.MethodGet, "/v2/files/"+url.PathEscape(fileID), nil, &out); err != nil {
		return "", err
	}
	return out.Data.Link.Href, nil
}

func (c *Client) GetCart(ctx context.Context, cartID string) (*model.Cart, error) {
	var out envelope[cartDTO]
	if err := c.do(ctx, "GetCart", http.MethodGet, "/v2/carts/"+url.PathEscape(cartID), nil, &out); err != nil {
		return nil, err
	}
	return &model.Cart{ID: out.Data.ID, Total: out.Data.Meta.DisplayPrice.WithTax.Formatted}, nil
}

func (c *Client) GetCartItems(ctx context.Context, cartID string) ([]model.CartItem, error) {
	var out envelope[[]cartItemDTO]
	if err := c.do(ctx, "GetCartItems", http.MethodGet, "/v2/carts/"+url.PathEscape(cartID)+"/items", nil, &out); err != nil {
		return nil, err
	}
	items := make([]model.CartItem, 0, len(out.Data))
	for _, it := range out.Data {
		items = append(items, model.CartItem{
			ID:          it.ID,
			ProductID:   it.ProductID,
			Name:        it.Name,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.Meta.DisplayPrice.WithTax.Unit.Formatted,
			LinePrice:   it.Meta.DisplayPrice.WithTax.Value.Formatted,
		})
	}
	return items, nil
}

func (c *Client) AddToCart(ctx context.Context, cartID, productID string, quantity int) error {
	if quantity <= 0 || productID == "" {
		return fmt.Errorf("add to cart: %w: quantity=%d product=%q", domain.ErrInvalidArgument, quantity, productID)
	}
	payload := map[string]any{
		"data": map[string]any{
			"id":       productID,
			"type":     "cart_item",
			"quantity": quantity,
		},
	}
	return c.do(ctx, "AddToCart", http.MethodPost, "/v2/carts/"+url.PathEscape(cartID)+"/items", payload, nil)
}

func (c *Client) RemoveFromCart(ctx context.Context, cartID, itemID string) error {
	path := "/v2/carts/" + url.PathEscape(cartID) + "/items/" + url.PathEscape(itemID)
	return c.do(ctx, "RemoveFromCart", http.MethodDelete, path, nil, nil)
}

func (c *Client) CreateCustomer(ctx context.Context, name, email string) (*model.Customer, error) {
	payload := map[string]any{
		"data": map[string]any{
			"type":  "customer",
			"name":  name,
			"email": email,
		},
	}
	var out envelope[customerDTO]
	if err := c.do(ctx, "CreateCustomer", http.MethodPost, "/v2/customers", payload, &out); err != nil {
		return nil, err
	}
	return &model.Customer{ID: out.Data.ID, Name: out.Data.Name, Email: out.Data.Email}, nil
}

// do performs one authenticated call. A 401 drops the cached token and the
// call is repeated once with a fresh one.
func (c *Client) do(ctx context.Context, op, method, path string, body any, out any) error {
	defer logging.TraceDuration(c.log, "Commerce."+op)()

	var raw []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("commerce %s: encode: %w", op, err)
		}
		raw = b
	}

	for attempt := 0; ; attempt++ {
		status, respBody, token, err := c.roundTrip(ctx, op, method, path, raw)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized && attempt == 0 {
			c.log.Debug().Str("op", op).Msg("access token rejected; refreshing")
			c.tokens.Invalidate(token)
			continue
		}
		if status < 200 || status >= 300 {
			return &domain.BackendError{Op: op, Status: status, Body: string(respBody)}
		}
		if out == nil || len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return &domain.BackendError{Op: op, Status: status, Body: string(respBody), Err: fmt.Errorf("decode: %w", err)}
		}
		return nil
	}
}

// roundTrip also returns the token it sent, for Invalidate.
func (c *Client) roundTrip(ctx context.Context, op, method, path string, raw []byte) (int, []byte, string, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		metrics.IncCommerceRequest(op, 0)
		return 0, nil, "", &domain.BackendError{Op: op, Err: fmt.Errorf("access token: %w", err)}
	}

	var reader io.Reader
	if raw != nil {
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return 0, nil, token, fmt.Errorf("commerce %s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if raw != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.IncCommerceRequest(op, 0)
		return 0, nil, token, &domain.BackendError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	metrics.IncCommerceRequest(op, resp.StatusCode)

	limit := int64(maxErrorBody)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		limit = 8 << 20
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return 0, nil, token, &domain.BackendError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return resp.StatusCode, b, token, nil
}
