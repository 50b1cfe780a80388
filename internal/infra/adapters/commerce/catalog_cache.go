package commerce

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/adapter"
	"telegram-storefront/internal/infra/metrics"
)

var _ adapter.Commerce = (*CachedCatalog)(nil)

const productsKey = "products"

// CachedCatalog keeps catalog reads (product list, products, image links) in
// memory. Cart and customer calls always go to the backend.
type CachedCatalog struct {
	adapter.Commerce
	catalog  *cache.Cache
	images   *cache.Cache
	imageTTL time.Duration
}

func NewCachedCatalog(inner adapter.Commerce, catalogTTL, imageTTL time.Duration) *CachedCatalog {
	return &CachedCatalog{
		Commerce: inner,
		catalog:  cache.New(catalogTTL, 2*catalogTTL),
		images:   cache.New(imageTTL, 2*imageTTL),
		imageTTL: imageTTL,
	}
}

func (c *CachedCatalog) ListProducts(ctx context.Context) ([]model.Product, error) {
	if v, ok := c.catalog.Get(productsKey); ok {
		metrics.IncCacheRequest("catalog", "hit")
		return append([]model.Product(nil), v.([]model.Product)...), nil
	}
	metrics.IncCacheRequest("catalog", "miss")
	products, err := c.reload(ctx)
	if err != nil {
		return nil, err
	}
	return append([]model.Product(nil), products...), nil
}

func (c *CachedCatalog) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	if v, ok := c.catalog.Get("product:" + productID); ok {
		metrics.IncCacheRequest("product", "hit")
		cp := *v.(*model.Product)
		return &cp, nil
	}
	metrics.IncCacheRequest("product", "miss")
	p, err := c.Commerce.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	cp := *p
	c.catalog.SetDefault("product:"+productID, &cp)
	return p, nil
}

func (c *CachedCatalog) GetImageURL(ctx context.Context, fileID string) (string, error) {
	if v, ok := c.images.Get(fileID); ok {
		metrics.IncCacheRequest("image", "hit")
		return v.(string), nil
	}
	metrics.IncCacheRequest("image", "miss")
	href, err := c.Commerce.GetImageURL(ctx, fileID)
	if err != nil {
		return "", err
	}
	c.images.Set(fileID, href, c.imageTTL)
	return href, nil
}

// Refresh refetches the product list and replaces the cached entries. On
// error the previous entries are kept until they expire.
func (c *CachedCatalog) Refresh(ctx context.Context) (int, error) {
	products, err := c.reload(ctx)
	return len(products), err
}

func (c *CachedCatalog) reload(ctx context.Context) ([]model.Product, error) {
	products, err := c.Commerce.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	c.catalog.SetDefault(productsKey, products)
	for i := range products {
		p := products[i]
		c.catalog.SetDefault("product:"+p.ID, &p)
	}
	return products, nil
}
