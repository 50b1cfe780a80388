package adapter

import (
	"context"

	"telegram-storefront/internal/domain/model"
)

// Commerce is the port to the remote catalog/cart/customer backend.
// Every method returns *domain.BackendError when the backend reports a non-success status.
type Commerce interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	GetImageURL(ctx context.Context, fileID string) (string, error)

	GetCart(ctx context.Context, cartID string) (*model.Cart, error)
	GetCartItems(ctx context.Context, cartID string) ([]model.CartItem, error)
	AddToCart(ctx context.Context, cartID, productID string, quantity int) error
	RemoveFromCart(ctx context.Context, cartID, itemID string) error

	CreateCustomer(ctx context.Context, name, email string) (*model.Customer, error)
}
