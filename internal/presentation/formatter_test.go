//go:build !integration

package presentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/adapter"
	"telegram-storefront/internal/infra/i18n"
)

func newTestFormatter(t *testing.T) *Formatter {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	require.NoError(t, err)
	return NewFormatter(tr)
}

func flatten(kb adapter.Keyboard) []string {
	var out []string
	for _, row := range kb {
		for _, c := range row {
			out = append(out, c.Data)
		}
	}
	return out
}

func TestCatalogKeyboardKeepsOrderAndAddsCart(t *testing.T) {
	f := newTestFormatter(t)
	products := []model.Product{{ID: "b", Name: "Beta"}, {ID: "a", Name: "Alpha"}}

	choices := f.ProductChoices(products)
	require.Len(t, choices, 2)
	assert.Equal(t, "Beta", choices[0].Label)
	assert.Equal(t, "product:b", choices[0].Data)

	kb := f.CatalogKeyboard(products)
	assert.Len(t, kb, 3)
	assert.Equal(t, []string{"product:b", "product:a", SelCart}, flatten(kb))
}

func TestProductDetail(t *testing.T) {
	f := newTestFormatter(t)
	text := f.ProductDetail(model.Product{Name: "Salmon", Price: "$10.00", WeightKg: 1.5, Description: " Fresh fish "})
	assert.Contains(t, text, "Salmon")
	assert.Contains(t, text, "$10.00 per kg")
	assert.Contains(t, text, "1.50 kg")
	assert.Contains(t, text, "Fresh fish")
}

func TestDescriptionKeyboard(t *testing.T) {
	f := newTestFormatter(t)
	kb := f.DescriptionKeyboard("p1")
	assert.Equal(t, []string{"add:p1:1", "add:p1:5", "add:p1:10", SelCart, SelBack}, flatten(kb))
	assert.Equal(t, "5 kg", kb[0][1].Label)
}

func TestCartViews(t *testing.T) {
	f := newTestFormatter(t)
	items := []model.CartItem{
		{ID: "i1", Name: "Salmon", Quantity: 5, UnitPrice: "$10.00", LinePrice: "$50.00"},
		{ID: "i2", Name: "Tuna", Quantity: 1, UnitPrice: "$7.00", LinePrice: "$7.00"},
	}

	text := f.Cart(model.Cart{ID: "42", Total: "$57.00"}, items)
	assert.Contains(t, text, "5 kg in cart for $50.00")
	assert.Contains(t, text, "Tuna")
	assert.Contains(t, text, "Total: $57.00")

	assert.Equal(t, []string{"remove:i1", "remove:i2", SelPay, SelMenu}, flatten(f.CartKeyboard(items)))
}

func TestEmptyCartHasNoPay(t *testing.T) {
	f := newTestFormatter(t)
	assert.Equal(t, "Your cart is empty.", f.Cart(model.Cart{Total: "$0.00"}, nil))
	assert.Equal(t, []string{SelMenu}, flatten(f.CartKeyboard(nil)))
}

func TestCheckoutTexts(t *testing.T) {
	f := newTestFormatter(t)
	assert.NotEmpty(t, f.EmailPrompt())
	assert.Equal(t, []string{SelMenu}, flatten(f.EmailKeyboard()))
	assert.Contains(t, f.InvalidEmail("nope"), `"nope"`)
	confirmed := f.OrderConfirmed("ann@example.com", "01HZX")
	assert.Contains(t, confirmed, "ann@example.com")
	assert.Contains(t, confirmed, "01HZX")
}

func TestNotices(t *testing.T) {
	f := newTestFormatter(t)
	assert.Equal(t, "Added 5 kg", f.AddedToCart(5))
	assert.Equal(t, "Too many requests. Please slow down.", f.RateLimited())
	assert.NotEqual(t, "service_unavailable", f.Unavailable())
}
