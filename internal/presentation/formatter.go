// File: internal/presentation/formatter.go
package presentation

import (
	"strings"

	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/adapter"
)

// Translator is satisfied by *i18n.Translator.
type Translator interface {
	T(key string, args ...interface{}) string
}

// Formatter renders catalog, cart and checkout views. It does no I/O.
type Formatter struct {
	tr Translator
}

func NewFormatter(tr Translator) *Formatter {
	return &Formatter{tr: tr}
}

func (f *Formatter) MenuTitle(products []model.Product) string {
	if len(products) == 0 {
		return f.tr.T("menu_empty")
	}
	return f.tr.T("menu_title")
}

func (f *Formatter) ProductDetail(p model.Product) string {
	return f.tr.T("product_detail", p.Name, p.Price, p.WeightKg, strings.TrimSpace(p.Description))
}

// Cart lists every line followed by the total, or the empty-cart notice.
func (f *Formatter) Cart(cart model.Cart, items []model.CartItem) string {
	if len(items) == 0 {
		return f.tr.T("cart_empty")
	}
	var b strings.Builder
	b.WriteString(f.tr.T("cart_title"))
	for _, it := range items {
		b.WriteString("\n\n")
		b.WriteString(f.tr.T("cart_line", it.Name, strings.TrimSpace(it.Description), it.UnitPrice, it.Quantity, it.LinePrice))
	}
	b.WriteString("\n\n")
	b.WriteString(f.tr.T("cart_total", cart.Total))
	return b.String()
}

// ProductChoices keeps catalog order.
func (f *Formatter) ProductChoices(products []model.Product) []adapter.Choice {
	out := make([]adapter.Choice, 0, len(products))
	for _, p := range products {
		out = append(out, adapter.Choice{Label: p.Name, Data: ProductSelector(p.ID)})
	}
	return out
}

// CatalogKeyboard is one product per row plus a cart row.
func (f *Formatter) CatalogKeyboard(products []model.Product) adapter.Keyboard {
	kb := adapter.Column(f.ProductChoices(products))
	return append(kb, []adapter.Choice{f.cartChoice()})
}

func (f *Formatter) DescriptionKeyboard(productID string) adapter.Keyboard {
	qty := make([]adapter.Choice, 0, len(Quantities))
	for _, n := range Quantities {
		qty = append(qty, adapter.Choice{Label: f.tr.T("btn_add_qty", n), Data: AddSelector(productID, n)})
	}
	return adapter.Keyboard{
		qty,
		{f.cartChoice()},
		{{Label: f.tr.T("btn_back"), Data: SelBack}},
	}
}

// CartKeyboard offers removal per line, pay only for a non-empty cart, and a way back.
func (f *Formatter) CartKeyboard(items []model.CartItem) adapter.Keyboard {
	kb := make(adapter.Keyboard, 0, len(items)+2)
	for _, it := range items {
		kb = append(kb, []adapter.Choice{{Label: f.tr.T("btn_remove", it.Name), Data: RemoveSelector(it.ID)}})
	}
	if len(items) > 0 {
		kb = append(kb, []adapter.Choice{{Label: f.tr.T("btn_pay"), Data: SelPay}})
	}
	return append(kb, []adapter.Choice{f.menuChoice()})
}

func (f *Formatter) AddedToCart(qty int) string { return f.tr.T("added_to_cart", qty) }

func (f *Formatter) EmailPrompt() string { return f.tr.T("email_prompt") }

func (f *Formatter) EmailKeyboard() adapter.Keyboard {
	return adapter.Keyboard{{f.menuChoice()}}
}

func (f *Formatter) InvalidEmail(input string) string { return f.tr.T("email_invalid", input) }

func (f *Formatter) OrderConfirmed(email, ref string) string {
	return f.tr.T("order_confirmed", email, ref)
}

func (f *Formatter) Unavailable() string { return f.tr.T("service_unavailable") }

func (f *Formatter) RateLimited() string { return f.tr.T("rate_limited") }

func (f *Formatter) cartChoice() adapter.Choice {
	return adapter.Choice{Label: f.tr.T("btn_cart"), Data: SelCart}
}

func (f *Formatter) menuChoice() adapter.Choice {
	return adapter.Choice{Label: f.tr.T("btn_menu"), Data: SelMenu}
}
