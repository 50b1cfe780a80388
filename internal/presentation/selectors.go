package presentation

import (
	"fmt"
	"strconv"
	"strings"
)

// Selector data carried by inline choices.
const (
	SelCart = "cart"
	SelBack = "back"
	SelMenu = "menu"
	SelPay  = "pay"

	prefixProduct = "product:"
	prefixAdd     = "add:"
	prefixRemove  = "remove:"
)

// Quantities offered on a product detail.
var Quantities = []int{1, 5, 10}

type SelectorKind int

const (
	SelUnknown SelectorKind = iota
	SelKindProduct
	SelKindAdd
	SelKindRemove
	SelKindCart
	SelKindBack
	SelKindMenu
	SelKindPay
)

// Selector is a decoded choice.
type Selector struct {
	Kind      SelectorKind
	ProductID string
	ItemID    string
	Quantity  int
}

func ProductSelector(productID string) string { return prefixProduct + productID }

func AddSelector(productID string, qty int) string {
	return fmt.Sprintf("%s%s:%d", prefixAdd, productID, qty)
}

func RemoveSelector(itemID string) string { return prefixRemove + itemID }

// ParseSelector decodes choice data. Anything it does not recognise, including
// free text, comes back as SelUnknown.
func ParseSelector(data string) Selector {
	data = strings.TrimSpace(data)
	switch data {
	case SelCart:
		return Selector{Kind: SelKindCart}
	case SelBack:
		return Selector{Kind: SelKindBack}
	case SelMenu:
		return Selector{Kind: SelKindMenu}
	case SelPay:
		return Selector{Kind: SelKindPay}
	}

	switch {
	case strings.HasPrefix(data, prefixProduct):
		if id := strings.TrimPrefix(data, prefixProduct); id != "" {
			return Selector{Kind: SelKindProduct, ProductID: id}
		}
	case strings.HasPrefix(data, prefixAdd):
		rest := strings.TrimPrefix(data, prefixAdd)
		i := strings.LastIndexByte(rest, ':')
		if i <= 0 {
			break
		}
		qty, err := strconv.Atoi(rest[i+1:])
		if err != nil || qty <= 0 {
			break
		}
		return Selector{Kind: SelKindAdd, ProductID: rest[:i], Quantity: qty}
	case strings.HasPrefix(data, prefixRemove):
		if id := strings.TrimPrefix(data, prefixRemove); id != "" {
			return Selector{Kind: SelKindRemove, ItemID: id}
		}
	}
	return Selector{Kind: SelUnknown}
}
