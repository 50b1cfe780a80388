package model

// Cart is the backend cart of one user; its id equals the user identity.
type Cart struct {
	ID    string
	Total string // formatted
}

// CartItem is one line of a cart.
type CartItem struct {
	ID          string
	ProductID   string
	Name        string
	Description string
	Quantity    int
	UnitPrice   string // formatted
	LinePrice   string // formatted
}

// TotalQuantity sums quantities over all lines.
func TotalQuantity(items []CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Customer is the record created at checkout.
type Customer struct {
	ID    string
	Name  string
	Email string
}
