package model

// Product is a catalog entry owned by the commerce backend.
type Product struct {
	ID          string
	Name        string
	Description string
	WeightKg    float64
	Price       string // formatted by the backend, e.g. "$12.00"
	ImageID     string // empty when the product has no main image
}

func (p *Product) HasImage() bool { return p != nil && p.ImageID != "" }
