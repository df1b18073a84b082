package receipt

import (
	"time"
)

// Line is one purchased item as printed on the receipt.
type Line struct {
	ProductName string
	SizeColor   string
	Quantity    int
	UnitPrice   int64
}

func (l Line) Subtotal() int64 {
	return int64(l.Quantity) * l.UnitPrice
}

// Document holds everything printed on a receipt. It is built from an
// order snapshot so rendering never touches the catalog.
type Document struct {
	StoreName       string
	OrderNumber     string
	IssuedAt        time.Time
	CustomerEmail   string
	ShippingAddress string
	ShippingMethod  string
	Status          string
	Lines           []Line
	Subtotal        int64
	ShippingCost    int64
	Total           int64
}

// Renderer turns a Document into a portable document.
type Renderer interface {
	Render(doc Document) ([]byte, error)
}
