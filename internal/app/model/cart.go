package model

import (
	"time"
)

// Cart is the per-user pre-checkout aggregate. UserID is unique so the
// cart can be fetched with get-or-create semantics.
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

// Total sums item subtotals; an empty cart totals 0.
func (c *Cart) Total() int64 {
	var total int64
	for i := range c.Items {
		total += c.Items[i].Subtotal()
	}
	return total
}

type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_item_variant" json:"cart_id"`
	VariantID uint      `gorm:"not null;uniqueIndex:idx_cart_item_variant" json:"variant_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	UnitPrice int64     `gorm:"not null" json:"unit_price"` // price snapshot taken when first added
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Variant Variant `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE" json:"variant"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (i *CartItem) Subtotal() int64 {
	return int64(i.Quantity) * i.UnitPrice
}
