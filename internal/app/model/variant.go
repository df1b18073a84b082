package model

import (
	"fmt"
	"time"
)

// LowStockThreshold marks a variant as critical in the BI dashboard.
const LowStockThreshold = 5

type Variant struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_variant_product_size_color" json:"product_id"`
	Size      string    `gorm:"size:20;not null;uniqueIndex:idx_variant_product_size_color" json:"size"`
	Color     string    `gorm:"size:50;not null;uniqueIndex:idx_variant_product_size_color" json:"color"`
	Stock     int       `gorm:"not null;default:0;check:chk_variants_stock,stock >= 0" json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (Variant) TableName() string {
	return "variants"
}

// Label renders the "size/color" snapshot stored on order items.
func (v *Variant) Label() string {
	return fmt.Sprintf("%s/%s", v.Size, v.Color)
}

type StockMovementKind string

const (
	StockMovementSale          StockMovementKind = "sale"
	StockMovementRestock       StockMovementKind = "restock"
	StockMovementCancelRestore StockMovementKind = "cancel_restore"
	StockMovementAdjustment    StockMovementKind = "adjustment"
)

// StockMovement is an append-only ledger row written in the same
// transaction as every stock change.
type StockMovement struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	VariantID   uint              `gorm:"not null;index" json:"variant_id"`
	Kind        StockMovementKind `gorm:"type:varchar(20);not null" json:"kind"`
	Quantity    int               `gorm:"not null" json:"quantity"` // positive in, negative out
	StockBefore int               `gorm:"not null" json:"stock_before"`
	StockAfter  int               `gorm:"not null" json:"stock_after"`
	OrderID     *uint             `gorm:"index" json:"order_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (StockMovement) TableName() string {
	return "stock_movements"
}
