package model

import (
	"time"
)

type OrderStatus string // fulfillment status

const (
	OrderStatusPending   OrderStatus = "pending"   // awaiting payment
	OrderStatusConfirmed OrderStatus = "confirmed" // paid
	OrderStatusPicking   OrderStatus = "picking"   // being picked in the warehouse
	OrderStatusPacking   OrderStatus = "packing"   // being packed
	OrderStatusShipped   OrderStatus = "shipped"   // handed to the carrier
	OrderStatusDelivered OrderStatus = "delivered" // received by the customer
	OrderStatusCancelled OrderStatus = "cancelled" // cancelled, stock restored
)

// fulfillmentPath is the linear happy path, in order.
var fulfillmentPath = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPicking,
	OrderStatusPacking,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// orderStatusTransitions lists every status reachable from a given status.
// Staying in the same status is always allowed and handled separately.
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {
		OrderStatusConfirmed, OrderStatusPicking, OrderStatusPacking,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
	},
	OrderStatusConfirmed: {
		OrderStatusPicking, OrderStatusPacking, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled,
	},
	OrderStatusPicking: {
		OrderStatusPacking, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
	},
	OrderStatusPacking: {
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
	},
	OrderStatusShipped: {
		OrderStatusDelivered, OrderStatusCancelled,
	},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// SalesStatuses are the statuses counted as a realized sale.
var SalesStatuses = []OrderStatus{
	OrderStatusConfirmed,
	OrderStatusPicking,
	OrderStatusPacking,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// RevenueExcludedStatuses never count towards revenue.
var RevenueExcludedStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusTransitions[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether next is reachable from s. Identical
// statuses are accepted as a no-op.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range orderStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Label is the customer-facing Spanish name of the status.
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPending:
		return "Pendiente de pago"
	case OrderStatusConfirmed:
		return "Pago confirmado"
	case OrderStatusPicking:
		return "En preparación"
	case OrderStatusPacking:
		return "Embalaje"
	case OrderStatusShipped:
		return "Despachado"
	case OrderStatusDelivered:
		return "Entregado"
	case OrderStatusCancelled:
		return "Cancelado"
	}
	return string(s)
}

// FulfillmentPath returns a copy of the linear status path.
func FulfillmentPath() []OrderStatus {
	path := make([]OrderStatus, len(fulfillmentPath))
	copy(path, fulfillmentPath)
	return path
}

type Order struct {
	ID              uint        `gorm:"primarykey" json:"id"`                                            // order ID
	UserID          *uint       `gorm:"index" json:"user_id,omitempty"`                                  // buyer, nulled if the user is deleted
	OrderNumber     string      `gorm:"size:32;not null;uniqueIndex" json:"order_number"`                // human-facing number
	Email           string      `gorm:"size:254" json:"email"`                                           // contact email for notifications
	Subtotal        int64       `gorm:"not null" json:"subtotal"`                                        // sum of item subtotals
	ShippingCost    int64       `gorm:"not null;default:0" json:"shipping_cost"`                         // selected shipping rate
	Total           int64       `gorm:"not null" json:"total"`                                           // subtotal + shipping, fixed at checkout
	ShippingMethod  string      `gorm:"size:50" json:"shipping_method"`                                  // shipping method label snapshot
	ShippingAddress string      `gorm:"type:text;not null" json:"shipping_address"`                      // address snapshot
	Status          OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"` // fulfillment status
	TrackingCode    string      `gorm:"size:100" json:"tracking_code,omitempty"`                         // carrier tracking code
	PaidAt          *time.Time  `json:"paid_at,omitempty"`                                               // set by the payment step
	CreatedAt       time.Time   `gorm:"index" json:"created_at"`                                         // created at
	UpdatedAt       time.Time   `json:"updated_at"`                                                      // updated at

	User       *User       `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`                     // buyer
	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items,omitempty"` // immutable line snapshots
}

func (Order) TableName() string {
	return "orders"
}

// ItemsTotal recomputes the subtotal from the loaded item snapshots.
func (o *Order) ItemsTotal() int64 {
	var total int64
	for i := range o.OrderItems {
		total += o.OrderItems[i].Subtotal()
	}
	return total
}

// OwnedBy reports whether userID placed the order.
func (o *Order) OwnedBy(userID uint) bool {
	return o.UserID != nil && *o.UserID == userID
}

type OrderItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                        // order item ID
	OrderID     uint      `gorm:"not null;index" json:"order_id"`              // parent order
	VariantID   *uint     `gorm:"index" json:"variant_id,omitempty"`           // nulled if the variant is deleted
	ProductName string    `gorm:"size:200;not null;index" json:"product_name"` // product name snapshot
	SizeColor   string    `gorm:"size:100;not null" json:"size_color"`         // "size/color" snapshot
	Quantity    int       `gorm:"not null" json:"quantity"`                    // units
	UnitPrice   int64     `gorm:"not null" json:"unit_price"`                  // price snapshot
	CreatedAt   time.Time `json:"created_at"`                                  // created at

	Variant *Variant `gorm:"foreignKey:VariantID;constraint:OnDelete:SET NULL" json:"-"` // live variant, may be gone
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (i *OrderItem) Subtotal() int64 {
	return int64(i.Quantity) * i.UnitPrice
}
