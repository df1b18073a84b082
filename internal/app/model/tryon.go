package model

import (
	"time"
)

// TryOnEvent is written once per successful try-on and only read by BI.
type TryOnEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	ResultURL string    `gorm:"type:text" json:"result_url,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
}

func (TryOnEvent) TableName() string {
	return "try_on_events"
}
