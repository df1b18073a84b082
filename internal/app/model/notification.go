package model

import (
	"time"
)

// NotificationLog records every status notification the service tried to
// deliver, successful or not.
type NotificationLog struct {
	ID        uint        `gorm:"primarykey" json:"id"`                    // log ID
	OrderID   uint        `gorm:"not null;index" json:"order_id"`          // notified order
	Status    OrderStatus `gorm:"type:varchar(20);not null" json:"status"` // status that triggered it
	Recipient string      `gorm:"size:254;not null" json:"recipient"`      // email address
	Subject   string      `gorm:"size:200;not null" json:"subject"`        // email subject
	Delivered bool        `gorm:"not null;default:false" json:"delivered"` // mailer accepted the message
	Error     string      `gorm:"type:text" json:"error,omitempty"`        // delivery failure, if any
	CreatedAt time.Time   `json:"created_at"`                              // attempted at
}

func (NotificationLog) TableName() string {
	return "notification_logs"
}
