package model

import (
	"fmt"
	"time"
)

type Address struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                     // address ID
	UserID    uint      `gorm:"not null;index" json:"user_id"`            // owner
	Rut       string    `gorm:"size:20" json:"rut"`                       // Chilean tax ID of the recipient
	Street    string    `gorm:"size:200;not null" json:"street"`          // street / avenue
	Number    string    `gorm:"size:20;not null" json:"number"`           // street number
	Apartment string    `gorm:"size:50" json:"apartment"`                 // apartment / house, optional
	District  string    `gorm:"size:100;not null" json:"district"`        // comuna
	Phone     string    `gorm:"size:30" json:"phone"`                     // contact phone
	IsDefault bool      `gorm:"not null;default:false" json:"is_default"` // at most one per user
	CreatedAt time.Time `json:"created_at"`                               // created at
	UpdatedAt time.Time `json:"updated_at"`                               // updated at
}

func (Address) TableName() string {
	return "addresses"
}

// Line is the shipping address snapshot stored on orders.
func (a *Address) Line() string {
	return fmt.Sprintf("%s #%s, %s", a.Street, a.Number, a.District)
}
