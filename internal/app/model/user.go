package model

import (
	"time"
)

type UserRole string

const (
	RoleCustomer UserRole = "customer" // storefront customer
	RoleStaff    UserRole = "staff"    // back-office operator
	RoleAdmin    UserRole = "admin"    // superuser
)

// IsStaff reports whether the role has back-office access.
func (r UserRole) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`                            // user ID
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`               // login email
	PasswordHash string    `gorm:"not null" json:"-"`                               // bcrypt hash
	Name         string    `gorm:"not null" json:"name"`                            // display name
	Role         UserRole  `gorm:"type:varchar(20);default:'customer'" json:"role"` // access role
	CreatedAt    time.Time `json:"created_at"`                                      // created at
	UpdatedAt    time.Time `json:"updated_at"`                                      // updated at

	Addresses []Address `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"addresses,omitempty"` // saved addresses
}

func (User) TableName() string {
	return "users"
}
