package models

import "time"

// Operator roles
const (
	RoleAdmin   = "admin"
	RoleSupport = "support"
)

// Operator is a back-office user of the admin override surface.
// Passwords are stored as bcrypt hashes.
type Operator struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"not null;default:'support'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
