package domain

import (
	"time"

	"github.com/google/uuid"
)

// Roles assignable to a user account.
const (
	RoleUser  = "user"
	RoleStaff = "staff"
)

// User represents a customer or staff account
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
