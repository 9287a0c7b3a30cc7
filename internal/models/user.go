package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"

	ProviderLocal = "local"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	Provider     string    `json:"provider" db:"provider"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
