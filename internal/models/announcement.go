package models

import (
	"time"

	"github.com/google/uuid"
)

type Announcement struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type AuditEntry struct {
	ID         uuid.UUID `json:"id"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resourceId"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	Detail     string    `json:"detail"`
	Timestamp  time.Time `json:"timestamp"`
}
