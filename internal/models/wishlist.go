package models

import (
	"time"

	"github.com/google/uuid"
)

type WishlistItem struct {
	UserID  uuid.UUID `json:"userId" db:"user_id"`
	BookID  uuid.UUID `json:"bookId" db:"book_id"`
	Title   string    `json:"title" db:"title"`
	AddedAt time.Time `json:"addedAt" db:"added_at"`
}
