package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Book struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Title       string          `json:"title" db:"title"`
	ISBN        string          `json:"isbn" db:"isbn"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	AuthorID    uuid.UUID       `json:"authorId" db:"author_id"`
	AuthorName  string          `json:"authorName,omitempty" db:"author_name"`
	GenreID     uuid.UUID       `json:"genreId" db:"genre_id"`
	GenreName   string          `json:"genreName,omitempty" db:"genre_name"`
	CoverURL    string          `json:"coverUrl" db:"cover_url"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

type BookInput struct {
	Title       string          `json:"title"`
	ISBN        string          `json:"isbn"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	AuthorID    uuid.UUID       `json:"authorId"`
	GenreID     uuid.UUID       `json:"genreId"`
}

type BookFilter struct {
	GenreID  *uuid.UUID
	AuthorID *uuid.UUID
	Title    string
	Limit    int
	Offset   int
}

type Author struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
	Bio  string    `json:"bio" db:"bio"`
}

type Genre struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}

// Discount : appliquer une remise réécrit books.price, OriginalPrice permet de le restaurer.
type Discount struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	BookID        uuid.UUID       `json:"bookId" db:"book_id"`
	Percent       int             `json:"percent" db:"percent"`
	OriginalPrice decimal.Decimal `json:"originalPrice" db:"original_price"`
	StartsAt      time.Time       `json:"startsAt" db:"starts_at"`
	EndsAt        time.Time       `json:"endsAt" db:"ends_at"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}

// DiscountedPrice arrondi au centime.
func (d Discount) DiscountedPrice() decimal.Decimal {
	factor := decimal.NewFromInt(int64(100 - d.Percent)).Div(decimal.NewFromInt(100))
	return d.OriginalPrice.Mul(factor).Round(2)
}

func (d Discount) Expired(now time.Time) bool {
	return !d.EndsAt.IsZero() && !now.Before(d.EndsAt)
}
