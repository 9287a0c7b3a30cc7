package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem : le prix est indicatif, il est relu côté serveur au passage de commande.
type CartItem struct {
	BookID    uuid.UUID       `json:"bookId"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

type Cart struct {
	UserID    uuid.UUID  `json:"userId"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (c Cart) Lines() []LineRequest {
	lines := make([]LineRequest, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, LineRequest{BookID: it.BookID, Quantity: it.Quantity})
	}
	return lines
}
