package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bookstore_back_end/internal/apperr"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// Ancienne orthographe présente dans les données historiques, lue mais jamais écrite.
const legacyCancelled = "CANCLED"

// Seules transitions autorisées. Un statut absent de la table est terminal.
var transitions = map[Status][]Status{
	StatusPending: {StatusDelivered, StatusCancelled},
}

func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(StatusPending):
		return StatusPending, nil
	case string(StatusDelivered):
		return StatusDelivered, nil
	case string(StatusCancelled), legacyCancelled:
		return StatusCancelled, nil
	}
	return "", apperr.InvalidArgumentf("unknown order status %q", s)
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionError retourne nil si s -> next est permis, sinon une erreur InvalidState
// qui nomme l'état bloquant.
func (s Status) TransitionError(next Status) error {
	if s.CanTransitionTo(next) {
		return nil
	}
	if s.IsTerminal() {
		return apperr.InvalidStatef("already %s", strings.ToLower(string(s)))
	}
	return apperr.InvalidStatef("cannot move order from %s to %s", s, next)
}

func (s *Status) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("statut de commande: type %T non supporté", src)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Status) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Order struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      uuid.UUID       `json:"userId" db:"user_id"`
	OrderDate   time.Time       `json:"orderDate" db:"order_date"`
	Status      Status          `json:"status" db:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount" db:"total_amount"`
	ClaimCode   string          `json:"claimCode" db:"claim_code"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
	Lines       []OrderLine     `json:"lines" db:"-"`
}

// OrderLine garde le prix et le titre du livre au moment de la commande.
type OrderLine struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"orderId" db:"order_id"`
	BookID    uuid.UUID       `json:"bookId" db:"book_id"`
	Title     string          `json:"title" db:"title"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineRequest est une ligne proposée par le client (livre + quantité).
type LineRequest struct {
	BookID   uuid.UUID `json:"bookId"`
	Quantity int       `json:"quantity"`
}
