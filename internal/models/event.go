package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderEventType string

const (
	OrderCreated   OrderEventType = "OrderCreated"
	OrderDelivered OrderEventType = "OrderDelivered"
	OrderCancelled OrderEventType = "OrderCancelled"
)

// OrderEvent est émis après le commit d'une création ou d'un changement de statut.
type OrderEvent struct {
	ID         uuid.UUID
	Type       OrderEventType
	Order      Order
	User       User
	OccurredAt time.Time
}

func NewOrderEvent(t OrderEventType, o Order, u User) OrderEvent {
	return OrderEvent{
		ID:         uuid.New(),
		Type:       t,
		Order:      o,
		User:       u,
		OccurredAt: time.Now().UTC(),
	}
}
