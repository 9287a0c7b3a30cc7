package events

import (
	"fmt"
	"time"

	"github.com/linkedin/goavro/v2"
	"github.com/pkg/errors"

	"bookstore_back_end/internal/models"
)

// OrderEventSchema est le contrat Avro des messages du topic commandes.
const OrderEventSchema = `{
  "type": "record",
  "name": "OrderEvent",
  "namespace": "bookstore.orders",
  "fields": [
    {"name": "event_id", "type": "string"},
    {"name": "type", "type": {"type": "enum", "name": "OrderEventType", "symbols": ["OrderCreated", "OrderDelivered", "OrderCancelled"]}},
    {"name": "order_id", "type": "string"},
    {"name": "user_id", "type": "string"},
    {"name": "status", "type": "string"},
    {"name": "total_amount", "type": "string"},
    {"name": "claim_code", "type": "string"},
    {"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
  ]
}`

// Record est la forme décodée d'un message.
type Record struct {
	EventID     string
	Type        models.OrderEventType
	OrderID     string
	UserID      string
	Status      string
	TotalAmount string
	ClaimCode   string
	OccurredAt  time.Time
}

// Codec est sûr pour un usage concurrent, goavro.Codec l'étant.
type Codec struct {
	codec *goavro.Codec
}

func NewCodec() (*Codec, error) {
	c, err := goavro.NewCodec(OrderEventSchema)
	if err != nil {
		return nil, errors.Wrap(err, "création codec avro")
	}
	return &Codec{codec: c}, nil
}

func RecordFromEvent(e models.OrderEvent) Record {
	return Record{
		EventID:     e.ID.String(),
		Type:        e.Type,
		OrderID:     e.Order.ID.String(),
		UserID:      e.Order.UserID.String(),
		Status:      string(e.Order.Status),
		TotalAmount: e.Order.TotalAmount.StringFixed(2),
		ClaimCode:   e.Order.ClaimCode,
		OccurredAt:  e.OccurredAt.UTC().Truncate(time.Millisecond),
	}
}

func (c *Codec) Encode(r Record) ([]byte, error) {
	native := map[string]any{
		"event_id":     r.EventID,
		"type":         string(r.Type),
		"order_id":     r.OrderID,
		"user_id":      r.UserID,
		"status":       r.Status,
		"total_amount": r.TotalAmount,
		"claim_code":   r.ClaimCode,
		"occurred_at":  r.OccurredAt,
	}
	bin, err := c.codec.BinaryFromNative(nil, native)
	if err != nil {
		return nil, errors.Wrap(err, "encodage avro")
	}
	return bin, nil
}

func (c *Codec) Decode(data []byte) (Record, error) {
	native, _, err := c.codec.NativeFromBinary(data)
	if err != nil {
		return Record{}, errors.Wrap(err, "décodage avro")
	}
	m, ok := native.(map[string]any)
	if !ok {
		return Record{}, errors.Errorf("avro: enregistrement inattendu %T", native)
	}

	r := Record{
		EventID:     str(m["event_id"]),
		Type:        models.OrderEventType(str(m["type"])),
		OrderID:     str(m["order_id"]),
		UserID:      str(m["user_id"]),
		Status:      str(m["status"]),
		TotalAmount: str(m["total_amount"]),
		ClaimCode:   str(m["claim_code"]),
	}
	if ts, ok := m["occurred_at"].(time.Time); ok {
		r.OccurredAt = ts.UTC()
	}
	return r, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// AuditEntry convertit l'événement en entrée d'historique. L'ID reste vide,
// le magasin d'audit le dérive de Timestamp.
func (r Record) AuditEntry() models.AuditEntry {
	return models.AuditEntry{
		Resource:   "order",
		ResourceID: r.OrderID,
		Action:     string(r.Type),
		Actor:      r.UserID,
		Detail:     fmt.Sprintf("status=%s total=%s claim_code=%s", r.Status, r.TotalAmount, r.ClaimCode),
		Timestamp:  r.OccurredAt,
	}
}
