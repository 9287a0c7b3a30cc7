package events

import (
	"context"

	"github.com/pkg/errors"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"bookstore_back_end/internal/config"
	"bookstore_back_end/internal/models"
)

// Publisher publie les événements de commande sur Kafka, clé = id de commande.
type Publisher struct {
	client *kgo.Client
	topic  string
	codec  *Codec
	log    *zap.Logger
}

func NewPublisher(cfg config.KafkaConfig, codec *Codec, log *zap.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.OrderTopic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "création producteur kafka")
	}
	log.Info("✅ Producteur Kafka prêt",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.OrderTopic),
	)
	return &Publisher{client: client, topic: cfg.OrderTopic, codec: codec, log: log}, nil
}

func (p *Publisher) Name() string { return "kafka" }

func (p *Publisher) Handle(ctx context.Context, event models.OrderEvent) error {
	rec := RecordFromEvent(event)
	payload, err := p.codec.Encode(rec)
	if err != nil {
		return err
	}

	results := p.client.ProduceSync(ctx, &kgo.Record{
		Topic:     p.topic,
		Key:       []byte(rec.OrderID),
		Value:     payload,
		Timestamp: rec.OccurredAt,
		Headers:   []kgo.RecordHeader{{Key: "event_type", Value: []byte(rec.Type)}},
	})
	if err := results.FirstErr(); err != nil {
		return errors.Wrapf(err, "publication kafka topic %s", p.topic)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Close()
}
