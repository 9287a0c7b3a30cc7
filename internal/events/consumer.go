package events

import (
	"context"

	"github.com/pkg/errors"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"bookstore_back_end/internal/config"
)

type Handler func(ctx context.Context, r Record) error

// Consumer lit le topic commandes et ne commite l'offset qu'après succès du handler.
type Consumer struct {
	reader *kafkago.Reader
	codec  *Codec
	log    *zap.Logger
}

func NewConsumer(cfg config.KafkaConfig, codec *Codec, log *zap.Logger) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.ConsumerGroup,
		Topic:    cfg.OrderTopic,
		MinBytes: 1e3,
		MaxBytes: 1e6,
	})
	return &Consumer{reader: reader, codec: codec, log: log}
}

// Run boucle jusqu'à l'annulation du contexte. Un message illisible est journalisé puis ignoré.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "lecture kafka")
		}

		rec, err := c.codec.Decode(msg.Value)
		if err != nil {
			c.log.Warn("⚠️ message illisible ignoré",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		} else if err := handle(ctx, rec); err != nil {
			return errors.Wrapf(err, "traitement événement %s", rec.EventID)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "commit offset kafka")
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
