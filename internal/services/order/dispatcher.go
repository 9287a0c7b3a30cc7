package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bookstore_back_end/internal/models"
)

// Subscriber réagit à un événement de commande après commit.
type Subscriber interface {
	Name() string
	Handle(ctx context.Context, event models.OrderEvent) error
}

type EventDispatcher interface {
	Dispatch(ctx context.Context, event models.OrderEvent)
}

// PostCommitDispatcher appelle chaque abonné de façon synchrone, chacun avec son propre
// délai. Les erreurs sont journalisées et ne remontent jamais à l'appelant.
type PostCommitDispatcher struct {
	subscribers []Subscriber
	timeout     time.Duration
	log         *zap.Logger
}

func NewPostCommitDispatcher(timeout time.Duration, log *zap.Logger, subscribers ...Subscriber) *PostCommitDispatcher {
	return &PostCommitDispatcher{
		subscribers: subscribers,
		timeout:     timeout,
		log:         log,
	}
}

func (d *PostCommitDispatcher) Dispatch(ctx context.Context, event models.OrderEvent) {
	// détaché de l'annulation de la requête
	base := context.WithoutCancel(ctx)
	for _, s := range d.subscribers {
		d.run(base, s, event)
	}
}

func (d *PostCommitDispatcher) run(base context.Context, s Subscriber, event models.OrderEvent) {
	ctx, cancel := context.WithTimeout(base, d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("❌ panic abonné post-commit",
				zap.String("subscriber", s.Name()),
				zap.Any("panic", r),
			)
		}
	}()

	if err := s.Handle(ctx, event); err != nil {
		d.log.Warn("⚠️ échec abonné post-commit",
			zap.String("subscriber", s.Name()),
			zap.String("event", string(event.Type)),
			zap.String("order_id", event.Order.ID.String()),
			zap.Error(err),
		)
	}
}
