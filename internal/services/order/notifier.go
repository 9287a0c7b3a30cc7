package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
)

type InvoiceRenderer interface {
	Render(ctx context.Context, order models.Order, user models.User) ([]byte, error)
}

type InvoiceArchive interface {
	SaveInvoice(ctx context.Context, orderID uuid.UUID, pdf []byte) error
}

type Mailer interface {
	SendOrderConfirmation(ctx context.Context, user models.User, order models.Order, invoice []byte) error
	SendOrderCollected(ctx context.Context, user models.User, order models.Order) error
	SendOrderCancelled(ctx context.Context, user models.User, order models.Order) error
}

// Notifier rend la facture, l'archive et prévient le client par email.
// archive peut être nil.
type Notifier struct {
	renderer InvoiceRenderer
	archive  InvoiceArchive
	mailer   Mailer
	log      *zap.Logger
}

func NewNotifier(renderer InvoiceRenderer, archive InvoiceArchive, mailer Mailer, log *zap.Logger) *Notifier {
	return &Notifier{renderer: renderer, archive: archive, mailer: mailer, log: log}
}

func (n *Notifier) Name() string { return "notifier" }

func (n *Notifier) Handle(ctx context.Context, event models.OrderEvent) error {
	switch event.Type {
	case models.OrderCreated:
		return n.confirm(ctx, event)
	case models.OrderDelivered:
		if err := n.mailer.SendOrderCollected(ctx, event.User, event.Order); err != nil {
			return apperr.Dependency(err, "collected email for order %s", event.Order.ID)
		}
	case models.OrderCancelled:
		if err := n.mailer.SendOrderCancelled(ctx, event.User, event.Order); err != nil {
			return apperr.Dependency(err, "cancellation email for order %s", event.Order.ID)
		}
	}
	return nil
}

// confirm : sans PDF, l'email de confirmation part quand même sans pièce jointe.
func (n *Notifier) confirm(ctx context.Context, event models.OrderEvent) error {
	var errs []error

	pdf, err := n.renderer.Render(ctx, event.Order, event.User)
	if err != nil {
		errs = append(errs, apperr.Dependency(err, "invoice rendering for order %s", event.Order.ID))
		pdf = nil
	}

	if pdf != nil && n.archive != nil {
		if err := n.archive.SaveInvoice(ctx, event.Order.ID, pdf); err != nil {
			errs = append(errs, apperr.Dependency(err, "invoice archive for order %s", event.Order.ID))
		}
	}

	if err := n.mailer.SendOrderConfirmation(ctx, event.User, event.Order, pdf); err != nil {
		errs = append(errs, apperr.Dependency(err, "confirmation email for order %s", event.Order.ID))
	} else {
		n.log.Info("📧 Confirmation envoyée",
			zap.String("order_id", event.Order.ID.String()),
			zap.String("email", event.User.Email),
			zap.Bool("invoice_attached", pdf != nil),
		)
	}
	return errors.Join(errs...)
}
