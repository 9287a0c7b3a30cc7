package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
)

// ApplyDiscount applique une remise de percent% jusqu'à endsAt.
// Les remises expirées sont purgées avant, pour libérer la place sur le livre.
func (s *Service) ApplyDiscount(ctx context.Context, bookID uuid.UUID, percent int, endsAt time.Time) (*models.Discount, error) {
	if percent < 1 || percent > 99 {
		return nil, apperr.InvalidArgumentf("discount percent must be between 1 and 99")
	}
	now := s.now()
	if !endsAt.After(now) {
		return nil, apperr.InvalidArgumentf("discount end date must be in the future")
	}
	if _, err := s.ExpireDiscounts(ctx); err != nil {
		return nil, err
	}

	d := &models.Discount{
		ID:        uuid.New(),
		BookID:    bookID,
		Percent:   percent,
		StartsAt:  now,
		EndsAt:    endsAt,
		CreatedAt: now,
	}
	if err := s.books.ApplyDiscount(ctx, d); err != nil {
		return nil, err
	}

	s.log.Info("🏷️ Remise appliquée",
		zap.String("book_id", bookID.String()),
		zap.Int("percent", percent),
		zap.String("price", d.DiscountedPrice().StringFixed(2)))
	s.refresh(ctx, bookID)
	return d, nil
}

func (s *Service) RemoveDiscount(ctx context.Context, id uuid.UUID) error {
	d, err := s.books.RemoveDiscount(ctx, id)
	if err != nil {
		return err
	}
	s.refresh(ctx, d.BookID)
	return nil
}

func (s *Service) ListDiscounts(ctx context.Context) ([]models.Discount, error) {
	if _, err := s.ExpireDiscounts(ctx); err != nil {
		return nil, err
	}
	return s.books.ListDiscounts(ctx)
}

// ExpireDiscounts retire les remises arrivées à échéance et restaure les prix.
func (s *Service) ExpireDiscounts(ctx context.Context) (int, error) {
	discounts, err := s.books.ListDiscounts(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	expired := 0
	for _, d := range discounts {
		if !d.Expired(now) {
			continue
		}
		if _, err := s.books.RemoveDiscount(ctx, d.ID); err != nil {
			// Retirée entre-temps par une autre requête.
			if apperr.IsKind(err, apperr.NotFound) {
				continue
			}
			return expired, err
		}
		expired++
		s.refresh(ctx, d.BookID)
	}
	if expired > 0 {
		s.log.Info("⏰ Remises expirées retirées", zap.Int("count", expired))
	}
	return expired, nil
}

func (s *Service) refresh(ctx context.Context, bookID uuid.UUID) {
	b, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		s.log.Warn("⚠️ Relecture livre échouée", zap.String("book_id", bookID.String()), zap.Error(err))
		return
	}
	s.reindex(ctx, *b)
}
