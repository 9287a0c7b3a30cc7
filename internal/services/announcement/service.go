package announcement

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
)

const MaxTitleLength = 200

type Repository interface {
	Create(ctx context.Context, a *models.Announcement) error
	List(ctx context.Context) ([]models.Announcement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Create(ctx context.Context, title, body string) (*models.Announcement, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.InvalidArgumentf("title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperr.InvalidArgumentf("title cannot exceed %d characters", MaxTitleLength)
	}
	a := &models.Announcement{ID: uuid.New(), Title: title, Body: strings.TrimSpace(body), CreatedAt: s.now()}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// List : les plus récentes d'abord, l'ordre est garanti par le dépôt.
func (s *Service) List(ctx context.Context) ([]models.Announcement, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
