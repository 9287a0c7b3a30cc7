package wishlist

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookstore_back_end/internal/models"
)

type Repository interface {
	Add(ctx context.Context, item *models.WishlistItem) error
	Remove(ctx context.Context, userID, bookID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error)
}

type BookReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
}

type Service struct {
	items Repository
	books BookReader
	now   func() time.Time
}

func NewService(items Repository, books BookReader) *Service {
	return &Service{items: items, books: books, now: func() time.Time { return time.Now().UTC() }}
}

// Add : un livre déjà présent remonte en Conflict depuis le dépôt.
func (s *Service) Add(ctx context.Context, userID, bookID uuid.UUID) (*models.WishlistItem, error) {
	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	item := &models.WishlistItem{UserID: userID, BookID: bookID, Title: book.Title, AddedAt: s.now()}
	if err := s.items.Add(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) Remove(ctx context.Context, userID, bookID uuid.UUID) error {
	return s.items.Remove(ctx, userID, bookID)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	return s.items.List(ctx, userID)
}
