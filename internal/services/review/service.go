package review

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
)

const MaxCommentLength = 1000

type Repository interface {
	Create(ctx context.Context, rv *models.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListByBook(ctx context.Context, bookID uuid.UUID) ([]models.Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type BookReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
}

type UserReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type Service struct {
	reviews Repository
	books   BookReader
	users   UserReader
	now     func() time.Time
}

func NewService(reviews Repository, books BookReader, users UserReader) *Service {
	return &Service{
		reviews: reviews,
		books:   books,
		users:   users,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create : un seul avis par utilisateur et par livre, le doublon remonte en Conflict.
func (s *Service) Create(ctx context.Context, userID, bookID uuid.UUID, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperr.InvalidArgumentf("rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return nil, apperr.InvalidArgumentf("comment cannot exceed %d characters", MaxCommentLength)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.books.FindByID(ctx, bookID); err != nil {
		return nil, err
	}

	rv := &models.Review{
		ID:        uuid.New(),
		BookID:    bookID,
		UserID:    userID,
		UserName:  user.Name,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: s.now(),
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		return nil, err
	}
	return rv, nil
}

// ForBook renvoie les avis du livre et la note moyenne arrondie au dixième.
func (s *Service) ForBook(ctx context.Context, bookID uuid.UUID) (*models.BookReviews, error) {
	if _, err := s.books.FindByID(ctx, bookID); err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return &models.BookReviews{
		BookID:        bookID,
		AverageRating: Average(reviews),
		TotalReviews:  len(reviews),
		Reviews:       reviews,
	}, nil
}

// Delete est permis à l'auteur de l'avis et aux administrateurs.
func (s *Service) Delete(ctx context.Context, actorID uuid.UUID, isAdmin bool, reviewID uuid.UUID) error {
	rv, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if rv.UserID != actorID && !isAdmin {
		return apperr.Forbiddenf("you can only delete your own reviews")
	}
	return s.reviews.Delete(ctx, reviewID)
}

func Average(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(reviews))*10) / 10
}
