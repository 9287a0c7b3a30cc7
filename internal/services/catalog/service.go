package catalog

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
	"bookstore_back_end/internal/search"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type BookRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	List(ctx context.Context, f models.BookFilter) ([]models.Book, error)
	Create(ctx context.Context, b *models.Book) error
	Update(ctx context.Context, b *models.Book) error
	SetCover(ctx context.Context, id uuid.UUID, url string) error
	Delete(ctx context.Context, id uuid.UUID) error
	ApplyDiscount(ctx context.Context, d *models.Discount) error
	RemoveDiscount(ctx context.Context, id uuid.UUID) (*models.Discount, error)
	ListDiscounts(ctx context.Context) ([]models.Discount, error)
	FindDiscountByBook(ctx context.Context, bookID uuid.UUID) (*models.Discount, error)
}

type AuthorRepository interface {
	Create(ctx context.Context, a *models.Author) error
	Update(ctx context.Context, a *models.Author) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Author, error)
	List(ctx context.Context) ([]models.Author, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type GenreRepository interface {
	Create(ctx context.Context, g *models.Genre) error
	Update(ctx context.Context, g *models.Genre) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Genre, error)
	List(ctx context.Context) ([]models.Genre, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SearchIndex est optionnel : nil quand Elasticsearch n'est pas configuré.
type SearchIndex interface {
	Index(ctx context.Context, b models.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, limit int) ([]search.Hit, error)
}

type CoverStore interface {
	PutCover(ctx context.Context, bookID uuid.UUID, filename string, r io.Reader, size int64, contentType string) (string, error)
}

type Service struct {
	books   BookRepository
	authors AuthorRepository
	genres  GenreRepository
	index   SearchIndex
	covers  CoverStore
	now     func() time.Time
	log     *zap.Logger
}

func NewService(
	books BookRepository,
	authors AuthorRepository,
	genres GenreRepository,
	index SearchIndex,
	covers CoverStore,
	log *zap.Logger,
) *Service {
	return &Service{
		books:   books,
		authors: authors,
		genres:  genres,
		index:   index,
		covers:  covers,
		now:     func() time.Time { return time.Now().UTC() },
		log:     log,
	}
}

// =============================================
// LIVRES
// =============================================

func (s *Service) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	return s.books.FindByID(ctx, id)
}

func (s *Service) ListBooks(ctx context.Context, f models.BookFilter) ([]models.Book, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Title = strings.TrimSpace(f.Title)
	return s.books.List(ctx, f)
}

func (s *Service) CreateBook(ctx context.Context, in models.BookInput) (*models.Book, error) {
	if err := s.validateBook(ctx, in); err != nil {
		return nil, err
	}

	now := s.now()
	b := &models.Book{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(in.Title),
		ISBN:        strings.TrimSpace(in.ISBN),
		Description: in.Description,
		Price:       in.Price.Round(2),
		Stock:       in.Stock,
		AuthorID:    in.AuthorID,
		GenreID:     in.GenreID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.books.Create(ctx, b); err != nil {
		return nil, err
	}

	s.log.Info("📚 Livre créé", zap.String("book_id", b.ID.String()), zap.String("title", b.Title))
	return s.reload(ctx, b.ID)
}

// UpdateBook refuse de changer le prix tant qu'une remise est active,
// sinon le retrait de la remise restaurerait un prix périmé.
func (s *Service) UpdateBook(ctx context.Context, id uuid.UUID, in models.BookInput) (*models.Book, error) {
	current, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateBook(ctx, in); err != nil {
		return nil, err
	}

	price := in.Price.Round(2)
	if !price.Equal(current.Price) {
		_, err := s.books.FindDiscountByBook(ctx, id)
		switch {
		case err == nil:
			return nil, apperr.InvalidStatef("remove the active discount before changing the price")
		case !apperr.IsKind(err, apperr.NotFound):
			return nil, err
		}
	}

	current.Title = strings.TrimSpace(in.Title)
	current.ISBN = strings.TrimSpace(in.ISBN)
	current.Description = in.Description
	current.Price = price
	current.Stock = in.Stock
	current.AuthorID = in.AuthorID
	current.GenreID = in.GenreID
	current.UpdatedAt = s.now()
	if err := s.books.Update(ctx, current); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *Service) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if err := s.books.Delete(ctx, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Delete(ctx, id); err != nil {
			s.log.Warn("⚠️ Suppression index échouée", zap.String("book_id", id.String()), zap.Error(err))
		}
	}
	s.log.Info("🗑️ Livre supprimé", zap.String("book_id", id.String()))
	return nil
}

// UploadCover envoie l'image dans MinIO et enregistre son URL publique.
func (s *Service) UploadCover(ctx context.Context, id uuid.UUID, filename string, r io.Reader, size int64, contentType string) (*models.Book, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperr.InvalidArgumentf("cover must be an image, got %q", contentType)
	}
	if size <= 0 {
		return nil, apperr.InvalidArgumentf("cover file is empty")
	}
	if _, err := s.books.FindByID(ctx, id); err != nil {
		return nil, err
	}

	url, err := s.covers.PutCover(ctx, id, filename, r, size, contentType)
	if err != nil {
		return nil, apperr.Dependency(err, "cover upload failed")
	}
	if err := s.books.SetCover(ctx, id, url); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *Service) SearchBooks(ctx context.Context, query string, limit int) ([]search.Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.InvalidArgumentf("search query is required")
	}
	if s.index == nil {
		return nil, apperr.Dependency(nil, "search is not configured")
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	hits, err := s.index.Search(ctx, query, limit)
	if err != nil {
		return nil, apperr.Dependency(err, "search failed")
	}
	return hits, nil
}

func (s *Service) validateBook(ctx context.Context, in models.BookInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.InvalidArgumentf("title is required")
	}
	if strings.TrimSpace(in.ISBN) == "" {
		return apperr.InvalidArgumentf("isbn is required")
	}
	if in.Price.IsNegative() {
		return apperr.InvalidArgumentf("price cannot be negative")
	}
	if in.Stock < 0 {
		return apperr.InvalidArgumentf("stock cannot be negative")
	}
	if _, err := s.authors.FindByID(ctx, in.AuthorID); err != nil {
		return err
	}
	if _, err := s.genres.FindByID(ctx, in.GenreID); err != nil {
		return err
	}
	return nil
}

// reload relit le livre (noms d'auteur et de genre) puis le réindexe.
func (s *Service) reload(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	b, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, *b)
	return b, nil
}

func (s *Service) reindex(ctx context.Context, b models.Book) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(ctx, b); err != nil {
		s.log.Warn("⚠️ Indexation livre échouée", zap.String("book_id", b.ID.String()), zap.Error(err))
	}
}
