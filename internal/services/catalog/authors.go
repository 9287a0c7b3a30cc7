package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
)

func (s *Service) ListAuthors(ctx context.Context) ([]models.Author, error) {
	return s.authors.List(ctx)
}

func (s *Service) GetAuthor(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	return s.authors.FindByID(ctx, id)
}

func (s *Service) CreateAuthor(ctx context.Context, name, bio string) (*models.Author, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidArgumentf("author name is required")
	}
	a := &models.Author{ID: uuid.New(), Name: name, Bio: bio}
	if err := s.authors.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) UpdateAuthor(ctx context.Context, id uuid.UUID, name, bio string) (*models.Author, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidArgumentf("author name is required")
	}
	a := &models.Author{ID: id, Name: name, Bio: bio}
	if err := s.authors.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAuthor échoue en Conflict si des livres référencent encore l'auteur.
func (s *Service) DeleteAuthor(ctx context.Context, id uuid.UUID) error {
	return s.authors.Delete(ctx, id)
}

func (s *Service) ListGenres(ctx context.Context) ([]models.Genre, error) {
	return s.genres.List(ctx)
}

func (s *Service) GetGenre(ctx context.Context, id uuid.UUID) (*models.Genre, error) {
	return s.genres.FindByID(ctx, id)
}

func (s *Service) CreateGenre(ctx context.Context, name string) (*models.Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidArgumentf("genre name is required")
	}
	g := &models.Genre{ID: uuid.New(), Name: name}
	if err := s.genres.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) UpdateGenre(ctx context.Context, id uuid.UUID, name string) (*models.Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidArgumentf("genre name is required")
	}
	g := &models.Genre{ID: id, Name: name}
	if err := s.genres.Update(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) DeleteGenre(ctx context.Context, id uuid.UUID) error {
	return s.genres.Delete(ctx, id)
}
