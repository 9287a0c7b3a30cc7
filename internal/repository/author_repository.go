package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
)

type AuthorRepository struct {
	db *sqlx.DB
}

func NewAuthorRepository(db *sqlx.DB) *AuthorRepository {
	return &AuthorRepository{db: db}
}

func (r *AuthorRepository) Create(ctx context.Context, a *models.Author) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO authors (id, name, bio) VALUES (:id, :name, :bio)`, a)
	if err != nil {
		return classify(err, "author "+a.Name+" already exists", "insertion auteur")
	}
	return nil
}

func (r *AuthorRepository) Update(ctx context.Context, a *models.Author) error {
	res, err := r.db.NamedExecContext(ctx, `UPDATE authors SET name = :name, bio = :bio WHERE id = :id`, a)
	if err != nil {
		return classify(err, "author "+a.Name+" already exists", "mise à jour auteur")
	}
	return expectOne(res, "author %s not found", a.ID)
}

func (r *AuthorRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	var a models.Author
	err := r.db.GetContext(ctx, &a, `SELECT id, name, bio FROM authors WHERE id = $1`, id)
	if isNoRows(err) {
		return nil, apperr.NotFoundf("author %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "lecture auteur")
	}
	return &a, nil
}

func (r *AuthorRepository) List(ctx context.Context) ([]models.Author, error) {
	authors := []models.Author{}
	if err := r.db.SelectContext(ctx, &authors, `SELECT id, name, bio FROM authors ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "liste auteurs")
	}
	return authors, nil
}

// Delete échoue en Conflict si des livres référencent encore l'auteur.
func (r *AuthorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return classify(err, "author is referenced by books", "suppression auteur")
	}
	return expectOne(res, "author %s not found", id)
}

type GenreRepository struct {
	db *sqlx.DB
}

func NewGenreRepository(db *sqlx.DB) *GenreRepository {
	return &GenreRepository{db: db}
}

func (r *GenreRepository) Create(ctx context.Context, g *models.Genre) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO genres (id, name) VALUES (:id, :name)`, g)
	if err != nil {
		return classify(err, "genre "+g.Name+" already exists", "insertion genre")
	}
	return nil
}

func (r *GenreRepository) Update(ctx context.Context, g *models.Genre) error {
	res, err := r.db.NamedExecContext(ctx, `UPDATE genres SET name = :name WHERE id = :id`, g)
	if err != nil {
		return classify(err, "genre "+g.Name+" already exists", "mise à jour genre")
	}
	return expectOne(res, "genre %s not found", g.ID)
}

func (r *GenreRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Genre, error) {
	var g models.Genre
	err := r.db.GetContext(ctx, &g, `SELECT id, name FROM genres WHERE id = $1`, id)
	if isNoRows(err) {
		return nil, apperr.NotFoundf("genre %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "lecture genre")
	}
	return &g, nil
}

func (r *GenreRepository) List(ctx context.Context) ([]models.Genre, error) {
	genres := []models.Genre{}
	if err := r.db.SelectContext(ctx, &genres, `SELECT id, name FROM genres ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "liste genres")
	}
	return genres, nil
}

func (r *GenreRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM genres WHERE id = $1`, id)
	if err != nil {
		return classify(err, "genre is referenced by books", "suppression genre")
	}
	return expectOne(res, "genre %s not found", id)
}
