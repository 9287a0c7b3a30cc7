package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
)

type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *models.Review) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO reviews (id, book_id, user_id, rating, comment, created_at)
		VALUES (:id, :book_id, :user_id, :rating, :comment, :created_at)`, rv)
	if err != nil {
		return classify(err, "you already reviewed this book", "insertion avis")
	}
	return nil
}

func (r *ReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var rv models.Review
	err := r.db.GetContext(ctx, &rv, `
		SELECT r.id, r.book_id, r.user_id, u.name AS user_name, r.rating, r.comment, r.created_at
		FROM reviews r JOIN users u ON u.id = r.user_id
		WHERE r.id = $1`, id)
	if isNoRows(err) {
		return nil, apperr.NotFoundf("review %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "lecture avis")
	}
	return &rv, nil
}

func (r *ReviewRepository) ListByBook(ctx context.Context, bookID uuid.UUID) ([]models.Review, error) {
	reviews := []models.Review{}
	if err := r.db.SelectContext(ctx, &reviews, `
		SELECT r.id, r.book_id, r.user_id, u.name AS user_name, r.rating, r.comment, r.created_at
		FROM reviews r JOIN users u ON u.id = r.user_id
		WHERE r.book_id = $1
		ORDER BY r.created_at DESC`, bookID); err != nil {
		return nil, errors.Wrap(err, "liste avis")
	}
	return reviews, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "suppression avis")
	}
	return expectOne(res, "review %s not found", id)
}
