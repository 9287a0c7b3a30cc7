package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"bookstore_back_end/internal/models"
)

type WishlistRepository struct {
	db *sqlx.DB
}

func NewWishlistRepository(db *sqlx.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

func (r *WishlistRepository) Add(ctx context.Context, item *models.WishlistItem) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO wishlist_items (user_id, book_id, added_at)
		VALUES (:user_id, :book_id, :added_at)`, item)
	if err != nil {
		return classify(err, "book already in wishlist", "ajout wishlist")
	}
	return nil
}

func (r *WishlistRepository) Remove(ctx context.Context, userID, bookID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		return errors.Wrap(err, "suppression wishlist")
	}
	return expectOne(res, "book %s not in wishlist", bookID)
}

func (r *WishlistRepository) List(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	items := []models.WishlistItem{}
	if err := r.db.SelectContext(ctx, &items, `
		SELECT w.user_id, w.book_id, b.title, w.added_at
		FROM wishlist_items w JOIN books b ON b.id = w.book_id
		WHERE w.user_id = $1
		ORDER BY w.added_at DESC`, userID); err != nil {
		return nil, errors.Wrap(err, "liste wishlist")
	}
	return items, nil
}
