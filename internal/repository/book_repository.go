package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
)

const bookSelect = `
	SELECT b.id, b.title, b.isbn, b.description, b.price, b.stock,
	       b.author_id, a.name AS author_name, b.genre_id, g.name AS genre_name,
	       b.cover_url, b.created_at, b.updated_at
	FROM books b
	JOIN authors a ON a.id = b.author_id
	JOIN genres g ON g.id = b.genre_id`

type BookRepository struct {
	db *sqlx.DB
}

func NewBookRepository(db *sqlx.DB) *BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var b models.Book
	err := r.db.GetContext(ctx, &b, bookSelect+` WHERE b.id = $1`, id)
	if isNoRows(err) {
		return nil, apperr.NotFoundf("book %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "lecture livre")
	}
	return &b, nil
}

func (r *BookRepository) List(ctx context.Context, f models.BookFilter) ([]models.Book, error) {
	var (
		where []string
		args  []any
	)
	if f.GenreID != nil {
		args = append(args, *f.GenreID)
		where = append(where, fmt.Sprintf("b.genre_id = $%d", len(args)))
	}
	if f.AuthorID != nil {
		args = append(args, *f.AuthorID)
		where = append(where, fmt.Sprintf("b.author_id = $%d", len(args)))
	}
	if f.Title != "" {
		args = append(args, "%"+f.Title+"%")
		where = append(where, fmt.Sprintf("b.title ILIKE $%d", len(args)))
	}

	query := bookSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY b.title"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	books := []models.Book{}
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, errors.Wrap(err, "liste livres")
	}
	return books, nil
}

func (r *BookRepository) Create(ctx context.Context, b *models.Book) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO books (id, title, isbn, description, price, stock, author_id, genre_id, cover_url, created_at, updated_at)
		VALUES (:id, :title, :isbn, :description, :price, :stock, :author_id, :genre_id, :cover_url, :created_at, :updated_at)`, b)
	if err != nil {
		return classify(err, "isbn already exists or unknown author/genre", "insertion livre")
	}
	return nil
}

func (r *BookRepository) Update(ctx context.Context, b *models.Book) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE books SET title = :title, isbn = :isbn, description = :description, price = :price,
		       stock = :stock, author_id = :author_id, genre_id = :genre_id, updated_at = :updated_at
		WHERE id = :id`, b)
	if err != nil {
		return classify(err, "isbn already exists or unknown author/genre", "mise à jour livre")
	}
	return expectOne(res, "book %s not found", b.ID)
}

func (r *BookRepository) SetCover(ctx context.Context, id uuid.UUID, url string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE books SET cover_url = $1, updated_at = $2 WHERE id = $3`, url, time.Now().UTC(), id)
	if err != nil {
		return errors.Wrap(err, "mise à jour couverture")
	}
	return expectOne(res, "book %s not found", id)
}

func (r *BookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return classify(err, "book is still referenced", "suppression livre")
	}
	return expectOne(res, "book %s not found", id)
}

// =============================================
// REMISES
// =============================================

const discountColumns = `id, book_id, percent, original_price, starts_at, ends_at, created_at`

// ApplyDiscount enregistre la remise et réécrit le prix du livre dans la même transaction.
func (r *BookRepository) ApplyDiscount(ctx context.Context, d *models.Discount) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var price decimal.Decimal
		err := tx.GetContext(ctx, &price, `SELECT price FROM books WHERE id = $1 FOR UPDATE`, d.BookID)
		if isNoRows(err) {
			return apperr.NotFoundf("book %s not found", d.BookID)
		}
		if err != nil {
			return errors.Wrap(err, "verrouillage livre")
		}
		d.OriginalPrice = price

		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO discounts (`+discountColumns+`)
			VALUES (:id, :book_id, :percent, :original_price, :starts_at, :ends_at, :created_at)`, d); err != nil {
			return classify(err, "book already has an active discount", "insertion remise")
		}

		_, err = tx.ExecContext(ctx, `UPDATE books SET price = $1, updated_at = $2 WHERE id = $3`,
			d.DiscountedPrice(), time.Now().UTC(), d.BookID)
		return errors.Wrap(err, "application prix remisé")
	})
}

// RemoveDiscount supprime la remise et restaure le prix d'origine.
func (r *BookRepository) RemoveDiscount(ctx context.Context, id uuid.UUID) (*models.Discount, error) {
	var d models.Discount
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &d, `DELETE FROM discounts WHERE id = $1 RETURNING `+discountColumns, id)
		if isNoRows(err) {
			return apperr.NotFoundf("discount %s not found", id)
		}
		if err != nil {
			return errors.Wrap(err, "suppression remise")
		}
		_, err = tx.ExecContext(ctx, `UPDATE books SET price = $1, updated_at = $2 WHERE id = $3`,
			d.OriginalPrice, time.Now().UTC(), d.BookID)
		return errors.Wrap(err, "restauration prix")
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *BookRepository) ListDiscounts(ctx context.Context) ([]models.Discount, error) {
	discounts := []models.Discount{}
	if err := r.db.SelectContext(ctx, &discounts,
		`SELECT `+discountColumns+` FROM discounts ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "liste remises")
	}
	return discounts, nil
}

func (r *BookRepository) FindDiscountByBook(ctx context.Context, bookID uuid.UUID) (*models.Discount, error) {
	var d models.Discount
	err := r.db.GetContext(ctx, &d, `SELECT `+discountColumns+` FROM discounts WHERE book_id = $1`, bookID)
	if isNoRows(err) {
		return nil, apperr.NotFoundf("no discount for book %s", bookID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "lecture remise")
	}
	return &d, nil
}
