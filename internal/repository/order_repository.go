package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
)

const orderColumns = `id, user_id, order_date, status, total_amount, claim_code, updated_at`

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create insère la commande et ses lignes dans une seule transaction.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES (:id, :user_id, :order_date, :status, :total_amount, :claim_code, :updated_at)`, o)
		if err != nil {
			return classify(err, "claim code collision", "insertion commande")
		}

		for i := range o.Lines {
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO order_lines (id, order_id, book_id, title, quantity, unit_price)
				VALUES (:id, :order_id, :book_id, :title, :quantity, :unit_price)`, o.Lines[i]); err != nil {
				return errors.Wrap(err, "insertion ligne de commande")
			}
		}
		return nil
	})
}

func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := r.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if isNoRows(err) {
		return nil, apperr.NotFoundf("order %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "lecture commande")
	}

	if o.Lines, err = r.linesFor(ctx, r.db, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM orders ORDER BY order_date DESC`); err != nil {
		return nil, errors.Wrap(err, "liste commandes")
	}
	return orders, r.attachLines(ctx, orders)
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY order_date DESC`, userID); err != nil {
		return nil, errors.Wrap(err, "liste commandes utilisateur")
	}
	return orders, r.attachLines(ctx, orders)
}

// UpdateStatus verrouille la ligne (FOR UPDATE), laisse apply modifier la commande
// puis écrit le nouveau statut dans la même transaction.
// Si apply échoue, rien n'est écrit et son erreur est retournée telle quelle.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, apply func(o *models.Order) error) (*models.Order, error) {
	var o models.Order
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
		if isNoRows(err) {
			return apperr.NotFoundf("order %s not found", id)
		}
		if err != nil {
			return errors.Wrap(err, "verrouillage commande")
		}
		if o.Lines, err = r.linesFor(ctx, tx, o.ID); err != nil {
			return err
		}

		if err := apply(&o); err != nil {
			return err
		}
		o.UpdatedAt = time.Now().UTC()

		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`, o.Status, o.UpdatedAt, o.ID)
		return errors.Wrap(err, "mise à jour statut")
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) linesFor(ctx context.Context, q queryer, orderID uuid.UUID) ([]models.OrderLine, error) {
	lines := []models.OrderLine{}
	if err := q.SelectContext(ctx, &lines, `
		SELECT id, order_id, book_id, title, quantity, unit_price
		FROM order_lines WHERE order_id = $1 ORDER BY title`, orderID); err != nil {
		return nil, errors.Wrap(err, "lecture lignes de commande")
	}
	return lines, nil
}

// attachLines charge les lignes de toutes les commandes en une requête.
func (r *OrderRepository) attachLines(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Lines = []models.OrderLine{}
	}

	query, args, err := sqlx.In(`
		SELECT id, order_id, book_id, title, quantity, unit_price
		FROM order_lines WHERE order_id IN (?) ORDER BY title`, ids)
	if err != nil {
		return errors.Wrap(err, "construction requête lignes")
	}

	var lines []models.OrderLine
	if err := r.db.SelectContext(ctx, &lines, r.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "lecture lignes de commande")
	}
	for _, l := range lines {
		i := index[l.OrderID]
		orders[i].Lines = append(orders[i].Lines, l)
	}
	return nil
}
