package repository

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"bookstore_back_end/internal/apperr"
)

// Codes SQLSTATE postgres utilisés pour classer les erreurs.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// queryer est satisfait par *sqlx.DB et *sqlx.Tx.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// classify transforme les violations de contraintes en Conflict, le reste est enveloppé.
func classify(err error, conflictMsg string, msg string) error {
	switch pgCode(err) {
	case pgUniqueViolation, pgForeignKeyViolation:
		return &apperr.Error{Kind: apperr.Conflict, Msg: conflictMsg, Err: err}
	}
	return errors.Wrap(err, msg)
}

// withTx exécute fn dans une transaction, rollback si fn échoue.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "début transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// expectOne retourne NotFound si aucune ligne n'a été affectée.
func expectOne(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "lignes affectées")
	}
	if n == 0 {
		return apperr.NotFoundf(format, args...)
	}
	return nil
}
