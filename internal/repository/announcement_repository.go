package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"bookstore_back_end/internal/models"
)

type AnnouncementRepository struct {
	db *sqlx.DB
}

func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO announcements (id, title, body, created_at)
		VALUES (:id, :title, :body, :created_at)`, a)
	return errors.Wrap(err, "insertion annonce")
}

func (r *AnnouncementRepository) List(ctx context.Context) ([]models.Announcement, error) {
	items := []models.Announcement{}
	if err := r.db.SelectContext(ctx, &items,
		`SELECT id, title, body, created_at FROM announcements ORDER BY created_at DESC`); err != nil {
		return nil, errors.Wrap(err, "liste annonces")
	}
	return items, nil
}

func (r *AnnouncementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "suppression annonce")
	}
	return expectOne(res, "announcement %s not found", id)
}
