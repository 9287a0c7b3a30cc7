package announcement

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
)

type memRepo struct {
	items []models.Announcement
}

func (m *memRepo) Create(_ context.Context, a *models.Announcement) error {
	m.items = append(m.items, *a)
	return nil
}

func (m *memRepo) List(_ context.Context) ([]models.Announcement, error) {
	out := append([]models.Announcement(nil), m.items...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, a := range m.items {
		if a.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return apperr.NotFoundf("announcement %s not found", id)
}

func TestAnnouncements(t *testing.T) {
	svc := NewService(&memRepo{})
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	_, err := svc.Create(ctx, "  ", "body")
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))
	_, err = svc.Create(ctx, strings.Repeat("x", MaxTitleLength+1), "")
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))

	first, err := svc.Create(ctx, "Fermeture exceptionnelle", "Le 1er mai")
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	second, err := svc.Create(ctx, "Dédicace samedi", "")
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	require.NoError(t, svc.Delete(ctx, first.ID))
	assert.True(t, apperr.IsKind(svc.Delete(ctx, first.ID), apperr.NotFound))
}
