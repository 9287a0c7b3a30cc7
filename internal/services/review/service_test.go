package review

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
)

type memReviews struct {
	items map[uuid.UUID]models.Review
}

func (m *memReviews) Create(_ context.Context, rv *models.Review) error {
	for _, existing := range m.items {
		if existing.UserID == rv.UserID && existing.BookID == rv.BookID {
			return apperr.Conflictf("you already reviewed this book")
		}
	}
	m.items[rv.ID] = *rv
	return nil
}

func (m *memReviews) FindByID(_ context.Context, id uuid.UUID) (*models.Review, error) {
	rv, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFoundf("review %s not found", id)
	}
	return &rv, nil
}

func (m *memReviews) ListByBook(_ context.Context, bookID uuid.UUID) ([]models.Review, error) {
	out := []models.Review{}
	for _, rv := range m.items {
		if rv.BookID == bookID {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (m *memReviews) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return apperr.NotFoundf("review %s not found", id)
	}
	delete(m.items, id)
	return nil
}

type memBooks map[uuid.UUID]models.Book

func (m memBooks) FindByID(_ context.Context, id uuid.UUID) (*models.Book, error) {
	b, ok := m[id]
	if !ok {
		return nil, apperr.NotFoundf("book %s not found", id)
	}
	return &b, nil
}

type memUsers map[uuid.UUID]models.User

func (m memUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, apperr.NotFoundf("user %s not found", id)
	}
	return &u, nil
}

func setup() (*Service, models.User, models.User, models.Book) {
	alice := models.User{ID: uuid.New(), Name: "Alice"}
	bob := models.User{ID: uuid.New(), Name: "Bob"}
	book := models.Book{ID: uuid.New(), Title: "Dune"}
	svc := NewService(
		&memReviews{items: map[uuid.UUID]models.Review{}},
		memBooks{book.ID: book},
		memUsers{alice.ID: alice, bob.ID: bob},
	)
	return svc, alice, bob, book
}

func TestCreate(t *testing.T) {
	svc, alice, _, book := setup()
	ctx := context.Background()

	rv, err := svc.Create(ctx, alice.ID, book.ID, 5, "  Chef-d'oeuvre  ")
	require.NoError(t, err)
	assert.Equal(t, "Alice", rv.UserName)
	assert.Equal(t, "Chef-d'oeuvre", rv.Comment)

	_, err = svc.Create(ctx, alice.ID, book.ID, 4, "encore")
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
}

func TestCreate_Validation(t *testing.T) {
	svc, alice, _, book := setup()
	ctx := context.Background()

	_, err := svc.Create(ctx, alice.ID, book.ID, 0, "")
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))
	_, err = svc.Create(ctx, alice.ID, book.ID, 6, "")
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))
	_, err = svc.Create(ctx, alice.ID, book.ID, 3, strings.Repeat("é", MaxCommentLength+1))
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))

	_, err = svc.Create(ctx, alice.ID, uuid.New(), 3, "")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
	_, err = svc.Create(ctx, uuid.New(), book.ID, 3, "")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestForBook_Average(t *testing.T) {
	svc, alice, bob, book := setup()
	ctx := context.Background()

	empty, err := svc.ForBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Zero(t, empty.AverageRating)
	assert.Zero(t, empty.TotalReviews)

	_, err = svc.Create(ctx, alice.ID, book.ID, 5, "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob.ID, book.ID, 4, "")
	require.NoError(t, err)

	got, err := svc.ForBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalReviews)
	assert.InDelta(t, 4.5, got.AverageRating, 0.001)
}

func TestAverage_Rounds(t *testing.T) {
	reviews := []models.Review{{Rating: 5}, {Rating: 4}, {Rating: 4}}
	assert.InDelta(t, 4.3, Average(reviews), 0.001)
}

func TestDelete_OwnerOrAdmin(t *testing.T) {
	svc, alice, bob, book := setup()
	ctx := context.Background()

	rv, err := svc.Create(ctx, alice.ID, book.ID, 5, "")
	require.NoError(t, err)

	err = svc.Delete(ctx, bob.ID, false, rv.ID)
	assert.True(t, apperr.IsKind(err, apperr.Forbidden))

	require.NoError(t, svc.Delete(ctx, bob.ID, true, rv.ID))

	err = svc.Delete(ctx, alice.ID, false, rv.ID)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}
