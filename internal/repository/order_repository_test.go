package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/database"
	"bookstore_back_end/internal/models"
)

// openTestDB se connecte à TEST_DATABASE_URL et applique les migrations.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL non défini")
	}
	require.NoError(t, database.MigrateUp(dsn))

	db, err := sqlx.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedBook(t *testing.T, db *sqlx.DB, price string) (*models.User, *models.Book) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	user := &models.User{ID: uuid.New(), Name: "Reader", Email: uuid.NewString() + "@test.local",
		Role: models.RoleCustomer, Provider: models.ProviderLocal, CreatedAt: now}
	require.NoError(t, NewUserRepository(db).Create(ctx, user))

	author := &models.Author{ID: uuid.New(), Name: "Author " + uuid.NewString()}
	require.NoError(t, NewAuthorRepository(db).Create(ctx, author))
	genre := &models.Genre{ID: uuid.New(), Name: "Genre " + uuid.NewString()}
	require.NoError(t, NewGenreRepository(db).Create(ctx, genre))

	book := &models.Book{ID: uuid.New(), Title: "Dune", ISBN: uuid.NewString()[:13],
		Price: decimal.RequireFromString(price), Stock: 5, AuthorID: author.ID, GenreID: genre.ID,
		CreatedAt: now, UpdatedAt: now}
	require.NoError(t, NewBookRepository(db).Create(ctx, book))
	return user, book
}

func newOrder(userID uuid.UUID, book *models.Book, qty int, code string) *models.Order {
	now := time.Now().UTC()
	o := &models.Order{ID: uuid.New(), UserID: userID, OrderDate: now, UpdatedAt: now,
		Status: models.StatusPending, ClaimCode: code}
	line := models.OrderLine{ID: uuid.New(), OrderID: o.ID, BookID: book.ID, Title: book.Title,
		Quantity: qty, UnitPrice: book.Price}
	o.Lines = []models.OrderLine{line}
	o.TotalAmount = line.Subtotal()
	return o
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user, book := seedBook(t, db, "100.00")
	repo := NewOrderRepository(db)

	o := newOrder(user.ID, book, 2, randomCode())
	require.NoError(t, repo.Create(ctx, o))

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("200.00")))
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 2, got.Lines[0].Quantity)

	list, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Lines, 1)
}

func TestOrderRepository_DuplicateClaimCodeLeavesNoRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user, book := seedBook(t, db, "10.00")
	repo := NewOrderRepository(db)

	code := randomCode()
	require.NoError(t, repo.Create(ctx, newOrder(user.ID, book, 1, code)))

	dup := newOrder(user.ID, book, 1, code)
	err := repo.Create(ctx, dup)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	var lines int
	require.NoError(t, db.GetContext(ctx, &lines, `SELECT count(*) FROM order_lines WHERE order_id = $1`, dup.ID))
	assert.Zero(t, lines)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	user, book := seedBook(t, db, "10.00")
	repo := NewOrderRepository(db)

	o := newOrder(user.ID, book, 1, randomCode())
	require.NoError(t, repo.Create(ctx, o))

	transition := func(next models.Status) func(*models.Order) error {
		return func(o *models.Order) error {
			if err := o.Status.TransitionError(next); err != nil {
				return err
			}
			o.Status = next
			return nil
		}
	}

	updated, err := repo.UpdateStatus(ctx, o.ID, transition(models.StatusCancelled))
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)

	_, err = repo.UpdateStatus(ctx, o.ID, transition(models.StatusDelivered))
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)

	_, err = repo.UpdateStatus(ctx, uuid.New(), transition(models.StatusCancelled))
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestBookRepository_DiscountRestoresPrice(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, book := seedBook(t, db, "20.00")
	repo := NewBookRepository(db)

	now := time.Now().UTC()
	d := &models.Discount{ID: uuid.New(), BookID: book.ID, Percent: 25,
		StartsAt: now, EndsAt: now.Add(time.Hour), CreatedAt: now}
	require.NoError(t, repo.ApplyDiscount(ctx, d))

	discounted, err := repo.FindByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "15.00", discounted.Price.StringFixed(2))

	again := &models.Discount{ID: uuid.New(), BookID: book.ID, Percent: 10,
		StartsAt: now, EndsAt: now.Add(time.Hour), CreatedAt: now}
	assert.Equal(t, apperr.Conflict, apperr.KindOf(repo.ApplyDiscount(ctx, again)))

	_, err = repo.RemoveDiscount(ctx, d.ID)
	require.NoError(t, err)
	restored, err := repo.FindByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "20.00", restored.Price.StringFixed(2))
}

func randomCode() string {
	return uuid.NewString()[24:36]
}
