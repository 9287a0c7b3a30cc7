package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
	"bookstore_back_end/internal/search"
)

type fixture struct {
	svc    *Service
	books  *memBookRepository
	index  *recordingIndex
	covers *memCovers
	author models.Author
	genre  models.Genre
	now    time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		author: models.Author{ID: uuid.New(), Name: "Frank Herbert"},
		genre:  models.Genre{ID: uuid.New(), Name: "Science-fiction"},
		index:  newRecordingIndex(),
		covers: &memCovers{},
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	authors := &memAuthors{items: map[uuid.UUID]models.Author{f.author.ID: f.author}}
	genres := &memGenres{items: map[uuid.UUID]models.Genre{f.genre.ID: f.genre}}
	f.books = newMemBookRepository(authors, genres)
	authors.used = func(id uuid.UUID) bool {
		for _, b := range f.books.books {
			if b.AuthorID == id {
				return true
			}
		}
		return false
	}

	f.svc = NewService(f.books, authors, genres, f.index, f.covers, zap.NewNop())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) input(title, isbn, price string) models.BookInput {
	return models.BookInput{
		Title:    title,
		ISBN:     isbn,
		Price:    decimal.RequireFromString(price),
		Stock:    3,
		AuthorID: f.author.ID,
		GenreID:  f.genre.ID,
	}
}

func (f *fixture) createBook(t *testing.T) *models.Book {
	t.Helper()
	b, err := f.svc.CreateBook(context.Background(), f.input("Dune", "9780441013593", "20.00"))
	require.NoError(t, err)
	return b
}

func TestCreateBook_IndexesWithNames(t *testing.T) {
	f := setup(t)
	b := f.createBook(t)

	assert.Equal(t, "Frank Herbert", b.AuthorName)
	assert.Equal(t, "Science-fiction", b.GenreName)
	require.Contains(t, f.index.indexed, b.ID)
	assert.Equal(t, "Dune", f.index.indexed[b.ID].Title)
}

func TestCreateBook_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := map[string]func(in *models.BookInput){
		"empty title":    func(in *models.BookInput) { in.Title = "  " },
		"empty isbn":     func(in *models.BookInput) { in.ISBN = "" },
		"negative price": func(in *models.BookInput) { in.Price = decimal.NewFromInt(-1) },
		"negative stock": func(in *models.BookInput) { in.Stock = -2 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := f.input("Dune", "isbn-"+name, "10.00")
			mutate(&in)
			_, err := f.svc.CreateBook(ctx, in)
			assert.True(t, apperr.IsKind(err, apperr.InvalidArgument), err)
		})
	}

	in := f.input("Dune", "x", "10.00")
	in.AuthorID = uuid.New()
	_, err := f.svc.CreateBook(ctx, in)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestCreateBook_IndexFailureIsNotFatal(t *testing.T) {
	f := setup(t)
	f.index.fail = true

	b, err := f.svc.CreateBook(context.Background(), f.input("Dune", "1", "20.00"))
	require.NoError(t, err)
	assert.Contains(t, f.books.books, b.ID)
}

func TestCreateBook_DuplicateISBN(t *testing.T) {
	f := setup(t)
	f.createBook(t)

	_, err := f.svc.CreateBook(context.Background(), f.input("Dune bis", "9780441013593", "20.00"))
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
}

func TestUpdateBook(t *testing.T) {
	f := setup(t)
	b := f.createBook(t)

	updated, err := f.svc.UpdateBook(context.Background(), b.ID, f.input("Dune (poche)", b.ISBN, "9.99"))
	require.NoError(t, err)
	assert.Equal(t, "Dune (poche)", updated.Title)
	assert.True(t, decimal.RequireFromString("9.99").Equal(updated.Price))

	_, err = f.svc.UpdateBook(context.Background(), uuid.New(), f.input("x", "y", "1"))
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestUpdateBook_PriceLockedByDiscount(t *testing.T) {
	f := setup(t)
	b := f.createBook(t)
	_, err := f.svc.ApplyDiscount(context.Background(), b.ID, 10, f.now.Add(24*time.Hour))
	require.NoError(t, err)

	_, err = f.svc.UpdateBook(context.Background(), b.ID, f.input("Dune", b.ISBN, "25.00"))
	assert.True(t, apperr.IsKind(err, apperr.InvalidState))

	// Le prix remisé reste modifiable sur les autres champs.
	_, err = f.svc.UpdateBook(context.Background(), b.ID, f.input("Dune", b.ISBN, "18.00"))
	assert.NoError(t, err)
}

func TestDeleteBook_RemovesFromIndex(t *testing.T) {
	f := setup(t)
	b := f.createBook(t)

	require.NoError(t, f.svc.DeleteBook(context.Background(), b.ID))
	assert.Equal(t, []uuid.UUID{b.ID}, f.index.deleted)

	err := f.svc.DeleteBook(context.Background(), b.ID)
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestListBooks_ClampsPaging(t *testing.T) {
	f := setup(t)
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateBook(context.Background(), f.input("Livre", uuid.NewString(), "5.00"))
		require.NoError(t, err)
	}

	books, err := f.svc.ListBooks(context.Background(), models.BookFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, books, 2)

	books, err = f.svc.ListBooks(context.Background(), models.BookFilter{Limit: 5000, GenreID: &f.genre.ID})
	require.NoError(t, err)
	assert.Len(t, books, 3)
}

func TestUploadCover(t *testing.T) {
	f := setup(t)
	b := f.createBook(t)

	_, err := f.svc.UploadCover(context.Background(), b.ID, "cover.pdf", strings.NewReader("x"), 1, "application/pdf")
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))

	updated, err := f.svc.UploadCover(context.Background(), b.ID, "cover.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://minio.local/bookstore/covers/"+b.ID.String()+"/cover.png", updated.CoverURL)
	assert.Equal(t, updated.CoverURL, f.index.indexed[b.ID].CoverURL)
}

func TestSearchBooks(t *testing.T) {
	f := setup(t)
	f.index.hits = []search.Hit{{BookDocument: search.BookDocument{Title: "Dune"}, Score: 2.5}}

	_, err := f.svc.SearchBooks(context.Background(), "   ", 10)
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))

	hits, err := f.svc.SearchBooks(context.Background(), " dune ", 10)
	require.NoError(t, err)
	assert.Equal(t, "dune", f.index.lastTerm)
	assert.Len(t, hits, 1)

	f.index.fail = true
	_, err = f.svc.SearchBooks(context.Background(), "dune", 10)
	assert.True(t, apperr.IsKind(err, apperr.DependencyFailure))
}

func TestSearchBooks_Disabled(t *testing.T) {
	f := setup(t)
	svc := NewService(f.books, nil, nil, nil, nil, zap.NewNop())

	_, err := svc.SearchBooks(context.Background(), "dune", 10)
	assert.True(t, apperr.IsKind(err, apperr.DependencyFailure))
}

func TestAuthors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateAuthor(ctx, " ", "")
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))

	_, err = f.svc.CreateAuthor(ctx, "frank herbert", "")
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	a, err := f.svc.CreateAuthor(ctx, "Ursula K. Le Guin", "")
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteAuthor(ctx, a.ID))

	f.createBook(t)
	err = f.svc.DeleteAuthor(ctx, f.author.ID)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))
}

func TestGenres(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	g, err := f.svc.CreateGenre(ctx, "Polar")
	require.NoError(t, err)

	renamed, err := f.svc.UpdateGenre(ctx, g.ID, "Roman noir")
	require.NoError(t, err)
	assert.Equal(t, "Roman noir", renamed.Name)

	_, err = f.svc.UpdateGenre(ctx, uuid.New(), "x")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestApplyDiscount(t *testing.T) {
	f := setup(t)
	b := f.createBook(t)
	ctx := context.Background()

	d, err := f.svc.ApplyDiscount(ctx, b.ID, 25, f.now.Add(48*time.Hour))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("20.00").Equal(d.OriginalPrice))

	book, err := f.svc.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("15.00").Equal(book.Price))
	assert.True(t, book.Price.Equal(f.index.indexed[b.ID].Price))

	_, err = f.svc.ApplyDiscount(ctx, b.ID, 10, f.now.Add(time.Hour))
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	require.NoError(t, f.svc.RemoveDiscount(ctx, d.ID))
	book, err = f.svc.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("20.00").Equal(book.Price))
}

func TestApplyDiscount_Validation(t *testing.T) {
	f := setup(t)
	b := f.createBook(t)
	ctx := context.Background()

	for _, pct := range []int{0, 100, -5} {
		_, err := f.svc.ApplyDiscount(ctx, b.ID, pct, f.now.Add(time.Hour))
		assert.True(t, apperr.IsKind(err, apperr.InvalidArgument), "percent %d", pct)
	}

	_, err := f.svc.ApplyDiscount(ctx, b.ID, 10, f.now.Add(-time.Hour))
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))

	// endsAt absent du corps JSON
	_, err = f.svc.ApplyDiscount(ctx, b.ID, 10, time.Time{})
	assert.True(t, apperr.IsKind(err, apperr.InvalidArgument))

	_, err = f.svc.ApplyDiscount(ctx, uuid.New(), 10, f.now.Add(time.Hour))
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestExpireDiscounts_RestoresPrice(t *testing.T) {
	f := setup(t)
	b := f.createBook(t)
	ctx := context.Background()

	_, err := f.svc.ApplyDiscount(ctx, b.ID, 50, f.now.Add(time.Hour))
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Hour)
	discounts, err := f.svc.ListDiscounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, discounts)

	book, err := f.svc.GetBook(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("20.00").Equal(book.Price))
	assert.True(t, decimal.RequireFromString("20.00").Equal(f.index.indexed[b.ID].Price), "prix restauré réindexé")

	// La place est libre pour une nouvelle remise.
	_, err = f.svc.ApplyDiscount(ctx, b.ID, 10, f.now.Add(time.Hour))
	assert.NoError(t, err)
}
