package catalog

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
	"bookstore_back_end/internal/search"
)

type memBookRepository struct {
	mu        sync.Mutex
	books     map[uuid.UUID]models.Book
	discounts map[uuid.UUID]models.Discount
	authors   *memAuthors
	genres    *memGenres
}

func newMemBookRepository(a *memAuthors, g *memGenres) *memBookRepository {
	return &memBookRepository{
		books:     make(map[uuid.UUID]models.Book),
		discounts: make(map[uuid.UUID]models.Discount),
		authors:   a,
		genres:    g,
	}
}

func (m *memBookRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return nil, apperr.NotFoundf("book %s not found", id)
	}
	b.AuthorName = m.authors.items[b.AuthorID].Name
	b.GenreName = m.genres.items[b.GenreID].Name
	return &b, nil
}

func (m *memBookRepository) List(_ context.Context, f models.BookFilter) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Book{}
	for _, b := range m.books {
		if f.GenreID != nil && b.GenreID != *f.GenreID {
			continue
		}
		if f.AuthorID != nil && b.AuthorID != *f.AuthorID {
			continue
		}
		if f.Title != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(f.Title)) {
			continue
		}
		out = append(out, b)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memBookRepository) Create(_ context.Context, b *models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.books {
		if existing.ISBN == b.ISBN {
			return apperr.Conflictf("isbn already exists")
		}
	}
	m.books[b.ID] = *b
	return nil
}

func (m *memBookRepository) Update(_ context.Context, b *models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[b.ID]; !ok {
		return apperr.NotFoundf("book %s not found", b.ID)
	}
	m.books[b.ID] = *b
	return nil
}

func (m *memBookRepository) SetCover(_ context.Context, id uuid.UUID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return apperr.NotFoundf("book %s not found", id)
	}
	b.CoverURL = url
	m.books[id] = b
	return nil
}

func (m *memBookRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return apperr.NotFoundf("book %s not found", id)
	}
	delete(m.books, id)
	return nil
}

func (m *memBookRepository) ApplyDiscount(_ context.Context, d *models.Discount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[d.BookID]
	if !ok {
		return apperr.NotFoundf("book %s not found", d.BookID)
	}
	for _, existing := range m.discounts {
		if existing.BookID == d.BookID {
			return apperr.Conflictf("book already has an active discount")
		}
	}
	d.OriginalPrice = b.Price
	m.discounts[d.ID] = *d
	b.Price = d.DiscountedPrice()
	m.books[b.ID] = b
	return nil
}

func (m *memBookRepository) RemoveDiscount(_ context.Context, id uuid.UUID) (*models.Discount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.discounts[id]
	if !ok {
		return nil, apperr.NotFoundf("discount %s not found", id)
	}
	delete(m.discounts, id)
	if b, ok := m.books[d.BookID]; ok {
		b.Price = d.OriginalPrice
		m.books[b.ID] = b
	}
	return &d, nil
}

func (m *memBookRepository) ListDiscounts(_ context.Context) ([]models.Discount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Discount{}
	for _, d := range m.discounts {
		out = append(out, d)
	}
	return out, nil
}

func (m *memBookRepository) FindDiscountByBook(_ context.Context, bookID uuid.UUID) (*models.Discount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.discounts {
		if d.BookID == bookID {
			return &d, nil
		}
	}
	return nil, apperr.NotFoundf("no discount for book %s", bookID)
}

type memAuthors struct {
	items map[uuid.UUID]models.Author
	used  func(id uuid.UUID) bool
}

func (m *memAuthors) Create(_ context.Context, a *models.Author) error {
	for _, existing := range m.items {
		if strings.EqualFold(existing.Name, a.Name) {
			return apperr.Conflictf("author already exists")
		}
	}
	m.items[a.ID] = *a
	return nil
}

func (m *memAuthors) Update(_ context.Context, a *models.Author) error {
	if _, ok := m.items[a.ID]; !ok {
		return apperr.NotFoundf("author %s not found", a.ID)
	}
	m.items[a.ID] = *a
	return nil
}

func (m *memAuthors) FindByID(_ context.Context, id uuid.UUID) (*models.Author, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFoundf("author %s not found", id)
	}
	return &a, nil
}

func (m *memAuthors) List(_ context.Context) ([]models.Author, error) {
	out := []models.Author{}
	for _, a := range m.items {
		out = append(out, a)
	}
	return out, nil
}

func (m *memAuthors) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return apperr.NotFoundf("author %s not found", id)
	}
	if m.used != nil && m.used(id) {
		return apperr.Conflictf("author is still referenced by books")
	}
	delete(m.items, id)
	return nil
}

type memGenres struct {
	items map[uuid.UUID]models.Genre
}

func (m *memGenres) Create(_ context.Context, g *models.Genre) error {
	for _, existing := range m.items {
		if strings.EqualFold(existing.Name, g.Name) {
			return apperr.Conflictf("genre already exists")
		}
	}
	m.items[g.ID] = *g
	return nil
}

func (m *memGenres) Update(_ context.Context, g *models.Genre) error {
	if _, ok := m.items[g.ID]; !ok {
		return apperr.NotFoundf("genre %s not found", g.ID)
	}
	m.items[g.ID] = *g
	return nil
}

func (m *memGenres) FindByID(_ context.Context, id uuid.UUID) (*models.Genre, error) {
	g, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFoundf("genre %s not found", id)
	}
	return &g, nil
}

func (m *memGenres) List(_ context.Context) ([]models.Genre, error) {
	out := []models.Genre{}
	for _, g := range m.items {
		out = append(out, g)
	}
	return out, nil
}

func (m *memGenres) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.items[id]; !ok {
		return apperr.NotFoundf("genre %s not found", id)
	}
	delete(m.items, id)
	return nil
}

type recordingIndex struct {
	indexed  map[uuid.UUID]models.Book
	deleted  []uuid.UUID
	fail     bool
	hits     []search.Hit
	lastTerm string
}

func newRecordingIndex() *recordingIndex {
	return &recordingIndex{indexed: make(map[uuid.UUID]models.Book)}
}

func (r *recordingIndex) Index(_ context.Context, b models.Book) error {
	if r.fail {
		return errors.New("elasticsearch unavailable")
	}
	r.indexed[b.ID] = b
	return nil
}

func (r *recordingIndex) Delete(_ context.Context, id uuid.UUID) error {
	if r.fail {
		return errors.New("elasticsearch unavailable")
	}
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *recordingIndex) Search(_ context.Context, query string, _ int) ([]search.Hit, error) {
	if r.fail {
		return nil, errors.New("elasticsearch unavailable")
	}
	r.lastTerm = query
	return r.hits, nil
}

type memCovers struct {
	keys []string
	err  error
}

func (m *memCovers) PutCover(_ context.Context, bookID uuid.UUID, filename string, r io.Reader, _ int64, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	key := "covers/" + bookID.String() + "/" + filename
	m.keys = append(m.keys, key)
	return "http://minio.local/bookstore/" + key, nil
}
