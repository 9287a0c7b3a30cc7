package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookstore_back_end/internal/models"
	"bookstore_back_end/internal/search"
)

// MaxCoverSize borne la taille d'une image de couverture.
const MaxCoverSize = 5 << 20

type CatalogService interface {
	GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error)
	ListBooks(ctx context.Context, f models.BookFilter) ([]models.Book, error)
	CreateBook(ctx context.Context, in models.BookInput) (*models.Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, in models.BookInput) (*models.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	UploadCover(ctx context.Context, id uuid.UUID, filename string, r io.Reader, size int64, contentType string) (*models.Book, error)
	SearchBooks(ctx context.Context, query string, limit int) ([]search.Hit, error)

	ListAuthors(ctx context.Context) ([]models.Author, error)
	GetAuthor(ctx context.Context, id uuid.UUID) (*models.Author, error)
	CreateAuthor(ctx context.Context, name, bio string) (*models.Author, error)
	UpdateAuthor(ctx context.Context, id uuid.UUID, name, bio string) (*models.Author, error)
	DeleteAuthor(ctx context.Context, id uuid.UUID) error

	ListGenres(ctx context.Context) ([]models.Genre, error)
	GetGenre(ctx context.Context, id uuid.UUID) (*models.Genre, error)
	CreateGenre(ctx context.Context, name string) (*models.Genre, error)
	UpdateGenre(ctx context.Context, id uuid.UUID, name string) (*models.Genre, error)
	DeleteGenre(ctx context.Context, id uuid.UUID) error

	ApplyDiscount(ctx context.Context, bookID uuid.UUID, percent int, endsAt time.Time) (*models.Discount, error)
	RemoveDiscount(ctx context.Context, id uuid.UUID) error
	ListDiscounts(ctx context.Context) ([]models.Discount, error)
}

type CatalogHandler struct {
	catalog CatalogService
	log     *zap.Logger
}

func NewCatalogHandler(catalog CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: log}
}

// =============================================
// LIVRES
// =============================================

// GET /api/books?genreId=&authorId=&title=&limit=&offset=
func (h *CatalogHandler) ListBooks(c *gin.Context) {
	f := models.BookFilter{
		Title:  c.Query("title"),
		Limit:  intQuery(c, "limit", 0),
		Offset: intQuery(c, "offset", 0),
	}
	if raw := c.Query("genreId"); raw != "" {
		id, ok := parseUUID(c, raw, "genreId")
		if !ok {
			return
		}
		f.GenreID = &id
	}
	if raw := c.Query("authorId"); raw != "" {
		id, ok := parseUUID(c, raw, "authorId")
		if !ok {
			return
		}
		f.AuthorID = &id
	}

	books, err := h.catalog.ListBooks(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

// GET /api/books/search?q=
func (h *CatalogHandler) SearchBooks(c *gin.Context) {
	hits, err := h.catalog.SearchBooks(c.Request.Context(), c.Query("q"), intQuery(c, "limit", 0))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, hits)
}

func (h *CatalogHandler) GetBook(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	book, err := h.catalog.GetBook(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *CatalogHandler) CreateBook(c *gin.Context) {
	var in models.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	book, err := h.catalog.CreateBook(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (h *CatalogHandler) UpdateBook(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in models.BookInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	book, err := h.catalog.UpdateBook(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *CatalogHandler) DeleteBook(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteBook(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/books/:id/cover (multipart, champ "file")
func (h *CatalogHandler) UploadCover(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	if header.Size > MaxCoverSize {
		badRequest(c, "cover is too large")
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, "unreadable file")
		return
	}
	defer file.Close()

	book, err := h.catalog.UploadCover(c.Request.Context(), id, header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// =============================================
// AUTEURS ET GENRES
// =============================================

type authorRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

func (h *CatalogHandler) ListAuthors(c *gin.Context) {
	authors, err := h.catalog.ListAuthors(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, authors)
}

func (h *CatalogHandler) GetAuthor(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	author, err := h.catalog.GetAuthor(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, author)
}

func (h *CatalogHandler) CreateAuthor(c *gin.Context) {
	var req authorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	author, err := h.catalog.CreateAuthor(c.Request.Context(), req.Name, req.Bio)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, author)
}

func (h *CatalogHandler) UpdateAuthor(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req authorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	author, err := h.catalog.UpdateAuthor(c.Request.Context(), id, req.Name, req.Bio)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, author)
}

func (h *CatalogHandler) DeleteAuthor(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteAuthor(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type genreRequest struct {
	Name string `json:"name"`
}

func (h *CatalogHandler) ListGenres(c *gin.Context) {
	genres, err := h.catalog.ListGenres(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, genres)
}

func (h *CatalogHandler) GetGenre(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	genre, err := h.catalog.GetGenre(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, genre)
}

func (h *CatalogHandler) CreateGenre(c *gin.Context) {
	var req genreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	genre, err := h.catalog.CreateGenre(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, genre)
}

func (h *CatalogHandler) UpdateGenre(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req genreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	genre, err := h.catalog.UpdateGenre(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, genre)
}

func (h *CatalogHandler) DeleteGenre(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteGenre(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// =============================================
// REMISES
// =============================================

type discountRequest struct {
	BookID  uuid.UUID `json:"bookId"`
	Percent int       `json:"percent"`
	EndsAt  time.Time `json:"endsAt"`
}

func (h *CatalogHandler) ListDiscounts(c *gin.Context) {
	discounts, err := h.catalog.ListDiscounts(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, discounts)
}

func (h *CatalogHandler) ApplyDiscount(c *gin.Context) {
	var req discountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	d, err := h.catalog.ApplyDiscount(c.Request.Context(), req.BookID, req.Percent, req.EndsAt)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *CatalogHandler) RemoveDiscount(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.RemoveDiscount(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
