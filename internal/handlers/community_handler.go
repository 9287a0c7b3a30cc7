package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookstore_back_end/internal/middleware"
	"bookstore_back_end/internal/models"
)

type ReviewService interface {
	Create(ctx context.Context, userID, bookID uuid.UUID, rating int, comment string) (*models.Review, error)
	ForBook(ctx context.Context, bookID uuid.UUID) (*models.BookReviews, error)
	Delete(ctx context.Context, actorID uuid.UUID, isAdmin bool, reviewID uuid.UUID) error
}

type WishlistService interface {
	Add(ctx context.Context, userID, bookID uuid.UUID) (*models.WishlistItem, error)
	Remove(ctx context.Context, userID, bookID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error)
}

type AnnouncementService interface {
	Create(ctx context.Context, title, body string) (*models.Announcement, error)
	List(ctx context.Context) ([]models.Announcement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CommunityHandler regroupe avis, wishlist et annonces.
type CommunityHandler struct {
	reviews       ReviewService
	wishlist      WishlistService
	announcements AnnouncementService
	log           *zap.Logger
}

func NewCommunityHandler(reviews ReviewService, wishlist WishlistService, announcements AnnouncementService, log *zap.Logger) *CommunityHandler {
	return &CommunityHandler{reviews: reviews, wishlist: wishlist, announcements: announcements, log: log}
}

// GET /api/books/:id/reviews
func (h *CommunityHandler) ListReviews(c *gin.Context) {
	bookID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	reviews, err := h.reviews.ForBook(c.Request.Context(), bookID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// POST /api/books/:id/reviews
func (h *CommunityHandler) CreateReview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bookID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	review, err := h.reviews.Create(c.Request.Context(), userID, bookID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// DELETE /api/reviews/:id
func (h *CommunityHandler) DeleteReview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	reviewID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.reviews.Delete(c.Request.Context(), userID, middleware.IsAdmin(c), reviewID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/wishlist
func (h *CommunityHandler) ListWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.wishlist.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// POST /api/wishlist {bookId}
func (h *CommunityHandler) AddToWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		BookID uuid.UUID `json:"bookId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	item, err := h.wishlist.Add(c.Request.Context(), userID, req.BookID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// DELETE /api/wishlist/:bookId
func (h *CommunityHandler) RemoveFromWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bookID, ok := uuidParam(c, "bookId")
	if !ok {
		return
	}
	if err := h.wishlist.Remove(c.Request.Context(), userID, bookID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/announcements
func (h *CommunityHandler) ListAnnouncements(c *gin.Context) {
	items, err := h.announcements.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// POST /api/announcements (admin)
func (h *CommunityHandler) CreateAnnouncement(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	a, err := h.announcements.Create(c.Request.Context(), req.Title, req.Body)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// DELETE /api/announcements/:id (admin)
func (h *CommunityHandler) DeleteAnnouncement(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.announcements.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
