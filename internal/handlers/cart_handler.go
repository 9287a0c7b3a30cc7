package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bookstore_back_end/internal/models"
)

type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID, bookID uuid.UUID, quantity int) (*models.Cart, error)
	SetQuantity(ctx context.Context, userID, bookID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, bookID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error)
}

// CartSubscriber ouvre le flux pub/sub d'un panier.
type CartSubscriber interface {
	Subscribe(ctx context.Context, userID uuid.UUID) *redis.PubSub
}

type CartHandler struct {
	carts   CartService
	updates CartSubscriber
	origins []string
	log     *zap.Logger
}

func NewCartHandler(carts CartService, updates CartSubscriber, allowedOrigins []string, log *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, updates: updates, origins: allowedOrigins, log: log}
}

// cartView ajoute le total et le nombre d'articles au panier.
type cartView struct {
	*models.Cart
	Total string `json:"total"`
	Count int    `json:"count"`
}

func viewOf(cart *models.Cart) cartView {
	count := 0
	for _, it := range cart.Items {
		count += it.Quantity
	}
	return cartView{Cart: cart, Total: cart.Total().StringFixed(2), Count: count}
}

// GET /api/cart
func (h *CartHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	cart, err := h.carts.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(cart))
}

type cartItemRequest struct {
	BookID   uuid.UUID `json:"bookId"`
	Quantity int       `json:"quantity"`
}

// POST /api/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	cart, err := h.carts.AddItem(c.Request.Context(), userID, req.BookID, req.Quantity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(cart))
}

// PUT /api/cart/items/:bookId {quantity}
func (h *CartHandler) SetQuantity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bookID, ok := uuidParam(c, "bookId")
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	cart, err := h.carts.SetQuantity(c.Request.Context(), userID, bookID, req.Quantity)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(cart))
}

// DELETE /api/cart/items/:bookId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	bookID, ok := uuidParam(c, "bookId")
	if !ok {
		return
	}
	cart, err := h.carts.RemoveItem(c.Request.Context(), userID, bookID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(cart))
}

// DELETE /api/cart
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/cart/checkout
func (h *CartHandler) Checkout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	order, err := h.carts.Checkout(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order created", "order": order})
}
