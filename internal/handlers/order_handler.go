package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/middleware"
	"bookstore_back_end/internal/models"
)

type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, lines []models.LineRequest) (*models.Order, error)
	MarkDelivered(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	InvoiceURL(ctx context.Context, orderID uuid.UUID) (string, error)
}

// HistoryReader lit l'historique d'audit, nil si ScyllaDB n'est pas configuré.
type HistoryReader interface {
	History(ctx context.Context, resource, resourceID string) ([]models.AuditEntry, error)
}

type OrderHandler struct {
	orders  OrderService
	history HistoryReader
	log     *zap.Logger
}

func NewOrderHandler(orders OrderService, history HistoryReader, log *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, history: history, log: log}
}

// createOrderRequest : totalAmount est accepté pour compatibilité mais toujours recalculé.
type createOrderRequest struct {
	UserID      uuid.UUID            `json:"userId"`
	TotalAmount *decimal.Decimal     `json:"totalAmount"`
	Products    []models.LineRequest `json:"products"`
}

// POST /api/orders
func (h *OrderHandler) Create(c *gin.Context) {
	caller, ok := currentUser(c)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.UserID == uuid.Nil {
		req.UserID = caller
	}
	if req.UserID != caller && !middleware.IsAdmin(c) {
		respondError(c, h.log, apperr.Forbiddenf("you can only order for yourself"))
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), req.UserID, req.Products)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order created", "order": order})
}

// GET /api/orders et GET /api/orders?userId=...
func (h *OrderHandler) List(c *gin.Context) {
	if c.Query("userId") == "" {
		if !middleware.IsAdmin(c) {
			respondError(c, h.log, apperr.Forbiddenf("admin access required"))
			return
		}
		orders, err := h.orders.ListOrders(c.Request.Context())
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, orders)
		return
	}

	userID, ok := uuidQuery(c, "userId")
	if !ok {
		return
	}
	if !h.canAccess(c, userID) {
		respondError(c, h.log, apperr.Forbiddenf("you can only list your own orders"))
		return
	}
	orders, err := h.orders.ListOrdersForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// PATCH /api/orders?orderId=... (admin) : remise au client.
func (h *OrderHandler) MarkDelivered(c *gin.Context) {
	orderID, ok := uuidQuery(c, "orderId")
	if !ok {
		return
	}
	order, err := h.orders.MarkDelivered(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order delivered", "order": order})
}

// DELETE /api/orders?orderId=... : annulation par le client ou un admin.
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := uuidQuery(c, "orderId")
	if !ok {
		return
	}
	if _, ok := h.owned(c, orderID); !ok {
		return
	}
	order, err := h.orders.CancelOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order cancelled", "order": order})
}

// GET /api/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	order, ok := h.owned(c, orderID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

// GET /api/orders/:id/invoice : URL présignée vers le PDF archivé.
func (h *OrderHandler) Invoice(c *gin.Context) {
	orderID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if _, ok := h.owned(c, orderID); !ok {
		return
	}
	url, err := h.orders.InvoiceURL(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// GET /api/orders/:id/history (admin)
func (h *OrderHandler) History(c *gin.Context) {
	orderID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if h.history == nil {
		respondError(c, h.log, apperr.Dependency(nil, "audit history is not configured"))
		return
	}
	entries, err := h.history.History(c.Request.Context(), "order", orderID.String())
	if err != nil {
		respondError(c, h.log, apperr.Dependency(err, "audit history unavailable"))
		return
	}
	c.JSON(http.StatusOK, entries)
}

// owned charge la commande et vérifie que l'appelant en est le propriétaire ou un admin.
func (h *OrderHandler) owned(c *gin.Context, orderID uuid.UUID) (*models.Order, bool) {
	order, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	if !h.canAccess(c, order.UserID) {
		// La commande d'un autre client est traitée comme inexistante.
		respondError(c, h.log, apperr.NotFoundf("order %s not found", orderID))
		return nil, false
	}
	return order, true
}

func (h *OrderHandler) canAccess(c *gin.Context, owner uuid.UUID) bool {
	if middleware.IsAdmin(c) {
		return true
	}
	caller, ok := middleware.UserID(c)
	return ok && caller == owner
}
