package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"bookstore_back_end/internal/cache"
	"bookstore_back_end/internal/models"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

func (h *CartHandler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(h.origins, "*") || slices.Contains(h.origins, origin)
		},
	}
}

// Stream (GET /api/cart/ws) pousse le panier au client à chaque publication Redis.
// Le premier message contient l'état courant.
func (h *CartHandler) Stream(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	up := h.upgrader()
	conn, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("❌ Upgrade WebSocket refusé", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	pubsub := h.updates.Subscribe(ctx, userID)
	defer pubsub.Close()

	cart, err := h.carts.Get(ctx, userID)
	if err != nil {
		h.log.Warn("⚠️ Lecture panier impossible", zap.String("user_id", userID.String()), zap.Error(err))
		return
	}
	if err := write(conn, cartFrame("connected", cart)); err != nil {
		return
	}

	// Lecture en tâche de fond pour détecter la fermeture côté client.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	messages := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			frame, err := decodeCartMessage(msg.Payload)
			if err != nil {
				h.log.Warn("⚠️ Message panier illisible", zap.String("user_id", userID.String()), zap.Error(err))
				continue
			}
			if err := write(conn, frame); err != nil {
				h.log.Debug("WebSocket fermé", zap.String("user_id", userID.String()), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}

// cartFrame est la forme unique des messages envoyés sur la WebSocket.
func cartFrame(kind string, cart *models.Cart) gin.H {
	return gin.H{"type": kind, "cart": viewOf(cart)}
}

func decodeCartMessage(payload string) (gin.H, error) {
	var msg cache.CartMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return nil, err
	}
	if msg.Cart.Items == nil {
		msg.Cart.Items = []models.CartItem{}
	}
	return cartFrame(msg.Type, &msg.Cart), nil
}

func write(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(v)
}
