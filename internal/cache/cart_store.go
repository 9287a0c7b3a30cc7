package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bookstore_back_end/internal/models"
)

const (
	CartTTL = 30 * 24 * time.Hour

	CartEventUpdated = "updated"
	CartEventCleared = "cleared"
)

// CartMessage est publié sur le canal cart:<userID> à chaque modification.
type CartMessage struct {
	Type string      `json:"type"`
	Cart models.Cart `json:"cart"`
}

// CartStore conserve les paniers en JSON sous la clé cart:<userID>.
// Une publication en échec est journalisée, l'écriture reste acquise.
type CartStore struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewCartStore(rdb *redis.Client, log *zap.Logger) *CartStore {
	return &CartStore{rdb: rdb, log: log}
}

func CartKey(userID uuid.UUID) string {
	return "cart:" + userID.String()
}

// Get retourne un panier vide si la clé n'existe pas.
func (s *CartStore) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	data, err := s.rdb.Get(ctx, CartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "lecture panier redis")
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, errors.Wrap(err, "décodage panier")
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// Save écrit le panier, repousse son TTL et notifie les abonnés.
func (s *CartStore) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(cart)
	if err != nil {
		return errors.Wrap(err, "encodage panier")
	}

	if err := s.rdb.Set(ctx, CartKey(cart.UserID), data, CartTTL).Err(); err != nil {
		return errors.Wrap(err, "écriture panier redis")
	}
	s.publish(ctx, CartMessage{Type: CartEventUpdated, Cart: *cart})
	return nil
}

func (s *CartStore) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.rdb.Del(ctx, CartKey(userID)).Err(); err != nil {
		return errors.Wrap(err, "suppression panier redis")
	}
	s.publish(ctx, CartMessage{
		Type: CartEventCleared,
		Cart: models.Cart{UserID: userID, Items: []models.CartItem{}, UpdatedAt: time.Now().UTC()},
	})
	return nil
}

func (s *CartStore) publish(ctx context.Context, msg CartMessage) {
	data, err := json.Marshal(msg)
	if err == nil {
		err = s.rdb.Publish(ctx, CartKey(msg.Cart.UserID), data).Err()
	}
	if err != nil {
		s.log.Warn("⚠️ Publication panier échouée",
			zap.String("user_id", msg.Cart.UserID.String()),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
	}
}

// Subscribe ouvre un abonnement pub/sub sur le panier de l'utilisateur.
func (s *CartStore) Subscribe(ctx context.Context, userID uuid.UUID) *redis.PubSub {
	return s.rdb.Subscribe(ctx, CartKey(userID))
}
