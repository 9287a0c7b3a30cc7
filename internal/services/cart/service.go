package cart

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
)

// MaxQuantity borne la quantité d'une ligne de panier.
const MaxQuantity = 99

type Store interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type BookReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, lines []models.LineRequest) (*models.Order, error)
}

type Service struct {
	store  Store
	books  BookReader
	orders OrderCreator
	log    *zap.Logger
}

func NewService(store Store, books BookReader, orders OrderCreator, log *zap.Logger) *Service {
	return &Service{store: store, books: books, orders: orders, log: log}
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.store.Get(ctx, userID)
}

// AddItem ajoute un livre ou augmente la quantité de la ligne existante.
func (s *Service) AddItem(ctx context.Context, userID, bookID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperr.InvalidArgumentf("quantity must be at least 1")
	}
	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].BookID == bookID {
			cart.Items[i].Quantity += quantity
			cart.Items[i].UnitPrice = book.Price
			cart.Items[i].Title = book.Title
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, models.CartItem{
			BookID:    book.ID,
			Title:     book.Title,
			UnitPrice: book.Price,
			Quantity:  quantity,
		})
	}
	for _, it := range cart.Items {
		if it.Quantity > MaxQuantity {
			return nil, apperr.InvalidArgumentf("quantity for book %s cannot exceed %d", it.BookID, MaxQuantity)
		}
	}

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// SetQuantity remplace la quantité d'une ligne, 0 la supprime.
func (s *Service) SetQuantity(ctx context.Context, userID, bookID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity < 0 || quantity > MaxQuantity {
		return nil, apperr.InvalidArgumentf("quantity must be between 0 and %d", MaxQuantity)
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, bookID)
	}

	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := indexOf(cart, bookID)
	if i < 0 {
		return nil, apperr.NotFoundf("book %s not in cart", bookID)
	}
	cart.Items[i].Quantity = quantity

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, bookID uuid.UUID) (*models.Cart, error) {
	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := indexOf(cart, bookID)
	if i < 0 {
		return nil, apperr.NotFoundf("book %s not in cart", bookID)
	}
	cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)

	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.store.Clear(ctx, userID)
}

// Checkout transforme le panier en commande. Les prix du panier sont ignorés,
// CreateOrder relit le catalogue. Le panier n'est vidé qu'une fois la commande enregistrée.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperr.InvalidArgumentf("cart is empty")
	}

	order, err := s.orders.CreateOrder(ctx, userID, cart.Lines())
	if err != nil {
		return nil, err
	}

	if err := s.store.Clear(ctx, userID); err != nil {
		// La commande existe déjà, on ne fait pas échouer le checkout.
		s.log.Warn("⚠️ Panier non vidé après commande",
			zap.String("user_id", userID.String()),
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
	return order, nil
}

func indexOf(cart *models.Cart, bookID uuid.UUID) int {
	for i, it := range cart.Items {
		if it.BookID == bookID {
			return i
		}
	}
	return -1
}
