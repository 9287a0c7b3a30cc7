package order

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
)

// MaxLineQuantity borne la quantité d'une ligne, doublons fusionnés compris.
const MaxLineQuantity = 9999

type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, apply func(o *models.Order) error) (*models.Order, error)
}

type BookReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
}

type UserReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// InvoiceLocator donne une URL temporaire vers la facture archivée.
type InvoiceLocator interface {
	InvoiceURL(ctx context.Context, orderID uuid.UUID) (string, error)
}

type Service struct {
	orders     OrderRepository
	books      BookReader
	users      UserReader
	dispatcher EventDispatcher
	invoices   InvoiceLocator
	now        func() time.Time
	log        *zap.Logger
}

func NewService(
	orders OrderRepository,
	books BookReader,
	users UserReader,
	dispatcher EventDispatcher,
	invoices InvoiceLocator,
	log *zap.Logger,
) *Service {
	return &Service{
		orders:     orders,
		books:      books,
		users:      users,
		dispatcher: dispatcher,
		invoices:   invoices,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

// CreateOrder valide l'utilisateur et les livres, calcule le total côté serveur
// et persiste la commande avec ses lignes de façon atomique.
func (s *Service) CreateOrder(ctx context.Context, userID uuid.UUID, lines []models.LineRequest) (*models.Order, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(lines) == 0 {
		return nil, apperr.InvalidArgumentf("order must contain at least one line")
	}
	for _, l := range lines {
		if err := checkQuantity(l); err != nil {
			return nil, err
		}
	}
	lines = mergeLines(lines)
	for _, l := range lines {
		if err := checkQuantity(l); err != nil {
			return nil, err
		}
	}

	now := s.now()
	order := &models.Order{
		ID:          uuid.New(),
		UserID:      user.ID,
		OrderDate:   now,
		UpdatedAt:   now,
		Status:      models.StatusPending,
		TotalAmount: decimal.Zero,
	}

	for _, l := range lines {
		book, err := s.books.FindByID(ctx, l.BookID)
		if err != nil {
			return nil, err
		}
		line := models.OrderLine{
			ID:        uuid.New(),
			OrderID:   order.ID,
			BookID:    book.ID,
			Title:     book.Title,
			Quantity:  l.Quantity,
			UnitPrice: book.Price,
		}
		order.Lines = append(order.Lines, line)
		order.TotalAmount = order.TotalAmount.Add(line.Subtotal())
	}

	if order.ClaimCode, err = GenerateClaimCode(); err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	s.log.Info("✅ Commande créée",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)

	s.dispatcher.Dispatch(ctx, models.NewOrderEvent(models.OrderCreated, *order, *user))
	return order, nil
}

func (s *Service) MarkDelivered(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, models.StatusDelivered, models.OrderDelivered)
}

func (s *Service) CancelOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, orderID, models.StatusCancelled, models.OrderCancelled)
}

// transition relit le statut sous verrou et l'écrit dans la même transaction.
func (s *Service) transition(ctx context.Context, orderID uuid.UUID, next models.Status, eventType models.OrderEventType) (*models.Order, error) {
	var user *models.User
	order, err := s.orders.UpdateStatus(ctx, orderID, func(o *models.Order) error {
		u, err := s.users.FindByID(ctx, o.UserID)
		if err != nil {
			return err
		}
		user = u

		if err := o.Status.TransitionError(next); err != nil {
			return err
		}
		o.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("✅ Statut de commande modifié",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
	)

	s.dispatcher.Dispatch(ctx, models.NewOrderEvent(eventType, *order, *user))
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.orders.FindByID(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	sortByDateDesc(orders)
	return orders, nil
}

// ListOrdersForUser échoue en NotFound pour un utilisateur inconnu, jamais de liste vide silencieuse.
func (s *Service) ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sortByDateDesc(orders)
	return orders, nil
}

func (s *Service) InvoiceURL(ctx context.Context, orderID uuid.UUID) (string, error) {
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return "", err
	}
	if s.invoices == nil {
		return "", apperr.NotFoundf("invoice archive not configured")
	}
	url, err := s.invoices.InvoiceURL(ctx, orderID)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return "", err
		}
		return "", apperr.Dependency(err, "invoice for order %s unavailable", orderID)
	}
	return url, nil
}

func checkQuantity(l models.LineRequest) error {
	if l.Quantity < 1 {
		return apperr.InvalidArgumentf("quantity for book %s must be at least 1", l.BookID)
	}
	if l.Quantity > MaxLineQuantity {
		return apperr.InvalidArgumentf("quantity for book %s must be at most %d", l.BookID, MaxLineQuantity)
	}
	return nil
}

// mergeLines additionne les quantités d'un même livre en gardant l'ordre d'apparition.
func mergeLines(lines []models.LineRequest) []models.LineRequest {
	merged := make([]models.LineRequest, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		if i, ok := index[l.BookID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.BookID] = len(merged)
		merged = append(merged, l)
	}
	return merged
}

func sortByDateDesc(orders []models.Order) {
	slices.SortStableFunc(orders, func(a, b models.Order) int {
		return b.OrderDate.Compare(a.OrderDate)
	})
}
