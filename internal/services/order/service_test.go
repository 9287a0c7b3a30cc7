package order

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
)

type fixture struct {
	svc        *Service
	orders     *memOrderRepository
	users      *memUsers
	books      memBooks
	dispatcher *recordingDispatcher
	u1         models.User
	b1         models.Book
	b2         models.Book
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		orders:     newMemOrderRepository(),
		books:      memBooks{},
		dispatcher: &recordingDispatcher{},
	}
	f.u1 = models.User{ID: uuid.New(), Name: "U1", Email: "u1@test.local", Role: models.RoleCustomer}
	f.users = &memUsers{users: map[uuid.UUID]models.User{f.u1.ID: f.u1}}
	f.b1 = models.Book{ID: uuid.New(), Title: "B1", Price: decimal.RequireFromString("100.00")}
	f.b2 = models.Book{ID: uuid.New(), Title: "B2", Price: decimal.RequireFromString("7.35")}
	f.books[f.b1.ID] = f.b1
	f.books[f.b2.ID] = f.b2

	f.svc = NewService(f.orders, f.books, f.users, f.dispatcher, nil, zap.NewNop())
	return f
}

func (f *fixture) create(t *testing.T) *models.Order {
	t.Helper()
	o, err := f.svc.CreateOrder(context.Background(), f.u1.ID, []models.LineRequest{{BookID: f.b1.ID, Quantity: 2}})
	require.NoError(t, err)
	return o
}

var claimCodePattern = regexp.MustCompile(`^[0-9A-F]{12}$`)

func TestCreateOrder_ComputesTotal(t *testing.T) {
	f := setup(t)

	o := f.create(t)

	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("200.00")), o.TotalAmount.String())
	assert.Equal(t, models.StatusPending, o.Status)
	assert.Len(t, o.ClaimCode, 12)
	assert.Regexp(t, claimCodePattern, o.ClaimCode)
	assert.Equal(t, time.UTC, o.OrderDate.Location())
	require.Len(t, o.Lines, 1)
	assert.Equal(t, "B1", o.Lines[0].Title)
	assert.True(t, o.Lines[0].UnitPrice.Equal(f.b1.Price))

	stored, err := f.orders.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ClaimCode, stored.ClaimCode)
	assert.Equal(t, []models.OrderEventType{models.OrderCreated}, f.dispatcher.types())
}

// total = Σ quantité × prix du livre au moment de la création.
func TestCreateOrder_TotalIsSumOfLines(t *testing.T) {
	f := setup(t)

	o, err := f.svc.CreateOrder(context.Background(), f.u1.ID, []models.LineRequest{
		{BookID: f.b1.ID, Quantity: 1},
		{BookID: f.b2.ID, Quantity: 3},
		{BookID: f.b1.ID, Quantity: 2},
	})
	require.NoError(t, err)

	// 3 × 100.00 + 3 × 7.35
	assert.Equal(t, "322.05", o.TotalAmount.StringFixed(2))
	require.Len(t, o.Lines, 2, "duplicate books are merged")

	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.Subtotal())
	}
	assert.True(t, sum.Equal(o.TotalAmount))
}

func TestCreateOrder_PriceSnapshotSurvivesCatalogChange(t *testing.T) {
	f := setup(t)
	o := f.create(t)

	b := f.books[f.b1.ID]
	b.Price = decimal.RequireFromString("1.00")
	f.books[f.b1.ID] = b

	stored, err := f.svc.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", stored.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "200.00", stored.TotalAmount.StringFixed(2))
}

func TestCreateOrder_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("empty lines", func(t *testing.T) {
		_, err := f.svc.CreateOrder(ctx, f.u1.ID, nil)
		assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
	})

	t.Run("non positive quantity", func(t *testing.T) {
		_, err := f.svc.CreateOrder(ctx, f.u1.ID, []models.LineRequest{
			{BookID: f.b1.ID, Quantity: 1},
			{BookID: f.b2.ID, Quantity: 0},
		})
		assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
	})

	t.Run("quantity beyond column range", func(t *testing.T) {
		_, err := f.svc.CreateOrder(ctx, f.u1.ID, []models.LineRequest{
			{BookID: f.b1.ID, Quantity: 3000000000},
		})
		assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
	})

	t.Run("merged duplicates beyond cap", func(t *testing.T) {
		_, err := f.svc.CreateOrder(ctx, f.u1.ID, []models.LineRequest{
			{BookID: f.b1.ID, Quantity: MaxLineQuantity},
			{BookID: f.b1.ID, Quantity: 1},
		})
		assert.Equal(t, apperr.InvalidArgument, apperr.KindOf(err))
	})

	orders, lines := f.orders.count()
	assert.Zero(t, orders)
	assert.Zero(t, lines)
	assert.Empty(t, f.dispatcher.types())
}

// Un livre inconnu n'écrit ni commande ni ligne.
func TestCreateOrder_UnknownBookLeavesNoRows(t *testing.T) {
	f := setup(t)
	b404 := uuid.New()

	_, err := f.svc.CreateOrder(context.Background(), f.u1.ID, []models.LineRequest{
		{BookID: f.b1.ID, Quantity: 1},
		{BookID: b404, Quantity: 1},
	})

	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "book "+b404.String())

	orders, lines := f.orders.count()
	assert.Zero(t, orders)
	assert.Zero(t, lines)
	assert.Empty(t, f.dispatcher.types())
}

func TestCreateOrder_UnknownUser(t *testing.T) {
	f := setup(t)

	_, err := f.svc.CreateOrder(context.Background(), uuid.New(), []models.LineRequest{{BookID: f.b1.ID, Quantity: 1}})

	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "user")
	orders, lines := f.orders.count()
	assert.Zero(t, orders)
	assert.Zero(t, lines)
}

func TestCreateOrder_RepositoryFailureIsReturned(t *testing.T) {
	f := setup(t)
	f.orders.createErr = apperr.Conflictf("claim code collision")

	_, err := f.svc.CreateOrder(context.Background(), f.u1.ID, []models.LineRequest{{BookID: f.b1.ID, Quantity: 1}})

	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	assert.Empty(t, f.dispatcher.types())
}

func TestCreateOrder_ClaimCodesAreDistinct(t *testing.T) {
	f := setup(t)
	seen := make(map[string]bool, 1000)

	for i := 0; i < 1000; i++ {
		o, err := f.svc.CreateOrder(context.Background(), f.u1.ID, []models.LineRequest{{BookID: f.b2.ID, Quantity: 1}})
		require.NoError(t, err)
		require.False(t, seen[o.ClaimCode], "duplicate claim code %s", o.ClaimCode)
		seen[o.ClaimCode] = true
	}
}

// Une seconde annulation est refusée.
func TestCancelOrder_RejectsRepeat(t *testing.T) {
	f := setup(t)
	o := f.create(t)
	ctx := context.Background()

	cancelled, err := f.svc.CancelOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	_, err = f.svc.CancelOrder(ctx, o.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))
	assert.Equal(t, "already cancelled", err.Error())

	assert.Equal(t, []models.OrderEventType{models.OrderCreated, models.OrderCancelled}, f.dispatcher.types())
}

func TestMarkDelivered_OnCancelledOrder(t *testing.T) {
	f := setup(t)
	o := f.create(t)
	ctx := context.Background()

	_, err := f.svc.CancelOrder(ctx, o.ID)
	require.NoError(t, err)

	_, err = f.svc.MarkDelivered(ctx, o.ID)
	assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))

	stored, err := f.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)
}

// DELIVERED et CANCELLED n'ont aucune transition sortante.
func TestTerminalStatusesAreFinal(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	delivered := f.create(t)
	_, err := f.svc.MarkDelivered(ctx, delivered.ID)
	require.NoError(t, err)

	cancelled := f.create(t)
	_, err = f.svc.CancelOrder(ctx, cancelled.ID)
	require.NoError(t, err)

	for _, id := range []uuid.UUID{delivered.ID, cancelled.ID} {
		_, err := f.svc.MarkDelivered(ctx, id)
		assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))
		_, err = f.svc.CancelOrder(ctx, id)
		assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))
	}

	_, err = f.svc.CancelOrder(ctx, delivered.ID)
	assert.Equal(t, "already delivered", err.Error())
}

func TestTransition_MissingEntities(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.MarkDelivered(ctx, uuid.New())
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "order")

	o := f.create(t)
	f.users.delete(f.u1.ID)

	_, err = f.svc.CancelOrder(ctx, o.ID)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "user")

	stored, err := f.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

// Un seul des deux changements concurrents doit réussir.
func TestConcurrentTransitions(t *testing.T) {
	f := setup(t)
	o := f.create(t)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = f.svc.CancelOrder(ctx, o.ID)
			} else {
				_, err = f.svc.MarkDelivered(ctx, o.ID)
			}
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else {
				assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestListOrdersForUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.ListOrdersForUser(ctx, uuid.New())
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	empty, err := f.svc.ListOrdersForUser(ctx, f.u1.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		f.svc.now = func() time.Time { return at }
		f.create(t)
	}

	orders, err := f.svc.ListOrdersForUser(ctx, f.u1.ID)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.True(t, orders[0].OrderDate.After(orders[1].OrderDate))
	assert.True(t, orders[1].OrderDate.After(orders[2].OrderDate))

	all, err := f.svc.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, orders[0].ID, all[0].ID)
}

type stubLocator struct {
	url string
	err error
}

func (s stubLocator) InvoiceURL(_ context.Context, id uuid.UUID) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.url + id.String(), nil
}

func TestInvoiceURL(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o := f.create(t)

	_, err := f.svc.InvoiceURL(ctx, o.ID)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	f.svc.invoices = stubLocator{url: "https://minio.local/invoices/"}
	url, err := f.svc.InvoiceURL(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local/invoices/"+o.ID.String(), url)

	_, err = f.svc.InvoiceURL(ctx, uuid.New())
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	// facture jamais archivée
	f.svc.invoices = stubLocator{err: apperr.NotFoundf("invoice for order %s not found", o.ID)}
	_, err = f.svc.InvoiceURL(ctx, o.ID)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	f.svc.invoices = stubLocator{err: errors.New("minio down")}
	_, err = f.svc.InvoiceURL(ctx, o.ID)
	assert.Equal(t, apperr.DependencyFailure, apperr.KindOf(err))
}

func TestGenerateClaimCode(t *testing.T) {
	code, err := GenerateClaimCode()
	require.NoError(t, err)
	assert.Regexp(t, claimCodePattern, code)
}
