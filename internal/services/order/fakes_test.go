package order

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bookstore_back_end/internal/apperr"
	"bookstore_back_end/internal/models"
)

var _ OrderRepository = &memOrderRepository{}

// memOrderRepository reproduit les garanties du dépôt SQL : création atomique
// et lecture-modification-écriture sous verrou.
type memOrderRepository struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]models.Order
	lines     map[uuid.UUID][]models.OrderLine
	codes     map[string]bool
	createErr error
}

func newMemOrderRepository() *memOrderRepository {
	return &memOrderRepository{
		orders: make(map[uuid.UUID]models.Order),
		lines:  make(map[uuid.UUID][]models.OrderLine),
		codes:  make(map[string]bool),
	}
}

func (m *memOrderRepository) Create(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if m.codes[o.ClaimCode] {
		return apperr.Conflictf("claim code collision")
	}
	m.codes[o.ClaimCode] = true
	stored := *o
	stored.Lines = nil
	m.orders[o.ID] = stored
	m.lines[o.ID] = append([]models.OrderLine(nil), o.Lines...)
	return nil
}

func (m *memOrderRepository) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.load(id)
	if !ok {
		return nil, apperr.NotFoundf("order %s not found", id)
	}
	return &o, nil
}

func (m *memOrderRepository) List(_ context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for id := range m.orders {
		o, _ := m.load(id)
		out = append(out, o)
	}
	return out, nil
}

func (m *memOrderRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for id, o := range m.orders {
		if o.UserID == userID {
			full, _ := m.load(id)
			out = append(out, full)
		}
	}
	return out, nil
}

func (m *memOrderRepository) UpdateStatus(_ context.Context, id uuid.UUID, apply func(o *models.Order) error) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.load(id)
	if !ok {
		return nil, apperr.NotFoundf("order %s not found", id)
	}
	if err := apply(&o); err != nil {
		return nil, err
	}
	stored := m.orders[id]
	stored.Status = o.Status
	m.orders[id] = stored
	return &o, nil
}

func (m *memOrderRepository) load(id uuid.UUID) (models.Order, bool) {
	o, ok := m.orders[id]
	if !ok {
		return models.Order{}, false
	}
	o.Lines = append([]models.OrderLine(nil), m.lines[id]...)
	return o, true
}

func (m *memOrderRepository) count() (orders, lines int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lines {
		lines += len(l)
	}
	return len(m.orders), lines
}

type memBooks map[uuid.UUID]models.Book

func (m memBooks) FindByID(_ context.Context, id uuid.UUID) (*models.Book, error) {
	b, ok := m[id]
	if !ok {
		return nil, apperr.NotFoundf("book %s not found", id)
	}
	return &b, nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFoundf("user %s not found", id)
	}
	return &u, nil
}

func (m *memUsers) delete(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (d *recordingDispatcher) Dispatch(_ context.Context, e models.OrderEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
}

func (d *recordingDispatcher) types() []models.OrderEventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.OrderEventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}
