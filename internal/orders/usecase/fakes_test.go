package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/allisson/storefront/internal/orders/domain"
	outboxDomain "github.com/allisson/storefront/internal/outbox/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeInventory is an in-memory inventory API with per-product failure injection.
type fakeInventory struct {
	mu           sync.Mutex
	stock        map[uuid.UUID]int64
	prices       map[uuid.UUID]decimal.Decimal
	lookupErr    map[uuid.UUID]error
	decrementErr map[uuid.UUID]error
	incrementErr map[uuid.UUID]error
	onDecrement  func(ctx context.Context, productID uuid.UUID)
	calls        []string
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{
		stock:        map[uuid.UUID]int64{},
		prices:       map[uuid.UUID]decimal.Decimal{},
		lookupErr:    map[uuid.UUID]error{},
		decrementErr: map[uuid.UUID]error{},
		incrementErr: map[uuid.UUID]error{},
	}
}

func (f *fakeInventory) addProduct(quantity int64, price string) uuid.UUID {
	id := uuid.Must(uuid.NewV7())
	f.stock[id] = quantity
	f.prices[id] = decimal.RequireFromString(price)
	return id
}

func (f *fakeInventory) quantity(id uuid.UUID) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stock[id]
}

func (f *fakeInventory) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeInventory) record(op string, id uuid.UUID, qty int64) {
	f.calls = append(f.calls, fmt.Sprintf("%s:%s:%d", op, id, qty))
}

func (f *fakeInventory) GetProduct(ctx context.Context, productID uuid.UUID) (*domain.ProductSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("get", productID, 0)

	if err := f.lookupErr[productID]; err != nil {
		return nil, err
	}
	qty, ok := f.stock[productID]
	if !ok {
		return nil, &domain.ProductNotFoundError{ProductID: productID}
	}
	return &domain.ProductSnapshot{ID: productID, Quantity: qty, Price: f.prices[productID]}, nil
}

func (f *fakeInventory) Decrement(ctx context.Context, productID uuid.UUID, qty int64) (int64, error) {
	if f.onDecrement != nil {
		f.onDecrement(ctx, productID)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("decrement", productID, qty)

	if err := f.decrementErr[productID]; err != nil {
		return 0, err
	}
	current, ok := f.stock[productID]
	if !ok {
		return 0, &domain.ProductNotFoundError{ProductID: productID}
	}
	if current < qty {
		return 0, &domain.InsufficientStockError{ProductID: productID, Available: current, Requested: qty}
	}
	f.stock[productID] = current - qty
	return current - qty, nil
}

func (f *fakeInventory) Increment(ctx context.Context, productID uuid.UUID, qty int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("increment", productID, qty)

	if err := f.incrementErr[productID]; err != nil {
		return 0, err
	}
	f.stock[productID] += qty
	return f.stock[productID], nil
}

// fakeOrderStore holds orders and outbox messages. Transactions roll back by
// restoring a snapshot.
type fakeOrderStore struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*domain.Order
	outbox    []*outboxDomain.OutboxMessage
	createErr error
	outboxErr error
	txErr     error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[uuid.UUID]*domain.Order{}}
}

func (s *fakeOrderStore) messages() []*outboxDomain.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.outbox)
}

func (s *fakeOrderStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type fakeTxManager struct{ store *fakeOrderStore }

func (m fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.store.txErr != nil {
		return m.store.txErr
	}

	m.store.mu.Lock()
	orders := maps.Clone(m.store.orders)
	outbox := slices.Clone(m.store.outbox)
	m.store.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.store.mu.Lock()
		m.store.orders = orders
		m.store.outbox = outbox
		m.store.mu.Unlock()
		return err
	}
	return nil
}

type fakeOrderRepo struct{ store *fakeOrderStore }

func (r fakeOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.createErr != nil {
		return r.store.createErr
	}
	stored := *order
	stored.Lines = slices.Clone(order.Lines)
	r.store.orders[order.ID] = &stored
	return nil
}

func (r fakeOrderRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	order, ok := r.store.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (r fakeOrderRepo) List(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	orders := make([]*domain.Order, 0, len(r.store.orders))
	for _, order := range r.store.orders {
		orders = append(orders, order)
	}
	return orders, nil
}

type fakeOutbox struct{ store *fakeOrderStore }

func (o fakeOutbox) Create(ctx context.Context, msg *outboxDomain.OutboxMessage) error {
	o.store.mu.Lock()
	defer o.store.mu.Unlock()
	if o.store.outboxErr != nil {
		return o.store.outboxErr
	}
	o.store.outbox = append(o.store.outbox, msg)
	return nil
}

// recordingMetrics captures compensation outcomes.
type recordingMetrics struct {
	mu            sync.Mutex
	operations    []string
	compensations []string
}

func (r *recordingMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operations = append(r.operations, domain+"/"+operation+"/"+status)
}

func (r *recordingMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
}

func (r *recordingMetrics) RecordCompensation(ctx context.Context, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compensations = append(r.compensations, status)
}

func (r *recordingMetrics) compensationStatuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.compensations)
}
