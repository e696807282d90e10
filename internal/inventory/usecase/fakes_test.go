package usecase

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/allisson/storefront/internal/inventory/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryStore is an in-memory inventory database. Transactions are serialized by a
// single lock and rolled back by restoring a snapshot.
type memoryStore struct {
	txMu      sync.Mutex
	mu        sync.Mutex
	products  map[uuid.UUID]int64
	processed map[uuid.UUID]bool

	// beforeExists, when set, runs at the start of every Exists call.
	beforeExists func()
}

func newMemoryStore(stock map[uuid.UUID]int64) *memoryStore {
	return &memoryStore{products: maps.Clone(stock), processed: map[uuid.UUID]bool{}}
}

func (s *memoryStore) quantity(id uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *memoryStore) processedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.processed)
}

type memoryTxManager struct{ store *memoryStore }

func (m memoryTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	m.store.mu.Lock()
	products := maps.Clone(m.store.products)
	processed := maps.Clone(m.store.processed)
	m.store.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.store.mu.Lock()
		m.store.products = products
		m.store.processed = processed
		m.store.mu.Unlock()
		return err
	}
	return nil
}

type memoryProductRepo struct{ store *memoryStore }

func (r memoryProductRepo) Create(ctx context.Context, product *domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.products[product.ID] = product.Quantity
	return nil
}

func (r memoryProductRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	qty, ok := r.store.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &domain.Product{ID: id, Quantity: qty}, nil
}

func (r memoryProductRepo) List(ctx context.Context, offset, limit int) ([]*domain.Product, error) {
	return nil, nil
}

func (r memoryProductRepo) Decrement(ctx context.Context, id uuid.UUID, qty int64) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.products[id]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	if current < qty {
		return 0, &domain.InsufficientStockError{ProductID: id, Available: current, Requested: qty}
	}
	r.store.products[id] = current - qty
	return current - qty, nil
}

func (r memoryProductRepo) Increment(ctx context.Context, id uuid.UUID, qty int64) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.products[id]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	r.store.products[id] = current + qty
	return current + qty, nil
}

type memoryProcessedOrderRepo struct{ store *memoryStore }

func (r memoryProcessedOrderRepo) Exists(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if r.store.beforeExists != nil {
		r.store.beforeExists()
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.processed[orderID], nil
}

func (r memoryProcessedOrderRepo) Create(ctx context.Context, record *domain.ProcessedOrder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.processed[record.OrderID] {
		return domain.ErrOrderAlreadyProcessed
	}
	r.store.processed[record.OrderID] = true
	return nil
}
