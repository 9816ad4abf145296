package tests

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/model"
	"github.com/valerusyaaa/crossplatform2/pkg/domain/service"
)

// memoryStore backs every repository in the tests. A transaction takes the
// write lock for its whole scope and marks the context so that nested
// repository calls skip their own locking.
type memoryStore struct {
	mu         sync.RWMutex
	products   map[uuid.UUID]model.Product
	categories map[uuid.UUID]model.Category
	orders     map[uuid.UUID]model.Order
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		products:   make(map[uuid.UUID]model.Product),
		categories: make(map[uuid.UUID]model.Category),
		orders:     make(map[uuid.UUID]model.Order),
	}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, ok := ctx.Value(txKey{}).(bool)
	return ok && v
}

func (m *memoryStore) rlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.RLock()
	}
}

func (m *memoryStore) runlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.RUnlock()
	}
}

func (m *memoryStore) wlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.Lock()
	}
}

func (m *memoryStore) wunlock(ctx context.Context) {
	if !inTx(ctx) {
		m.mu.Unlock()
	}
}

type memoryTx struct{ s *memoryStore }

var _ model.TxManager = &memoryTx{}

// WithTransaction serializes transactions with the store lock and restores a
// snapshot of the whole store when fn fails, so a failed multi-step mutation
// leaves no partial state behind.
func (tx *memoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()

	products := make(map[uuid.UUID]model.Product, len(tx.s.products))
	for id, p := range tx.s.products {
		products[id] = p
	}
	categories := make(map[uuid.UUID]model.Category, len(tx.s.categories))
	for id, c := range tx.s.categories {
		categories[id] = c
	}
	orders := make(map[uuid.UUID]model.Order, len(tx.s.orders))
	for id, o := range tx.s.orders {
		orders[id] = cloneOrder(o)
	}

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		tx.s.products = products
		tx.s.categories = categories
		tx.s.orders = orders
		return err
	}
	return nil
}

type memoryProducts struct{ s *memoryStore }

var _ model.ProductRepository = &memoryProducts{}

func (m *memoryProducts) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (m *memoryProducts) Create(ctx context.Context, p *model.Product) error {
	m.s.wlock(ctx)
	defer m.s.wunlock(ctx)
	m.s.products[p.ID] = *p
	return nil
}

func (m *memoryProducts) Update(ctx context.Context, p *model.Product) error {
	m.s.wlock(ctx)
	defer m.s.wunlock(ctx)
	existing, ok := m.s.products[p.ID]
	if !ok {
		return model.ErrProductNotFound
	}
	if existing.Version != p.Version-1 {
		return model.ErrOptimisticLock
	}
	m.s.products[p.ID] = *p
	return nil
}

func (m *memoryProducts) Delete(ctx context.Context, id uuid.UUID) error {
	m.s.wlock(ctx)
	defer m.s.wunlock(ctx)
	if _, ok := m.s.products[id]; !ok {
		return model.ErrProductNotFound
	}
	delete(m.s.products, id)
	return nil
}

func (m *memoryProducts) Find(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	m.s.rlock(ctx)
	defer m.s.runlock(ctx)
	p, ok := m.s.products[id]
	if !ok {
		return nil, model.ErrProductNotFound
	}
	clone := p
	return &clone, nil
}

func (m *memoryProducts) FindByName(ctx context.Context, name string) (*model.Product, error) {
	m.s.rlock(ctx)
	defer m.s.runlock(ctx)
	for _, p := range m.s.products {
		if strings.EqualFold(p.Name, name) {
			clone := p
			return &clone, nil
		}
	}
	return nil, model.ErrProductNotFound
}

func (m *memoryProducts) List(ctx context.Context) ([]model.Product, error) {
	m.s.rlock(ctx)
	defer m.s.runlock(ctx)
	out := make([]model.Product, 0, len(m.s.products))
	for _, p := range m.s.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryProducts) ListAvailable(ctx context.Context) ([]model.Product, error) {
	m.s.rlock(ctx)
	defer m.s.runlock(ctx)
	out := make([]model.Product, 0)
	for _, p := range m.s.products {
		if p.StockQuantity > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryProducts) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]model.Product, error) {
	m.s.rlock(ctx)
	defer m.s.runlock(ctx)
	out := make([]model.Product, 0)
	for _, p := range m.s.products {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryProducts) Search(ctx context.Context, name string) ([]model.Product, error) {
	m.s.rlock(ctx)
	defer m.s.runlock(ctx)
	out := make([]model.Product, 0)
	for _, p := range m.s.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryProducts) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	m.s.wlock(ctx)
	defer m.s.wunlock(ctx)
	p, ok := m.s.products[id]
	if !ok {
		return model.ErrProductNotFound
	}
	if p.StockQuantity+delta < 0 {
		return model.ErrInsufficientStock
	}
	p.StockQuantity += delta
	p.UpdatedAt = time.Now().UTC()
	m.s.products[id] = p
	return nil
}

type memoryCategories struct{ s *memoryStore }

var _ model.CategoryRepository = &memoryCategories{}

func (m *memoryCategories) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (m *memoryCategories) Create(ctx context.Context, c *model.Category) error {
	m.s.wlock(ctx)
	defer m.s.wunlock(ctx)
	m.s.categories[c.ID] = *c
	return nil
}

func (m *memoryCategories) Update(ctx context.Context, c *model.Category) error {
	m.s.wlock(ctx)
	defer m.s.wunlock(ctx)
	existing, ok := m.s.categories[c.ID]
	if !ok {
		return model.ErrCategoryNotFound
	}
	if existing.Version != c.Version-1 {
		return model.ErrOptimisticLock
	}
	m.s.categories[c.ID] = *c
	return nil
}

func (m *memoryCategories) Delete(ctx context.Context, id uuid.UUID) error {
	m.s.wlock(ctx)
	defer m.s.wunlock(ctx)
	if _, ok := m.s.categories[id]; !ok {
		return model.ErrCategoryNotFound
	}
	delete(m.s.categories, id)
	return nil
}

func (m *memoryCategories) Find(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	m.s.rlock(ctx)
	defer m.s.runlock(ctx)
	c, ok := m.s.categories[id]
	if !ok {
		return nil, model.ErrCategoryNotFound
	}
	clone := c
	return &clone, nil
}

func (m *memoryCategories) FindByName(ctx context.Context, name string) (*model.Category, error) {
	m.s.rlock(ctx)
	defer m.s.runlock(ctx)
	for _, c := range m.s.categories {
		if strings.EqualFold(c.Name, name) {
			clone := c
			return &clone, nil
		}
	}
	return nil, model.ErrCategoryNotFound
}

func (m *memoryCategories) List(ctx context.Context) ([]model.Category, error) {
	m.s.rlock(ctx)
	defer m.s.runlock(ctx)
	out := make([]model.Category, 0, len(m.s.categories))
	for _, c := range m.s.categories {
		out = append(out, c)
	}
	return out, nil
}

type memoryOrders struct{ s *memoryStore }

var _ model.OrderRepository = &memoryOrders{}

func cloneOrder(o model.Order) model.Order {
	clone := o
	clone.Items = append([]model.OrderItem(nil), o.Items...)
	return clone
}

func (m *memoryOrders) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (m *memoryOrders) Create(ctx context.Context, o *model.Order) error {
	m.s.wlock(ctx)
	defer m.s.wunlock(ctx)
	m.s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (m *memoryOrders) Update(ctx context.Context, o *model.Order) error {
	m.s.wlock(ctx)
	defer m.s.wunlock(ctx)
	existing, ok := m.s.orders[o.ID]
	if !ok {
		return model.ErrOrderNotFound
	}
	if existing.Version != o.Version-1 {
		return model.ErrOptimisticLock
	}
	m.s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (m *memoryOrders) Delete(ctx context.Context, id uuid.UUID) error {
	m.s.wlock(ctx)
	defer m.s.wunlock(ctx)
	if _, ok := m.s.orders[id]; !ok {
		return model.ErrOrderNotFound
	}
	delete(m.s.orders, id)
	return nil
}

func (m *memoryOrders) Find(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	m.s.rlock(ctx)
	defer m.s.runlock(ctx)
	o, ok := m.s.orders[id]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	clone := cloneOrder(o)
	return &clone, nil
}

func (m *memoryOrders) ListByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	m.s.rlock(ctx)
	defer m.s.runlock(ctx)
	out := make([]model.Order, 0)
	for _, o := range m.s.orders {
		if o.Status == status {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryOrders) ListAll(ctx context.Context) ([]model.Order, error) {
	m.s.rlock(ctx)
	defer m.s.runlock(ctx)
	out := make([]model.Order, 0, len(m.s.orders))
	for _, o := range m.s.orders {
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (m *memoryOrders) ListSince(ctx context.Context, cutoff time.Time) ([]model.Order, error) {
	m.s.rlock(ctx)
	defer m.s.runlock(ctx)
	out := make([]model.Order, 0)
	for _, o := range m.s.orders {
		if o.Status != model.Archived && !o.CreatedAt.Before(cutoff) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryOrders) HasItemsForProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	m.s.rlock(ctx)
	defer m.s.runlock(ctx)
	for _, o := range m.s.orders {
		for _, item := range o.Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

var _ service.EventDispatcher = &mockEventDispatcher{}

type mockEventDispatcher struct {
	mu     sync.Mutex
	events []service.Event
}

func (m *mockEventDispatcher) Dispatch(event service.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventDispatcher) Events() []service.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]service.Event(nil), m.events...)
}

func (m *mockEventDispatcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
