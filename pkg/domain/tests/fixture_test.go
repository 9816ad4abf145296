package tests

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/model"
	"github.com/valerusyaaa/crossplatform2/pkg/domain/service"
)

type fixture struct {
	store      *memoryStore
	products   *memoryProducts
	categories *memoryCategories
	orders     *memoryOrders
	dispatcher *mockEventDispatcher

	ledger      service.StockLedger
	orderSvc    service.OrderService
	productSvc  service.ProductService
	categorySvc service.CategoryService
	reportSvc   service.ReportService
}

func setup(t *testing.T) *fixture {
	t.Helper()

	store := newMemoryStore()
	f := &fixture{
		store:      store,
		products:   &memoryProducts{s: store},
		categories: &memoryCategories{s: store},
		orders:     &memoryOrders{s: store},
		dispatcher: &mockEventDispatcher{},
	}
	tx := &memoryTx{s: store}

	f.ledger = service.NewStockLedger(f.products)
	f.orderSvc = service.NewOrderService(f.orders, f.products, f.ledger, tx, f.dispatcher)
	f.productSvc = service.NewProductService(f.products, f.categories, f.orders, f.ledger, tx, f.dispatcher)
	f.categorySvc = service.NewCategoryService(f.categories, f.products, tx, f.dispatcher)
	f.reportSvc = service.NewReportService(f.orders, f.products)
	return f
}

func (f *fixture) seedCategory(t *testing.T, name string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	now := time.Now().UTC()
	f.store.categories[id] = model.Category{
		ID:        id,
		Name:      name,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id
}

func (f *fixture) seedProduct(t *testing.T, name string, priceCents int64, stock int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	now := time.Now().UTC()
	f.store.products[id] = model.Product{
		ID:            id,
		Name:          name,
		PriceCents:    priceCents,
		StockQuantity: stock,
		CategoryID:    f.seedCategory(t, name+" category"),
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return id
}

func (f *fixture) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()

	p, ok := f.store.products[id]
	if !ok {
		t.Fatalf("product %s not found in store", id)
	}
	return p.StockQuantity
}
