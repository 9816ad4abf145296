package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/model"
)

var (
	ErrEmptyProductName = errors.New("product name must not be empty")
	ErrNegativePrice    = errors.New("product price cannot be negative")
	ErrNegativeStock    = errors.New("initial stock cannot be negative")
	ErrProductNameTaken = errors.New("a product with this name already exists")
	ErrProductInUse     = errors.New("product is referenced by order items")
)

type ProductService interface {
	CreateProduct(ctx context.Context, name string, priceCents int64, initialStock int, categoryID uuid.UUID) (*model.Product, error)
	// UpdateProduct changes name, price and category. Stock is deliberately
	// excluded: the counter moves only through ReceiveStock and ReserveStock.
	UpdateProduct(ctx context.Context, productID uuid.UUID, name string, priceCents int64, categoryID uuid.UUID) error
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	ReceiveStock(ctx context.Context, productID uuid.UUID, quantity int) error
	ReserveStock(ctx context.Context, productID uuid.UUID, quantity int) error

	FindProduct(ctx context.Context, productID uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListAvailableProducts(ctx context.Context) ([]model.Product, error)
	SearchProducts(ctx context.Context, name string) ([]model.Product, error)
}

func NewProductService(
	products model.ProductRepository,
	categories model.CategoryRepository,
	orders model.OrderRepository,
	ledger StockLedger,
	tx model.TxManager,
	dispatcher EventDispatcher,
) ProductService {
	return &productService{
		products:   products,
		categories: categories,
		orders:     orders,
		ledger:     ledger,
		tx:         tx,
		dispatcher: dispatcher,
	}
}

type productService struct {
	products   model.ProductRepository
	categories model.CategoryRepository
	orders     model.OrderRepository
	ledger     StockLedger
	tx         model.TxManager
	dispatcher EventDispatcher
}

func (s *productService) CreateProduct(ctx context.Context, name string, priceCents int64, initialStock int, categoryID uuid.UUID) (*model.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyProductName
	}
	if priceCents < 0 {
		return nil, ErrNegativePrice
	}
	if initialStock < 0 {
		return nil, ErrNegativeStock
	}

	var created *model.Product
	err := runInTx(ctx, s.tx, func(ctx context.Context) error {
		created = nil

		if _, err := s.categories.Find(ctx, categoryID); err != nil {
			return err
		}
		if err := s.checkNameFree(ctx, name, uuid.Nil); err != nil {
			return err
		}

		productID, err := s.products.NextID()
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		product := &model.Product{
			ID:            productID,
			Name:          name,
			PriceCents:    priceCents,
			StockQuantity: initialStock,
			CategoryID:    categoryID,
			Version:       1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.products.Create(ctx, product); err != nil {
			return err
		}
		created = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.dispatcher.Dispatch(model.ProductCreated{ProductID: created.ID, Name: created.Name})
	return created, nil
}

func (s *productService) UpdateProduct(ctx context.Context, productID uuid.UUID, name string, priceCents int64, categoryID uuid.UUID) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyProductName
	}
	if priceCents < 0 {
		return ErrNegativePrice
	}

	return runInTx(ctx, s.tx, func(ctx context.Context) error {
		product, err := s.products.Find(ctx, productID)
		if err != nil {
			return err
		}
		if _, err := s.categories.Find(ctx, categoryID); err != nil {
			return err
		}
		if err := s.checkNameFree(ctx, name, productID); err != nil {
			return err
		}

		product.Name = name
		product.PriceCents = priceCents
		product.CategoryID = categoryID
		return s.updateProduct(ctx, product)
	})
}

func (s *productService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	return runInTx(ctx, s.tx, func(ctx context.Context) error {
		if _, err := s.products.Find(ctx, productID); err != nil {
			return err
		}
		inUse, err := s.orders.HasItemsForProduct(ctx, productID)
		if err != nil {
			return err
		}
		if inUse {
			return ErrProductInUse
		}
		return s.products.Delete(ctx, productID)
	})
}

func (s *productService) ReceiveStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	err := runInTx(ctx, s.tx, func(ctx context.Context) error {
		return s.ledger.Release(ctx, productID, quantity)
	})
	if err != nil {
		return err
	}

	_ = s.dispatcher.Dispatch(model.ProductStockChanged{ProductID: productID, ChangeAmount: quantity})
	return nil
}

func (s *productService) ReserveStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	err := runInTx(ctx, s.tx, func(ctx context.Context) error {
		return s.ledger.Reserve(ctx, productID, quantity)
	})
	if err != nil {
		return err
	}

	_ = s.dispatcher.Dispatch(model.ProductStockChanged{ProductID: productID, ChangeAmount: -quantity})
	return nil
}

func (s *productService) FindProduct(ctx context.Context, productID uuid.UUID) (*model.Product, error) {
	return s.products.Find(ctx, productID)
}

func (s *productService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.products.List(ctx)
}

func (s *productService) ListAvailableProducts(ctx context.Context) ([]model.Product, error) {
	return s.products.ListAvailable(ctx)
}

func (s *productService) SearchProducts(ctx context.Context, name string) ([]model.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []model.Product{}, nil
	}
	return s.products.Search(ctx, name)
}

func (s *productService) checkNameFree(ctx context.Context, name string, selfID uuid.UUID) error {
	existing, err := s.products.FindByName(ctx, name)
	if errors.Is(err, model.ErrProductNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return ErrProductNameTaken
	}
	return nil
}

func (s *productService) updateProduct(ctx context.Context, product *model.Product) error {
	product.Version++
	product.UpdatedAt = time.Now().UTC()
	return s.products.Update(ctx, product)
}
