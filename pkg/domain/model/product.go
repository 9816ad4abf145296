package model

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock quantity")
	ErrInvalidQuantity   = errors.New("quantity must be a positive number")
)

type Product struct {
	ID            uuid.UUID
	Name          string
	PriceCents    int64
	StockQuantity int
	CategoryID    uuid.UUID
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsAvailable is derived from the stock count and is never stored on its own.
func (p *Product) IsAvailable() bool {
	return p.StockQuantity > 0
}

type ProductRepository interface {
	NextID() (uuid.UUID, error)
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Find(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByName matches the product name case-insensitively.
	FindByName(ctx context.Context, name string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	ListAvailable(ctx context.Context) ([]Product, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]Product, error)
	Search(ctx context.Context, name string) ([]Product, error)
	// AdjustStock applies delta to the stock count as a single atomic
	// read-modify-write. It fails with ErrInsufficientStock when the result
	// would drop below zero and leaves the count untouched.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}
