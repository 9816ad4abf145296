package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/model"
)

// StockLedger is the single point of truth for stock mutation. Every stock
// change in the system goes through Reserve or Release; nothing else touches
// the counter.
type StockLedger interface {
	// Reserve atomically checks and decrements stock by quantity. Two
	// concurrent reservations never both succeed when their combined quantity
	// exceeds the available stock.
	Reserve(ctx context.Context, productID uuid.UUID, quantity int) error
	// Release atomically increments stock by quantity. It is used only to undo
	// a reservation: rollback of a failed multi-line create or cancellation of
	// an active order.
	Release(ctx context.Context, productID uuid.UUID, quantity int) error
}

func NewStockLedger(products model.ProductRepository) StockLedger {
	return &stockLedger{products: products}
}

type stockLedger struct {
	products model.ProductRepository
}

func (l *stockLedger) Reserve(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return model.ErrInvalidQuantity
	}
	return l.products.AdjustStock(ctx, productID, -quantity)
}

func (l *stockLedger) Release(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return model.ErrInvalidQuantity
	}
	return l.products.AdjustStock(ctx, productID, quantity)
}
