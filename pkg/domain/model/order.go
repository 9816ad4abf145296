package model

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOptimisticLock     = errors.New("record has been modified by another transaction")
	ErrOrderNotActive     = errors.New("only active orders can be changed")
	ErrOrderNotCancelled  = errors.New("only cancelled orders can be restored")
	ErrOrderNotArchivable = errors.New("only completed or cancelled orders can be archived")
	ErrOrderNotArchived   = errors.New("only archived orders can be deleted")
)

type OrderStatus int

const (
	Active OrderStatus = iota
	Completed
	Cancelled
	Archived
)

func (s OrderStatus) String() string {
	switch s {
	case Active:
		return "active"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Archived:
		return "archived"
	}
	return "unknown"
}

// OrderItem is created once at reservation time and never mutated afterwards.
// UnitPriceCents is a snapshot of the product price and does not follow later
// price changes.
type OrderItem struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	Quantity       int
	UnitPriceCents int64
}

type Order struct {
	ID           uuid.UUID
	CustomerName string
	Status       OrderStatus
	Items        []OrderItem
	TotalCents   int64
	Version      int
	CreatedAt    time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
	ArchivedAt   *time.Time
}

// AddItem records a line item with a snapshot of the product price and
// recalculates the total. The stock reservation for the line must have
// succeeded before this call; AddItem itself performs no I/O.
func (o *Order) AddItem(itemID uuid.UUID, product *Product, quantity int) (OrderItem, error) {
	if quantity <= 0 {
		return OrderItem{}, ErrInvalidQuantity
	}

	item := OrderItem{
		ID:             itemID,
		ProductID:      product.ID,
		Quantity:       quantity,
		UnitPriceCents: product.PriceCents,
	}
	o.Items = append(o.Items, item)
	o.RecalculateTotal()
	return item, nil
}

// RecalculateTotal keeps TotalCents equal to the sum of quantity times the
// snapshot price over all line items.
func (o *Order) RecalculateTotal() {
	var total int64
	for _, item := range o.Items {
		total += int64(item.Quantity) * item.UnitPriceCents
	}
	o.TotalCents = total
}

func (o *Order) Complete() error {
	if o.Status != Active {
		return ErrOrderNotActive
	}
	now := time.Now().UTC()
	o.Status = Completed
	o.CompletedAt = &now
	return nil
}

func (o *Order) Cancel() error {
	if o.Status != Active {
		return ErrOrderNotActive
	}
	now := time.Now().UTC()
	o.Status = Cancelled
	o.CancelledAt = &now
	return nil
}

func (o *Order) RestoreFromCancelled() error {
	if o.Status != Cancelled {
		return ErrOrderNotCancelled
	}
	o.Status = Active
	o.CancelledAt = nil
	return nil
}

func (o *Order) Archive() error {
	if o.Status != Completed && o.Status != Cancelled {
		return ErrOrderNotArchivable
	}
	now := time.Now().UTC()
	o.Status = Archived
	o.ArchivedAt = &now
	return nil
}

type OrderRepository interface {
	NextID() (uuid.UUID, error)
	Create(ctx context.Context, order *Order) error
	Update(ctx context.Context, order *Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	Find(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByStatus(ctx context.Context, status OrderStatus) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	// ListSince returns non-archived orders created at or after the cutoff.
	ListSince(ctx context.Context, cutoff time.Time) ([]Order, error)
	HasItemsForProduct(ctx context.Context, productID uuid.UUID) (bool, error)
}

// TxManager runs fn within one transactional scope: every repository call made
// with the derived context commits or rolls back as a unit.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
