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
	ErrEmptyCustomerName = errors.New("customer name must not be empty")
	ErrEmptyOrder        = errors.New("cannot create an order without items")
)

// OrderLine is one requested (product, quantity) pair of a creation request.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

type OrderService interface {
	// CreateOrder turns the requested lines into a fully-reserved order or has
	// no effect at all: if any line fails, reservations made for earlier lines
	// are rolled back before the error reaches the caller.
	CreateOrder(ctx context.Context, customerName string, lines []OrderLine) (*model.Order, error)
	CompleteOrder(ctx context.Context, orderID uuid.UUID) error
	// CancelOrder releases the stock reserved by every line item exactly once
	// and moves the order to Cancelled in the same transactional scope.
	CancelOrder(ctx context.Context, orderID uuid.UUID) error
	ArchiveOrder(ctx context.Context, orderID uuid.UUID) error
	// RestoreOrder moves a cancelled order back to Active and re-reserves the
	// stock of every line item; it fails with ErrInsufficientStock when the
	// inventory no longer covers the order.
	RestoreOrder(ctx context.Context, orderID uuid.UUID) error
	DeleteArchivedOrder(ctx context.Context, orderID uuid.UUID) error
	UpdateOrderCustomer(ctx context.Context, orderID uuid.UUID, customerName string) error

	FindOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
}

func NewOrderService(
	orders model.OrderRepository,
	products model.ProductRepository,
	ledger StockLedger,
	tx model.TxManager,
	dispatcher EventDispatcher,
) OrderService {
	return &orderService{
		orders:     orders,
		products:   products,
		ledger:     ledger,
		tx:         tx,
		dispatcher: dispatcher,
	}
}

type orderService struct {
	orders     model.OrderRepository
	products   model.ProductRepository
	ledger     StockLedger
	tx         model.TxManager
	dispatcher EventDispatcher
}

func (s *orderService) CreateOrder(ctx context.Context, customerName string, lines []OrderLine) (*model.Order, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return nil, ErrEmptyCustomerName
	}
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, model.ErrInvalidQuantity
		}
	}

	var created *model.Order
	err := runInTx(ctx, s.tx, func(ctx context.Context) error {
		created = nil

		orderID, err := s.orders.NextID()
		if err != nil {
			return err
		}
		order := &model.Order{
			ID:           orderID,
			CustomerName: customerName,
			Status:       model.Active,
			Version:      1,
			CreatedAt:    time.Now().UTC(),
		}

		for _, line := range lines {
			product, err := s.products.Find(ctx, line.ProductID)
			if err != nil {
				return err
			}
			// No availability pre-check: Reserve decides atomically, so a
			// sold-out line always surfaces as ErrInsufficientStock even
			// under concurrent requests.
			if err := s.ledger.Reserve(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}

			itemID, err := s.orders.NextID()
			if err != nil {
				return err
			}
			if _, err := order.AddItem(itemID, product, line.Quantity); err != nil {
				return err
			}
		}

		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.dispatcher.Dispatch(model.OrderCreated{
		OrderID:      created.ID,
		CustomerName: created.CustomerName,
		TotalCents:   created.TotalCents,
		ItemCount:    len(created.Items),
	})
	return created, nil
}

func (s *orderService) CompleteOrder(ctx context.Context, orderID uuid.UUID) error {
	err := runInTx(ctx, s.tx, func(ctx context.Context) error {
		order, err := s.orders.Find(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Complete(); err != nil {
			return err
		}
		return s.updateOrder(ctx, order)
	})
	if err != nil {
		return err
	}

	_ = s.dispatcher.Dispatch(model.OrderCompleted{OrderID: orderID})
	return nil
}

func (s *orderService) CancelOrder(ctx context.Context, orderID uuid.UUID) error {
	err := runInTx(ctx, s.tx, func(ctx context.Context) error {
		order, err := s.orders.Find(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Cancel(); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := s.ledger.Release(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return s.updateOrder(ctx, order)
	})
	if err != nil {
		return err
	}

	_ = s.dispatcher.Dispatch(model.OrderCancelled{OrderID: orderID})
	return nil
}

func (s *orderService) ArchiveOrder(ctx context.Context, orderID uuid.UUID) error {
	err := runInTx(ctx, s.tx, func(ctx context.Context) error {
		order, err := s.orders.Find(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Archive(); err != nil {
			return err
		}
		return s.updateOrder(ctx, order)
	})
	if err != nil {
		return err
	}

	_ = s.dispatcher.Dispatch(model.OrderArchived{OrderID: orderID})
	return nil
}

func (s *orderService) RestoreOrder(ctx context.Context, orderID uuid.UUID) error {
	err := runInTx(ctx, s.tx, func(ctx context.Context) error {
		order, err := s.orders.Find(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.RestoreFromCancelled(); err != nil {
			return err
		}
		// A restored active order must hold real reservations again, otherwise
		// cancelling it a second time would mint stock out of nothing.
		for _, item := range order.Items {
			if err := s.ledger.Reserve(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return s.updateOrder(ctx, order)
	})
	if err != nil {
		return err
	}

	_ = s.dispatcher.Dispatch(model.OrderRestored{OrderID: orderID})
	return nil
}

func (s *orderService) DeleteArchivedOrder(ctx context.Context, orderID uuid.UUID) error {
	err := runInTx(ctx, s.tx, func(ctx context.Context) error {
		order, err := s.orders.Find(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != model.Archived {
			return model.ErrOrderNotArchived
		}
		return s.orders.Delete(ctx, orderID)
	})
	if err != nil {
		return err
	}

	_ = s.dispatcher.Dispatch(model.OrderDeleted{OrderID: orderID})
	return nil
}

func (s *orderService) UpdateOrderCustomer(ctx context.Context, orderID uuid.UUID, customerName string) error {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return ErrEmptyCustomerName
	}

	return runInTx(ctx, s.tx, func(ctx context.Context) error {
		order, err := s.orders.Find(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != model.Active {
			return model.ErrOrderNotActive
		}
		order.CustomerName = customerName
		return s.updateOrder(ctx, order)
	})
}

func (s *orderService) FindOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	return s.orders.Find(ctx, orderID)
}

func (s *orderService) ListOrders(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	return s.orders.ListByStatus(ctx, status)
}

func (s *orderService) updateOrder(ctx context.Context, order *model.Order) error {
	order.Version++
	return s.orders.Update(ctx, order)
}
