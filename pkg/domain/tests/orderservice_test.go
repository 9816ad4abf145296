package tests

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/model"
	"github.com/valerusyaaa/crossplatform2/pkg/domain/service"
)

func TestCreateOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	teaID := f.seedProduct(t, "Green tea", 1000, 10)
	honeyID := f.seedProduct(t, "Honey", 500, 4)

	t.Run("Success", func(t *testing.T) {
		f.dispatcher.Reset()

		order, err := f.orderSvc.CreateOrder(ctx, "Alice", []service.OrderLine{
			{ProductID: teaID, Quantity: 2},
			{ProductID: honeyID, Quantity: 1},
		})
		require.NoError(t, err)
		require.NotNil(t, order)

		assert.Equal(t, model.Active, order.Status)
		assert.Equal(t, int64(2500), order.TotalCents)
		require.Len(t, order.Items, 2)
		// line items keep request order
		assert.Equal(t, teaID, order.Items[0].ProductID)
		assert.Equal(t, int64(1000), order.Items[0].UnitPriceCents)
		assert.Equal(t, honeyID, order.Items[1].ProductID)

		assert.Equal(t, 8, f.stockOf(t, teaID))
		assert.Equal(t, 3, f.stockOf(t, honeyID))

		saved, err := f.orderSvc.FindOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2500), saved.TotalCents)

		events := f.dispatcher.Events()
		require.Len(t, events, 1)
		created, ok := events[0].(model.OrderCreated)
		require.True(t, ok)
		assert.Equal(t, order.ID, created.OrderID)
	})

	t.Run("Total keeps the price snapshot", func(t *testing.T) {
		order, err := f.orderSvc.CreateOrder(ctx, "Bob", []service.OrderLine{
			{ProductID: teaID, Quantity: 1},
		})
		require.NoError(t, err)

		p := f.store.products[teaID]
		p.PriceCents = 9999
		f.store.products[teaID] = p

		reloaded, err := f.orderSvc.FindOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), reloaded.TotalCents)
	})

	t.Run("Fail on empty customer name", func(t *testing.T) {
		_, err := f.orderSvc.CreateOrder(ctx, "   ", []service.OrderLine{{ProductID: teaID, Quantity: 1}})
		assert.ErrorIs(t, err, service.ErrEmptyCustomerName)
	})

	t.Run("Fail on empty order", func(t *testing.T) {
		_, err := f.orderSvc.CreateOrder(ctx, "Alice", nil)
		assert.ErrorIs(t, err, service.ErrEmptyOrder)
	})

	t.Run("Fail on non-positive quantity", func(t *testing.T) {
		before := f.stockOf(t, teaID)
		_, err := f.orderSvc.CreateOrder(ctx, "Alice", []service.OrderLine{{ProductID: teaID, Quantity: 0}})
		assert.ErrorIs(t, err, model.ErrInvalidQuantity)
		assert.Equal(t, before, f.stockOf(t, teaID))
	})

	t.Run("Fail on sold-out product", func(t *testing.T) {
		soldOutID := f.seedProduct(t, "Sold out", 100, 0)
		_, err := f.orderSvc.CreateOrder(ctx, "Alice", []service.OrderLine{{ProductID: soldOutID, Quantity: 1}})
		assert.ErrorIs(t, err, model.ErrInsufficientStock)
		assert.Equal(t, 0, f.stockOf(t, soldOutID))
	})
}

func TestCreateOrderIsAllOrNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("Unknown product on a later line", func(t *testing.T) {
		firstID := f.seedProduct(t, "First", 100, 10)

		_, err := f.orderSvc.CreateOrder(ctx, "Alice", []service.OrderLine{
			{ProductID: firstID, Quantity: 3},
			{ProductID: uuid.New(), Quantity: 1},
		})
		assert.ErrorIs(t, err, model.ErrProductNotFound)

		assert.Equal(t, 10, f.stockOf(t, firstID))
		assert.Empty(t, f.store.orders)
	})

	t.Run("Insufficient stock on the middle line", func(t *testing.T) {
		aID := f.seedProduct(t, "A", 100, 10)
		bID := f.seedProduct(t, "B", 100, 1)
		cID := f.seedProduct(t, "C", 100, 10)

		_, err := f.orderSvc.CreateOrder(ctx, "Alice", []service.OrderLine{
			{ProductID: aID, Quantity: 2},
			{ProductID: bID, Quantity: 5},
			{ProductID: cID, Quantity: 1},
		})
		assert.ErrorIs(t, err, model.ErrInsufficientStock)

		assert.Equal(t, 10, f.stockOf(t, aID))
		assert.Equal(t, 1, f.stockOf(t, bID))
		assert.Equal(t, 10, f.stockOf(t, cID))
		assert.Empty(t, f.store.orders)
	})
}

func TestCompleteOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	productID := f.seedProduct(t, "Soap", 300, 10)

	order, err := f.orderSvc.CreateOrder(ctx, "Alice", []service.OrderLine{{ProductID: productID, Quantity: 2}})
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		f.dispatcher.Reset()
		require.NoError(t, f.orderSvc.CompleteOrder(ctx, order.ID))

		saved := f.store.orders[order.ID]
		assert.Equal(t, model.Completed, saved.Status)
		require.NotNil(t, saved.CompletedAt)
		// completing an order does not restore stock
		assert.Equal(t, 8, f.stockOf(t, productID))

		events := f.dispatcher.Events()
		require.Len(t, events, 1)
		_, ok := events[0].(model.OrderCompleted)
		assert.True(t, ok)
	})

	t.Run("Fail when not active", func(t *testing.T) {
		err := f.orderSvc.CompleteOrder(ctx, order.ID)
		assert.ErrorIs(t, err, model.ErrOrderNotActive)
		assert.Equal(t, model.Completed, f.store.orders[order.ID].Status)
	})

	t.Run("Fail on unknown order", func(t *testing.T) {
		err := f.orderSvc.CompleteOrder(ctx, uuid.New())
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestCancelOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	teaID := f.seedProduct(t, "Tea", 1000, 10)
	honeyID := f.seedProduct(t, "Honey", 500, 4)

	order, err := f.orderSvc.CreateOrder(ctx, "Alice", []service.OrderLine{
		{ProductID: teaID, Quantity: 3},
		{ProductID: honeyID, Quantity: 2},
	})
	require.NoError(t, err)
	require.Equal(t, 7, f.stockOf(t, teaID))
	require.Equal(t, 2, f.stockOf(t, honeyID))

	t.Run("Releases every line exactly once", func(t *testing.T) {
		f.dispatcher.Reset()
		require.NoError(t, f.orderSvc.CancelOrder(ctx, order.ID))

		saved := f.store.orders[order.ID]
		assert.Equal(t, model.Cancelled, saved.Status)
		require.NotNil(t, saved.CancelledAt)

		assert.Equal(t, 10, f.stockOf(t, teaID))
		assert.Equal(t, 4, f.stockOf(t, honeyID))

		events := f.dispatcher.Events()
		require.Len(t, events, 1)
		_, ok := events[0].(model.OrderCancelled)
		assert.True(t, ok)
	})

	t.Run("Second cancel fails and does not restock again", func(t *testing.T) {
		err := f.orderSvc.CancelOrder(ctx, order.ID)
		assert.ErrorIs(t, err, model.ErrOrderNotActive)
		assert.Equal(t, 10, f.stockOf(t, teaID))
		assert.Equal(t, 4, f.stockOf(t, honeyID))
	})
}

func TestArchiveOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	productID := f.seedProduct(t, "Salt", 100, 10)

	t.Run("Fail on active order", func(t *testing.T) {
		order, err := f.orderSvc.CreateOrder(ctx, "Alice", []service.OrderLine{{ProductID: productID, Quantity: 1}})
		require.NoError(t, err)

		err = f.orderSvc.ArchiveOrder(ctx, order.ID)
		assert.ErrorIs(t, err, model.ErrOrderNotArchivable)
		assert.Equal(t, model.Active, f.store.orders[order.ID].Status)
	})

	t.Run("Archive completed order", func(t *testing.T) {
		order, err := f.orderSvc.CreateOrder(ctx, "Alice", []service.OrderLine{{ProductID: productID, Quantity: 1}})
		require.NoError(t, err)
		require.NoError(t, f.orderSvc.CompleteOrder(ctx, order.ID))

		require.NoError(t, f.orderSvc.ArchiveOrder(ctx, order.ID))
		saved := f.store.orders[order.ID]
		assert.Equal(t, model.Archived, saved.Status)
		require.NotNil(t, saved.ArchivedAt)
	})

	t.Run("Archive cancelled order without restocking again", func(t *testing.T) {
		order, err := f.orderSvc.CreateOrder(ctx, "Alice", []service.OrderLine{{ProductID: productID, Quantity: 2}})
		require.NoError(t, err)
		require.NoError(t, f.orderSvc.CancelOrder(ctx, order.ID))
		before := f.stockOf(t, productID)

		require.NoError(t, f.orderSvc.ArchiveOrder(ctx, order.ID))
		assert.Equal(t, model.Archived, f.store.orders[order.ID].Status)
		assert.Equal(t, before, f.stockOf(t, productID))
	})
}

func TestRestoreOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("Restore re-reserves stock", func(t *testing.T) {
		productID := f.seedProduct(t, "Flour", 200, 5)
		order, err := f.orderSvc.CreateOrder(ctx, "Alice", []service.OrderLine{{ProductID: productID, Quantity: 3}})
		require.NoError(t, err)
		require.NoError(t, f.orderSvc.CancelOrder(ctx, order.ID))
		require.Equal(t, 5, f.stockOf(t, productID))

		require.NoError(t, f.orderSvc.RestoreOrder(ctx, order.ID))

		saved := f.store.orders[order.ID]
		assert.Equal(t, model.Active, saved.Status)
		assert.Nil(t, saved.CancelledAt)
		assert.Equal(t, 2, f.stockOf(t, productID))
	})

	t.Run("Restore fails when stock was sold in between", func(t *testing.T) {
		productID := f.seedProduct(t, "Sugar", 200, 5)
		order, err := f.orderSvc.CreateOrder(ctx, "Alice", []service.OrderLine{{ProductID: productID, Quantity: 4}})
		require.NoError(t, err)
		require.NoError(t, f.orderSvc.CancelOrder(ctx, order.ID))

		// someone else buys most of the returned stock
		_, err = f.orderSvc.CreateOrder(ctx, "Bob", []service.OrderLine{{ProductID: productID, Quantity: 3}})
		require.NoError(t, err)

		err = f.orderSvc.RestoreOrder(ctx, order.ID)
		assert.ErrorIs(t, err, model.ErrInsufficientStock)
		assert.Equal(t, model.Cancelled, f.store.orders[order.ID].Status)
		assert.Equal(t, 2, f.stockOf(t, productID))
	})

	t.Run("Fail when not cancelled", func(t *testing.T) {
		productID := f.seedProduct(t, "Rice", 200, 5)
		order, err := f.orderSvc.CreateOrder(ctx, "Alice", []service.OrderLine{{ProductID: productID, Quantity: 1}})
		require.NoError(t, err)

		err = f.orderSvc.RestoreOrder(ctx, order.ID)
		assert.ErrorIs(t, err, model.ErrOrderNotCancelled)
	})
}

func TestDeleteArchivedOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	productID := f.seedProduct(t, "Butter", 700, 10)

	order, err := f.orderSvc.CreateOrder(ctx, "Alice", []service.OrderLine{{ProductID: productID, Quantity: 1}})
	require.NoError(t, err)

	t.Run("Fail when not archived", func(t *testing.T) {
		err := f.orderSvc.DeleteArchivedOrder(ctx, order.ID)
		assert.ErrorIs(t, err, model.ErrOrderNotArchived)
	})

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, f.orderSvc.CompleteOrder(ctx, order.ID))
		require.NoError(t, f.orderSvc.ArchiveOrder(ctx, order.ID))

		require.NoError(t, f.orderSvc.DeleteArchivedOrder(ctx, order.ID))
		_, ok := f.store.orders[order.ID]
		assert.False(t, ok)
	})

	t.Run("Fail on unknown order", func(t *testing.T) {
		err := f.orderSvc.DeleteArchivedOrder(ctx, order.ID)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestUpdateOrderCustomer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	productID := f.seedProduct(t, "Milk", 150, 10)

	order, err := f.orderSvc.CreateOrder(ctx, "Alice", []service.OrderLine{{ProductID: productID, Quantity: 1}})
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, f.orderSvc.UpdateOrderCustomer(ctx, order.ID, "Alice Smith"))
		assert.Equal(t, "Alice Smith", f.store.orders[order.ID].CustomerName)
	})

	t.Run("Fail on empty name", func(t *testing.T) {
		err := f.orderSvc.UpdateOrderCustomer(ctx, order.ID, "  ")
		assert.ErrorIs(t, err, service.ErrEmptyCustomerName)
	})

	t.Run("Fail when not active", func(t *testing.T) {
		require.NoError(t, f.orderSvc.CompleteOrder(ctx, order.ID))
		err := f.orderSvc.UpdateOrderCustomer(ctx, order.ID, "Someone Else")
		assert.ErrorIs(t, err, model.ErrOrderNotActive)
	})
}

func TestConcurrentOrderCreation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	productID := f.seedProduct(t, "Limited", 1000, 5)

	const requests = 10
	errs := make([]error, requests)

	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.orderSvc.CreateOrder(ctx, "Customer", []service.OrderLine{
				{ProductID: productID, Quantity: 1},
			})
		}(i)
	}
	wg.Wait()

	var succeeded, outOfStock int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, model.ErrInsufficientStock):
			outOfStock++
		}
	}

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 5, outOfStock)
	assert.Equal(t, 0, f.stockOf(t, productID))
	assert.Len(t, f.store.orders, 5)
}
