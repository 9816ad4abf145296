package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/model"
)

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

var _ model.OrderRepository = &OrderRepository{}

type orderRow struct {
	ID           string     `db:"id"`
	CustomerName string     `db:"customer_name"`
	Status       int        `db:"status"`
	TotalCents   int64      `db:"total_cents"`
	Version      int        `db:"version"`
	CreatedAt    time.Time  `db:"created_at"`
	CompletedAt  *time.Time `db:"completed_at"`
	CancelledAt  *time.Time `db:"cancelled_at"`
	ArchivedAt   *time.Time `db:"archived_at"`
}

type orderItemRow struct {
	ID             string `db:"id"`
	OrderID        string `db:"order_id"`
	LineNo         int    `db:"line_no"`
	ProductID      string `db:"product_id"`
	Quantity       int    `db:"quantity"`
	UnitPriceCents int64  `db:"unit_price_cents"`
}

func (r orderRow) toModel() (model.Order, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return model.Order{}, errors.Wrap(err, "parse order id")
	}
	return model.Order{
		ID:           id,
		CustomerName: r.CustomerName,
		Status:       model.OrderStatus(r.Status),
		TotalCents:   r.TotalCents,
		Version:      r.Version,
		CreatedAt:    r.CreatedAt,
		CompletedAt:  r.CompletedAt,
		CancelledAt:  r.CancelledAt,
		ArchivedAt:   r.ArchivedAt,
	}, nil
}

func (r orderItemRow) toModel() (model.OrderItem, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return model.OrderItem{}, errors.Wrap(err, "parse order item id")
	}
	productID, err := uuid.Parse(r.ProductID)
	if err != nil {
		return model.OrderItem{}, errors.Wrap(err, "parse order item product id")
	}
	return model.OrderItem{
		ID:             id,
		ProductID:      productID,
		Quantity:       r.Quantity,
		UnitPriceCents: r.UnitPriceCents,
	}, nil
}

const selectOrder = `
SELECT id, customer_name, status, total_cents, version, created_at, completed_at, cancelled_at, archived_at
FROM orders`

const selectOrderItems = `
SELECT id, order_id, line_no, product_id, quantity, unit_price_cents
FROM order_items`

func (r *OrderRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *OrderRepository) Create(ctx context.Context, order *model.Order) error {
	e := ext(ctx, r.db)
	_, err := e.ExecContext(ctx, `
INSERT INTO orders (id, customer_name, status, total_cents, version, created_at, completed_at, cancelled_at, archived_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID.String(),
		order.CustomerName,
		int(order.Status),
		order.TotalCents,
		order.Version,
		order.CreatedAt,
		order.CompletedAt,
		order.CancelledAt,
		order.ArchivedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	for i, item := range order.Items {
		_, err := e.ExecContext(ctx, `
INSERT INTO order_items (id, order_id, line_no, product_id, quantity, unit_price_cents)
VALUES (?, ?, ?, ?, ?, ?)`,
			item.ID.String(),
			order.ID.String(),
			i,
			item.ProductID.String(),
			item.Quantity,
			item.UnitPriceCents,
		)
		if err != nil {
			return errors.Wrap(err, "insert order item")
		}
	}
	return nil
}

// Update touches the order row only: line items are immutable once written.
func (r *OrderRepository) Update(ctx context.Context, order *model.Order) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `
UPDATE orders
SET customer_name = ?, status = ?, total_cents = ?, version = ?, completed_at = ?, cancelled_at = ?, archived_at = ?
WHERE id = ? AND version = ?`,
		order.CustomerName,
		int(order.Status),
		order.TotalCents,
		order.Version,
		order.CompletedAt,
		order.CancelledAt,
		order.ArchivedAt,
		order.ID.String(),
		order.Version-1,
	)
	if err != nil {
		return errors.Wrap(err, "update order")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update order rows affected")
	}
	if affected == 0 {
		if exists, err := r.exists(ctx, order.ID); err != nil {
			return err
		} else if !exists {
			return model.ErrOrderNotFound
		}
		return model.ErrOptimisticLock
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// order_items go with the order through the cascading foreign key
	res, err := ext(ctx, r.db).ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id.String())
	if err != nil {
		return errors.Wrap(err, "delete order")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete order rows affected")
	}
	if affected == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) Find(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var row orderRow
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, selectOrder+` WHERE id = ?`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select order")
	}

	order, err := row.toModel()
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*model.Order{&order}); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) ListByStatus(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	ordering := ` ORDER BY created_at DESC`
	if status == model.Archived {
		ordering = ` ORDER BY archived_at DESC`
	}
	return r.selectMany(ctx, selectOrder+` WHERE status = ?`+ordering, int(status))
}

func (r *OrderRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.selectMany(ctx, selectOrder+` ORDER BY created_at DESC`)
}

func (r *OrderRepository) ListSince(ctx context.Context, cutoff time.Time) ([]model.Order, error) {
	return r.selectMany(ctx,
		selectOrder+` WHERE status <> ? AND created_at >= ? ORDER BY created_at DESC`,
		int(model.Archived), cutoff)
}

func (r *OrderRepository) HasItemsForProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &count,
		`SELECT COUNT(*) FROM order_items WHERE product_id = ?`, productID.String())
	if err != nil {
		return false, errors.Wrap(err, "check order items for product")
	}
	return count > 0, nil
}

func (r *OrderRepository) selectMany(ctx context.Context, query string, args ...interface{}) ([]model.Order, error) {
	var rows []orderRow
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select orders")
	}

	orders := make([]model.Order, 0, len(rows))
	refs := make([]*model.Order, 0, len(rows))
	for _, row := range rows {
		order, err := row.toModel()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	for i := range orders {
		refs = append(refs, &orders[i])
	}
	if err := r.attachItems(ctx, refs); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads line items for the given orders in one query, keeping
// their stored line order.
func (r *OrderRepository) attachItems(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, 0, len(orders))
	byID := make(map[string]*model.Order, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID.String())
		byID[order.ID.String()] = order
	}

	query, args, err := sqlx.In(selectOrderItems+` WHERE order_id IN (?) ORDER BY order_id, line_no`, ids)
	if err != nil {
		return errors.Wrap(err, "build order items query")
	}

	var rows []orderItemRow
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, r.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "select order items")
	}

	for _, row := range rows {
		item, err := row.toModel()
		if err != nil {
			return err
		}
		if order, ok := byID[row.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	return nil
}

func (r *OrderRepository) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &count,
		`SELECT COUNT(*) FROM orders WHERE id = ?`, id.String())
	if err != nil {
		return false, errors.Wrap(err, "check order existence")
	}
	return count > 0, nil
}
