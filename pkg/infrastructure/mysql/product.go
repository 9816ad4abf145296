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

type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

var _ model.ProductRepository = &ProductRepository{}

type productRow struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	PriceCents    int64     `db:"price_cents"`
	StockQuantity int       `db:"stock_quantity"`
	CategoryID    string    `db:"category_id"`
	Version       int       `db:"version"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r productRow) toModel() (model.Product, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return model.Product{}, errors.Wrap(err, "parse product id")
	}
	categoryID, err := uuid.Parse(r.CategoryID)
	if err != nil {
		return model.Product{}, errors.Wrap(err, "parse category id")
	}
	return model.Product{
		ID:            id,
		Name:          r.Name,
		PriceCents:    r.PriceCents,
		StockQuantity: r.StockQuantity,
		CategoryID:    categoryID,
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}

const selectProduct = `
SELECT id, name, price_cents, stock_quantity, category_id, version, created_at, updated_at
FROM products`

func (r *ProductRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	_, err := ext(ctx, r.db).ExecContext(ctx, `
INSERT INTO products (id, name, price_cents, stock_quantity, category_id, version, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID.String(),
		product.Name,
		product.PriceCents,
		product.StockQuantity,
		product.CategoryID.String(),
		product.Version,
		product.CreatedAt,
		product.UpdatedAt,
	)
	return errors.Wrap(err, "insert product")
}

// Update writes everything except the stock counter: stock moves only through
// AdjustStock, and writing it back here would silently undo concurrent ledger
// mutations.
func (r *ProductRepository) Update(ctx context.Context, product *model.Product) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `
UPDATE products
SET name = ?, price_cents = ?, category_id = ?, version = ?, updated_at = ?
WHERE id = ? AND version = ?`,
		product.Name,
		product.PriceCents,
		product.CategoryID.String(),
		product.Version,
		product.UpdatedAt,
		product.ID.String(),
		product.Version-1,
	)
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update product rows affected")
	}
	if affected == 0 {
		return r.missingOrStale(ctx, product.ID)
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id.String())
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete product rows affected")
	}
	if affected == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) Find(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var row productRow
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, selectProduct+` WHERE id = ?`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select product")
	}
	product, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) FindByName(ctx context.Context, name string) (*model.Product, error) {
	var row productRow
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, selectProduct+` WHERE LOWER(name) = LOWER(?)`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select product by name")
	}
	product, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]model.Product, error) {
	return r.selectMany(ctx, selectProduct+` ORDER BY name`)
}

func (r *ProductRepository) ListAvailable(ctx context.Context) ([]model.Product, error) {
	return r.selectMany(ctx, selectProduct+` WHERE stock_quantity > 0 ORDER BY name`)
}

func (r *ProductRepository) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]model.Product, error) {
	return r.selectMany(ctx, selectProduct+` WHERE category_id = ? ORDER BY name`, categoryID.String())
}

func (r *ProductRepository) Search(ctx context.Context, name string) ([]model.Product, error) {
	return r.selectMany(ctx,
		selectProduct+` WHERE LOWER(name) LIKE CONCAT('%', LOWER(?), '%') ORDER BY name`, name)
}

// AdjustStock is the single-statement atomic read-modify-write behind the
// ledger: the guard in the WHERE clause makes a would-be-negative decrement
// change nothing.
func (r *ProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `
UPDATE products
SET stock_quantity = stock_quantity + ?, updated_at = ?
WHERE id = ? AND stock_quantity + ? >= 0`,
		delta, time.Now().UTC(), id.String(), delta,
	)
	if err != nil {
		return errors.Wrap(err, "adjust product stock")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "adjust product stock rows affected")
	}
	if affected == 0 {
		if exists, err := r.exists(ctx, id); err != nil {
			return err
		} else if !exists {
			return model.ErrProductNotFound
		}
		return model.ErrInsufficientStock
	}
	return nil
}

func (r *ProductRepository) selectMany(ctx context.Context, query string, args ...interface{}) ([]model.Product, error) {
	var rows []productRow
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select products")
	}
	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		product, err := row.toModel()
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}

func (r *ProductRepository) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &count,
		`SELECT COUNT(*) FROM products WHERE id = ?`, id.String())
	if err != nil {
		return false, errors.Wrap(err, "check product existence")
	}
	return count > 0, nil
}

func (r *ProductRepository) missingOrStale(ctx context.Context, id uuid.UUID) error {
	exists, err := r.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrProductNotFound
	}
	return model.ErrOptimisticLock
}
