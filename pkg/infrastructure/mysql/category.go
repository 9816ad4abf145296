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

type CategoryRepository struct {
	db *sqlx.DB
}

func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

var _ model.CategoryRepository = &CategoryRepository{}

type categoryRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Version     int       `db:"version"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r categoryRow) toModel() (model.Category, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return model.Category{}, errors.Wrap(err, "parse category id")
	}
	return model.Category{
		ID:          id,
		Name:        r.Name,
		Description: r.Description,
		Version:     r.Version,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

const selectCategory = `
SELECT id, name, description, version, created_at, updated_at
FROM categories`

func (r *CategoryRepository) NextID() (uuid.UUID, error) {
	return uuid.NewRandom()
}

func (r *CategoryRepository) Create(ctx context.Context, category *model.Category) error {
	_, err := ext(ctx, r.db).ExecContext(ctx, `
INSERT INTO categories (id, name, description, version, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		category.ID.String(),
		category.Name,
		category.Description,
		category.Version,
		category.CreatedAt,
		category.UpdatedAt,
	)
	return errors.Wrap(err, "insert category")
}

func (r *CategoryRepository) Update(ctx context.Context, category *model.Category) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `
UPDATE categories
SET name = ?, description = ?, version = ?, updated_at = ?
WHERE id = ? AND version = ?`,
		category.Name,
		category.Description,
		category.Version,
		category.UpdatedAt,
		category.ID.String(),
		category.Version-1,
	)
	if err != nil {
		return errors.Wrap(err, "update category")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update category rows affected")
	}
	if affected == 0 {
		if exists, err := r.exists(ctx, category.ID); err != nil {
			return err
		} else if !exists {
			return model.ErrCategoryNotFound
		}
		return model.ErrOptimisticLock
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := ext(ctx, r.db).ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id.String())
	if err != nil {
		return errors.Wrap(err, "delete category")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete category rows affected")
	}
	if affected == 0 {
		return model.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) Find(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var row categoryRow
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, selectCategory+` WHERE id = ?`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCategoryNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select category")
	}
	category, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*model.Category, error) {
	var row categoryRow
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &row, selectCategory+` WHERE LOWER(name) = LOWER(?)`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCategoryNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select category by name")
	}
	category, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	var rows []categoryRow
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &rows, selectCategory+` ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "select categories")
	}
	categories := make([]model.Category, 0, len(rows))
	for _, row := range rows {
		category, err := row.toModel()
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func (r *CategoryRepository) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &count,
		`SELECT COUNT(*) FROM categories WHERE id = ?`, id.String())
	if err != nil {
		return false, errors.Wrap(err, "check category existence")
	}
	return count > 0, nil
}
