package model

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrCategoryNotFound = errors.New("category not found")

type Category struct {
	ID          uuid.UUID
	Name        string
	Description string
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CategoryRepository interface {
	NextID() (uuid.UUID, error)
	Create(ctx context.Context, category *Category) error
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	Find(ctx context.Context, id uuid.UUID) (*Category, error)
	// FindByName matches the category name case-insensitively.
	FindByName(ctx context.Context, name string) (*Category, error)
	List(ctx context.Context) ([]Category, error)
}
