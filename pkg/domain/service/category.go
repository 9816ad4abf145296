package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/model"
)

var (
	ErrEmptyCategoryName = errors.New("category name must not be empty")
	ErrCategoryNameTaken = errors.New("a category with this name already exists")
)

// CategoryNotEmptyError rejects deletion of a category that still owns
// products and carries a sample of their names for the caller's message.
type CategoryNotEmptyError struct {
	ProductNames  []string
	TotalProducts int
}

func (e *CategoryNotEmptyError) Error() string {
	return fmt.Sprintf("category still contains %d products", e.TotalProducts)
}

type CategoryService interface {
	CreateCategory(ctx context.Context, name, description string) (*model.Category, error)
	UpdateCategory(ctx context.Context, categoryID uuid.UUID, name, description string) error
	DeleteCategory(ctx context.Context, categoryID uuid.UUID) error

	FindCategory(ctx context.Context, categoryID uuid.UUID) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListCategoryProducts(ctx context.Context, categoryID uuid.UUID) ([]model.Product, error)
}

func NewCategoryService(
	categories model.CategoryRepository,
	products model.ProductRepository,
	tx model.TxManager,
	dispatcher EventDispatcher,
) CategoryService {
	return &categoryService{
		categories: categories,
		products:   products,
		tx:         tx,
		dispatcher: dispatcher,
	}
}

type categoryService struct {
	categories model.CategoryRepository
	products   model.ProductRepository
	tx         model.TxManager
	dispatcher EventDispatcher
}

func (s *categoryService) CreateCategory(ctx context.Context, name, description string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return nil, ErrEmptyCategoryName
	}

	var created *model.Category
	err := runInTx(ctx, s.tx, func(ctx context.Context) error {
		created = nil

		if err := s.checkNameFree(ctx, name, uuid.Nil); err != nil {
			return err
		}

		categoryID, err := s.categories.NextID()
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		category := &model.Category{
			ID:          categoryID,
			Name:        name,
			Description: description,
			Version:     1,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.categories.Create(ctx, category); err != nil {
			return err
		}
		created = category
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = s.dispatcher.Dispatch(model.CategoryCreated{CategoryID: created.ID, Name: created.Name})
	return created, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, categoryID uuid.UUID, name, description string) error {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return ErrEmptyCategoryName
	}

	return runInTx(ctx, s.tx, func(ctx context.Context) error {
		category, err := s.categories.Find(ctx, categoryID)
		if err != nil {
			return err
		}
		if err := s.checkNameFree(ctx, name, categoryID); err != nil {
			return err
		}

		category.Name = name
		category.Description = description
		category.Version++
		category.UpdatedAt = time.Now().UTC()
		return s.categories.Update(ctx, category)
	})
}

func (s *categoryService) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	return runInTx(ctx, s.tx, func(ctx context.Context) error {
		if _, err := s.categories.Find(ctx, categoryID); err != nil {
			return err
		}
		owned, err := s.products.ListByCategory(ctx, categoryID)
		if err != nil {
			return err
		}
		if len(owned) > 0 {
			sample := make([]string, 0, 3)
			for _, p := range owned {
				if len(sample) == 3 {
					break
				}
				sample = append(sample, p.Name)
			}
			return &CategoryNotEmptyError{ProductNames: sample, TotalProducts: len(owned)}
		}
		return s.categories.Delete(ctx, categoryID)
	})
}

func (s *categoryService) FindCategory(ctx context.Context, categoryID uuid.UUID) (*model.Category, error) {
	return s.categories.Find(ctx, categoryID)
}

func (s *categoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.categories.List(ctx)
}

func (s *categoryService) ListCategoryProducts(ctx context.Context, categoryID uuid.UUID) ([]model.Product, error) {
	if _, err := s.categories.Find(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.products.ListByCategory(ctx, categoryID)
}

func (s *categoryService) checkNameFree(ctx context.Context, name string, selfID uuid.UUID) error {
	existing, err := s.categories.FindByName(ctx, name)
	if errors.Is(err, model.ErrCategoryNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != selfID {
		return ErrCategoryNameTaken
	}
	return nil
}
