package model

import "github.com/google/uuid"

type OrderCreated struct {
	OrderID      uuid.UUID
	CustomerName string
	TotalCents   int64
	ItemCount    int
}

func (e OrderCreated) Type() string { return "OrderCreated" }

type OrderCompleted struct {
	OrderID uuid.UUID
}

func (e OrderCompleted) Type() string { return "OrderCompleted" }

type OrderCancelled struct {
	OrderID uuid.UUID
}

func (e OrderCancelled) Type() string { return "OrderCancelled" }

type OrderRestored struct {
	OrderID uuid.UUID
}

func (e OrderRestored) Type() string { return "OrderRestored" }

type OrderArchived struct {
	OrderID uuid.UUID
}

func (e OrderArchived) Type() string { return "OrderArchived" }

type OrderDeleted struct {
	OrderID uuid.UUID
}

func (e OrderDeleted) Type() string { return "OrderDeleted" }

type ProductCreated struct {
	ProductID uuid.UUID
	Name      string
}

func (e ProductCreated) Type() string { return "ProductCreated" }

type ProductStockChanged struct {
	ProductID    uuid.UUID
	ChangeAmount int
}

func (e ProductStockChanged) Type() string { return "ProductStockChanged" }

type CategoryCreated struct {
	CategoryID uuid.UUID
	Name       string
}

func (e CategoryCreated) Type() string { return "CategoryCreated" }
