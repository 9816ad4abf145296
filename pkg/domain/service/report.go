package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/model"
)

const (
	defaultTopProducts = 3
	recentOrdersWindow = 7 * 24 * time.Hour
)

type OrderSummary struct {
	TotalOrders            int
	CompletionRate         float64
	CancellationRate       float64
	TotalRevenueCents      int64
	AverageOrderValueCents int64
}

type ProductSales struct {
	ProductID         uuid.UUID
	ProductName       string
	TotalQuantity     int
	TotalRevenueCents int64
}

type RecentOrder struct {
	OrderID      uuid.UUID
	CustomerName string
	CreatedAt    time.Time
	TotalCents   int64
	Status       model.OrderStatus
	ItemCount    int
}

// ReportService aggregates the order and line-item records; it never mutates
// anything.
type ReportService interface {
	Summary(ctx context.Context) (*OrderSummary, error)
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
	RecentOrders(ctx context.Context) ([]RecentOrder, error)
}

func NewReportService(orders model.OrderRepository, products model.ProductRepository) ReportService {
	return &reportService{orders: orders, products: products}
}

type reportService struct {
	orders   model.OrderRepository
	products model.ProductRepository
}

func (s *reportService) Summary(ctx context.Context) (*OrderSummary, error) {
	all, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var active, completed, cancelled int
	var revenue int64
	for _, order := range all {
		switch order.Status {
		case model.Active:
			active++
		case model.Completed:
			completed++
		case model.Cancelled:
			cancelled++
		}
		revenue += order.TotalCents
	}

	summary := &OrderSummary{
		TotalOrders:       active + completed + cancelled,
		TotalRevenueCents: revenue,
	}
	if completed > 0 {
		summary.AverageOrderValueCents = revenue / int64(completed)
	}
	if summary.TotalOrders > 0 {
		summary.CompletionRate = roundRate(float64(completed) / float64(summary.TotalOrders) * 100)
		summary.CancellationRate = roundRate(float64(cancelled) / float64(summary.TotalOrders) * 100)
	}
	return summary, nil
}

func (s *reportService) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	if limit <= 0 {
		limit = defaultTopProducts
	}

	completed, err := s.orders.ListByStatus(ctx, model.Completed)
	if err != nil {
		return nil, err
	}

	salesByProduct := make(map[uuid.UUID]*ProductSales)
	for _, order := range completed {
		for _, item := range order.Items {
			sales, ok := salesByProduct[item.ProductID]
			if !ok {
				sales = &ProductSales{ProductID: item.ProductID}
				salesByProduct[item.ProductID] = sales
			}
			sales.TotalQuantity += item.Quantity
			sales.TotalRevenueCents += int64(item.Quantity) * item.UnitPriceCents
		}
	}

	result := make([]ProductSales, 0, len(salesByProduct))
	for _, sales := range salesByProduct {
		product, err := s.products.Find(ctx, sales.ProductID)
		if err == nil {
			sales.ProductName = product.Name
		}
		result = append(result, *sales)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TotalRevenueCents > result[j].TotalRevenueCents
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *reportService) RecentOrders(ctx context.Context) ([]RecentOrder, error) {
	cutoff := time.Now().UTC().Add(-recentOrdersWindow)
	orders, err := s.orders.ListSince(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	recent := make([]RecentOrder, 0, len(orders))
	for _, order := range orders {
		recent = append(recent, RecentOrder{
			OrderID:      order.ID,
			CustomerName: order.CustomerName,
			CreatedAt:    order.CreatedAt,
			TotalCents:   order.TotalCents,
			Status:       order.Status,
			ItemCount:    len(order.Items),
		})
	}
	return recent, nil
}

func roundRate(rate float64) float64 {
	return math.Round(rate*100) / 100
}
