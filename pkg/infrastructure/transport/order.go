package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/model"
	"github.com/valerusyaaa/crossplatform2/pkg/domain/service"
)

type orderItemResponse struct {
	ID             string `json:"id"`
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type orderResponse struct {
	ID           string              `json:"id"`
	CustomerName string              `json:"customer_name"`
	Status       string              `json:"status"`
	TotalCents   int64               `json:"total_cents"`
	CreatedAt    time.Time           `json:"created_at"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
	CancelledAt  *time.Time          `json:"cancelled_at,omitempty"`
	ArchivedAt   *time.Time          `json:"archived_at,omitempty"`
	Items        []orderItemResponse `json:"items"`
}

func toOrderResponse(order *model.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:             item.ID.String(),
			ProductID:      item.ProductID.String(),
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return orderResponse{
		ID:           order.ID.String(),
		CustomerName: order.CustomerName,
		Status:       order.Status.String(),
		TotalCents:   order.TotalCents,
		CreatedAt:    order.CreatedAt,
		CompletedAt:  order.CompletedAt,
		CancelledAt:  order.CancelledAt,
		ArchivedAt:   order.ArchivedAt,
		Items:        items,
	}
}

func toOrderListResponse(orders []model.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return out
}

type createOrderRequest struct {
	CustomerName string `json:"customer_name"`
	Items        []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

type updateOrderRequest struct {
	CustomerName string `json:"customer_name"`
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["ID"])
	return id, err == nil
}

func (h *apiHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		return
	}

	lines := make([]service.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_PRODUCT_ID", "product id is not a valid uuid")
			return
		}
		lines = append(lines, service.OrderLine{ProductID: productID, Quantity: item.Quantity})
	}

	order, err := h.orders.CreateOrder(r.Context(), req.CustomerName, lines)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *apiHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "order id is not a valid uuid")
		return
	}
	order, err := h.orders.FindOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *apiHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "order id is not a valid uuid")
		return
	}
	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		return
	}
	if err := h.orders.UpdateOrderCustomer(r.Context(), id, req.CustomerName); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.orders.DeleteArchivedOrder)
}

func (h *apiHandler) completeOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.orders.CompleteOrder)
}

func (h *apiHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.orders.CancelOrder)
}

func (h *apiHandler) archiveOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.orders.ArchiveOrder)
}

func (h *apiHandler) restoreOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.orders.RestoreOrder)
}

func (h *apiHandler) orderAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id uuid.UUID) error) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "order id is not a valid uuid")
		return
	}
	if err := action(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) listActiveOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, model.Active)
}

func (h *apiHandler) listCompletedOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, model.Completed)
}

func (h *apiHandler) listCancelledOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, model.Cancelled)
}

func (h *apiHandler) listArchivedOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, model.Archived)
}

func (h *apiHandler) listOrders(w http.ResponseWriter, r *http.Request, status model.OrderStatus) {
	orders, err := h.orders.ListOrders(r.Context(), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderListResponse(orders))
}

type summaryResponse struct {
	TotalOrders            int     `json:"total_orders"`
	CompletionRate         float64 `json:"completion_rate"`
	CancellationRate       float64 `json:"cancellation_rate"`
	TotalRevenueCents      int64   `json:"total_revenue_cents"`
	AverageOrderValueCents int64   `json:"average_order_value_cents"`
}

func (h *apiHandler) ordersSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reports.Summary(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		TotalOrders:            summary.TotalOrders,
		CompletionRate:         summary.CompletionRate,
		CancellationRate:       summary.CancellationRate,
		TotalRevenueCents:      summary.TotalRevenueCents,
		AverageOrderValueCents: summary.AverageOrderValueCents,
	})
}

type productSalesResponse struct {
	ProductID         string `json:"product_id"`
	ProductName       string `json:"product_name"`
	TotalQuantity     int    `json:"total_quantity"`
	TotalRevenueCents int64  `json:"total_revenue_cents"`
}

func (h *apiHandler) topProducts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	sales, err := h.reports.TopProducts(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]productSalesResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, productSalesResponse{
			ProductID:         s.ProductID.String(),
			ProductName:       s.ProductName,
			TotalQuantity:     s.TotalQuantity,
			TotalRevenueCents: s.TotalRevenueCents,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type recentOrderResponse struct {
	OrderID      string    `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	Status       string    `json:"status"`
	TotalCents   int64     `json:"total_cents"`
	ItemCount    int       `json:"item_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func (h *apiHandler) recentOrders(w http.ResponseWriter, r *http.Request) {
	recent, err := h.reports.RecentOrders(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]recentOrderResponse, 0, len(recent))
	for _, o := range recent {
		out = append(out, recentOrderResponse{
			OrderID:      o.OrderID.String(),
			CustomerName: o.CustomerName,
			Status:       o.Status.String(),
			TotalCents:   o.TotalCents,
			ItemCount:    o.ItemCount,
			CreatedAt:    o.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
