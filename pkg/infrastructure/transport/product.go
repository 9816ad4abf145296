package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/model"
)

type productResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	PriceCents    int64     `json:"price_cents"`
	StockQuantity int       `json:"stock_quantity"`
	Available     bool      `json:"available"`
	CategoryID    string    `json:"category_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toProductResponse(product *model.Product) productResponse {
	return productResponse{
		ID:            product.ID.String(),
		Name:          product.Name,
		PriceCents:    product.PriceCents,
		StockQuantity: product.StockQuantity,
		Available:     product.IsAvailable(),
		CategoryID:    product.CategoryID.String(),
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}

func toProductListResponse(products []model.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	return out
}

type createProductRequest struct {
	Name         string `json:"name"`
	PriceCents   int64  `json:"price_cents"`
	InitialStock int    `json:"initial_stock"`
	CategoryID   string `json:"category_id"`
}

type updateProductRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	CategoryID string `json:"category_id"`
}

type stockRequest struct {
	Quantity int `json:"quantity"`
}

func (h *apiHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductListResponse(products))
}

func (h *apiHandler) listAvailableProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListAvailableProducts(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductListResponse(products))
}

func (h *apiHandler) searchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.SearchProducts(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductListResponse(products))
}

func (h *apiHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		return
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_CATEGORY_ID", "category id is not a valid uuid")
		return
	}

	product, err := h.products.CreateProduct(r.Context(), req.Name, req.PriceCents, req.InitialStock, categoryID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *apiHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "product id is not a valid uuid")
		return
	}
	product, err := h.products.FindProduct(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *apiHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "product id is not a valid uuid")
		return
	}
	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		return
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_CATEGORY_ID", "category id is not a valid uuid")
		return
	}

	if err := h.products.UpdateProduct(r.Context(), id, req.Name, req.PriceCents, categoryID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "product id is not a valid uuid")
		return
	}
	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) increaseStock(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, h.products.ReceiveStock)
}

func (h *apiHandler) decreaseStock(w http.ResponseWriter, r *http.Request) {
	h.adjustStock(w, r, h.products.ReserveStock)
}

func (h *apiHandler) adjustStock(w http.ResponseWriter, r *http.Request, move func(ctx context.Context, id uuid.UUID, quantity int) error) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "product id is not a valid uuid")
		return
	}
	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		return
	}
	if err := move(r.Context(), id, req.Quantity); err != nil {
		writeDomainError(w, err)
		return
	}

	product, err := h.products.FindProduct(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}
