package transport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/model"
)

type categoryResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ProductCount int       `json:"product_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toCategoryResponse(category *model.Category) categoryResponse {
	return categoryResponse{
		ID:          category.ID.String(),
		Name:        category.Name,
		Description: category.Description,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *apiHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.ListCategories(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for i := range categories {
		resp, err := h.categoryWithCount(r, &categories[i])
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *apiHandler) categoryWithCount(r *http.Request, category *model.Category) (categoryResponse, error) {
	products, err := h.categories.ListCategoryProducts(r.Context(), category.ID)
	if err != nil {
		return categoryResponse{}, err
	}
	resp := toCategoryResponse(category)
	resp.ProductCount = len(products)
	return resp, nil
}

func (h *apiHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		return
	}
	category, err := h.categories.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}

func (h *apiHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "category id is not a valid uuid")
		return
	}
	category, err := h.categories.FindCategory(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp, err := h.categoryWithCount(r, category)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *apiHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "category id is not a valid uuid")
		return
	}
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		return
	}
	if err := h.categories.UpdateCategory(r.Context(), id, req.Name, req.Description); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "category id is not a valid uuid")
		return
	}
	if err := h.categories.DeleteCategory(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandler) listCategoryProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "category id is not a valid uuid")
		return
	}
	products, err := h.categories.ListCategoryProducts(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductListResponse(products))
}
