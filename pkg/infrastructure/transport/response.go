package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/model"
	"github.com/valerusyaaa/crossplatform2/pkg/domain/service"
)

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{model.ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{model.ErrCategoryNotFound, http.StatusNotFound, "CATEGORY_NOT_FOUND"},
	{model.ErrOrderNotFound, http.StatusNotFound, "ORDER_NOT_FOUND"},
	{model.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY"},
	{model.ErrInsufficientStock, http.StatusBadRequest, "INSUFFICIENT_STOCK"},
	{model.ErrOrderNotActive, http.StatusBadRequest, "ORDER_NOT_ACTIVE"},
	{model.ErrOrderNotCancelled, http.StatusBadRequest, "ORDER_NOT_CANCELLED"},
	{model.ErrOrderNotArchivable, http.StatusBadRequest, "ORDER_NOT_COMPLETED_OR_CANCELLED"},
	{model.ErrOrderNotArchived, http.StatusBadRequest, "ORDER_NOT_ARCHIVED"},
	{service.ErrEmptyCustomerName, http.StatusBadRequest, "EMPTY_CUSTOMER_NAME"},
	{service.ErrEmptyOrder, http.StatusBadRequest, "EMPTY_ORDER"},
	{service.ErrEmptyProductName, http.StatusBadRequest, "EMPTY_PRODUCT_NAME"},
	{service.ErrNegativePrice, http.StatusBadRequest, "NEGATIVE_PRICE"},
	{service.ErrNegativeStock, http.StatusBadRequest, "NEGATIVE_STOCK"},
	{service.ErrProductNameTaken, http.StatusBadRequest, "PRODUCT_DUPLICATE_NAME"},
	{service.ErrProductInUse, http.StatusBadRequest, "PRODUCT_HAS_ORDERS"},
	{service.ErrEmptyCategoryName, http.StatusBadRequest, "EMPTY_CATEGORY_NAME"},
	{service.ErrCategoryNameTaken, http.StatusBadRequest, "CATEGORY_DUPLICATE_NAME"},
	{service.ErrConflict, http.StatusConflict, "CONFLICT"},
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithField("err", err).Error("write response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	var notEmpty *service.CategoryNotEmptyError
	if errors.As(err, &notEmpty) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "CATEGORY_NOT_EMPTY",
			Message: notEmpty.Error(),
			Details: map[string]interface{}{
				"productNames":  notEmpty.ProductNames,
				"totalProducts": notEmpty.TotalProducts,
			},
		})
		return
	}

	for _, mapping := range errorCodes {
		if errors.Is(err, mapping.err) {
			writeError(w, mapping.status, mapping.code, mapping.err.Error())
			return
		}
	}

	log.WithField("err", err).Error("unhandled error")
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
}
