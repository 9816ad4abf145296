package transport

import (
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/service"
)

type apiHandler struct {
	orders     service.OrderService
	products   service.ProductService
	categories service.CategoryService
	reports    service.ReportService
}

func NewRouter(
	orders service.OrderService,
	products service.ProductService,
	categories service.CategoryService,
	reports service.ReportService,
) http.Handler {
	api := &apiHandler{
		orders:     orders,
		products:   products,
		categories: categories,
		reports:    reports,
	}

	r := mux.NewRouter()
	s := r.PathPrefix("/api/v1").Subrouter()

	s.HandleFunc("/orders", api.listActiveOrders).Methods(http.MethodGet)
	s.HandleFunc("/orders/completed", api.listCompletedOrders).Methods(http.MethodGet)
	s.HandleFunc("/orders/cancelled", api.listCancelledOrders).Methods(http.MethodGet)
	s.HandleFunc("/orders/archived", api.listArchivedOrders).Methods(http.MethodGet)
	s.HandleFunc("/orders/summary", api.ordersSummary).Methods(http.MethodGet)
	s.HandleFunc("/orders/top-products", api.topProducts).Methods(http.MethodGet)
	s.HandleFunc("/orders/recent", api.recentOrders).Methods(http.MethodGet)
	s.HandleFunc("/orders", api.createOrder).Methods(http.MethodPost)
	s.HandleFunc("/orders/{ID}", api.getOrder).Methods(http.MethodGet)
	s.HandleFunc("/orders/{ID}", api.updateOrder).Methods(http.MethodPut)
	s.HandleFunc("/orders/{ID}", api.deleteOrder).Methods(http.MethodDelete)
	s.HandleFunc("/orders/{ID}/complete", api.completeOrder).Methods(http.MethodPost)
	s.HandleFunc("/orders/{ID}/cancel", api.cancelOrder).Methods(http.MethodPost)
	s.HandleFunc("/orders/{ID}/archive", api.archiveOrder).Methods(http.MethodPost)
	s.HandleFunc("/orders/{ID}/restore", api.restoreOrder).Methods(http.MethodPost)

	s.HandleFunc("/products", api.listProducts).Methods(http.MethodGet)
	s.HandleFunc("/products/available", api.listAvailableProducts).Methods(http.MethodGet)
	s.HandleFunc("/products/search", api.searchProducts).Methods(http.MethodGet)
	s.HandleFunc("/products", api.createProduct).Methods(http.MethodPost)
	s.HandleFunc("/products/{ID}", api.getProduct).Methods(http.MethodGet)
	s.HandleFunc("/products/{ID}", api.updateProduct).Methods(http.MethodPut)
	s.HandleFunc("/products/{ID}", api.deleteProduct).Methods(http.MethodDelete)
	s.HandleFunc("/products/{ID}/stock/increase", api.increaseStock).Methods(http.MethodPost)
	s.HandleFunc("/products/{ID}/stock/decrease", api.decreaseStock).Methods(http.MethodPost)

	s.HandleFunc("/categories", api.listCategories).Methods(http.MethodGet)
	s.HandleFunc("/categories", api.createCategory).Methods(http.MethodPost)
	s.HandleFunc("/categories/{ID}", api.getCategory).Methods(http.MethodGet)
	s.HandleFunc("/categories/{ID}", api.updateCategory).Methods(http.MethodPut)
	s.HandleFunc("/categories/{ID}", api.deleteCategory).Methods(http.MethodDelete)
	s.HandleFunc("/categories/{ID}/products", api.listCategoryProducts).Methods(http.MethodGet)

	return logMiddleware(r)
}

func logMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(log.Fields{
			"method":     r.Method,
			"url":        r.URL,
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
		}).Info("got a new request")
		h.ServeHTTP(w, r)
	})
}
