// Package handler exposes the back-office API over HTTP. Responses are
// encoded with jx; domain errors are mapped to status codes in errors.go.
package handler

import (
	"net/http"

	"github.com/floralane/backoffice/internal/domain/analytics"
	"github.com/floralane/backoffice/internal/domain/order"
	"github.com/floralane/backoffice/internal/domain/product"
)

// Handler serves the back-office API, delegating business logic to the
// settlement and analytics services.
type Handler struct {
	orders    *order.Service
	products  product.Repository
	analytics *analytics.Service
	apikeys   APIKeyRepository
	pepper    []byte
}

// NewHandler constructs a Handler with the required domain dependencies.
// The pepper is used for HMAC hashing of presented API keys.
func NewHandler(
	orders *order.Service,
	products product.Repository,
	analyticsSvc *analytics.Service,
	apikeys APIKeyRepository,
	pepper []byte,
) *Handler {
	return &Handler{
		orders:    orders,
		products:  products,
		analytics: analyticsSvc,
		apikeys:   apikeys,
		pepper:    pepper,
	}
}

// Register attaches all API routes to the mux. Every route requires a valid
// API key.
func (h *Handler) Register(mux *http.ServeMux) {
	auth := h.requireAPIKey

	mux.HandleFunc("POST /api/orders", auth(h.createOrder))
	mux.HandleFunc("GET /api/orders/{id}", auth(h.getOrder))
	mux.HandleFunc("POST /api/orders/{id}/status", auth(h.transitionOrder))

	mux.HandleFunc("GET /api/products", auth(h.listProducts))
	mux.HandleFunc("GET /api/products/{id}", auth(h.getProduct))

	mux.HandleFunc("GET /api/dashboard/stats", auth(h.dashboardStats))
	mux.HandleFunc("GET /api/dashboard/top-products", auth(h.topProducts))
	mux.HandleFunc("GET /api/dashboard/top-customers", auth(h.topCustomers))
	mux.HandleFunc("GET /api/dashboard/sales-trend", auth(h.salesTrend))
	mux.HandleFunc("GET /api/dashboard/sales-by-country", auth(h.salesByCountry))
}
