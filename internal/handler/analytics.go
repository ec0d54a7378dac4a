package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/floralane/backoffice/internal/domain/analytics"
)

// dashboardStats returns the headline dashboard figures.
func (h *Handler) dashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.DashboardStats(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeDashboardStats(e, stats)
	})
}

// topProducts returns the best-selling products. The optional ?n parameter
// overrides the default ranking size.
func (h *Handler) topProducts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.analytics.TopProducts(r.Context(), queryN(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeProductSales(e, rows)
	})
}

// topCustomers returns the top customers by lifetime spend.
func (h *Handler) topCustomers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.analytics.TopCustomers(r.Context(), queryN(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCustomerSales(e, rows)
	})
}

// salesTrend returns the bucketed sales series for ?period (default week).
func (h *Handler) salesTrend(w http.ResponseWriter, r *http.Request) {
	period := analytics.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = analytics.PeriodWeek
	}

	points, err := h.analytics.SalesTrend(r.Context(), period)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeTrend(e, points)
	})
}

// salesByCountry returns revenue grouped by product country of origin.
func (h *Handler) salesByCountry(w http.ResponseWriter, r *http.Request) {
	rows, err := h.analytics.SalesByCountry(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCountrySales(e, rows)
	})
}

// queryN parses the ?n ranking size, 0 when absent or invalid.
func queryN(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil {
		return 0
	}
	return n
}
