package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/floralane/backoffice/internal/domain/analytics"
	"github.com/floralane/backoffice/internal/domain/customer"
	"github.com/floralane/backoffice/internal/domain/order"
	"github.com/floralane/backoffice/internal/domain/product"
	"github.com/floralane/backoffice/internal/domain/settings"
	"github.com/floralane/backoffice/internal/domain/storage"
)

// respondError maps a domain error to an HTTP response. Configuration
// errors and unclassified failures are logged: the former indicate a
// deployment defect, the latter a bug.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		quantityErr   *order.InvalidQuantityError
		notFoundErr   *order.ProductNotFoundError
		minimumErr    *order.BelowMinimumError
		transitionErr *order.InvalidTransitionError
		blockedErr    *customer.BlockedError
		configErr     *settings.ConfigurationError
		periodErr     *analytics.InvalidPeriodError
	)

	switch {
	case errors.Is(err, order.ErrEmptyLines):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &periodErr):
		writeError(w, http.StatusBadRequest, periodErr.Error())
	case errors.As(err, &quantityErr):
		writeError(w, http.StatusUnprocessableEntity, quantityErr.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusUnprocessableEntity, notFoundErr.Error())
	case errors.As(err, &minimumErr):
		writeError(w, http.StatusUnprocessableEntity, minimumErr.Error())
	case errors.As(err, &blockedErr):
		writeError(w, http.StatusForbidden, blockedErr.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &transitionErr):
		writeError(w, http.StatusConflict, transitionErr.Error())
	case errors.Is(err, order.ErrStatusConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &configErr):
		zctx.From(r.Context()).Error("settlement configuration defect", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "configuration error")
	case errors.Is(err, storage.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage unavailable, retry later")
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
