// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ammerola/shopledger-be/internal/core/domain"
)

func respondJSON(logger *slog.Logger, w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func respondError(logger *slog.Logger, w http.ResponseWriter, status int, message string) {
	respondJSON(logger, w, status, map[string]string{"error": message})
}

// respondDomainError translates service errors into HTTP responses.
// Unrecognized errors become a 500 with the fallback message so internal
// details never leak to clients.
func respondDomainError(logger *slog.Logger, w http.ResponseWriter, err error, fallback string) {
	status, message := statusForError(err, fallback)
	respondError(logger, w, status, message)
}

func statusForError(err error, fallback string) (int, string) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Error()
	}

	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound, "Inventory item not found"
	case errors.Is(err, domain.ErrSaleNotFound):
		return http.StatusNotFound, "Sale not found"
	case errors.Is(err, domain.ErrReturnNotFound):
		return http.StatusNotFound, "Return not found"
	case errors.Is(err, domain.ErrCustomerNotFound):
		return http.StatusNotFound, "Customer not found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict, "Insufficient stock for requested quantity"
	case errors.Is(err, domain.ErrDuplicateReturn):
		return http.StatusConflict, "A return already exists for this invoice"
	case errors.Is(err, domain.ErrConstraintViolation):
		return http.StatusConflict, "Request conflicts with existing data"
	case errors.Is(err, domain.ErrTransientConnection):
		return http.StatusServiceUnavailable, "Service temporarily unavailable, please retry"
	default:
		return http.StatusInternalServerError, fallback
	}
}
