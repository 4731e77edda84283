package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/beyondborders/donation-service/internal"
	"github.com/beyondborders/donation-service/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes a flat error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	h.WriteJSON(w, status, map[string]string{"error": message})
}

// HandleServiceError maps service-layer errors onto the donor-facing HTTP
// contract. Validation errors carry their field map; provider and internal
// failures are reduced to generic retry messages so provider internals never
// reach the client.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		h.Logger.Error("unexpected error", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "Internal server error. Please try again later.")
		return
	}

	switch appErr.Type {
	case internal.ErrorTypeValidation:
		h.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   appErr.Message,
			"details": appErr.Details,
		})
	case internal.ErrorTypeNotFound:
		h.WriteError(w, http.StatusNotFound, appErr.Message)
	case internal.ErrorTypeProvider:
		h.Logger.Error("provider error", "error", appErr.Error(), "code", appErr.Code)
		h.WriteError(w, http.StatusInternalServerError, "Payment processing failed. Please try again or contact support.")
	default:
		h.Logger.Error("internal error", "error", appErr.Error(), "code", appErr.Code)
		h.WriteError(w, http.StatusInternalServerError, "Internal server error. Please try again later.")
	}
}
