package donation

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/beyondborders/donation-service/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	service ServiceAPI
	logger  *slog.Logger
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		service:     service,
		logger:      logger,
	}
}

// CreateDonation handles POST /api/v1/donations
func (h *Handler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	var form DonationForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.logger.Error("CreateDonation: failed to parse request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.service.CreateDonation(r.Context(), &form)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.logger.Info("CreateDonation: donation accepted",
		"donation_id", resp.DonationID,
		"payment_intent_id", resp.PaymentIntentID)

	h.WriteJSON(w, http.StatusOK, resp)
}

// GetDonation handles GET /api/v1/donations?id=<id>
func (h *Handler) GetDonation(w http.ResponseWriter, r *http.Request) {
	donationID := r.URL.Query().Get("id")
	if donationID == "" {
		h.WriteError(w, http.StatusBadRequest, "Donation ID is required")
		return
	}

	resp, err := h.service.GetDonation(r.Context(), donationID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"donation": resp,
	})
}
