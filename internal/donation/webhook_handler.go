package donation

import (
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/beyondborders/donation-service/internal/paymentgateway"
	"github.com/beyondborders/donation-service/internal/transport"
)

// SignatureHeader is the provider's webhook signature header.
const SignatureHeader = "Stripe-Signature"

const maxWebhookBodyBytes = 1 << 20

type WebhookHandler struct {
	*transport.BaseHandler
	service ServiceAPI
	gateway GatewayAPI
	logger  *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, service ServiceAPI, gateway GatewayAPI, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		service:     service,
		gateway:     gateway,
		logger:      logger,
	}
}

// HandleProviderWebhook handles POST /api/v1/webhooks/stripe. The body is
// consumed as the verbatim byte stream: the signature is an HMAC over those
// exact bytes. Once the signature passes, the provider always gets a 200.
// Handler failures are logged internally, never surfaced as retryable errors.
func (h *WebhookHandler) HandleProviderWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		h.logger.Error("webhook: failed to read request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		h.logger.Warn("webhook: missing signature header")
		h.WriteError(w, http.StatusBadRequest, "Missing stripe-signature header")
		return
	}

	event, err := h.gateway.VerifyWebhookSignature(body, signature)
	if err != nil {
		h.logger.Error("webhook: signature verification failed", "error", err)
		h.WriteError(w, http.StatusBadRequest, "Webhook error")
		return
	}

	h.applyEvent(r, event)

	h.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// applyEvent isolates event processing so a panic or error inside a handler
// still results in an ACK to the provider.
func (h *WebhookHandler) applyEvent(r *http.Request, event *paymentgateway.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("webhook: panic while processing event",
				"event_id", event.ID,
				"event_type", event.Type,
				"panic", rec,
				"stack", string(debug.Stack()))
		}
	}()

	if err := h.service.ApplyGatewayEvent(r.Context(), event); err != nil {
		h.logger.Error("webhook: event processing failed",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
	}
}
