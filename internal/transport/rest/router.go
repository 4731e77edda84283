package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/beyondborders/donation-service/internal/donation"
	"github.com/beyondborders/donation-service/internal/transport/middleware"
	"github.com/beyondborders/donation-service/internal/transport/swagger"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, allowedOrigins string, donationHandler *donation.Handler, webhookHandler *donation.WebhookHandler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// OpenAPI spec at root, swagger UI alongside
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if donationHandler != nil {
			r.Post("/donations", donationHandler.CreateDonation)
			r.Get("/donations", donationHandler.GetDonation)
		}

		if webhookHandler != nil {
			r.Post("/webhooks/stripe", webhookHandler.HandleProviderWebhook)
		}
	})
}
