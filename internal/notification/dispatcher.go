package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/beyondborders/donation-service/internal"
	datamodel "github.com/beyondborders/donation-service/internal/core/datamodel/donation"
	"github.com/beyondborders/donation-service/internal/core/events"
	donationpkg "github.com/beyondborders/donation-service/internal/donation"
)

// Dispatcher sends donor receipts and admin alerts. It subscribes to donation
// events rather than being called inline, so it runs strictly after the state
// transition has been committed. Its failures are logged, never propagated
// back into the payment flow.
type Dispatcher struct {
	repo   donationpkg.RepositoryAPI
	mailer Mailer
	cfg    internal.NotificationConfig
	logger *slog.Logger
}

func NewDispatcher(repo donationpkg.RepositoryAPI, mailer Mailer, cfg internal.NotificationConfig, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		repo:   repo,
		mailer: mailer,
		cfg:    cfg,
		logger: logger,
	}
}

func (d *Dispatcher) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeDonationCompleted, d.HandleDonationCompleted)

	d.logger.Info("notification event handlers registered",
		"handlers", []string{events.EventTypeDonationCompleted})
}

func (d *Dispatcher) HandleDonationCompleted(ctx context.Context, event events.Event) error {
	completed, ok := event.(*events.DonationCompletedEvent)
	if !ok {
		d.logger.Error("invalid event type for donation completed handler", "event_type", event.EventType())
		return fmt.Errorf("expected DonationCompletedEvent, got %T", event)
	}

	record, err := d.repo.GetByID(completed.DonationID)
	if err != nil {
		d.logger.Error("notification lookup failed",
			"donation_id", completed.DonationID,
			"error", err)
		return nil
	}

	if err := d.SendDonorReceipt(record); err != nil {
		d.logger.Error("donor receipt delivery failed",
			"donation_id", record.ID,
			"error", err)
	}

	if err := d.SendAdminAlert(record); err != nil {
		d.logger.Error("admin alert delivery failed",
			"donation_id", record.ID,
			"error", err)
	}

	return nil
}

func (d *Dispatcher) SendDonorReceipt(record *datamodel.Donation) error {
	subject := receiptSubject(d.cfg)
	html := renderReceiptHTML(d.cfg, record)
	text := renderReceiptText(d.cfg, record)

	if err := d.mailer.Send(record.Email, subject, html, text); err != nil {
		return internal.NewNotificationError("failed to send donor receipt", err)
	}

	d.logger.Info("donor receipt sent",
		"donation_id", record.ID,
		"email", record.Email,
		"amount", record.Amount)
	return nil
}

func (d *Dispatcher) SendAdminAlert(record *datamodel.Donation) error {
	subject := adminAlertSubject(record)
	html := renderAdminAlertHTML(record)
	text := renderAdminAlertText(record)

	if err := d.mailer.Send(d.cfg.AdminAddress, subject, html, text); err != nil {
		return internal.NewNotificationError("failed to send admin alert", err)
	}

	d.logger.Info("admin alert sent",
		"donation_id", record.ID,
		"amount", record.Amount,
		"donation_type", record.DonationType)
	return nil
}
