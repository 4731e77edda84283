package donation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/beyondborders/donation-service/internal"
	datamodel "github.com/beyondborders/donation-service/internal/core/datamodel/donation"
	"github.com/beyondborders/donation-service/internal/core/events"
	"github.com/beyondborders/donation-service/internal/paymentgateway"
)

type Service struct {
	repo      RepositoryAPI
	gateway   GatewayAPI
	validator *Validator
	eventBus  *events.EventBus
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, gateway GatewayAPI, validator *Validator, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		gateway:   gateway,
		validator: validator,
		eventBus:  eventBus,
		logger:    logger,
	}
}

// CreateDonation runs the synchronous intake path: validate, sanitize,
// create the provider-side intent or subscription, persist a pending record,
// and hand back the client secret. A record is persisted even when the
// provider call fails so failed attempts stay auditable.
func (s *Service) CreateDonation(ctx context.Context, form *DonationForm) (*CreateDonationResponse, error) {
	if errs := s.validator.Validate(form); len(errs) > 0 {
		s.logger.Info("donation form rejected", "field_errors", len(errs))
		return nil, internal.NewFieldValidationError(errs)
	}

	sanitized := s.validator.Sanitize(form)
	donationID := "don_" + uuid.NewString()
	amountCents := int64(math.Round(sanitized.Amount * 100))

	metadata := map[string]string{
		paymentgateway.MetadataDonationType: sanitized.DonationType,
		"donorName":                         sanitized.FirstName + " " + sanitized.LastName,
		"isAnonymous":                       strconv.FormatBool(sanitized.IsAnonymous),
		"dedicateGift":                      strconv.FormatBool(sanitized.DedicateGift),
	}
	if sanitized.DedicateGift {
		metadata["dedicationType"] = sanitized.DedicationType
		metadata["dedicateName"] = sanitized.DedicateName
	}

	record := recordFromForm(donationID, sanitized)

	var (
		paymentIntentID string
		clientSecret    string
	)

	switch sanitized.DonationType {
	case datamodel.TypeMonthly:
		sub, err := s.gateway.CreateSubscription(ctx, amountCents, sanitized.Email, donationID, metadata)
		if err != nil {
			return nil, s.persistFailedAttempt(record, err)
		}
		paymentIntentID = sub.PaymentIntentID
		clientSecret = sub.ClientSecret
		record.SubscriptionID = &sub.SubscriptionID
	default:
		intent, err := s.gateway.CreatePaymentIntent(ctx, amountCents, sanitized.Email, donationID, metadata)
		if err != nil {
			return nil, s.persistFailedAttempt(record, err)
		}
		paymentIntentID = intent.ID
		clientSecret = intent.ClientSecret
	}

	record.PaymentIntentID = &paymentIntentID

	if err := s.repo.Create(record); err != nil {
		s.logger.Error("failed to persist donation record",
			"error", err,
			"donation_id", donationID)
		return nil, internal.NewInternalError("failed to save donation", err)
	}

	s.logger.Info("donation created",
		"donation_id", donationID,
		"donation_type", sanitized.DonationType,
		"amount", sanitized.Amount,
		"payment_intent_id", paymentIntentID)

	return &CreateDonationResponse{
		Success:         true,
		DonationID:      donationID,
		ClientSecret:    clientSecret,
		PaymentIntentID: paymentIntentID,
	}, nil
}

// persistFailedAttempt records a failed provider call for audit before the
// generic error goes back to the donor.
func (s *Service) persistFailedAttempt(record *datamodel.Donation, cause error) error {
	msg := "Payment processing failed"
	if appErr, ok := internal.IsAppError(cause); ok {
		msg = appErr.Message
	}

	record.Status = datamodel.StatusFailed
	record.ErrorMessage = &msg

	if err := s.repo.Create(record); err != nil {
		s.logger.Error("failed to persist failed donation attempt",
			"error", err,
			"donation_id", record.ID)
	}

	s.logger.Error("payment provider call failed at intake",
		"error", cause,
		"donation_id", record.ID)
	return cause
}

func (s *Service) GetDonation(ctx context.Context, id string) (*DonationStatusResponse, error) {
	record, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	return &DonationStatusResponse{
		ID:           record.ID,
		Status:       record.Status,
		Amount:       record.Amount,
		DonationType: record.DonationType,
		DonorName:    record.DonorName(),
		CreatedAt:    record.CreatedAt,
		CompletedAt:  record.CompletedAt,
	}, nil
}

// ---- webhook event application ----

// Typed views of the provider event payloads. Each handler unmarshals only
// the fields it needs from the raw data.object JSON.

type paymentIntentPayload struct {
	ID               string            `json:"id"`
	Metadata         map[string]string `json:"metadata"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

type invoicePayload struct {
	ID                  string `json:"id"`
	Subscription        string `json:"subscription"`
	SubscriptionDetails *struct {
		Metadata map[string]string `json:"metadata"`
	} `json:"subscription_details"`
}

type subscriptionPayload struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

// ApplyGatewayEvent dispatches a verified provider event to its status
// transition. Unknown event types and unknown donation ids are logged and
// swallowed: the webhook endpoint must ACK them to stop provider retries.
func (s *Service) ApplyGatewayEvent(ctx context.Context, event *paymentgateway.Event) error {
	s.logger.Info("applying gateway event",
		"event_id", event.ID,
		"event_type", event.Type)

	switch event.Type {
	case paymentgateway.EventPaymentIntentSucceeded:
		return s.handlePaymentIntentSucceeded(ctx, event)
	case paymentgateway.EventPaymentIntentFailed:
		return s.handlePaymentIntentFailed(ctx, event)
	case paymentgateway.EventInvoiceSucceeded:
		return s.handleInvoiceSucceeded(ctx, event)
	case paymentgateway.EventInvoiceFailed:
		return s.handleInvoiceFailed(ctx, event)
	case paymentgateway.EventSubscriptionCreated:
		return s.handleSubscriptionCreated(ctx, event)
	case paymentgateway.EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event)
	default:
		s.logger.Info("unhandled gateway event type", "event_type", event.Type)
		return nil
	}
}

func (s *Service) handlePaymentIntentSucceeded(ctx context.Context, event *paymentgateway.Event) error {
	var pi paymentIntentPayload
	if err := json.Unmarshal(event.DataRaw, &pi); err != nil {
		return fmt.Errorf("unmarshal payment intent: %w", err)
	}

	donationID := pi.Metadata[paymentgateway.MetadataDonationID]
	if donationID == "" {
		s.logger.Warn("payment intent event without donation id", "payment_intent_id", pi.ID)
		return nil
	}

	return s.completeDonation(ctx, donationID, pi.ID)
}

func (s *Service) handlePaymentIntentFailed(ctx context.Context, event *paymentgateway.Event) error {
	var pi paymentIntentPayload
	if err := json.Unmarshal(event.DataRaw, &pi); err != nil {
		return fmt.Errorf("unmarshal payment intent: %w", err)
	}

	donationID := pi.Metadata[paymentgateway.MetadataDonationID]
	if donationID == "" {
		s.logger.Warn("payment intent event without donation id", "payment_intent_id", pi.ID)
		return nil
	}

	reason := "Payment failed"
	if pi.LastPaymentError != nil && pi.LastPaymentError.Message != "" {
		reason = pi.LastPaymentError.Message
	}

	return s.failDonation(ctx, donationID, reason)
}

func (s *Service) handleInvoiceSucceeded(ctx context.Context, event *paymentgateway.Event) error {
	var inv invoicePayload
	if err := json.Unmarshal(event.DataRaw, &inv); err != nil {
		return fmt.Errorf("unmarshal invoice: %w", err)
	}

	record, err := s.resolveInvoiceDonation(&inv)
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}

	return s.completeDonation(ctx, record.ID, "")
}

func (s *Service) handleInvoiceFailed(ctx context.Context, event *paymentgateway.Event) error {
	var inv invoicePayload
	if err := json.Unmarshal(event.DataRaw, &inv); err != nil {
		return fmt.Errorf("unmarshal invoice: %w", err)
	}

	record, err := s.resolveInvoiceDonation(&inv)
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}

	return s.failDonation(ctx, record.ID, "Recurring payment failed")
}

func (s *Service) handleSubscriptionCreated(ctx context.Context, event *paymentgateway.Event) error {
	var sub subscriptionPayload
	if err := json.Unmarshal(event.DataRaw, &sub); err != nil {
		return fmt.Errorf("unmarshal subscription: %w", err)
	}

	donationID := sub.Metadata[paymentgateway.MetadataDonationID]
	if donationID == "" {
		s.logger.Warn("subscription event without donation id", "subscription_id", sub.ID)
		return nil
	}

	// record the provider subscription id; the donation stays pending until
	// the first invoice settles
	subscriptionID := sub.ID
	_, _, err := s.repo.UpdateStatus(donationID, datamodel.StatusPending, StatusPatch{
		SubscriptionID: &subscriptionID,
	})
	if err != nil {
		return s.logNotFound(donationID, err)
	}

	s.logger.Info("subscription recorded",
		"donation_id", donationID,
		"subscription_id", sub.ID)
	return nil
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event *paymentgateway.Event) error {
	var sub subscriptionPayload
	if err := json.Unmarshal(event.DataRaw, &sub); err != nil {
		return fmt.Errorf("unmarshal subscription: %w", err)
	}

	donationID := sub.Metadata[paymentgateway.MetadataDonationID]
	record, err := s.findByDonationOrSubscription(donationID, sub.ID)
	if err != nil || record == nil {
		return err
	}

	_, changed, err := s.repo.UpdateStatus(record.ID, datamodel.StatusCancelled, StatusPatch{})
	if err != nil {
		return s.logNotFound(record.ID, err)
	}

	if changed {
		s.eventBus.Publish(ctx, events.NewSubscriptionCancelledEvent(record.ID, sub.ID))
		s.logger.Info("subscription cancelled",
			"donation_id", record.ID,
			"subscription_id", sub.ID)
	}
	return nil
}

// completeDonation transitions a donation into completed and publishes the
// completion event only when the record actually moved, so duplicate
// provider deliveries never double-send receipts.
func (s *Service) completeDonation(ctx context.Context, donationID, paymentIntentID string) error {
	record, changed, err := s.repo.UpdateStatus(donationID, datamodel.StatusCompleted, StatusPatch{})
	if err != nil {
		return s.logNotFound(donationID, err)
	}

	if !changed {
		s.logger.Info("duplicate completion event ignored", "donation_id", donationID)
		return nil
	}

	s.logger.Info("donation completed",
		"donation_id", donationID,
		"amount", record.Amount,
		"donation_type", record.DonationType)

	s.eventBus.Publish(ctx, events.NewDonationCompletedEvent(
		record.ID, record.Amount, record.DonationType, paymentIntentID))
	return nil
}

func (s *Service) failDonation(ctx context.Context, donationID, reason string) error {
	record, changed, err := s.repo.UpdateStatus(donationID, datamodel.StatusFailed, StatusPatch{
		ErrorMessage: &reason,
	})
	if err != nil {
		return s.logNotFound(donationID, err)
	}

	if changed {
		s.logger.Info("donation failed",
			"donation_id", donationID,
			"reason", reason)
		s.eventBus.Publish(ctx, events.NewDonationFailedEvent(record.ID, record.Amount, reason))
	}
	return nil
}

// resolveInvoiceDonation finds the donation for a recurring invoice: metadata
// first, then the subscription id. Returns nil, nil when the invoice cannot
// be correlated so the caller ACKs and moves on.
func (s *Service) resolveInvoiceDonation(inv *invoicePayload) (*datamodel.Donation, error) {
	if inv.SubscriptionDetails != nil {
		if id := inv.SubscriptionDetails.Metadata[paymentgateway.MetadataDonationID]; id != "" {
			record, err := s.repo.GetByID(id)
			if err == nil {
				return record, nil
			}
			s.logger.Warn("invoice metadata names unknown donation", "donation_id", id)
		}
	}

	return s.findByDonationOrSubscription("", inv.Subscription)
}

func (s *Service) findByDonationOrSubscription(donationID, subscriptionID string) (*datamodel.Donation, error) {
	if donationID != "" {
		record, err := s.repo.GetByID(donationID)
		if err == nil {
			return record, nil
		}
	}

	if subscriptionID != "" {
		record, err := s.repo.GetBySubscriptionID(subscriptionID)
		if err == nil {
			return record, nil
		}
	}

	s.logger.Warn("event could not be correlated to a donation",
		"donation_id", donationID,
		"subscription_id", subscriptionID)
	return nil, nil
}

// logNotFound downgrades unknown-donation errors to a log line; anything
// else propagates for the webhook handler to log.
func (s *Service) logNotFound(donationID string, err error) error {
	if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeNotFound {
		s.logger.Warn("webhook for unknown donation acknowledged", "donation_id", donationID)
		return nil
	}
	return err
}

func recordFromForm(donationID string, form *DonationForm) *datamodel.Donation {
	return &datamodel.Donation{
		ID:              donationID,
		FirstName:       form.FirstName,
		LastName:        form.LastName,
		Email:           form.Email,
		Phone:           form.Phone,
		IsAnonymous:     form.IsAnonymous,
		Address:         form.Address,
		City:            form.City,
		State:           form.State,
		ZipCode:         form.ZipCode,
		Country:         form.Country,
		Amount:          form.Amount,
		DonationType:    form.DonationType,
		DedicateGift:    form.DedicateGift,
		DedicationType:  form.DedicationType,
		DedicateName:    form.DedicateName,
		DedicateMessage: form.DedicateMessage,
		ReceiveUpdates:  form.ReceiveUpdates,
		Status:          datamodel.StatusPending,
	}
}
