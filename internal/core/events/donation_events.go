package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeDonationCompleted     = "donation.completed"
	EventTypeDonationFailed        = "donation.failed"
	EventTypeSubscriptionCancelled = "donation.subscription_cancelled"
)

type DonationCompletedEvent struct {
	BaseEvent
	DonationID      string  `json:"donation_id"`
	Amount          float64 `json:"amount"`
	DonationType    string  `json:"donation_type"`
	PaymentIntentID string  `json:"payment_intent_id"`
}

func NewDonationCompletedEvent(donationID string, amount float64, donationType, paymentIntentID string) *DonationCompletedEvent {
	return &DonationCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeDonationCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"donation_id":       donationID,
				"amount":            amount,
				"donation_type":     donationType,
				"payment_intent_id": paymentIntentID,
			},
		},
		DonationID:      donationID,
		Amount:          amount,
		DonationType:    donationType,
		PaymentIntentID: paymentIntentID,
	}
}

type DonationFailedEvent struct {
	BaseEvent
	DonationID    string  `json:"donation_id"`
	Amount        float64 `json:"amount"`
	FailureReason string  `json:"failure_reason"`
}

func NewDonationFailedEvent(donationID string, amount float64, failureReason string) *DonationFailedEvent {
	return &DonationFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeDonationFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"donation_id":    donationID,
				"amount":         amount,
				"failure_reason": failureReason,
			},
		},
		DonationID:    donationID,
		Amount:        amount,
		FailureReason: failureReason,
	}
}

type SubscriptionCancelledEvent struct {
	BaseEvent
	DonationID     string `json:"donation_id"`
	SubscriptionID string `json:"subscription_id"`
}

func NewSubscriptionCancelledEvent(donationID, subscriptionID string) *SubscriptionCancelledEvent {
	return &SubscriptionCancelledEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeSubscriptionCancelled,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"donation_id":     donationID,
				"subscription_id": subscriptionID,
			},
		},
		DonationID:     donationID,
		SubscriptionID: subscriptionID,
	}
}
