package donation

import (
	"context"

	datamodel "github.com/beyondborders/donation-service/internal/core/datamodel/donation"
	"github.com/beyondborders/donation-service/internal/paymentgateway"
)

// StatusPatch carries the optional fields a status transition may set.
// ErrorMessage is applied only on failed transitions; SubscriptionID is set
// at most once.
type StatusPatch struct {
	ErrorMessage   *string
	SubscriptionID *string
}

// RepositoryAPI is the donation store contract. UpdateStatus applies the
// status machine atomically per record: the returned bool reports whether
// the record actually changed, so duplicate provider events become no-ops
// the caller can distinguish from first deliveries.
type RepositoryAPI interface {
	Create(d *datamodel.Donation) error
	GetByID(id string) (*datamodel.Donation, error)
	GetByPaymentIntentID(paymentIntentID string) (*datamodel.Donation, error)
	GetBySubscriptionID(subscriptionID string) (*datamodel.Donation, error)
	UpdateStatus(id, status string, patch StatusPatch) (*datamodel.Donation, bool, error)
}

// GatewayAPI is the payment provider contract the service depends on. The
// concrete implementation wraps the Stripe SDK; tests inject a fake.
type GatewayAPI interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, donorEmail, donationID string, metadata map[string]string) (*paymentgateway.IntentResult, error)
	CreateSubscription(ctx context.Context, amountCents int64, donorEmail, donationID string, metadata map[string]string) (*paymentgateway.SubscriptionResult, error)
	VerifyWebhookSignature(payload []byte, sigHeader string) (*paymentgateway.Event, error)
}

type ServiceAPI interface {
	CreateDonation(ctx context.Context, form *DonationForm) (*CreateDonationResponse, error)
	GetDonation(ctx context.Context, id string) (*DonationStatusResponse, error)
	ApplyGatewayEvent(ctx context.Context, event *paymentgateway.Event) error
}
