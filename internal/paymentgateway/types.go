package paymentgateway

import "encoding/json"

// Metadata keys attached to every provider-side object so webhook events can
// be correlated back to a donation without a provider-id index lookup.
const (
	MetadataDonationID   = "donationId"
	MetadataDonationType = "donationType"
)

// IntentResult is the subset of a provider payment intent that callers need.
type IntentResult struct {
	ID           string
	ClientSecret string
}

// SubscriptionResult carries the identifiers from the customer → price →
// subscription chain, plus the first invoice's payment intent secret the
// client uses to complete the initial authorization.
type SubscriptionResult struct {
	SubscriptionID  string
	CustomerID      string
	PaymentIntentID string
	ClientSecret    string
}

// Event is a verified webhook event. DataRaw holds the raw JSON of the
// event's data.object so handlers unmarshal only the fields they need.
type Event struct {
	ID      string
	Type    string
	DataRaw json.RawMessage
}

// Event types the reconciliation endpoint dispatches on.
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventInvoiceSucceeded       = "invoice.payment_succeeded"
	EventInvoiceFailed          = "invoice.payment_failed"
	EventSubscriptionCreated    = "customer.subscription.created"
	EventSubscriptionDeleted    = "customer.subscription.deleted"
)
