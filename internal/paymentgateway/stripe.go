package paymentgateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/beyondborders/donation-service/internal"
)

// Client wraps the Stripe SDK behind the gateway contract the donation
// service depends on. A constructed instance is injected into the handlers;
// there is no package-level singleton.
type Client struct {
	api           *client.API
	webhookSecret string
	callTimeout   time.Duration
	logger        *slog.Logger
}

func NewClient(cfg internal.StripeConfig, logger *slog.Logger) *Client {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		api:           sc,
		webhookSecret: cfg.WebhookSecret,
		callTimeout:   timeout,
		logger:        logger,
	}
}

// CreatePaymentIntent creates a single-charge intent for a one-time donation.
// amountCents is the donation amount in minor currency units.
func (c *Client) CreatePaymentIntent(ctx context.Context, amountCents int64, donorEmail, donationID string, metadata map[string]string) (*IntentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(amountCents),
		Currency:     stripe.String(string(stripe.CurrencyUSD)),
		ReceiptEmail: stripe.String(donorEmail),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataDonationID, donationID)
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	c.logger.Info("creating payment intent",
		"donation_id", donationID,
		"amount_cents", amountCents)

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, c.mapProviderError(err)
	}

	return &IntentResult{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// CreateSubscription sets up the customer → price → subscription chain for a
// monthly donation and surfaces the first invoice's payment intent secret so
// the client completes the initial charge the same way as a one-time one.
func (c *Client) CreateSubscription(ctx context.Context, amountCents int64, donorEmail, donationID string, metadata map[string]string) (*SubscriptionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	cust, err := c.findOrCreateCustomer(ctx, donorEmail)
	if err != nil {
		return nil, err
	}

	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		UnitAmount: stripe.Int64(amountCents),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		},
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String("Monthly Donation"),
		},
	}
	priceParams.Context = ctx

	price, err := c.api.Prices.New(priceParams)
	if err != nil {
		return nil, c.mapProviderError(err)
	}

	subParams := &stripe.SubscriptionParams{
		Customer: stripe.String(cust.ID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(price.ID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	subParams.Context = ctx
	subParams.AddExpand("latest_invoice.payment_intent")
	subParams.AddMetadata(MetadataDonationID, donationID)
	for k, v := range metadata {
		subParams.AddMetadata(k, v)
	}

	c.logger.Info("creating subscription",
		"donation_id", donationID,
		"customer_id", cust.ID,
		"amount_cents", amountCents)

	sub, err := c.api.Subscriptions.New(subParams)
	if err != nil {
		return nil, c.mapProviderError(err)
	}

	if sub.LatestInvoice == nil || sub.LatestInvoice.PaymentIntent == nil {
		return nil, internal.NewProviderError(
			fmt.Sprintf("subscription %s has no initial payment intent", sub.ID),
			internal.ErrCodeProviderFailure)
	}

	return &SubscriptionResult{
		SubscriptionID:  sub.ID,
		CustomerID:      cust.ID,
		PaymentIntentID: sub.LatestInvoice.PaymentIntent.ID,
		ClientSecret:    sub.LatestInvoice.PaymentIntent.ClientSecret,
	}, nil
}

// findOrCreateCustomer reuses an existing customer for the email so repeat
// monthly donors do not accumulate duplicate customer objects.
func (c *Client) findOrCreateCustomer(ctx context.Context, email string) (*stripe.Customer, error) {
	listParams := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)

	iter := c.api.Customers.List(listParams)
	for iter.Next() {
		cust := iter.Customer()
		c.logger.Debug("reusing existing customer", "customer_id", cust.ID)
		return cust, nil
	}
	if err := iter.Err(); err != nil {
		return nil, c.mapProviderError(err)
	}

	custParams := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	custParams.Context = ctx

	cust, err := c.api.Customers.New(custParams)
	if err != nil {
		return nil, c.mapProviderError(err)
	}
	return cust, nil
}

// VerifyWebhookSignature checks the HMAC over the raw request body. The body
// must be the verbatim byte stream from the wire; re-serialized JSON will
// never match the signature.
func (c *Client) VerifyWebhookSignature(payload []byte, sigHeader string) (*Event, error) {
	ev, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return nil, internal.NewSignatureError("webhook signature verification failed", internal.ErrCodeInvalidSignature).WithCause(err)
	}

	return &Event{
		ID:      ev.ID,
		Type:    string(ev.Type),
		DataRaw: ev.Data.Raw,
	}, nil
}

func (c *Client) RetrieveSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, c.mapProviderError(err)
	}
	return sub, nil
}

func (c *Client) CancelSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Cancel(id, params)
	if err != nil {
		return nil, c.mapProviderError(err)
	}

	c.logger.Info("subscription cancelled", "subscription_id", id)
	return sub, nil
}

// mapProviderError converts SDK errors into domain errors so stripe types do
// not leak into the service layer or HTTP responses.
func (c *Client) mapProviderError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Code {
		case stripe.ErrorCodeCardDeclined:
			return internal.NewProviderError("card was declined", internal.ErrCodePaymentDeclined).WithCause(err)
		case stripe.ErrorCodeExpiredCard:
			return internal.NewProviderError("card has expired", internal.ErrCodePaymentDeclined).WithCause(err)
		case stripe.ErrorCodeBalanceInsufficient:
			return internal.NewProviderError("insufficient funds", internal.ErrCodePaymentDeclined).WithCause(err)
		}

		if stripeErr.HTTPStatusCode >= http.StatusInternalServerError {
			return internal.NewProviderError("payment provider unavailable", internal.ErrCodeProviderUnreachable).WithCause(err)
		}

		return internal.NewProviderError(stripeErr.Msg, internal.ErrCodeProviderFailure).WithCause(err)
	}

	return internal.NewProviderError("payment provider request failed", internal.ErrCodeProviderFailure).WithCause(err)
}
