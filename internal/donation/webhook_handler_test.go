package donation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/beyondborders/donation-service/internal"
	donationPkg "github.com/beyondborders/donation-service/internal/donation"
	"github.com/beyondborders/donation-service/internal/paymentgateway"
	"github.com/beyondborders/donation-service/internal/transport"
)

// verifyingGateway stubs signature verification for handler tests.
type verifyingGateway struct {
	mockGateway
	event       *paymentgateway.Event
	verifyError error
	verifyCalls int
	lastPayload []byte
	lastHeader  string
}

func (g *verifyingGateway) VerifyWebhookSignature(payload []byte, sigHeader string) (*paymentgateway.Event, error) {
	g.verifyCalls++
	g.lastPayload = payload
	g.lastHeader = sigHeader
	if g.verifyError != nil {
		return nil, g.verifyError
	}
	return g.event, nil
}

// spyService records event applications and can fail or panic on demand.
type spyService struct {
	applied    []*paymentgateway.Event
	applyError error
	panicValue interface{}
}

func (s *spyService) CreateDonation(ctx context.Context, form *donationPkg.DonationForm) (*donationPkg.CreateDonationResponse, error) {
	return nil, errors.New("not used in webhook tests")
}

func (s *spyService) GetDonation(ctx context.Context, id string) (*donationPkg.DonationStatusResponse, error) {
	return nil, errors.New("not used in webhook tests")
}

func (s *spyService) ApplyGatewayEvent(ctx context.Context, event *paymentgateway.Event) error {
	s.applied = append(s.applied, event)
	if s.panicValue != nil {
		panic(s.panicValue)
	}
	return s.applyError
}

var _ = Describe("WebhookHandler", func() {
	var (
		handler *donationPkg.WebhookHandler
		gateway *verifyingGateway
		service *spyService
	)

	BeforeEach(func() {
		gateway = &verifyingGateway{
			event: &paymentgateway.Event{
				ID:      "evt_test_1",
				Type:    "payment_intent.succeeded",
				DataRaw: json.RawMessage(`{"id":"pi_1","metadata":{"donationId":"don_abc"}}`),
			},
		}
		service = &spyService{}
		logger := testLogger()
		handler = donationPkg.NewWebhookHandler(transport.NewBaseHandler(logger), service, gateway, logger)
	})

	postWebhook := func(body []byte, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(body))
		if signature != "" {
			req.Header.Set("Stripe-Signature", signature)
		}
		rec := httptest.NewRecorder()
		handler.HandleProviderWebhook(rec, req)
		return rec
	}

	Context("when the signature header is missing", func() {
		It("should respond 400 and never touch the service", func() {
			// When
			rec := postWebhook([]byte(`{}`), "")

			// Then
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			var resp map[string]string
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["error"]).To(Equal("Missing stripe-signature header"))
			Expect(gateway.verifyCalls).To(Equal(0))
			Expect(service.applied).To(BeEmpty())
		})
	})

	Context("when the signature does not verify", func() {
		It("should respond 400 and never touch the service", func() {
			// Given
			gateway.verifyError = internal.NewSignatureError("webhook signature verification failed", internal.ErrCodeInvalidSignature)

			// When
			rec := postWebhook([]byte(`{}`), "t=1,v1=bad")

			// Then
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			var resp map[string]string
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["error"]).To(Equal("Webhook error"))
			Expect(service.applied).To(BeEmpty())
		})
	})

	Context("when the signature verifies", func() {
		It("should acknowledge with received true and dispatch the event", func() {
			// When
			rec := postWebhook([]byte(`{"id":"evt_test_1"}`), "t=1,v1=good")

			// Then
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp map[string]bool
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["received"]).To(BeTrue())
			Expect(service.applied).To(HaveLen(1))
			Expect(service.applied[0].ID).To(Equal("evt_test_1"))
		})

		It("should verify the signature over the verbatim body bytes", func() {
			// Given
			body := []byte(`{"id": "evt_test_1",   "object": "event"}`)

			// When
			postWebhook(body, "t=1,v1=good")

			// Then
			Expect(gateway.lastPayload).To(Equal(body))
			Expect(gateway.lastHeader).To(Equal("t=1,v1=good"))
		})

		It("should still respond 200 when event processing fails", func() {
			// Given
			service.applyError = errors.New("store unavailable")

			// When
			rec := postWebhook([]byte(`{}`), "t=1,v1=good")

			// Then
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should still respond 200 when event processing panics", func() {
			// Given
			service.panicValue = "nil pointer somewhere"

			// When
			rec := postWebhook([]byte(`{}`), "t=1,v1=good")

			// Then
			Expect(rec.Code).To(Equal(http.StatusOK))

			var resp map[string]bool
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["received"]).To(BeTrue())
		})
	})
})
