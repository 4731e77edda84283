package donation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/beyondborders/donation-service/internal"
	"github.com/beyondborders/donation-service/internal/core/events"
	donationPkg "github.com/beyondborders/donation-service/internal/donation"
	"github.com/beyondborders/donation-service/internal/transport"
)

var _ = Describe("DonationHandler", func() {
	var (
		handler  *donationPkg.Handler
		mockRepo *mockDonationRepository
		gateway  *mockGateway
	)

	BeforeEach(func() {
		mockRepo = newMockDonationRepository()
		gateway = newMockGateway()
		logger := testLogger()
		validator := donationPkg.NewValidator(internal.DonationConfig{MinAmount: 5, MaxAmount: 10000})
		service := donationPkg.NewService(mockRepo, gateway, validator, events.NewEventBus(logger), logger)
		handler = donationPkg.NewHandler(transport.NewBaseHandler(logger), service, logger)
	})

	postDonation := func(body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/donations", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.CreateDonation(rec, req)
		return rec
	}

	Describe("CreateDonation", func() {
		Context("when the donation is valid", func() {
			It("should respond 200 with the client secret", func() {
				// Given
				body, err := json.Marshal(validForm())
				Expect(err).ToNot(HaveOccurred())

				// When
				rec := postDonation(body)

				// Then
				Expect(rec.Code).To(Equal(http.StatusOK))

				var resp donationPkg.CreateDonationResponse
				Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp.Success).To(BeTrue())
				Expect(resp.DonationID).To(HavePrefix("don_"))
				Expect(resp.ClientSecret).To(Equal("pi_test_123_secret"))
				Expect(resp.PaymentIntentID).To(Equal("pi_test_123"))
			})
		})

		Context("when the amount is below the minimum", func() {
			It("should respond 400 with the field error map", func() {
				// Given
				form := validForm()
				form.Amount = 3
				body, _ := json.Marshal(form)

				// When
				rec := postDonation(body)

				// Then
				Expect(rec.Code).To(Equal(http.StatusBadRequest))

				var resp struct {
					Error   string            `json:"error"`
					Details map[string]string `json:"details"`
				}
				Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp.Details).To(HaveKeyWithValue("amount", "Minimum donation amount is $5"))
			})
		})

		Context("when the body is not valid JSON", func() {
			It("should respond 400", func() {
				// When
				rec := postDonation([]byte(`{"amount": `))

				// Then
				Expect(rec.Code).To(Equal(http.StatusBadRequest))

				var resp map[string]string
				Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp["error"]).To(Equal("Invalid request body"))
			})
		})

		Context("when the provider rejects the payment", func() {
			It("should respond 500 with a generic message", func() {
				// Given
				gateway.intentError = internal.NewProviderError("card was declined", internal.ErrCodePaymentDeclined)
				body, _ := json.Marshal(validForm())

				// When
				rec := postDonation(body)

				// Then
				Expect(rec.Code).To(Equal(http.StatusInternalServerError))

				var resp map[string]string
				Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp["error"]).To(Equal("Payment processing failed. Please try again or contact support."))
				Expect(resp["error"]).ToNot(ContainSubstring("declined"))
			})
		})
	})

	Describe("GetDonation", func() {
		Context("when the id parameter is missing", func() {
			It("should respond 400", func() {
				req := httptest.NewRequest(http.MethodGet, "/api/v1/donations", nil)
				rec := httptest.NewRecorder()

				handler.GetDonation(rec, req)

				Expect(rec.Code).To(Equal(http.StatusBadRequest))
			})
		})

		Context("when the donation exists", func() {
			It("should respond with the public status payload", func() {
				// Given
				service := donationPkg.NewService(mockRepo, gateway,
					donationPkg.NewValidator(internal.DonationConfig{MinAmount: 5, MaxAmount: 10000}),
					events.NewEventBus(testLogger()), testLogger())
				created, err := service.CreateDonation(context.Background(), validForm())
				Expect(err).ToNot(HaveOccurred())

				req := httptest.NewRequest(http.MethodGet, "/api/v1/donations?id="+created.DonationID, nil)
				rec := httptest.NewRecorder()

				// When
				handler.GetDonation(rec, req)

				// Then
				Expect(rec.Code).To(Equal(http.StatusOK))

				var resp struct {
					Success  bool                               `json:"success"`
					Donation donationPkg.DonationStatusResponse `json:"donation"`
				}
				Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp.Success).To(BeTrue())
				Expect(resp.Donation.ID).To(Equal(created.DonationID))
				Expect(resp.Donation.Status).To(Equal("pending"))
				Expect(resp.Donation.DonorName).To(Equal("Jane Smith"))
			})
		})

		Context("when the donation does not exist", func() {
			It("should respond 404", func() {
				req := httptest.NewRequest(http.MethodGet, "/api/v1/donations?id=don_missing", nil)
				rec := httptest.NewRecorder()

				handler.GetDonation(rec, req)

				Expect(rec.Code).To(Equal(http.StatusNotFound))
			})
		})
	})
})
