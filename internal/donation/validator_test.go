package donation_test

import (
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/beyondborders/donation-service/internal"
	datamodel "github.com/beyondborders/donation-service/internal/core/datamodel/donation"
	donationPkg "github.com/beyondborders/donation-service/internal/donation"
)

var _ = Describe("Validator", func() {
	var validator *donationPkg.Validator

	BeforeEach(func() {
		validator = donationPkg.NewValidator(internal.DonationConfig{MinAmount: 5, MaxAmount: 10000})
	})

	Describe("Validate", func() {
		Context("when the form is complete and valid", func() {
			It("should return no errors", func() {
				errs := validator.Validate(validForm())
				Expect(errs).To(BeEmpty())
			})
		})

		Context("when required fields are blank", func() {
			It("should report each missing field", func() {
				errs := validator.Validate(&donationPkg.DonationForm{
					Amount:       25,
					DonationType: datamodel.TypeOneTime,
				})
				Expect(errs).To(HaveKeyWithValue("firstName", "First name is required"))
				Expect(errs).To(HaveKeyWithValue("lastName", "Last name is required"))
				Expect(errs).To(HaveKeyWithValue("email", "Email address is required"))
				Expect(errs).To(HaveKeyWithValue("address", "Street address is required"))
				Expect(errs).To(HaveKeyWithValue("city", "City is required"))
				Expect(errs).To(HaveKeyWithValue("state", "State/Province is required"))
				Expect(errs).To(HaveKeyWithValue("zipCode", "ZIP/Postal code is required"))
				Expect(errs).To(HaveKeyWithValue("country", "Country is required"))
			})

			It("should treat whitespace-only values as blank", func() {
				form := validForm()
				form.FirstName = "   "
				errs := validator.Validate(form)
				Expect(errs).To(HaveKeyWithValue("firstName", "First name is required"))
			})
		})

		Context("amount bounds", func() {
			It("should reject amounts below the minimum with the exact message", func() {
				form := validForm()
				form.Amount = 3
				errs := validator.Validate(form)
				Expect(errs).To(HaveKeyWithValue("amount", "Minimum donation amount is $5"))
			})

			It("should reject amounts above the maximum with the exact message", func() {
				form := validForm()
				form.Amount = 10001
				errs := validator.Validate(form)
				Expect(errs).To(HaveKeyWithValue("amount", "Maximum donation amount is $10,000. Please contact us for larger donations."))
			})

			It("should accept both boundary values", func() {
				form := validForm()
				form.Amount = 5
				Expect(validator.Validate(form)).To(BeEmpty())
				form.Amount = 10000
				Expect(validator.Validate(form)).To(BeEmpty())
			})

			It("should reject non-finite amounts", func() {
				form := validForm()
				form.Amount = math.NaN()
				Expect(validator.Validate(form)).To(HaveKey("amount"))
				form.Amount = math.Inf(1)
				Expect(validator.Validate(form)).To(HaveKey("amount"))
			})
		})

		Context("email and phone formats", func() {
			It("should reject a malformed email", func() {
				form := validForm()
				form.Email = "not-an-email"
				errs := validator.Validate(form)
				Expect(errs).To(HaveKeyWithValue("email", "Please enter a valid email address"))
			})

			It("should accept a formatted phone number", func() {
				form := validForm()
				form.Phone = "+1 (202) 555-0123"
				Expect(validator.Validate(form)).To(BeEmpty())
			})

			It("should reject a short phone number", func() {
				form := validForm()
				form.Phone = "12345"
				errs := validator.Validate(form)
				Expect(errs).To(HaveKeyWithValue("phone", "Please enter a valid phone number"))
			})

			It("should allow the phone to be omitted", func() {
				form := validForm()
				form.Phone = ""
				Expect(validator.Validate(form)).To(BeEmpty())
			})
		})

		Context("zip code by country", func() {
			It("should accept US five and nine digit formats", func() {
				form := validForm()
				form.ZipCode = "97201"
				Expect(validator.Validate(form)).To(BeEmpty())
				form.ZipCode = "97201-1234"
				Expect(validator.Validate(form)).To(BeEmpty())
			})

			It("should reject a malformed US zip", func() {
				form := validForm()
				form.ZipCode = "ABCDE"
				errs := validator.Validate(form)
				Expect(errs).To(HaveKeyWithValue("zipCode", "Please enter a valid ZIP code (e.g., 12345 or 12345-6789)"))
			})

			It("should validate Canadian postal codes", func() {
				form := validForm()
				form.Country = "Canada"
				form.ZipCode = "K1A 0B1"
				Expect(validator.Validate(form)).To(BeEmpty())

				form.ZipCode = "12345"
				errs := validator.Validate(form)
				Expect(errs).To(HaveKeyWithValue("zipCode", "Please enter a valid postal code (e.g., A1A 1A1)"))
			})

			It("should accept any non-empty value for other countries", func() {
				form := validForm()
				form.Country = "France"
				form.ZipCode = "75001"
				Expect(validator.Validate(form)).To(BeEmpty())
			})
		})

		Context("length ceilings", func() {
			It("should reject over-long names", func() {
				form := validForm()
				form.FirstName = strings.Repeat("a", 51)
				errs := validator.Validate(form)
				Expect(errs).To(HaveKeyWithValue("firstName", "First name must be less than 50 characters"))
			})

			It("should reject an over-long address", func() {
				form := validForm()
				form.Address = strings.Repeat("a", 101)
				errs := validator.Validate(form)
				Expect(errs).To(HaveKeyWithValue("address", "Address must be less than 100 characters"))
			})
		})

		Context("dedications", func() {
			It("should require the dedication name when the gift is dedicated", func() {
				form := validForm()
				form.DedicateGift = true
				form.DedicationType = datamodel.DedicationHonor
				form.DedicateName = ""

				errs := validator.Validate(form)
				Expect(errs).To(HaveKeyWithValue("dedicateName", "Please enter the name for the dedication"))
			})

			It("should require a dedication type", func() {
				form := validForm()
				form.DedicateGift = true
				form.DedicateName = "Maria Smith"
				form.DedicationType = "celebration"

				errs := validator.Validate(form)
				Expect(errs).To(HaveKey("dedicationType"))
			})

			It("should ignore dedication fields when the gift is not dedicated", func() {
				form := validForm()
				form.DedicateGift = false
				form.DedicateName = ""
				form.DedicateMessage = strings.Repeat("a", 1000)

				Expect(validator.Validate(form)).To(BeEmpty())
			})

			It("should cap the dedication message length", func() {
				form := validForm()
				form.DedicateGift = true
				form.DedicationType = datamodel.DedicationMemory
				form.DedicateName = "Maria Smith"
				form.DedicateMessage = strings.Repeat("a", 501)

				errs := validator.Validate(form)
				Expect(errs).To(HaveKeyWithValue("dedicateMessage", "Dedication message must be less than 500 characters"))
			})
		})

		Context("donation type", func() {
			It("should reject unknown donation types", func() {
				form := validForm()
				form.DonationType = "weekly"
				errs := validator.Validate(form)
				Expect(errs).To(HaveKey("donationType"))
			})
		})
	})

	Describe("Sanitize", func() {
		It("should normalize the form fields", func() {
			form := validForm()
			form.FirstName = "  Jane "
			form.Email = " Jane.Smith@Example.COM "
			form.Phone = "+1 (202) 555-0123"
			form.ZipCode = " k1a 0b1 "

			out := validator.Sanitize(form)

			Expect(out.FirstName).To(Equal("Jane"))
			Expect(out.Email).To(Equal("jane.smith@example.com"))
			Expect(out.Phone).To(Equal("+12025550123"))
			Expect(out.ZipCode).To(Equal("K1A 0B1"))
		})

		It("should be idempotent", func() {
			form := validForm()
			form.Email = " Jane.Smith@Example.COM "
			form.Phone = "+1 (202) 555-0123"

			once := validator.Sanitize(form)
			twice := validator.Sanitize(once)

			Expect(twice).To(Equal(once))
		})

		It("should not mutate the input form", func() {
			form := validForm()
			form.Email = " UPPER@EXAMPLE.COM "

			_ = validator.Sanitize(form)

			Expect(form.Email).To(Equal(" UPPER@EXAMPLE.COM "))
		})
	})
})
