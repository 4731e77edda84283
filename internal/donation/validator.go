package donation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/beyondborders/donation-service/internal"
	datamodel "github.com/beyondborders/donation-service/internal/core/datamodel/donation"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern    = regexp.MustCompile(`^\+?[1-9][0-9]{9,15}$`)
	phoneStripChars = regexp.MustCompile(`[\s\-()]`)
	usZipPattern    = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	caPostalPattern = regexp.MustCompile(`^[A-Za-z]\d[A-Za-z] ?\d[A-Za-z]\d$`)
)

// Validator checks and sanitizes untrusted donation form input. Both methods
// are pure; Sanitize assumes Validate reported zero errors.
type Validator struct {
	cfg internal.DonationConfig
}

func NewValidator(cfg internal.DonationConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Validate returns a field-keyed error map; an empty map means the form is
// valid. Messages are donor-facing.
func (v *Validator) Validate(form *DonationForm) internal.FieldErrors {
	errs := internal.FieldErrors{}

	requiredFields := []struct {
		field, name, value string
	}{
		{"firstName", "First name", form.FirstName},
		{"lastName", "Last name", form.LastName},
		{"email", "Email address", form.Email},
		{"address", "Street address", form.Address},
		{"city", "City", form.City},
		{"state", "State/Province", form.State},
		{"zipCode", "ZIP/Postal code", form.ZipCode},
		{"country", "Country", form.Country},
	}
	for _, rf := range requiredFields {
		if strings.TrimSpace(rf.value) == "" {
			errs[rf.field] = rf.name + " is required"
		}
	}

	if form.Email != "" && !emailPattern.MatchString(form.Email) {
		errs["email"] = "Please enter a valid email address"
	}

	if form.Phone != "" && !validPhone(form.Phone) {
		errs["phone"] = "Please enter a valid phone number"
	}

	if form.ZipCode != "" {
		if msg := zipCodeError(form.ZipCode, form.Country); msg != "" {
			errs["zipCode"] = msg
		}
	}

	if msg := v.amountError(form.Amount); msg != "" {
		errs["amount"] = msg
	}

	if form.DonationType != datamodel.TypeOneTime && form.DonationType != datamodel.TypeMonthly {
		errs["donationType"] = "Please select a valid donation type"
	}

	if len(form.FirstName) > 50 {
		errs["firstName"] = "First name must be less than 50 characters"
	}
	if len(form.LastName) > 50 {
		errs["lastName"] = "Last name must be less than 50 characters"
	}
	if len(form.Address) > 100 {
		errs["address"] = "Address must be less than 100 characters"
	}
	if len(form.City) > 50 {
		errs["city"] = "City must be less than 50 characters"
	}
	if len(form.State) > 50 {
		errs["state"] = "State/Province must be less than 50 characters"
	}

	if form.DedicateGift {
		if form.DedicationType != datamodel.DedicationHonor && form.DedicationType != datamodel.DedicationMemory {
			errs["dedicationType"] = "Please select a dedication type"
		}

		if strings.TrimSpace(form.DedicateName) == "" {
			errs["dedicateName"] = "Please enter the name for the dedication"
		} else if len(form.DedicateName) > 100 {
			errs["dedicateName"] = "Dedication name must be less than 100 characters"
		}

		if len(form.DedicateMessage) > 500 {
			errs["dedicateMessage"] = "Dedication message must be less than 500 characters"
		}
	}

	return errs
}

// Sanitize normalizes a validated form: trims strings, lowercases the email,
// strips formatting characters from the phone, uppercases the zip code.
// Applying it twice yields the same result.
func (v *Validator) Sanitize(form *DonationForm) *DonationForm {
	out := *form
	out.FirstName = strings.TrimSpace(form.FirstName)
	out.LastName = strings.TrimSpace(form.LastName)
	out.Email = strings.ToLower(strings.TrimSpace(form.Email))
	out.Phone = phoneStripChars.ReplaceAllString(form.Phone, "")
	out.Address = strings.TrimSpace(form.Address)
	out.City = strings.TrimSpace(form.City)
	out.State = strings.TrimSpace(form.State)
	out.ZipCode = strings.ToUpper(strings.TrimSpace(form.ZipCode))
	out.DedicateName = strings.TrimSpace(form.DedicateName)
	out.DedicateMessage = strings.TrimSpace(form.DedicateMessage)
	return &out
}

func (v *Validator) amountError(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < v.cfg.MinAmount {
		return fmt.Sprintf("Minimum donation amount is %s", formatWholeUSD(v.cfg.MinAmount))
	}
	if amount > v.cfg.MaxAmount {
		return fmt.Sprintf("Maximum donation amount is %s. Please contact us for larger donations.", formatWholeUSD(v.cfg.MaxAmount))
	}
	return ""
}

func validPhone(phone string) bool {
	clean := phoneStripChars.ReplaceAllString(phone, "")
	return phonePattern.MatchString(clean)
}

func zipCodeError(zipCode, country string) string {
	switch country {
	case "United States":
		if !usZipPattern.MatchString(zipCode) {
			return "Please enter a valid ZIP code (e.g., 12345 or 12345-6789)"
		}
	case "Canada":
		if !caPostalPattern.MatchString(zipCode) {
			return "Please enter a valid postal code (e.g., A1A 1A1)"
		}
	default:
		if strings.TrimSpace(zipCode) == "" {
			return "Please enter a valid postal code"
		}
	}
	return ""
}

// formatWholeUSD renders a whole-dollar policy value like "$10,000".
func formatWholeUSD(v float64) string {
	s := strconv.FormatInt(int64(v), 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return "$" + s
}
