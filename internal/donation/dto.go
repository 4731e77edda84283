package donation

import (
	"time"
)

// DonationForm is the untrusted donation form payload. Field names follow
// the donation form's JSON shape.
type DonationForm struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zipCode"`
	Country     string `json:"country"`
	IsAnonymous bool   `json:"isAnonymous"`

	DedicateGift    bool   `json:"dedicateGift"`
	DedicationType  string `json:"dedicationType"`
	DedicateName    string `json:"dedicateName"`
	DedicateMessage string `json:"dedicateMessage"`

	ReceiveUpdates bool `json:"receiveUpdates"`

	Amount       float64 `json:"amount"`
	DonationType string  `json:"donationType"`
}

type CreateDonationResponse struct {
	Success         bool   `json:"success"`
	DonationID      string `json:"donationId"`
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// DonationStatusResponse is the public lookup payload. Donor identity is
// withheld when the donation is anonymous.
type DonationStatusResponse struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	Amount       float64    `json:"amount"`
	DonationType string     `json:"donationType"`
	DonorName    string     `json:"donorName"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}
