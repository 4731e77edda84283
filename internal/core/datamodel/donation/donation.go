package donation

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

const (
	TypeOneTime = "one-time"
	TypeMonthly = "monthly"
)

const (
	DedicationHonor  = "honor"
	DedicationMemory = "memory"
)

// Donation is the durable record of one donation attempt and its lifecycle
// status. The ID is generated at intake and never changes; the provider
// identifiers are set at most once.
type Donation struct {
	ID string `gorm:"primaryKey;column:id"`

	FirstName   string `gorm:"column:first_name;not null"`
	LastName    string `gorm:"column:last_name;not null"`
	Email       string `gorm:"column:email;not null"`
	Phone       string `gorm:"column:phone"`
	IsAnonymous bool   `gorm:"column:is_anonymous;default:false"`

	Address string `gorm:"column:address;not null"`
	City    string `gorm:"column:city;not null"`
	State   string `gorm:"column:state;not null"`
	ZipCode string `gorm:"column:zip_code;not null"`
	Country string `gorm:"column:country;not null"`

	Amount       float64 `gorm:"column:amount;not null"`
	DonationType string  `gorm:"column:donation_type;not null"`

	DedicateGift    bool   `gorm:"column:dedicate_gift;default:false"`
	DedicationType  string `gorm:"column:dedication_type"`
	DedicateName    string `gorm:"column:dedicate_name"`
	DedicateMessage string `gorm:"column:dedicate_message"`

	ReceiveUpdates bool `gorm:"column:receive_updates;default:false"`

	Status          string  `gorm:"column:status;default:pending"`
	PaymentIntentID *string `gorm:"column:payment_intent_id;uniqueIndex"`
	SubscriptionID  *string `gorm:"column:subscription_id;uniqueIndex"`
	ErrorMessage    *string `gorm:"column:error_message"`

	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
}

func (Donation) TableName() string {
	return "donations"
}

// CanTransitionTo reports whether the status machine allows moving from the
// current status to target. Repeat transitions into the same terminal-success
// status are allowed so duplicate provider events stay idempotent no-ops.
func (d *Donation) CanTransitionTo(target string) bool {
	if target == StatusCancelled {
		// subscription.deleted may arrive in any state
		return true
	}

	switch d.Status {
	case StatusPending:
		return target == StatusPending || target == StatusCompleted || target == StatusFailed
	case StatusCompleted:
		// recurring invoices re-confirm an already completed donation
		return target == StatusCompleted
	default:
		// failed and cancelled are terminal
		return false
	}
}

// DonorName returns the donor's display name, honoring anonymity for any
// public-facing surface.
func (d *Donation) DonorName() string {
	if d.IsAnonymous {
		return "Anonymous"
	}
	return d.FirstName + " " + d.LastName
}
