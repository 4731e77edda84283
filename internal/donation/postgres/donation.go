package postgres

import (
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beyondborders/donation-service/internal"
	datamodel "github.com/beyondborders/donation-service/internal/core/datamodel/donation"
	donationpkg "github.com/beyondborders/donation-service/internal/donation"
)

type DonationRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewDonationRepository(db *gorm.DB, logger *slog.Logger) donationpkg.RepositoryAPI {
	return &DonationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *DonationRepository) Create(d *datamodel.Donation) error {
	return r.db.Create(d).Error
}

func (r *DonationRepository) GetByID(id string) (*datamodel.Donation, error) {
	var d datamodel.Donation
	err := r.db.Where("id = ?", id).First(&d).Error
	if err != nil {
		return nil, r.mapError(err)
	}
	return &d, nil
}

func (r *DonationRepository) GetByPaymentIntentID(paymentIntentID string) (*datamodel.Donation, error) {
	var d datamodel.Donation
	err := r.db.Where("payment_intent_id = ?", paymentIntentID).First(&d).Error
	if err != nil {
		return nil, r.mapError(err)
	}
	return &d, nil
}

func (r *DonationRepository) GetBySubscriptionID(subscriptionID string) (*datamodel.Donation, error) {
	var d datamodel.Donation
	err := r.db.Where("subscription_id = ?", subscriptionID).First(&d).Error
	if err != nil {
		return nil, r.mapError(err)
	}
	return &d, nil
}

// UpdateStatus applies one status transition as a single atomic
// read-modify-write: the row is locked for the duration of the transaction
// so concurrent webhook deliveries for the same donation serialize instead
// of losing updates. Disallowed transitions and repeats are no-ops with
// changed=false; completed_at is set exactly once; error_message survives
// only on failed.
func (r *DonationRepository) UpdateStatus(id, status string, patch donationpkg.StatusPatch) (*datamodel.Donation, bool, error) {
	var (
		result  datamodel.Donation
		changed bool
	)

	err := r.db.Transaction(func(tx *gorm.DB) error {
		q := tx
		// SQLite has no row locks; its writer lock serializes transactions
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var d datamodel.Donation
		if err := q.Where("id = ?", id).First(&d).Error; err != nil {
			return err
		}

		if !d.CanTransitionTo(status) {
			r.logger.Warn("status transition rejected",
				"donation_id", id,
				"current_status", d.Status,
				"target_status", status)
			result = d
			return nil
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status":     status,
			"updated_at": now,
		}

		if status == datamodel.StatusFailed {
			if patch.ErrorMessage != nil {
				updates["error_message"] = *patch.ErrorMessage
			}
		} else {
			updates["error_message"] = nil
		}

		if status == datamodel.StatusCompleted && d.CompletedAt == nil {
			updates["completed_at"] = now
		}

		// provider identifiers are set at most once, never overwritten
		if patch.SubscriptionID != nil && d.SubscriptionID == nil {
			updates["subscription_id"] = *patch.SubscriptionID
		}

		if err := tx.Model(&datamodel.Donation{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		if err := tx.Where("id = ?", id).First(&result).Error; err != nil {
			return err
		}

		changed = d.Status != status
		return nil
	})
	if err != nil {
		return nil, false, r.mapError(err)
	}

	return &result, changed, nil
}

func (r *DonationRepository) mapError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return internal.ErrDonationNotFound
	}
	return err
}
