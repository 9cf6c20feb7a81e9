package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"donation-api/internal/database"
	"donation-api/internal/models"
	"donation-api/pkg/logging"

	"gorm.io/gorm"
)

// ErrTransactionNotFound is returned when the correlation key matches no
// transaction. The webhook turns it into a 404; the sweep logs and moves on.
var ErrTransactionNotFound = errors.New("transaction not found")

// DonationNotifier dispatches donor/campaigner notifications for a
// successful donation. Implementations must be safe to call from a
// goroutine and must never panic on provider failures.
type DonationNotifier interface {
	NotifyDonationSuccess(transaction models.Transaction, campaign models.Campaign)
}

// ReconcilerService applies payment status transitions. It is the single
// place that mutates transaction status and campaign totals, shared by the
// user-initiated check, the gateway callback and the cron sweep.
//
// Status transitions are pending -> success and pending -> failed only.
// The transition is a conditional update keyed on status still being
// pending, so concurrent callers racing on the same transaction resolve to
// exactly one apply; the campaign total is incremented with a database-level
// expression for the same reason.
type ReconcilerService struct {
	db       *gorm.DB
	notifier DonationNotifier
}

// NewReconcilerService creates a new reconciler service
func NewReconcilerService(notifier DonationNotifier) *ReconcilerService {
	return &ReconcilerService{
		db:       database.GetDB(),
		notifier: notifier,
	}
}

// ReconcileResult reports the outcome of one reconcile call.
type ReconcileResult struct {
	Applied     bool                `json:"applied"`
	Status      string              `json:"status"`
	Transaction *models.Transaction `json:"-"`
}

// Reconcile moves the transaction identified by merchantOrderID to
// newStatus. Returns Applied=false without error when the transaction is
// already terminal or another caller won the race; only database failures
// are returned as errors. Notifications are dispatched asynchronously after
// the mutation commits and can never fail the reconciliation.
func (s *ReconcilerService) Reconcile(ctx context.Context, merchantOrderID, newStatus, resultCode, message, reference string) (*ReconcileResult, error) {
	var trx models.Transaction
	result := s.db.WithContext(ctx).Where("merchant_order_id = ?", merchantOrderID).First(&trx)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to fetch transaction: %w", result.Error)
	}

	// Fast path: already terminal, nothing to do. The conditional update
	// below re-checks this under the database's guarantees.
	if trx.IsTerminal() {
		return &ReconcileResult{Applied: false, Status: trx.Status, Transaction: &trx}, nil
	}

	// The gateway still reports pending; leave the row untouched so the
	// next sweep re-examines it.
	if newStatus != models.StatusSuccess && newStatus != models.StatusFailed {
		return &ReconcileResult{Applied: false, Status: models.StatusPending, Transaction: &trx}, nil
	}

	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":         newStatus,
			"result_code":    resultCode,
			"status_message": message,
			"reference":      reference,
		}
		if newStatus == models.StatusSuccess {
			updates["paid_at"] = time.Now()
		}

		// Conditional update: only wins if the row is still pending.
		res := tx.Model(&models.Transaction{}).
			Where("merchant_order_id = ? AND status = ?", merchantOrderID, models.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update transaction: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Another caller already finalized this transaction.
			return nil
		}
		applied = true

		if newStatus == models.StatusSuccess {
			// Increment at the database level so concurrent successful
			// donations to the same campaign never lose updates.
			res = tx.Model(&models.Campaign{}).
				Where("id = ?", trx.CampaignID).
				UpdateColumn("current_amount", gorm.Expr("current_amount + ?", trx.Amount))
			if res.Error != nil {
				return fmt.Errorf("failed to credit campaign: %w", res.Error)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !applied {
		// Re-read to report the status the winner applied.
		var current models.Transaction
		if err := s.db.WithContext(ctx).Where("merchant_order_id = ?", merchantOrderID).First(&current).Error; err == nil {
			trx = current
		}
		return &ReconcileResult{Applied: false, Status: trx.Status, Transaction: &trx}, nil
	}

	trx.Status = newStatus
	trx.ResultCode = resultCode
	trx.StatusMessage = message
	trx.Reference = reference

	logging.Infof("Transaction %s reconciled to %s (result code %s)", merchantOrderID, newStatus, resultCode)

	if newStatus == models.StatusSuccess && s.notifier != nil {
		var campaign models.Campaign
		if err := s.db.WithContext(ctx).First(&campaign, trx.CampaignID).Error; err != nil {
			logging.Errorf("Failed to load campaign %d for notification: %v", trx.CampaignID, err)
		} else {
			// Fire and forget: notification outcome never reaches the caller.
			go s.notifier.NotifyDonationSuccess(trx, campaign)
		}
	}

	return &ReconcileResult{Applied: true, Status: newStatus, Transaction: &trx}, nil
}
