// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// PaymentRecord and RCVDemandLetter models.
//
// Status-transition guards are encoded as conditional UPDATEs: a move that is
// illegal for the row's current status affects zero rows and surfaces as
// ErrNotFound, which the service layer maps to a transition error. This keeps
// check-and-set atomic without explicit row locking.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-claims-backend/internal/domain"
)

// CreatePayment inserts a new expected payment row for a claim.
func CreatePayment(ctx context.Context, db *gorm.DB, claimID string, pt domain.PaymentType, expected *float64) (*domain.PaymentRecord, error) {
	p := &domain.PaymentRecord{
		ID:             uuid.NewString(),
		ClaimID:        claimID,
		PaymentType:    pt,
		Status:         domain.PaymentExpected,
		ExpectedAmount: expected,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPayment fetches a payment record by ID. Returns ErrNotFound when
// missing.
func GetPayment(ctx context.Context, db *gorm.DB, id string) (*domain.PaymentRecord, error) {
	var p domain.PaymentRecord
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPayments returns all payment records of a claim ordered by creation
// time ascending (ledger order). Records are never deleted.
func ListPayments(ctx context.Context, db *gorm.DB, claimID string) ([]domain.PaymentRecord, error) {
	var out []domain.PaymentRecord
	err := db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// MarkPaymentReceived moves an expected record to received, recording the
// amount and receipt date. Affects zero rows (→ ErrNotFound) when the record
// is missing or not in expected status.
func MarkPaymentReceived(ctx context.Context, db *gorm.DB, id string, amount float64, receivedDate time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.PaymentRecord{}).
		Where("id = ? AND status = ?", id, domain.PaymentExpected).
		Updates(map[string]any{
			"status":        domain.PaymentReceived,
			"amount":        amount,
			"received_date": receivedDate,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkPaymentReconciled moves a received record to the terminal reconciled
// status. Affects zero rows (→ ErrNotFound) unless the record is received.
func MarkPaymentReconciled(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.PaymentRecord{}).
		Where("id = ? AND status = ?", id, domain.PaymentReceived).
		Update("status", domain.PaymentReconciled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkPaymentDisputed moves a received record to the terminal disputed
// status with the supplied reason. Affects zero rows (→ ErrNotFound) unless
// the record is received.
func MarkPaymentDisputed(ctx context.Context, db *gorm.DB, id, reason string) error {
	res := db.WithContext(ctx).
		Model(&domain.PaymentRecord{}).
		Where("id = ? AND status = ?", id, domain.PaymentReceived).
		Updates(map[string]any{
			"status":         domain.PaymentDisputed,
			"dispute_reason": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateDemandLetter inserts a generated RCV demand letter with its monetary
// snapshot fields.
func CreateDemandLetter(ctx context.Context, db *gorm.DB, l *domain.RCVDemandLetter) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(l).Error
}

// GetDemandLetter fetches a demand letter by ID. Returns ErrNotFound when
// missing.
func GetDemandLetter(ctx context.Context, db *gorm.DB, id string) (*domain.RCVDemandLetter, error) {
	var l domain.RCVDemandLetter
	if err := db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// ListDemandLetters returns a claim's demand letters, newest first.
func ListDemandLetters(ctx context.Context, db *gorm.DB, claimID string) ([]domain.RCVDemandLetter, error) {
	var out []domain.RCVDemandLetter
	err := db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// MarkDemandLetterSent stamps sent_at/sent_to_email exactly once. A letter
// that was already sent affects zero rows and returns ErrNotFound so the
// service can reject the repeat.
func MarkDemandLetterSent(ctx context.Context, db *gorm.DB, id, email string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.RCVDemandLetter{}).
		Where("id = ? AND sent_at IS NULL", id).
		Updates(map[string]any{
			"sent_at":       at,
			"sent_to_email": email,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
