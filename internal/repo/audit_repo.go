// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the AuditReport
// model, the durable record that makes the document analysis workflow
// resumable.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-claims-backend/internal/domain"
)

// CreateAuditReport inserts a new report row. The caller supplies the ID
// (usually the identifier returned by the estimate generator).
func CreateAuditReport(ctx context.Context, db *gorm.DB, r *domain.AuditReport) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(r).Error
}

// ActiveAuditReport returns the claim's single non-superseded report, or
// ErrNotFound when the claim has never been analyzed (or every prior report
// was archived by a new adjudication cycle).
func ActiveAuditReport(ctx context.Context, db *gorm.DB, claimID string) (*domain.AuditReport, error) {
	var r domain.AuditReport
	err := db.WithContext(ctx).
		Where("claim_id = ? AND superseded_at IS NULL", claimID).
		Order("created_at desc").
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListAuditReports returns all of a claim's reports, newest first, including
// superseded ones. Reports are never deleted while the claim is open, so this
// is the full adjudication history.
func ListAuditReports(ctx context.Context, db *gorm.DB, claimID string) ([]domain.AuditReport, error) {
	var out []domain.AuditReport
	err := db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// SaveAuditReport persists the mutable columns of an existing report
// (analysis blob, comparison payload, letter/pitch text, sent marker).
func SaveAuditReport(ctx context.Context, db *gorm.DB, r *domain.AuditReport) error {
	return db.WithContext(ctx).Save(r).Error
}

// SupersedeAuditReports archives every active report of a claim by stamping
// superseded_at. Rows are retained for audit history. Returns the number of
// reports archived.
func SupersedeAuditReports(ctx context.Context, db *gorm.DB, claimID string, at time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.AuditReport{}).
		Where("claim_id = ? AND superseded_at IS NULL", claimID).
		Update("superseded_at", at)
	return res.RowsAffected, res.Error
}
