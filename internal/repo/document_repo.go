// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// CarrierEstimateDocument model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-claims-backend/internal/domain"
)

// CreateDocument inserts a new carrier estimate document row in parse status
// "pending". The caller supplies the document ID because it is minted when
// the upload destination is issued, before the row exists.
func CreateDocument(ctx context.Context, db *gorm.DB, doc *domain.CarrierEstimateDocument) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if doc.ParseStatus == "" {
		doc.ParseStatus = domain.ParsePending
	}
	return db.WithContext(ctx).Create(doc).Error
}

// GetDocument fetches a document by ID scoped to its claim. Returns
// ErrNotFound when missing.
func GetDocument(ctx context.Context, db *gorm.DB, id, claimID string) (*domain.CarrierEstimateDocument, error) {
	var d domain.CarrierEstimateDocument
	err := db.WithContext(ctx).
		Where("id = ? AND claim_id = ?", id, claimID).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// LatestDocument returns the most recently created document for a claim, or
// ErrNotFound when the claim has none. The workflow treats this row as the
// active upload.
func LatestDocument(ctx context.Context, db *gorm.DB, claimID string) (*domain.CarrierEstimateDocument, error) {
	var d domain.CarrierEstimateDocument
	err := db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("created_at desc, id desc").
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// SoftDeleteDocument retires a document from the active workflow. The row is
// soft-deleted (kept for history) so LatestDocument stops seeing it; used by
// the NEED_DOCS reset, which must put the workflow back to idle.
func SoftDeleteDocument(ctx context.Context, db *gorm.DB, id, claimID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND claim_id = ?", id, claimID).
		Delete(&domain.CarrierEstimateDocument{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateDocumentParse persists a parse status move and, when parsing
// completed, the parsed line items. Terminal rows are immutable: an attempt
// to move a document already in completed/failed is rejected with
// ErrNotFound so callers treat it as a stale write.
func UpdateDocumentParse(ctx context.Context, db *gorm.DB, id string, status domain.ParseStatus, lineItems string) error {
	res := db.WithContext(ctx).
		Model(&domain.CarrierEstimateDocument{}).
		Where("id = ? AND parse_status IN ?", id, []domain.ParseStatus{domain.ParsePending, domain.ParseProcessing}).
		Updates(map[string]any{
			"parse_status": status,
			"line_items":   lineItems,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
