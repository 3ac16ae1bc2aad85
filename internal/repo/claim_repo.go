// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Claim model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Status-transition legality, gate checks,
// and step semantics live in services.ClaimService.
//
// Error semantics:
//   - When a claim is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-claims-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateClaim inserts a new draft Claim owned by userID.
// The claim ID is a randomly generated UUID, and CreatedAt is set to UTC.
func CreateClaim(ctx context.Context, db *gorm.DB, userID, policyholderEmail string) (*domain.Claim, error) {
	c := &domain.Claim{
		ID:                uuid.NewString(),
		UserID:            userID,
		Status:            domain.StatusDraft,
		CurrentStep:       1,
		PolicyholderEmail: policyholderEmail,
		CreatedAt:         time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetClaim fetches a single claim by its ID and owner (userID). If the record
// does not exist, it returns ErrNotFound. On other DB errors, the raw error
// is returned.
func GetClaim(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Claim, error) {
	var c domain.Claim
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountClaims returns the total number of claims owned by userID.
func CountClaims(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Claim{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListClaimsPage returns a paginated slice of claims for userID, ordered by
// creation time descending. Use CountClaims to obtain the total for
// pagination metadata.
func ListClaimsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Claim, error) {
	var out []domain.Claim
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateClaimStatus persists a status move for a claim owned by userID. If no
// rows are affected (claim missing or not owned), it returns ErrNotFound.
// Legality of the move is the caller's responsibility.
func UpdateClaimStatus(ctx context.Context, db *gorm.DB, id, userID string, status domain.ClaimStatus) error {
	res := db.WithContext(ctx).
		Model(&domain.Claim{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateClaimSteps persists the step cursor and the completed-step set for a
// claim owned by userID. Returns ErrNotFound when the claim is missing.
func UpdateClaimSteps(ctx context.Context, db *gorm.DB, id, userID string, currentStep int, stepsCompleted string) error {
	res := db.WithContext(ctx).
		Model(&domain.Claim{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{
			"current_step":    currentStep,
			"steps_completed": stepsCompleted,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
