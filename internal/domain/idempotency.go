// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency represents a recorded result of a previously processed request,
// keyed by (user_id, claim_id, key). It enables safe retries for the unsafe
// adjudication endpoints (analyze, letter, pitch) by letting handlers serve
// the originally produced audit report instead of re-invoking collaborators.
type Idempotency struct {
	ID            string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_claim_key,priority:1"`
	ClaimID       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_claim_key,priority:2"`
	Key           string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_claim_key,priority:3"`
	AuditReportID string    `gorm:"type:TEXT NOT NULL"`
	Status        int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt     time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt     time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
