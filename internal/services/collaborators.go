// Package services – collaborator contracts
//
// The settlement engine treats storage, parsing, estimating, adjudication,
// and letter generation as external collaborators. This file defines the
// narrow consumer-side interfaces the services depend on; concrete
// implementations live in internal/storage (S3) and internal/clients (HTTP).
package services

import (
	"context"
	"time"

	"github.com/tbourn/go-claims-backend/internal/domain"
)

// UploadDestination is the write target handed to the client for a direct
// document upload.
type UploadDestination struct {
	DocumentID string
	StorageKey string
	UploadURL  string
	ExpiresAt  time.Time
}

// Storage issues upload destinations and verifies uploaded objects.
type Storage interface {
	// PresignUpload returns a time-limited URL the client PUTs the file to.
	PresignUpload(ctx context.Context, key, contentType string) (url string, expiresAt time.Time, err error)

	// ObjectExists reports whether the uploaded object is present, used on
	// upload confirmation.
	ObjectExists(ctx context.Context, key string) (bool, error)
}

// ParseState is one observation of the parsing collaborator's progress on a
// document. LineItems is populated only when Status is completed.
type ParseState struct {
	Status    domain.ParseStatus
	LineItems []domain.EstimateLineItem
}

// Parser is the external document-parsing collaborator. StartParse triggers
// the async parse; GetParseStatus is polled until a terminal status.
type Parser interface {
	StartParse(ctx context.Context, documentID, storageKey string) error
	GetParseStatus(ctx context.Context, documentID string) (ParseState, error)
}

// IndustryEstimate is the contractor-side estimate produced by the estimator
// collaborator. ReportID identifies the estimate for the subsequent
// adjudication call.
type IndustryEstimate struct {
	ReportID       string
	LineItems      []domain.EstimateLineItem
	Subtotal       float64
	OverheadProfit float64
	Total          float64
}

// Estimator generates the contractor-side industry estimate for a claim.
type Estimator interface {
	GenerateIndustryEstimate(ctx context.Context, claimID string) (IndustryEstimate, error)
}

// Adjudicator compares the contractor estimate against the parsed carrier
// offer and returns the structured verdict analysis.
type Adjudicator interface {
	RunAnalysis(ctx context.Context, claimID, reportID string) (*domain.VerdictAnalysis, error)
}

// LetterGenerator produces the follow-up text artifacts for a verdict.
type LetterGenerator interface {
	GenerateDisputeLetter(ctx context.Context, claimID, reportID string) (string, error)
	GenerateOwnerPitch(ctx context.Context, claimID, reportID string) (string, error)
}
