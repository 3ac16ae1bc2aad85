// Package domain – verdict classification.
//
// This file defines the structured analysis returned by the adjudication
// collaborator and the closed set of verdict outcomes. The four outcomes are
// exhaustive and mutually exclusive; anything else coming back from the
// collaborator (or out of a persisted blob) is an UnknownVerdict condition
// and must halt verdict handling rather than default to an action.
package domain

import "errors"

// VerdictStatus is the classified recommendation produced by comparing the
// contractor estimate against the carrier offer.
type VerdictStatus string

const (
	// VerdictClose: the carrier offer is acceptable; the claim step can be
	// completed with no further artifact.
	VerdictClose VerdictStatus = "CLOSE"
	// VerdictDisputeOffer: the gap justifies a formal dispute letter.
	VerdictDisputeOffer VerdictStatus = "DISPUTE_OFFER"
	// VerdictLegalReview: the gap is severe enough to escalate to the owner;
	// a pitch must be generated and acknowledged as sent, in that order.
	VerdictLegalReview VerdictStatus = "LEGAL_REVIEW"
	// VerdictNeedDocs: the uploaded document lacks line-item pricing; the
	// only legal action is a fresh upload.
	VerdictNeedDocs VerdictStatus = "NEED_DOCS"
)

// ErrUnknownVerdict is returned when an analysis carries a status outside
// the closed verdict set.
var ErrUnknownVerdict = errors.New("unknown verdict status")

// ParseVerdictStatus validates a raw verdict string against the closed set.
func ParseVerdictStatus(s string) (VerdictStatus, error) {
	switch VerdictStatus(s) {
	case VerdictClose, VerdictDisputeOffer, VerdictLegalReview, VerdictNeedDocs:
		return VerdictStatus(s), nil
	}
	return "", ErrUnknownVerdict
}

// DeltaDriver is one line item contributing to the gap between the
// contractor and carrier estimates, ordered by impact.
type DeltaDriver struct {
	LineItem        string  `json:"line_item"`
	ContractorPrice float64 `json:"contractor_price"`
	CarrierPrice    float64 `json:"carrier_price"`
	Delta           float64 `json:"delta"`
	Reason          string  `json:"reason"`
}

// CoverageDispute is a scope item the carrier denied or only partially
// covered, with the contractor's position on it.
type CoverageDispute struct {
	Item               string `json:"item"`
	Status             string `json:"status"` // denied | partial
	ContractorPosition string `json:"contractor_position"`
}

// VerdictAnalysis is the structured result of the adjudication comparison.
// It is persisted verbatim on the audit report and re-read on resume.
type VerdictAnalysis struct {
	Status                  VerdictStatus     `json:"status"`
	PlainEnglishSummary     string            `json:"plain_english_summary"`
	TotalContractorEstimate float64           `json:"total_contractor_estimate"`
	TotalCarrierEstimate    float64           `json:"total_carrier_estimate"`
	TotalDelta              float64           `json:"total_delta"`
	TopDeltaDrivers         []DeltaDriver     `json:"top_delta_drivers"`
	CoverageDisputes        []CoverageDispute `json:"coverage_disputes"`
	RequiredNextSteps       []string          `json:"required_next_steps"`
}

// Validate checks that the analysis carries a known verdict status.
func (a *VerdictAnalysis) Validate() error {
	_, err := ParseVerdictStatus(string(a.Status))
	return err
}

// OffersDisputeLetter reports whether the verdict exposes the dispute-letter
// follow-up action.
func (v VerdictStatus) OffersDisputeLetter() bool { return v == VerdictDisputeOffer }

// OffersOwnerPitch reports whether the verdict exposes the owner escalation
// pitch follow-up action.
func (v VerdictStatus) OffersOwnerPitch() bool { return v == VerdictLegalReview }

// RequiresReupload reports whether the only legal action is returning to a
// fresh upload.
func (v VerdictStatus) RequiresReupload() bool { return v == VerdictNeedDocs }

// StepCompletionBlocked reports whether the adjudication claim step may not
// yet be marked complete for the given verdict and artifact state.
//
//	CLOSE          → never blocked
//	DISPUTE_OFFER  → blocked until a dispute letter exists
//	LEGAL_REVIEW   → blocked until a pitch exists AND was acknowledged sent
//	NEED_DOCS      → always blocked (no artifact is possible)
func StepCompletionBlocked(v VerdictStatus, hasLetter, hasPitch, pitchSent bool) bool {
	switch v {
	case VerdictClose:
		return false
	case VerdictDisputeOffer:
		return !hasLetter
	case VerdictLegalReview:
		return !hasPitch || !pitchSent
	case VerdictNeedDocs:
		return true
	}
	// Unknown statuses never unlock completion.
	return true
}
