// Package domain defines the persistence models and closed status types for
// the claims settlement engine. Statuses are modeled as dedicated string
// types with exhaustive transition tables so that illegal moves are rejected
// at a single choke point instead of being scattered across handlers.
package domain

import "errors"

// ClaimStatus is the legal lifecycle state of a claim.
type ClaimStatus string

const (
	StatusDraft          ClaimStatus = "draft"
	StatusAssessing      ClaimStatus = "assessing"
	StatusFiled          ClaimStatus = "filed"
	StatusFieldScheduled ClaimStatus = "field_scheduled"
	StatusAuditPending   ClaimStatus = "audit_pending"
	StatusNegotiating    ClaimStatus = "negotiating"
	StatusSettled        ClaimStatus = "settled"
	StatusClosed         ClaimStatus = "closed"
)

// ErrInvalidTransition is returned when a requested status move is not an
// edge of the transition table. The claim is left unchanged.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrUnknownStatus is returned when a status string does not name a known
// lifecycle state.
var ErrUnknownStatus = errors.New("unknown claim status")

// claimTransitions is the full set of directed edges a claim may follow.
// "closed" is terminal and has no outgoing edges.
var claimTransitions = map[ClaimStatus][]ClaimStatus{
	StatusDraft:          {StatusAssessing, StatusFiled},
	StatusAssessing:      {StatusFiled},
	StatusFiled:          {StatusFieldScheduled, StatusAuditPending},
	StatusFieldScheduled: {StatusAuditPending},
	StatusAuditPending:   {StatusNegotiating},
	StatusNegotiating:    {StatusSettled},
	StatusSettled:        {StatusClosed},
	StatusClosed:         {},
}

// ParseClaimStatus validates a raw status string against the known set.
func ParseClaimStatus(s string) (ClaimStatus, error) {
	cs := ClaimStatus(s)
	if _, ok := claimTransitions[cs]; !ok {
		return "", ErrUnknownStatus
	}
	return cs, nil
}

// CanTransition reports whether current → target is a legal edge.
func CanTransition(current, target ClaimStatus) bool {
	for _, next := range claimTransitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// NextStatuses returns the legal targets from the given status. The result
// is a copy; callers may mutate it freely.
func NextStatuses(current ClaimStatus) []ClaimStatus {
	edges := claimTransitions[current]
	out := make([]ClaimStatus, len(edges))
	copy(out, edges)
	return out
}

// AdjudicationAvailable reports whether the document-analysis subsystem is
// reachable for a claim in the given status. The carrier offer can only be
// adjudicated once the audit is pending or negotiation has started.
func AdjudicationAvailable(s ClaimStatus) bool {
	return s == StatusAuditPending || s == StatusNegotiating
}

// PaymentsAvailable reports whether the payment ledger is reachable for a
// claim in the given status. Payments are tracked from filing onward.
func PaymentsAvailable(s ClaimStatus) bool {
	return s != StatusDraft && s != StatusAssessing
}

// IsTerminal reports whether the status has no outgoing edges.
func IsTerminal(s ClaimStatus) bool {
	return len(claimTransitions[s]) == 0
}

// PaymentStatus is the per-record reconciliation state of a payment.
// Records only ever move expected → received → reconciled, or
// received → disputed; reconciled and disputed are terminal.
type PaymentStatus string

const (
	PaymentExpected   PaymentStatus = "expected"
	PaymentReceived   PaymentStatus = "received"
	PaymentReconciled PaymentStatus = "reconciled"
	PaymentDisputed   PaymentStatus = "disputed"
)

// PaymentType distinguishes the two insurance payment components.
type PaymentType string

const (
	// PaymentACV is the Actual Cash Value component, paid up front.
	PaymentACV PaymentType = "ACV"
	// PaymentRCV is the Recoverable Cost Value depreciation holdback,
	// released after repair completion.
	PaymentRCV PaymentType = "RCV"
)

// ParsePaymentType validates a raw payment type string.
func ParsePaymentType(s string) (PaymentType, error) {
	switch PaymentType(s) {
	case PaymentACV:
		return PaymentACV, nil
	case PaymentRCV:
		return PaymentRCV, nil
	}
	return "", errors.New("payment type must be ACV or RCV")
}

// ParseStatus is the lifecycle of an uploaded carrier document inside the
// external parsing collaborator. completed and failed are terminal; the
// document row is immutable once either is reached.
type ParseStatus string

const (
	ParsePending    ParseStatus = "pending"
	ParseProcessing ParseStatus = "processing"
	ParseCompleted  ParseStatus = "completed"
	ParseFailed     ParseStatus = "failed"
)

// Terminal reports whether the parse outcome is final.
func (p ParseStatus) Terminal() bool {
	return p == ParseCompleted || p == ParseFailed
}
