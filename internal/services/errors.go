// Package services defines the business logic for claims, the document
// analysis workflow, and the payment ledger. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Claim-related errors.
var (
	// ErrClaimNotFound indicates that the requested claim does not exist or
	// is not accessible to the current user.
	ErrClaimNotFound = errors.New("claim not found")

	// ErrInvalidStep is returned when a step-advance request names a step
	// outside the 1..7 range.
	ErrInvalidStep = errors.New("step must be between 1 and 7")

	// ErrStepBlocked is returned when the adjudication step cannot be marked
	// complete because the verdict's required artifact is missing.
	ErrStepBlocked = errors.New("verdict artifact required before completing this step")
)

// Document-analysis workflow errors.
var (
	// ErrAdjudicationUnavailable is returned when the claim's status does not
	// admit the document analysis subsystem.
	ErrAdjudicationUnavailable = errors.New("adjudication not available in current claim status")

	// ErrAnalysisInFlight is returned when a second analyze request arrives
	// while one is already running for the claim.
	ErrAnalysisInFlight = errors.New("analysis already in progress for this claim")

	// ErrDocumentNotReady is returned when analysis is requested before a
	// parsed document is available.
	ErrDocumentNotReady = errors.New("no parsed document available for analysis")

	// ErrNoVerdict is returned when a letter, pitch, or reset action is
	// requested but the claim has no persisted analysis.
	ErrNoVerdict = errors.New("no verdict available")

	// ErrLetterNotOffered is returned when a dispute letter is requested for
	// a verdict that does not offer one.
	ErrLetterNotOffered = errors.New("verdict does not offer a dispute letter")

	// ErrPitchNotOffered is returned when an owner pitch is requested for a
	// verdict that does not offer one.
	ErrPitchNotOffered = errors.New("verdict does not offer an owner pitch")

	// ErrPitchNotGenerated is returned when a pitch-sent acknowledgment
	// arrives before the pitch exists. Acknowledgment is only legal after
	// generation.
	ErrPitchNotGenerated = errors.New("owner pitch has not been generated")

	// ErrResetNotAllowed is returned when a workflow reset is requested for a
	// verdict other than NEED_DOCS.
	ErrResetNotAllowed = errors.New("workflow reset is only available for a NEED_DOCS verdict")

	// ErrParseTimeout is returned when the parsing collaborator does not
	// reach a terminal status within the configured polling budget.
	ErrParseTimeout = errors.New("document parsing did not finish in time")

	// ErrParseFailed is returned when the parsing collaborator reports a
	// failed parse. The workflow reverts to idle; the upload must be redone.
	ErrParseFailed = errors.New("document parsing failed")

	// ErrUpstream wraps any storage/parser/estimator/adjudicator/letters
	// transport failure. The workflow reverts to the nearest safe phase.
	ErrUpstream = errors.New("upstream collaborator call failed")
)

// Payment-ledger errors.
var (
	// ErrPaymentsUnavailable is returned when the claim's status does not
	// admit the payment ledger (draft and assessing claims have no ledger).
	ErrPaymentsUnavailable = errors.New("payments not available in current claim status")

	// ErrPaymentNotFound indicates that the requested payment record does not
	// exist.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrPaymentTransition is returned when a ledger move is illegal for the
	// record's current status (e.g. reconciling an expected record).
	ErrPaymentTransition = errors.New("illegal payment status transition")

	// ErrEmptyDisputeReason is returned when a dispute is filed without a
	// reason.
	ErrEmptyDisputeReason = errors.New("dispute reason is required")

	// ErrAmountNotPositive is returned when a received amount is zero or
	// negative.
	ErrAmountNotPositive = errors.New("amount must be positive")

	// ErrNotEligible is returned when demand-letter generation is requested
	// but the claim does not satisfy the eligibility rule.
	ErrNotEligible = errors.New("claim is not eligible for a demand letter")

	// ErrLetterNotFound indicates that the requested demand letter does not
	// exist.
	ErrLetterNotFound = errors.New("demand letter not found")

	// ErrAlreadySent is returned when a demand letter is marked sent a second
	// time.
	ErrAlreadySent = errors.New("demand letter already sent")

	// ErrNoRecipient is returned when a demand letter is marked sent but
	// neither the request nor the claim carries a policyholder email.
	ErrNoRecipient = errors.New("no recipient email on file")
)
