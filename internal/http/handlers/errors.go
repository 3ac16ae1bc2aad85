// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless noted.
//   - Generic codes (e.g., bad_request, unauthorized, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., invalid_transition, not_eligible) are reserved for
//     business logic errors that cannot be conveyed by status alone.
//   - All error responses must include both an HTTP status and one of these codes.
//
// Usage:
//   - Handlers select the most specific matching code and pass it to `fail()` along
//     with the corresponding HTTP status and message.
//   - Clients are expected to branch on these codes for programmatic error handling.
//
// Example response:
//   {
//     "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//     "code": "invalid_transition",
//     "message": "cannot move claim from draft to settled"
//   }

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-claims-backend/internal/domain"
	"github.com/tbourn/go-claims-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodeStepBlocked       = "step_blocked"
	ErrCodeUnavailable       = "unavailable_in_status"
	ErrCodeAnalysisInFlight  = "analysis_in_flight"
	ErrCodeDocumentNotReady  = "document_not_ready"
	ErrCodeUpstreamFailed    = "upstream_failed"
	ErrCodeParseTimeout      = "parse_timeout"
	ErrCodeParseFailed       = "parse_failed"
	ErrCodeUnknownVerdict    = "unknown_verdict"
	ErrCodeNotEligible       = "not_eligible"
	ErrCodeAlreadySent       = "already_sent"
	ErrCodeCreateFailed      = "create_failed"
	ErrCodeListFailed        = "list_failed"
	ErrCodeMethodNotAllowed  = "method_not_allowed"
)

// failFromService translates a service-layer error into the matching HTTP
// status and stable error code. Unrecognized errors become 500s.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrClaimNotFound),
		errors.Is(err, services.ErrPaymentNotFound),
		errors.Is(err, services.ErrLetterNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidStep),
		errors.Is(err, services.ErrEmptyDisputeReason),
		errors.Is(err, services.ErrAmountNotPositive):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		fail(c, http.StatusConflict, ErrCodeInvalidTransition, err.Error())
	case errors.Is(err, domain.ErrUnknownStatus):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrStepBlocked):
		fail(c, http.StatusConflict, ErrCodeStepBlocked, err.Error())
	case errors.Is(err, services.ErrAdjudicationUnavailable),
		errors.Is(err, services.ErrPaymentsUnavailable):
		fail(c, http.StatusConflict, ErrCodeUnavailable, err.Error())
	case errors.Is(err, services.ErrAnalysisInFlight):
		fail(c, http.StatusConflict, ErrCodeAnalysisInFlight, err.Error())
	case errors.Is(err, services.ErrDocumentNotReady):
		fail(c, http.StatusConflict, ErrCodeDocumentNotReady, err.Error())
	case errors.Is(err, services.ErrNoVerdict),
		errors.Is(err, services.ErrLetterNotOffered),
		errors.Is(err, services.ErrPitchNotOffered),
		errors.Is(err, services.ErrPitchNotGenerated),
		errors.Is(err, services.ErrResetNotAllowed),
		errors.Is(err, services.ErrPaymentTransition):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrParseTimeout):
		fail(c, http.StatusGatewayTimeout, ErrCodeParseTimeout, err.Error())
	case errors.Is(err, services.ErrParseFailed):
		fail(c, http.StatusUnprocessableEntity, ErrCodeParseFailed, err.Error())
	case errors.Is(err, services.ErrUpstream):
		fail(c, http.StatusBadGateway, ErrCodeUpstreamFailed, err.Error())
	case errors.Is(err, domain.ErrUnknownVerdict):
		fail(c, http.StatusInternalServerError, ErrCodeUnknownVerdict, err.Error())
	case errors.Is(err, services.ErrNotEligible):
		fail(c, http.StatusConflict, ErrCodeNotEligible, err.Error())
	case errors.Is(err, services.ErrAlreadySent):
		fail(c, http.StatusConflict, ErrCodeAlreadySent, err.Error())
	case errors.Is(err, services.ErrNoRecipient):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
