// Package handlers provides HTTP handler implementations for the claims API.
//
// This file defines the response utilities shared by every endpoint: the
// error envelope, the failure helper that logs server-side errors, and the
// success helpers. Clients drive multi-step adjudication flows off these
// responses, so both shapes stay strictly uniform.
//
// Conventions:
//   - Every error response is an ErrorResponse with a stable `code` that
//     clients can branch on (see errors.go for the constants).
//   - fail() centralizes error formatting and logs 5xx responses with the
//     request-scoped logger.
//   - ok() and noContent() keep success responses consistent across handlers.
//
// Example error response:
//
//	HTTP/1.1 409 Conflict
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "invalid_transition",
//	  "message": "claim cannot move from closed to open"
//	}
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{ "id": "123e4567-...", "status": "open", "step": "triage" }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-claims-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// RequestID echoes the X-Request-ID correlation header so a policyholder
// support ticket can be matched to server logs. Code is the stable,
// machine-readable string; Message is safe to surface to users. The struct
// also feeds the Swagger documentation.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"claim not found"`
}

// fail aborts the request with a structured error envelope.
//
// The correlation ID is taken from the response header (set by RequestID
// middleware), falling back to the request header when a test or caller
// bypassed the middleware stack. Server errors (>= 500) are logged with the
// request-scoped logger before the response goes out.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	if reqID == "" {
		reqID = c.GetHeader("X-Request-ID")
	}
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for packages outside handlers
// (router setup, middleware glue) that need the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes body as JSON with the given status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes 204 for operations with nothing to return.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
