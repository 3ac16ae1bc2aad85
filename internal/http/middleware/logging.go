// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides structured request logging, a panic-safe recovery
// handler, and a request ID injector for the claims API:
//
//   - RequestID() gives every request a stable correlation ID (propagated via
//     X-Request-ID and stored in the Gin context), so a failed analyze or a
//     stuck parse can be chased across logs and client reports.
//   - Logger() emits structured access logs and attaches a request-scoped
//     zerolog.Logger enriched with the claim ID on claim routes, which is
//     what ties together the multi-request adjudication flows (upload,
//     confirm, analyze, letter).
//   - Recovery() converts panics into JSON 500 responses while preserving the
//     correlation ID and logging the stack.
//   - LoggerFrom() retrieves the request-scoped logger inside handlers and
//     services.
//
// Compose RequestID() first, then Logger() (or RedactingLogger), then
// Recovery(), so panics and errors carry the correlation ID. Query strings
// are truncated to a capped length to keep log lines bounded.
package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

// RequestID attaches (or propagates) a correlation identifier per request.
//
// An incoming X-Request-ID (case-insensitive header lookup) is reused;
// otherwise a fresh UUIDv4 is generated. The ID is written back to the
// response header and stored in the Gin context under "requestID".
//
// Place this first in the chain so everything downstream can rely on it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Logger writes a structured access log for each request and response.
//
// Each line records method, route path, remote IP, user agent, correlation
// ID, user ID (when auth populated it), request size, status, latency, and
// bytes written. On claim routes the claim ID from the path is included so
// an adjudication flow can be filtered with a single field.
//
// The request-scoped logger is stored under the "logger" context key for
// handlers and services to enrich. Level is chosen by outcome: error for 5xx
// or when Gin collected errors, warn for 4xx, info otherwise.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid, _ := c.Get(requestIDKey)
		uid, _ := c.Get("userID")
		path := c.FullPath()
		if path == "" {
			// Route not matched (404).
			path = c.Request.URL.Path
		}

		lc := log.With().
			Str("request_id", asString(rid)).
			Str("user_id", asString(uid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("query", truncate(c.Request.URL.RawQuery, maxQueryLogLength)).
			// ContentLength is -1 when unknown.
			Int64("bytes_in", c.Request.ContentLength)

		// The :id param on /claims routes is the claim; elsewhere (payments,
		// demand letters) it names a different resource and is skipped.
		if strings.Contains(path, "/claims/:id") {
			lc = lc.Str("claim_id", c.Param("id"))
		}
		l := lc.Logger()

		c.Set("logger", &l)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		bytesOut := c.Writer.Size()

		ev := l.With().
			Int("status", status).
			Dur("latency", latency).
			Int("bytes_out", bytesOut).
			Logger()

		switch {
		case len(c.Errors) > 0:
			ev.Error().Str("errors", c.Errors.String()).Msg("request")
		case status >= 500:
			ev.Error().Msg("request")
		case status >= 400:
			ev.Warn().Msg("request")
		default:
			ev.Info().Msg("request")
		}
	}
}

// Recovery intercepts panics, logs the stack trace, and returns a JSON 500.
//
// If nothing has been written yet the standard error envelope goes out with
// the correlation ID; otherwise only the status is forced. Place after
// Logger() so the panic log carries structured context.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid, _ := c.Get(requestIDKey)
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", asString(rid)).
					Msg("panic recovered")

				if !c.Writer.Written() {
					c.Header("Content-Type", "application/json")
					c.Header(requestIDHeader, asString(rid))
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"request_id": asString(rid),
						"code":       "internal_error",
						"message":    "internal server error",
					})
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger.
//
// When Logger() did not attach one, a plain fallback is returned so callers
// never need a nil check.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get("logger"); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// asString converts a context value to a string, empty when not a string.
func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate caps s at max bytes, appending an ellipsis when cut. A max <= 0
// disables truncation. Byte-level slicing is fine for log output.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
