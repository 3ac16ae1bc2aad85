// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for the expensive claim
// operations. Analyze, letter, and pitch all fan out to paid collaborators,
// so a client retry must be able to land on the stored result instead of
// running the pipeline again. The middleware validates the Idempotency-Key
// request header, asks a lookup whether a completed result already exists for
// (user, claim, key), and annotates the request context so downstream code
// can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect replayed requests (IsReplay)
//   - skip rate limiting for replays (flag read by the rate limiter)
//
// Persistence stays behind the narrow IdempotencyLookup function type; the
// middleware never touches the database itself.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header clients send on unsafe claim
// operations. The value must be stable across retries of the same semantic
// request so a re-sent analyze deduplicates instead of re-running.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys for stashed idempotency state, read via the accessors below.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: a stored replay exists
	ctxKeyRateBypass = "rate.bypass" // bool: skip rate limiting
)

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context by IdempotencyValidator. Handlers should use this rather than
// reading the header again.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether this request would replay a previously completed
// operation for the same (user, claim, key). Handlers use it to serve the
// persisted report or letter instead of calling collaborators again.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation for IdempotencyValidator.
// TTL enforcement belongs in the lookup, which owns the stored records.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Nil falls back to a conservative
	// token pattern: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup answers whether a successful, still-valid result exists
// for (userID, claimID, key) at the given time. Implementations consult the
// idempotency table and its TTL window.
//
// Return exists=true when the prior response can be replayed; errors are for
// lookup failures only and never block normal processing.
type IdempotencyLookup func(ctx context.Context, userID, claimID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header when present,
// stashes the key in the request context, and checks for a prior completed
// request via the supplied lookup. On a hit it sets the replay flag and the
// rate-limit bypass flag.
//
// Behavior:
//   - Header absent: no-op, the request proceeds unannotated.
//   - Header fails validation: 400 with a compact error body.
//   - Lookup hit: replay and rate-bypass flags set, request proceeds.
//
// The middleware never returns a cached payload itself; the handler decides
// how to serve the replay (the analyze handler returns the stored report).
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			uid := userIDFromCtx(c)
			// The :id param is the claim on the routes that accept the
			// header (analyze, letter, pitch).
			claimID := c.Param("id")
			now := time.Now().UTC()

			if exists, _ := lookup(c.Request.Context(), uid, claimID, key, now); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

// userIDFromCtx extracts the user identity set by upstream auth middleware,
// falling back to "demo-user" when the service runs without auth locally.
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "demo-user"
}
