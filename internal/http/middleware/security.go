// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, the hardening middleware for the claims
// API. The endpoints here hand out presigned upload destinations and generated
// settlement letters, so the cache posture matters as much as the usual
// browser hardening: a cached letter response or presigned URL in a shared
// proxy is a leak of policyholder data.
//
// Design notes:
//   - No CSP here. The API serves JSON only; the Swagger UI ships its own.
//   - HSTS is opt-in and emitted only when the request actually arrived over
//     HTTPS (directly or via X-Forwarded-Proto from the proxy).
//   - NoStore should be enabled in production so letters, reports, and
//     presigned destinations are never cached between policyholders.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures the headers emitted by SecurityHeaders.
//
// EnableHSTS turns on Strict-Transport-Security for HTTPS requests (never for
// plain HTTP). Enable only when traffic is HTTPS end-to-end, proxy hop
// included.
//
// HSTSMaxAge is the HSTS lifetime; zero or negative falls back to 180 days.
//
// NoStore adds Cache-Control: no-store (plus legacy Pragma/Expires) so
// settlement letters, adjudication reports, and presigned upload URLs are
// never cached.
//
// EnablePolicy adds the browser feature policies (Permissions-Policy and
// X-Permitted-Cross-Domain-Policies). Browsers honor them, API clients
// ignore them.
type SecurityOptions struct {
	EnableHSTS   bool
	HSTSMaxAge   time.Duration
	NoStore      bool
	EnablePolicy bool
}

// SecurityHeaders returns a Gin middleware that attaches a conservative set of
// security headers to every response.
//
// Always set:
//
//	X-Content-Type-Options: nosniff
//	X-Frame-Options: DENY
//	Referrer-Policy: no-referrer
//
// Conditionally set per SecurityOptions: the feature policies, the no-store
// cache headers, and HSTS (HTTPS requests only). When an upstream middleware
// already placed X-Request-ID on the response, it is appended to
// Access-Control-Expose-Headers so browser clients can read the correlation
// ID off error responses.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	// The HSTS value never varies per request, build it once.
	hstsValue := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		// HSTS over HTTPS only; emitting it on plain HTTP is meaningless and
		// confuses local setups.
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hstsValue)
		}

		if rid := h.Get("X-Request-ID"); rid != "" {
			const hdr = "Access-Control-Expose-Headers"
			cur := h.Get(hdr)
			switch {
			case cur == "":
				h.Set(hdr, "X-Request-ID")
			case !strings.Contains(cur, "X-Request-ID"):
				h.Set(hdr, cur+", X-Request-ID")
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether the request used HTTPS, either terminated here
// (r.TLS != nil) or at a reverse proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
