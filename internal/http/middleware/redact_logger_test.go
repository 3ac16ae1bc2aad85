package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-claims-backend/internal/domain"
)

// optional: a tiny DB so any DB-touching middleware under test never explodes
func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:redactlog?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	_ = db.AutoMigrate(&domain.Claim{}, &domain.PaymentRecord{})
	return db
}

func withCapturedLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf) // plain JSON lines
	return &buf
}

func TestRedactingLogger_ScrubsPolicyholderDataAndAmounts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	_ = newDB(t)

	buf := withCapturedLogger(t)

	// Simulate upstream RequestID middleware that sets the response header.
	r.Use(func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-resp")
		c.Next()
	})
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))

	// Claim route with a param so c.FullPath() is the pattern, never the
	// claim's actual identifier.
	r.GET("/claims/:id/payments", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// Policyholder PII and settlement figures in query and headers. The raw
	// query is redacted with regexes (no parsing), so plain occurrences are
	// enough.
	q := "policyholder_email=owner@example.com&phone=+1-555-123-4567&payment=123e4567-e89b-12d3-a456-426614174000&expected_amount=12500.00"
	req := httptest.NewRequest(http.MethodGet, "/claims/123e4567-e89b-12d3-a456-426614174000/payments?"+q, nil)
	// Built-in sensitive headers.
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Cookie", "sid=topsecret")
	req.Header.Set("Idempotency-Key", "retry-token-1")
	// Custom masked header.
	req.Header.Set("X-Api-Key", "shhh")
	// Header with claim data that should be pattern-redacted, not masked.
	req.Header.Set("X-Custom", "policyholder owner@example.com claim 123e4567-e89b-12d3-a456-426614174000 offer $12,500.00")
	// Also set a request-side request id; the response header should win.
	req.Header.Set("X-Request-ID", "rid-req")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	if !strings.Contains(logs, `"level":"info"`) {
		t.Fatalf("expected info log, got: %s", logs)
	}
	// The logged path is the route pattern, so the claim ID never appears.
	if !strings.Contains(logs, `"path":"/claims/:id/payments"`) {
		t.Fatalf("expected path to use c.FullPath, got: %s", logs)
	}
	if !strings.Contains(logs, `"request_id":"rid-resp"`) {
		t.Fatalf("expected request_id from response header, got: %s", logs)
	}
	// Query redactions: email, phone, payment UUID, expected amount.
	for _, want := range []string{"[REDACTED:email]", "[REDACTED:phone]", "[REDACTED:id]", "expected_amount=[REDACTED:amount]"} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected %s in query redactions, got: %s", want, logs)
		}
	}
	if strings.Contains(logs, "owner@example.com") || strings.Contains(logs, "12500.00") {
		t.Fatalf("policyholder data leaked to log: %s", logs)
	}
	// Full masking for built-ins, the idempotency key, and the custom header.
	for _, h := range []string{"Authorization", "Cookie", "Idempotency-Key", "X-Api-Key"} {
		if !strings.Contains(logs, `"`+h+`":"[REDACTED]"`) {
			t.Fatalf("%s must be masked: %s", h, logs)
		}
	}
	// Pattern redactions inside a non-masked header, dollar figure included.
	if !strings.Contains(logs, `"X-Custom":"policyholder [REDACTED:email] claim [REDACTED:id] offer [REDACTED:amount]"`) {
		t.Fatalf("expected redacted X-Custom header, got: %s", logs)
	}
}

func TestRedactingLogger_WarnAndErrorLevels_RequestIDFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	buf := withCapturedLogger(t)

	// No response header X-Request-ID this time.
	r.Use(RedactingLogger(RedactOptions{}))

	r.GET("/claims/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })           // 404 -> warn
	r.GET("/claims/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) }) // 500 -> error

	// Only the request-side id is present; the logger falls back to it.
	reqWarn := httptest.NewRequest(http.MethodGet, "/claims/missing", nil)
	reqWarn.Header.Set("X-Request-ID", "rid-warn")
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, reqWarn)

	reqErr := httptest.NewRequest(http.MethodGet, "/claims/broken", nil)
	reqErr.Header.Set("X-Request-ID", "rid-err")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, reqErr)

	logs := buf.String()
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"request_id":"rid-warn"`) {
		t.Fatalf("warn log not found or missing request_id fallback: %s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, `"request_id":"rid-err"`) {
		t.Fatalf("error log not found or missing request_id fallback: %s", logs)
	}
}
