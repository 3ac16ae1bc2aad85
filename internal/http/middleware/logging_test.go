package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf) // plain JSON lines
	return &buf
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/claims", func(c *gin.Context) {
		if v, ok := c.Get(requestIDKey); !ok || v == "" {
			t.Fatalf("requestID not set in context")
		}
		c.String(http.StatusOK, "ok")
	})

	// No header -> generated
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/claims", nil))
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated %s header", requestIDHeader)
	}

	// Lowercase header -> propagated
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/claims", nil)
	req2.Header.Set(strings.ToLower(requestIDHeader), "abc-123")
	r.ServeHTTP(w2, req2)
	if got := w2.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected propagated request id, got %q", got)
	}
}

func TestLogger_LevelsAndPathFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger())

	// 200 -> info, route pattern in the log
	r.GET("/claims", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// Gin-collected error -> error level regardless of the 4xx status
	r.POST("/claims/:id/audit/analyze", func(c *gin.Context) {
		_ = c.Error(errSentinel{})
		c.Status(http.StatusBadRequest)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/claims", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /claims -> %d", w.Code)
	}

	// Missing route -> 404 -> warn, path falls back to the raw URL
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /missing -> %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/claims/c-42/audit/analyze", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("POST analyze -> %d", w.Code)
	}

	logs := buf.String()
	if !strings.Contains(logs, `"level":"info"`) || !strings.Contains(logs, `"path":"/claims"`) {
		t.Fatalf("expected info log with route path, got:\n%s", logs)
	}
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"path":"/missing"`) {
		t.Fatalf("expected warn log with raw path fallback, got:\n%s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) {
		t.Fatalf("expected error log, got:\n%s", logs)
	}
}

type errSentinel struct{}

func (e errSentinel) Error() string { return "boom" }

func TestLogger_ClaimRoutesCarryClaimID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger())
	r.GET("/claims/:id/audit", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/payments/:id/receive", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/claims/c-42/audit", nil))
	if !strings.Contains(buf.String(), `"claim_id":"c-42"`) {
		t.Fatalf("expected claim_id on a claim route, got:\n%s", buf.String())
	}

	// The :id on payment routes is a payment, not a claim; no claim_id field.
	buf.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/payments/p-7/receive", nil))
	if strings.Contains(buf.String(), `"claim_id"`) {
		t.Fatalf("payment route must not log a claim_id, got:\n%s", buf.String())
	}
}

func TestRecovery_PanicsToJSON500AndLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger())
	r.Use(Recovery())

	r.POST("/claims/:id/audit/analyze", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/claims/c-42/audit/analyze", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from Recovery, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if body["code"] != "internal_error" || body["message"] != "internal server error" {
		t.Fatalf("unexpected body: %v", body)
	}
	out := buf.String()
	if !strings.Contains(out, `"panic recovered"`) && !strings.Contains(out, `"panic"`) {
		t.Fatalf("expected panic log, got:\n%s", out)
	}
}

func TestRecovery_PanicAfterWrite_NoJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger())
	r.Use(Recovery())

	// A response already went out, so Recovery must not append the JSON
	// envelope on top of it.
	r.GET("/claims/:id/audit/letter", func(c *gin.Context) {
		c.String(http.StatusOK, "Dear Carrier,")
		panic("late kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/claims/c-42/audit/letter", nil))

	if strings.Contains(w.Body.String(), "internal error") ||
		strings.Contains(strings.ToLower(w.Header().Get("Content-Type")), "application/json") {
		t.Fatalf("expected no JSON error body when panic after write; got CT=%q body=%q",
			w.Header().Get("Content-Type"), w.Body.String())
	}
	if !strings.Contains(buf.String(), "panic recovered") && !strings.Contains(buf.String(), `"panic"`) {
		t.Fatalf("expected panic log, got:\n%s", buf.String())
	}
}

func TestLoggerFrom_FallbackAndRequestScoped(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Without Logger() the fallback carries no request fields.
	buf1 := captureLogger(t)
	r1 := gin.New()
	r1.Use(RequestID())
	r1.GET("/claims", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("custom")
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	r1.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/claims", nil))
	if !strings.Contains(buf1.String(), `"message":"custom"`) {
		t.Fatalf("expected custom log in fallback")
	}
	if strings.Contains(buf1.String(), `"request_id"`) {
		t.Fatalf("fallback logger unexpectedly had request_id")
	}

	// With Logger() the request-scoped logger carries request_id.
	buf2 := captureLogger(t)
	r2 := gin.New()
	r2.Use(RequestID())
	r2.Use(Logger())
	r2.GET("/claims", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("custom2")
		c.Status(http.StatusOK)
	})
	w2 := httptest.NewRecorder()
	r2.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/claims", nil))
	out := buf2.String()
	if !strings.Contains(out, `"message":"custom2"`) {
		t.Fatalf("expected custom2 log present")
	}
	if !strings.Contains(out, `"request_id"`) {
		t.Fatalf("expected request-scoped logger to include request_id")
	}
}

func TestHelpers_asString_and_truncate(t *testing.T) {
	if asString("x") != "x" || asString(123) != "" {
		t.Fatalf("asString failed")
	}
	if truncate("hello", 10) != "hello" {
		t.Fatalf("truncate no-op failed")
	}
	if got := truncate("abcdefgh", 5); got != "abcde…" {
		t.Fatalf("truncate result = %q; want %q", got, "abcde…")
	}
	if truncate("abc", 0) != "abc" {
		t.Fatalf("truncate disable failed")
	}
}
