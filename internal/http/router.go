// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-claims-backend/internal/config"
	"github.com/tbourn/go-claims-backend/internal/domain"
	"github.com/tbourn/go-claims-backend/internal/events"
	"github.com/tbourn/go-claims-backend/internal/http/handlers"
	"github.com/tbourn/go-claims-backend/internal/http/middleware"
	"github.com/tbourn/go-claims-backend/internal/repo"
	"github.com/tbourn/go-claims-backend/internal/services"
)

// Collaborators bundles the external systems the adjudication workflow
// depends on. Concrete implementations live in internal/storage (S3) and
// internal/clients (HTTP).
type Collaborators struct {
	Storage     services.Storage
	Parser      services.Parser
	Estimator   services.Estimator
	Adjudicator services.Adjudicator
	Letters     services.LetterGenerator
}

// claimRepoShim adapts the repository free functions to the services.ClaimRepo
// interface expected by the ClaimService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type claimRepoShim struct{}

// CreateClaim proxies repo.CreateClaim.
func (claimRepoShim) CreateClaim(ctx context.Context, db *gorm.DB, userID, policyholderEmail string) (*domain.Claim, error) {
	return repo.CreateClaim(ctx, db, userID, policyholderEmail)
}

// GetClaim proxies repo.GetClaim.
func (claimRepoShim) GetClaim(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Claim, error) {
	return repo.GetClaim(ctx, db, id, userID)
}

// CountClaims proxies repo.CountClaims (pagination support).
func (claimRepoShim) CountClaims(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountClaims(ctx, db, userID)
}

// ListClaimsPage proxies repo.ListClaimsPage (pagination support).
func (claimRepoShim) ListClaimsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Claim, error) {
	return repo.ListClaimsPage(ctx, db, userID, offset, limit)
}

// UpdateClaimStatus proxies repo.UpdateClaimStatus.
func (claimRepoShim) UpdateClaimStatus(ctx context.Context, db *gorm.DB, id, userID string, status domain.ClaimStatus) error {
	return repo.UpdateClaimStatus(ctx, db, id, userID, status)
}

// UpdateClaimSteps proxies repo.UpdateClaimSteps.
func (claimRepoShim) UpdateClaimSteps(ctx context.Context, db *gorm.DB, id, userID string, currentStep int, stepsCompleted string) error {
	return repo.UpdateClaimSteps(ctx, db, id, userID, currentStep, stepsCompleted)
}

// reportReaderShim adapts repo.ActiveAuditReport to services.ReportReader for
// the claim step gate.
type reportReaderShim struct{}

// ActiveAuditReport proxies repo.ActiveAuditReport.
func (reportReaderShim) ActiveAuditReport(ctx context.Context, db *gorm.DB, claimID string) (*domain.AuditReport, error) {
	return repo.ActiveAuditReport(ctx, db, claimID)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter + gzip
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, bus *events.Bus, col Collaborators, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB; documents go straight to S3, never
	// through this API) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, claimID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, claimID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter scoped per (user, claim)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserAndClaim())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/collaborators
	claimSvc := services.NewClaimService(db, claimRepoShim{}, reportReaderShim{}, bus)

	auditSvc := services.NewAuditService(db, col.Storage, col.Parser, col.Estimator, col.Adjudicator, col.Letters, bus)
	auditSvc.PollInterval = cfg.ParsePollInterval
	auditSvc.PollMaxAttempts = cfg.ParsePollMaxAttempts
	auditSvc.UploadTTL = cfg.Upload.URLTTL

	paySvc := services.NewPaymentService(db, bus)

	h := handlers.New(claimSvc, auditSvc, paySvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Claims
		api.POST("/claims", h.CreateClaim)
		api.GET("/claims", h.ListClaims)
		api.GET("/claims/:id", h.GetClaim)
		api.POST("/claims/:id/status", h.TransitionStatus)
		api.POST("/claims/:id/steps", h.AdvanceStep)

		// Adjudication workflow
		api.GET("/claims/:id/audit", h.GetAuditState)
		api.POST("/claims/:id/audit/uploads", h.RequestUpload)
		api.POST("/claims/:id/audit/documents/:docID/confirm", h.ConfirmUpload)
		api.POST("/claims/:id/audit/analyze", h.Analyze)
		api.POST("/claims/:id/audit/letter", h.GenerateLetter)
		api.POST("/claims/:id/audit/pitch", h.GeneratePitch)
		api.POST("/claims/:id/audit/pitch/ack", h.AcknowledgePitch)
		api.POST("/claims/:id/audit/reset", h.ResetWorkflow)

		// Payments
		api.POST("/claims/:id/payments", h.CreatePayment)
		api.GET("/claims/:id/payments", h.ListPayments)
		api.GET("/claims/:id/payments/summary", h.PaymentSummary)
		api.POST("/payments/:id/receive", h.ReceivePayment)
		api.POST("/payments/:id/reconcile", h.ReconcilePayment)
		api.POST("/payments/:id/dispute", h.DisputePayment)

		// Demand letters
		api.POST("/claims/:id/demand-letters", h.CreateDemandLetter)
		api.GET("/claims/:id/demand-letters", h.ListDemandLetters)
		api.POST("/demand-letters/:id/send", h.SendDemandLetter)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
