// Claim HTTP handlers.
//
// This file exposes REST endpoints for claim resources:
//   - POST   /claims              (create draft)
//   - GET    /claims              (list, paginated, ETag support)
//   - GET    /claims/{id}         (detail)
//   - POST   /claims/{id}/status  (apply a lifecycle transition)
//   - POST   /claims/{id}/steps   (mark a checklist step complete)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-claims-backend/internal/domain"
	"github.com/tbourn/go-claims-backend/internal/repo"
	"github.com/tbourn/go-claims-backend/internal/services"
	"github.com/tbourn/go-claims-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ClaimService defines claim lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ClaimService interface {
	// Create starts a new draft claim for userID.
	Create(ctx context.Context, userID, policyholderEmail string) (*domain.Claim, error)
	// Get returns a claim owned by userID.
	Get(ctx context.Context, userID, claimID string) (*domain.Claim, error)
	// ListPage returns a page of claims for a user and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Claim, int64, error)
	// Transition applies a status move along the closed transition table.
	Transition(ctx context.Context, userID, claimID string, target domain.ClaimStatus) (*domain.Claim, error)
	// AdvanceStep marks checklist step n complete.
	AdvanceStep(ctx context.Context, userID, claimID string, step int) (*domain.Claim, error)
}

// AuditService defines the carrier-estimate adjudication workflow consumed
// by HTTP handlers.
type AuditService interface {
	State(ctx context.Context, userID, claimID string) (*services.WorkflowState, error)
	RequestUpload(ctx context.Context, userID, claimID, fileName, contentType string) (*services.UploadDestination, error)
	ConfirmUpload(ctx context.Context, userID, claimID, documentID, fileName, contentType string) (*domain.CarrierEstimateDocument, error)
	Analyze(ctx context.Context, userID, claimID string) (*domain.AuditReport, error)
	GenerateLetter(ctx context.Context, userID, claimID string) (*domain.AuditReport, error)
	GeneratePitch(ctx context.Context, userID, claimID string) (*domain.AuditReport, error)
	AcknowledgePitchSent(ctx context.Context, userID, claimID string) (*domain.AuditReport, error)
	Reset(ctx context.Context, userID, claimID string) error
}

// PaymentService defines payment ledger and demand letter operations
// consumed by HTTP handlers.
type PaymentService interface {
	CreateExpected(ctx context.Context, userID, claimID string, pt domain.PaymentType, expectedAmount *float64) (*domain.PaymentRecord, error)
	RecordReceived(ctx context.Context, userID, paymentID string, amount float64, receivedDate time.Time) (*domain.PaymentRecord, error)
	Reconcile(ctx context.Context, userID, paymentID string) (*domain.PaymentRecord, error)
	Dispute(ctx context.Context, userID, paymentID, reason string) (*domain.PaymentRecord, error)
	List(ctx context.Context, userID, claimID string) ([]domain.PaymentRecord, error)
	Summarize(ctx context.Context, userID, claimID string) (domain.PaymentSummary, error)
	GenerateDemandLetter(ctx context.Context, userID, claimID string) (*domain.RCVDemandLetter, error)
	ListDemandLetters(ctx context.Context, userID, claimID string) ([]domain.RCVDemandLetter, error)
	MarkDemandLetterSent(ctx context.Context, userID, letterID, email string) (*domain.RCVDemandLetter, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for claims, the adjudication workflow, and
// payments. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	claimSvc ClaimService
	auditSvc AuditService
	paySvc   PaymentService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(claimSvc ClaimService, auditSvc AuditService, paySvc PaymentService) *Handlers {
	return &Handlers{claimSvc: claimSvc, auditSvc: auditSvc, paySvc: paySvc}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// CreateClaimRequest is the JSON payload for creating a claim.
type CreateClaimRequest struct {
	// PolicyholderEmail optionally records the default recipient for
	// generated correspondence.
	PolicyholderEmail string `json:"policyholder_email" example:"owner@example.com"`
}

// TransitionRequest is the JSON payload for applying a status transition.
type TransitionRequest struct {
	// Status is the target lifecycle status.
	Status string `json:"status" binding:"required" example:"filed"`
}

// AdvanceStepRequest is the JSON payload for marking a checklist step done.
type AdvanceStepRequest struct {
	// Step is the checklist step number (1-7).
	Step int `json:"step" binding:"required" example:"3"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListClaimsResponse wraps a page of claims and pagination information.
type ListClaimsResponse struct {
	Claims     []domain.Claim `json:"claims"`
	Pagination Pagination     `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.PageQuery(c.Query("page"), c.Query("page_size"))
}

// requireUUID validates a path parameter as a UUID, writing a 400 on failure.
func requireUUID(c *gin.Context, param, label string) (string, bool) {
	id := c.Param(param)
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, label+" must be a UUID")
		return "", false
	}
	return id, true
}

//
// Handlers
//

// CreateClaim godoc
// @ID          createClaim
// @Summary     Create a new claim
// @Description Creates a draft claim for the current user and returns the claim resource.
// @Tags        Claims
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateClaimRequest  true  "Create claim payload"
//
// @Success     201  {object}  domain.Claim
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /claims [post]
func (h *Handlers) CreateClaim(c *gin.Context) {
	var req CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	cl, err := h.claimSvc.Create(c.Request.Context(), userID(c), strings.TrimSpace(req.PolicyholderEmail))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, cl)
}

// ListClaims godoc
// @ID          listClaims
// @Summary     List claims (paginated)
// @Description Returns a page of the user's claims. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Claims
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListClaimsResponse
// @Header      200  {string} ETag           "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /claims [get]
func (h *Handlers) ListClaims(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.claimSvc.(*services.ClaimService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ClaimsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"claims:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	// Fetch page.
	items, total, err := h.claimSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListClaimsResponse{
		Claims: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}

// GetClaim godoc
// @ID          getClaim
// @Summary     Get a claim
// @Description Returns a single claim owned by the current user.
// @Tags        Claims
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Claim ID (UUID)"        format(uuid)
//
// @Success     200  {object} domain.Claim
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Claim not found"
// @Router      /claims/{id} [get]
func (h *Handlers) GetClaim(c *gin.Context) {
	claimID, valid := requireUUID(c, "id", "claim id")
	if !valid {
		return
	}

	cl, err := h.claimSvc.Get(c.Request.Context(), userID(c), claimID)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, cl)
}

// TransitionStatus godoc
// @ID          transitionClaimStatus
// @Summary     Apply a claim status transition
// @Description Moves the claim along the lifecycle transition table. Illegal moves return 409.
// @Tags        Claims
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Claim ID (UUID)"        format(uuid)
// @Param       body       body    handlers.TransitionRequest  true  "Target status"
//
// @Success     200  {object} domain.Claim
// @Failure     400  {object} handlers.ErrorResponse "Bad request / unknown status"
// @Failure     404  {object} handlers.ErrorResponse "Claim not found"
// @Failure     409  {object} handlers.ErrorResponse "Illegal transition"
// @Router      /claims/{id}/status [post]
func (h *Handlers) TransitionStatus(c *gin.Context) {
	claimID, valid := requireUUID(c, "id", "claim id")
	if !valid {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}

	target, err := domain.ParseClaimStatus(req.Status)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown status: "+req.Status)
		return
	}

	cl, err := h.claimSvc.Transition(c.Request.Context(), userID(c), claimID, target)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, cl)
}

// AdvanceStep godoc
// @ID          advanceClaimStep
// @Summary     Mark a checklist step complete
// @Description Marks the given step complete and moves the advisory cursor forward. The adjudication step is gated on its verdict artifact.
// @Tags        Claims
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Claim ID (UUID)"        format(uuid)
// @Param       body       body    handlers.AdvanceStepRequest  true  "Step number"
//
// @Success     200  {object} domain.Claim
// @Failure     400  {object} handlers.ErrorResponse "Bad request / step out of range"
// @Failure     404  {object} handlers.ErrorResponse "Claim not found"
// @Failure     409  {object} handlers.ErrorResponse "Step blocked by verdict artifact"
// @Router      /claims/{id}/steps [post]
func (h *Handlers) AdvanceStep(c *gin.Context) {
	claimID, valid := requireUUID(c, "id", "claim id")
	if !valid {
		return
	}

	var req AdvanceStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "step required")
		return
	}

	cl, err := h.claimSvc.AdvanceStep(c.Request.Context(), userID(c), claimID, req.Step)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, cl)
}
