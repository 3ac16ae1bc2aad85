// Adjudication workflow HTTP handlers.
//
// This file exposes the carrier-estimate audit workflow under a claim:
//   - GET  /claims/{id}/audit                              (phase + report view)
//   - POST /claims/{id}/audit/uploads                      (request upload URL)
//   - POST /claims/{id}/audit/documents/{docID}/confirm    (confirm + parse)
//   - POST /claims/{id}/audit/analyze                      (run adjudication)
//   - POST /claims/{id}/audit/letter                       (dispute letter)
//   - POST /claims/{id}/audit/pitch                        (owner pitch)
//   - POST /claims/{id}/audit/pitch/ack                    (pitch sent)
//   - POST /claims/{id}/audit/reset                        (NEED_DOCS re-upload)
//
// Idempotency:
// If the client supplies an Idempotency-Key header on the analyze endpoint
// and a previous successful run is still within TTL, the handler replays the
// stored audit report and sets `Idempotency-Replayed: true`.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-claims-backend/internal/domain"
	"github.com/tbourn/go-claims-backend/internal/repo"
	"github.com/tbourn/go-claims-backend/internal/services"
)

//
// DTOs
//

// RequestUploadRequest is the JSON payload for requesting an upload URL.
type RequestUploadRequest struct {
	// FileName is the bare document file name (no path separators).
	FileName string `json:"file_name" binding:"required" example:"carrier-offer.pdf"`
	// ContentType is the MIME type the client will PUT.
	ContentType string `json:"content_type" example:"application/pdf"`
}

// UploadDestinationResponse describes where the client should PUT the file.
type UploadDestinationResponse struct {
	DocumentID string    `json:"document_id"`
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ConfirmUploadRequest is the JSON payload for confirming a finished upload.
type ConfirmUploadRequest struct {
	FileName    string `json:"file_name" binding:"required" example:"carrier-offer.pdf"`
	ContentType string `json:"content_type" example:"application/pdf"`
}

// WorkflowStateResponse is the resumable audit workflow view.
type WorkflowStateResponse struct {
	Phase    domain.Phase                    `json:"phase"`
	Document *domain.CarrierEstimateDocument `json:"document,omitempty"`
	Report   *domain.AuditReport             `json:"report,omitempty"`
	Analysis *domain.VerdictAnalysis         `json:"analysis,omitempty"`
}

func workflowResponse(st *services.WorkflowState) WorkflowStateResponse {
	return WorkflowStateResponse{
		Phase:    st.Phase,
		Document: st.Document,
		Report:   st.Report,
		Analysis: st.Analysis,
	}
}

//
// Handlers
//

// GetAuditState godoc
// @ID          getAuditState
// @Summary     Get the audit workflow state
// @Description Returns the derived workflow phase plus the latest document, active report, and verdict analysis.
// @Tags        Audit
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Claim ID (UUID)"        format(uuid)
//
// @Success     200  {object} handlers.WorkflowStateResponse
// @Failure     404  {object} handlers.ErrorResponse "Claim not found"
// @Failure     409  {object} handlers.ErrorResponse "Adjudication unavailable in current status"
// @Router      /claims/{id}/audit [get]
func (h *Handlers) GetAuditState(c *gin.Context) {
	claimID, valid := requireUUID(c, "id", "claim id")
	if !valid {
		return
	}

	st, err := h.auditSvc.State(c.Request.Context(), userID(c), claimID)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, workflowResponse(st))
}

// RequestUpload godoc
// @ID          requestAuditUpload
// @Summary     Request a document upload destination
// @Description Returns a presigned PUT URL for a carrier estimate document. No document record is created until the upload is confirmed.
// @Tags        Audit
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Claim ID (UUID)"        format(uuid)
// @Param       body       body    handlers.RequestUploadRequest  true  "File metadata"
//
// @Success     201  {object} handlers.UploadDestinationResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request / invalid file name"
// @Failure     404  {object} handlers.ErrorResponse "Claim not found"
// @Failure     409  {object} handlers.ErrorResponse "Adjudication unavailable in current status"
// @Failure     502  {object} handlers.ErrorResponse "Storage collaborator failed"
// @Router      /claims/{id}/audit/uploads [post]
func (h *Handlers) RequestUpload(c *gin.Context) {
	claimID, valid := requireUUID(c, "id", "claim id")
	if !valid {
		return
	}

	var req RequestUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.FileName) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "file_name required")
		return
	}

	dest, err := h.auditSvc.RequestUpload(c.Request.Context(), userID(c), claimID, req.FileName, req.ContentType)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, UploadDestinationResponse{
		DocumentID: dest.DocumentID,
		StorageKey: dest.StorageKey,
		UploadURL:  dest.UploadURL,
		ExpiresAt:  dest.ExpiresAt,
	})
}

// ConfirmUpload godoc
// @ID          confirmAuditUpload
// @Summary     Confirm a finished document upload
// @Description Verifies the object landed in storage, archives any prior report, records the document, and drives parsing to a terminal state.
// @Tags        Audit
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Claim ID (UUID)"        format(uuid)
// @Param       docID      path    string  true  "Document ID (UUID)"     format(uuid)
// @Param       body       body    handlers.ConfirmUploadRequest  true  "File metadata from the upload request"
//
// @Success     200  {object} domain.CarrierEstimateDocument
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Claim not found"
// @Failure     422  {object} handlers.ErrorResponse "Parsing failed"
// @Failure     502  {object} handlers.ErrorResponse "Storage or parser collaborator failed"
// @Failure     504  {object} handlers.ErrorResponse "Parsing did not finish in time"
// @Router      /claims/{id}/audit/documents/{docID}/confirm [post]
func (h *Handlers) ConfirmUpload(c *gin.Context) {
	claimID, valid := requireUUID(c, "id", "claim id")
	if !valid {
		return
	}
	docID, valid := requireUUID(c, "docID", "document id")
	if !valid {
		return
	}

	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.FileName) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "file_name required")
		return
	}

	doc, err := h.auditSvc.ConfirmUpload(c.Request.Context(), userID(c), claimID, docID, req.FileName, req.ContentType)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, doc)
}

// Analyze godoc
// @ID          analyzeClaim
// @Summary     Run the adjudication analysis
// @Description Generates the industry estimate, runs the adjudication comparison, and persists the audit report. Safe to retry: a claim with a persisted verdict returns it unchanged, and the Idempotency-Key header replays prior runs.
// @Tags        Audit
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       id               path    string  true  "Claim ID (UUID)"        format(uuid)
//
// @Success     200  {object} domain.AuditReport
// @Failure     404  {object} handlers.ErrorResponse "Claim not found"
// @Failure     409  {object} handlers.ErrorResponse "Analysis in flight / no parsed document"
// @Failure     500  {object} handlers.ErrorResponse "Adjudicator returned an unknown verdict"
// @Failure     502  {object} handlers.ErrorResponse "Collaborator failed"
// @Router      /claims/{id}/audit/analyze [post]
func (h *Handlers) Analyze(c *gin.Context) {
	ctx := c.Request.Context()
	claimID, valid := requireUUID(c, "id", "claim id")
	if !valid {
		return
	}
	currentUser := userID(c)

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middlewareGetIdempotencyKey(c)
	if idemKey != "" {
		if svc, okSvc := h.auditSvc.(*services.AuditService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, currentUser, claimID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.ActiveAuditReport(ctx, svc.DB, claimID); err2 == nil && prev.ID == rec.AuditReportID {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, prev)
					return
				}
			}
		}
	}

	report, err := h.auditSvc.Analyze(ctx, currentUser, claimID)
	if err != nil {
		failFromService(c, err)
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if svc, okSvc := h.auditSvc.(*services.AuditService); okSvc && svc.DB != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, claimID, idemKey, report.ID, http.StatusOK, ttl)
		}
	}

	ok(c, http.StatusOK, report)
}

// GenerateLetter godoc
// @ID          generateDisputeLetter
// @Summary     Generate the dispute letter
// @Description Generates the dispute letter for a DISPUTE_OFFER verdict. Returns the stored letter unchanged on repeat calls.
// @Tags        Audit
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Claim ID (UUID)"        format(uuid)
//
// @Success     200  {object} domain.AuditReport
// @Failure     404  {object} handlers.ErrorResponse "Claim not found"
// @Failure     409  {object} handlers.ErrorResponse "No verdict / verdict does not offer a letter"
// @Failure     502  {object} handlers.ErrorResponse "Letter collaborator failed"
// @Router      /claims/{id}/audit/letter [post]
func (h *Handlers) GenerateLetter(c *gin.Context) {
	claimID, valid := requireUUID(c, "id", "claim id")
	if !valid {
		return
	}

	report, err := h.auditSvc.GenerateLetter(c.Request.Context(), userID(c), claimID)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, report)
}

// GeneratePitch godoc
// @ID          generateOwnerPitch
// @Summary     Generate the owner pitch
// @Description Generates the owner pitch for a LEGAL_REVIEW verdict. Returns the stored pitch unchanged on repeat calls.
// @Tags        Audit
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Claim ID (UUID)"        format(uuid)
//
// @Success     200  {object} domain.AuditReport
// @Failure     404  {object} handlers.ErrorResponse "Claim not found"
// @Failure     409  {object} handlers.ErrorResponse "No verdict / verdict does not offer a pitch"
// @Failure     502  {object} handlers.ErrorResponse "Letter collaborator failed"
// @Router      /claims/{id}/audit/pitch [post]
func (h *Handlers) GeneratePitch(c *gin.Context) {
	claimID, valid := requireUUID(c, "id", "claim id")
	if !valid {
		return
	}

	report, err := h.auditSvc.GeneratePitch(c.Request.Context(), userID(c), claimID)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, report)
}

// AcknowledgePitch godoc
// @ID          acknowledgePitchSent
// @Summary     Acknowledge the owner pitch was sent
// @Description Records that the generated pitch went out. Requires the pitch to exist; repeat acknowledgments are no-ops.
// @Tags        Audit
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Claim ID (UUID)"        format(uuid)
//
// @Success     200  {object} domain.AuditReport
// @Failure     404  {object} handlers.ErrorResponse "Claim not found"
// @Failure     409  {object} handlers.ErrorResponse "Pitch not generated yet"
// @Router      /claims/{id}/audit/pitch/ack [post]
func (h *Handlers) AcknowledgePitch(c *gin.Context) {
	claimID, valid := requireUUID(c, "id", "claim id")
	if !valid {
		return
	}

	report, err := h.auditSvc.AcknowledgePitchSent(c.Request.Context(), userID(c), claimID)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, report)
}

// ResetWorkflow godoc
// @ID          resetAuditWorkflow
// @Summary     Reset the audit workflow for re-upload
// @Description Archives the current report and retires the document so a NEED_DOCS claim can upload a fresh estimate. Only available for a NEED_DOCS verdict.
// @Tags        Audit
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Claim ID (UUID)"        format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Claim not found"
// @Failure     409  {object} handlers.ErrorResponse "Verdict does not allow a reset"
// @Router      /claims/{id}/audit/reset [post]
func (h *Handlers) ResetWorkflow(c *gin.Context) {
	claimID, valid := requireUUID(c, "id", "claim id")
	if !valid {
		return
	}

	if err := h.auditSvc.Reset(c.Request.Context(), userID(c), claimID); err != nil {
		failFromService(c, err)
		return
	}
	noContent(c)
}

// middlewareGetIdempotencyKey extracts an idempotency key if an upstream
// middleware has already validated/stashed it. The fallback behavior reads
// the "Idempotency-Key" header directly when no dedicated middleware exists.
func middlewareGetIdempotencyKey(c *gin.Context) (string, bool) {
	if v := strings.TrimSpace(c.GetHeader("Idempotency-Key")); v != "" {
		return v, true
	}
	return "", false
}
