// Payment ledger and demand letter HTTP handlers.
//
// This file exposes the post-settlement money flow under a claim:
//   - POST /claims/{id}/payments          (create expected payment)
//   - GET  /claims/{id}/payments          (ledger, ETag support)
//   - GET  /claims/{id}/payments/summary  (derived totals)
//   - POST /payments/{id}/receive
//   - POST /payments/{id}/reconcile
//   - POST /payments/{id}/dispute
//   - POST /claims/{id}/demand-letters    (eligibility-gated generation)
//   - GET  /claims/{id}/demand-letters
//   - POST /demand-letters/{id}/send      (exactly once)
package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-claims-backend/internal/domain"
	"github.com/tbourn/go-claims-backend/internal/repo"
	"github.com/tbourn/go-claims-backend/internal/services"
)

//
// DTOs
//

// CreatePaymentRequest is the JSON payload for creating an expected payment.
type CreatePaymentRequest struct {
	// PaymentType is ACV or RCV.
	PaymentType string `json:"payment_type" binding:"required" example:"ACV"`
	// ExpectedAmount optionally records what the carrier committed to pay.
	ExpectedAmount *float64 `json:"expected_amount" example:"5000"`
}

// ReceivePaymentRequest is the JSON payload for recording a received check.
type ReceivePaymentRequest struct {
	// Amount is the received amount (must be positive).
	Amount float64 `json:"amount" binding:"required" example:"4000"`
	// ReceivedDate defaults to now when omitted.
	ReceivedDate *time.Time `json:"received_date"`
}

// DisputePaymentRequest is the JSON payload for disputing a received payment.
type DisputePaymentRequest struct {
	// Reason describes the discrepancy (required, non-blank).
	Reason string `json:"reason" binding:"required" example:"check short by $1,000"`
}

// SendDemandLetterRequest is the JSON payload for marking a letter sent.
type SendDemandLetterRequest struct {
	// Email overrides the claim's policyholder email as the recipient.
	Email string `json:"email" example:"owner@example.com"`
}

// ListPaymentsResponse wraps the payment ledger for a claim.
type ListPaymentsResponse struct {
	Payments []domain.PaymentRecord `json:"payments"`
}

// ListDemandLettersResponse wraps the demand letters for a claim.
type ListDemandLettersResponse struct {
	Letters []domain.RCVDemandLetter `json:"letters"`
}

//
// Handlers
//

// CreatePayment godoc
// @ID          createPayment
// @Summary     Create an expected payment
// @Description Adds an expected ledger entry for the claim. Requires the claim to be past intake.
// @Tags        Payments
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Claim ID (UUID)"        format(uuid)
// @Param       body       body    handlers.CreatePaymentRequest  true  "Payment payload"
//
// @Success     201  {object} domain.PaymentRecord
// @Failure     400  {object} handlers.ErrorResponse "Bad request / unknown payment type"
// @Failure     404  {object} handlers.ErrorResponse "Claim not found"
// @Failure     409  {object} handlers.ErrorResponse "Payments unavailable in current status"
// @Router      /claims/{id}/payments [post]
func (h *Handlers) CreatePayment(c *gin.Context) {
	claimID, valid := requireUUID(c, "id", "claim id")
	if !valid {
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.PaymentType) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "payment_type required")
		return
	}

	pt, err := domain.ParsePaymentType(req.PaymentType)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown payment type: "+req.PaymentType)
		return
	}

	rec, err := h.paySvc.CreateExpected(c.Request.Context(), userID(c), claimID, pt, req.ExpectedAmount)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, rec)
}

// ListPayments godoc
// @ID          listPayments
// @Summary     List the payment ledger
// @Description Returns the claim's payment records in creation order. Supports weak ETag via If-None-Match.
// @Tags        Payments
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       id             path    string  true  "Claim ID (UUID)"             format(uuid)
//
// @Success     200  {object} handlers.ListPaymentsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     404  {object} handlers.ErrorResponse "Claim not found"
// @Router      /claims/{id}/payments [get]
func (h *Handlers) ListPayments(c *gin.Context) {
	ctx := c.Request.Context()
	claimID, valid := requireUUID(c, "id", "claim id")
	if !valid {
		return
	}

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.paySvc.(*services.PaymentService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.PaymentsStats(ctx, db, claimID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"payments:%s:%d:%d"`, claimID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.paySvc.List(ctx, userID(c), claimID)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, ListPaymentsResponse{Payments: items})
}

// PaymentSummary godoc
// @ID          paymentSummary
// @Summary     Summarize the payment ledger
// @Description Returns derived totals, per-type deltas, and demand letter eligibility. Always computed from the ledger, never stored.
// @Tags        Payments
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Claim ID (UUID)"        format(uuid)
//
// @Success     200  {object} domain.PaymentSummary
// @Failure     404  {object} handlers.ErrorResponse "Claim not found"
// @Router      /claims/{id}/payments/summary [get]
func (h *Handlers) PaymentSummary(c *gin.Context) {
	claimID, valid := requireUUID(c, "id", "claim id")
	if !valid {
		return
	}

	sum, err := h.paySvc.Summarize(c.Request.Context(), userID(c), claimID)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, sum)
}

// ReceivePayment godoc
// @ID          receivePayment
// @Summary     Record a received payment
// @Description Moves an expected payment to received with the actual amount. Double receives are rejected.
// @Tags        Payments
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Payment ID (UUID)"      format(uuid)
// @Param       body       body    handlers.ReceivePaymentRequest  true  "Received amount"
//
// @Success     200  {object} domain.PaymentRecord
// @Failure     400  {object} handlers.ErrorResponse "Bad request / non-positive amount"
// @Failure     404  {object} handlers.ErrorResponse "Payment not found"
// @Failure     409  {object} handlers.ErrorResponse "Illegal ledger transition"
// @Router      /payments/{id}/receive [post]
func (h *Handlers) ReceivePayment(c *gin.Context) {
	paymentID, valid := requireUUID(c, "id", "payment id")
	if !valid {
		return
	}

	var req ReceivePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "amount required")
		return
	}
	var when time.Time
	if req.ReceivedDate != nil {
		when = *req.ReceivedDate
	}

	rec, err := h.paySvc.RecordReceived(c.Request.Context(), userID(c), paymentID, req.Amount, when)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

// ReconcilePayment godoc
// @ID          reconcilePayment
// @Summary     Reconcile a received payment
// @Description Marks a received payment as matching expectations. Terminal.
// @Tags        Payments
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Payment ID (UUID)"      format(uuid)
//
// @Success     200  {object} domain.PaymentRecord
// @Failure     404  {object} handlers.ErrorResponse "Payment not found"
// @Failure     409  {object} handlers.ErrorResponse "Illegal ledger transition"
// @Router      /payments/{id}/reconcile [post]
func (h *Handlers) ReconcilePayment(c *gin.Context) {
	paymentID, valid := requireUUID(c, "id", "payment id")
	if !valid {
		return
	}

	rec, err := h.paySvc.Reconcile(c.Request.Context(), userID(c), paymentID)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

// DisputePayment godoc
// @ID          disputePayment
// @Summary     Dispute a received payment
// @Description Marks a received payment as disputed with a reason. Terminal.
// @Tags        Payments
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Payment ID (UUID)"      format(uuid)
// @Param       body       body    handlers.DisputePaymentRequest  true  "Dispute reason"
//
// @Success     200  {object} domain.PaymentRecord
// @Failure     400  {object} handlers.ErrorResponse "Bad request / blank reason"
// @Failure     404  {object} handlers.ErrorResponse "Payment not found"
// @Failure     409  {object} handlers.ErrorResponse "Illegal ledger transition"
// @Router      /payments/{id}/dispute [post]
func (h *Handlers) DisputePayment(c *gin.Context) {
	paymentID, valid := requireUUID(c, "id", "payment id")
	if !valid {
		return
	}

	var req DisputePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "reason required")
		return
	}

	rec, err := h.paySvc.Dispute(c.Request.Context(), userID(c), paymentID, req.Reason)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

// CreateDemandLetter godoc
// @ID          createDemandLetter
// @Summary     Generate an RCV demand letter
// @Description Generates a demand letter from a snapshot of the current ledger. Requires outstanding RCV and at least one received ACV payment.
// @Tags        Demand letters
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Claim ID (UUID)"        format(uuid)
//
// @Success     201  {object} domain.RCVDemandLetter
// @Failure     404  {object} handlers.ErrorResponse "Claim not found"
// @Failure     409  {object} handlers.ErrorResponse "Claim not eligible"
// @Router      /claims/{id}/demand-letters [post]
func (h *Handlers) CreateDemandLetter(c *gin.Context) {
	claimID, valid := requireUUID(c, "id", "claim id")
	if !valid {
		return
	}

	letter, err := h.paySvc.GenerateDemandLetter(c.Request.Context(), userID(c), claimID)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusCreated, letter)
}

// ListDemandLetters godoc
// @ID          listDemandLetters
// @Summary     List demand letters
// @Description Returns the claim's demand letters, newest first.
// @Tags        Demand letters
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Claim ID (UUID)"        format(uuid)
//
// @Success     200  {object} handlers.ListDemandLettersResponse
// @Failure     404  {object} handlers.ErrorResponse "Claim not found"
// @Router      /claims/{id}/demand-letters [get]
func (h *Handlers) ListDemandLetters(c *gin.Context) {
	claimID, valid := requireUUID(c, "id", "claim id")
	if !valid {
		return
	}

	letters, err := h.paySvc.ListDemandLetters(c.Request.Context(), userID(c), claimID)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, ListDemandLettersResponse{Letters: letters})
}

// SendDemandLetter godoc
// @ID          sendDemandLetter
// @Summary     Mark a demand letter sent
// @Description Records the send exactly once. Uses the claim's policyholder email when no override is supplied.
// @Tags        Demand letters
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Letter ID (UUID)"       format(uuid)
// @Param       body       body    handlers.SendDemandLetterRequest  false  "Recipient override"
//
// @Success     200  {object} domain.RCVDemandLetter
// @Failure     404  {object} handlers.ErrorResponse "Letter not found"
// @Failure     409  {object} handlers.ErrorResponse "Already sent / no recipient on file"
// @Router      /demand-letters/{id}/send [post]
func (h *Handlers) SendDemandLetter(c *gin.Context) {
	letterID, valid := requireUUID(c, "id", "letter id")
	if !valid {
		return
	}

	var req SendDemandLetterRequest
	if c.Request != nil && c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	letter, err := h.paySvc.MarkDemandLetterSent(c.Request.Context(), userID(c), letterID, strings.TrimSpace(req.Email))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, letter)
}
