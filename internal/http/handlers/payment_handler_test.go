package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/go-claims-backend/internal/domain"
	"github.com/tbourn/go-claims-backend/internal/services"
)

func TestCreatePayment_Success(t *testing.T) {
	var gotType domain.PaymentType
	var gotAmt *float64
	svc := stubPaySvc{createExpected: func(_ context.Context, _, claimID string, pt domain.PaymentType, amt *float64) (*domain.PaymentRecord, error) {
		gotType, gotAmt = pt, amt
		return &domain.PaymentRecord{ID: "p1", ClaimID: claimID, PaymentType: pt, Status: domain.PaymentExpected, ExpectedAmount: amt}, nil
	}}
	r := newClaimsRouter(stubClaimSvc{}, stubAuditSvc{}, svc)

	w := doJSON(r, http.MethodPost, "/claims/"+uuid.NewString()+"/payments", `{"payment_type":"ACV","expected_amount":5000}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if gotType != domain.PaymentACV || gotAmt == nil || *gotAmt != 5000 {
		t.Fatalf("service got type=%q amt=%v", gotType, gotAmt)
	}
}

func TestCreatePayment_UnknownTypeIs400(t *testing.T) {
	r := newClaimsRouter(stubClaimSvc{}, stubAuditSvc{}, stubPaySvc{})
	w := doJSON(r, http.MethodPost, "/claims/"+uuid.NewString()+"/payments", `{"payment_type":"deductible"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCreatePayment_GateMapsTo409(t *testing.T) {
	svc := stubPaySvc{createExpected: func(context.Context, string, string, domain.PaymentType, *float64) (*domain.PaymentRecord, error) {
		return nil, services.ErrPaymentsUnavailable
	}}
	r := newClaimsRouter(stubClaimSvc{}, stubAuditSvc{}, svc)

	w := doJSON(r, http.MethodPost, "/claims/"+uuid.NewString()+"/payments", `{"payment_type":"RCV"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != ErrCodeUnavailable {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestReceivePayment_PassesAmountAndDate(t *testing.T) {
	when := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var gotAmount float64
	var gotWhen time.Time
	svc := stubPaySvc{recordReceived: func(_ context.Context, _, id string, amount float64, d time.Time) (*domain.PaymentRecord, error) {
		gotAmount, gotWhen = amount, d
		return &domain.PaymentRecord{ID: id, Status: domain.PaymentReceived, Amount: amount}, nil
	}}
	r := newClaimsRouter(stubClaimSvc{}, stubAuditSvc{}, svc)

	w := doJSON(r, http.MethodPost, "/payments/"+uuid.NewString()+"/receive", `{"amount":4000,"received_date":"2026-03-01T00:00:00Z"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if gotAmount != 4000 || !gotWhen.Equal(when) {
		t.Fatalf("service got amount=%v when=%v", gotAmount, gotWhen)
	}
}

func TestReceivePayment_DoubleReceiveIs409(t *testing.T) {
	svc := stubPaySvc{recordReceived: func(context.Context, string, string, float64, time.Time) (*domain.PaymentRecord, error) {
		return nil, services.ErrPaymentTransition
	}}
	r := newClaimsRouter(stubClaimSvc{}, stubAuditSvc{}, svc)

	w := doJSON(r, http.MethodPost, "/payments/"+uuid.NewString()+"/receive", `{"amount":4000}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestReceivePayment_NonPositiveAmountIs400(t *testing.T) {
	svc := stubPaySvc{recordReceived: func(context.Context, string, string, float64, time.Time) (*domain.PaymentRecord, error) {
		return nil, services.ErrAmountNotPositive
	}}
	r := newClaimsRouter(stubClaimSvc{}, stubAuditSvc{}, svc)

	w := doJSON(r, http.MethodPost, "/payments/"+uuid.NewString()+"/receive", `{"amount":-5}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestDisputePayment_BlankReasonIs400(t *testing.T) {
	svc := stubPaySvc{dispute: func(context.Context, string, string, string) (*domain.PaymentRecord, error) {
		return nil, services.ErrEmptyDisputeReason
	}}
	r := newClaimsRouter(stubClaimSvc{}, stubAuditSvc{}, svc)

	w := doJSON(r, http.MethodPost, "/payments/"+uuid.NewString()+"/dispute", `{"reason":"   "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestPaymentSummary_ReturnsDerivedTotals(t *testing.T) {
	svc := stubPaySvc{summarize: func(context.Context, string, string) (domain.PaymentSummary, error) {
		return domain.PaymentSummary{
			ExpectedACV:      5000,
			ExpectedRCV:      2000,
			TotalACVReceived: 4000,
			ACVDelta:         -1000,
			RCVDelta:         -2000,
		}, nil
	}}
	r := newClaimsRouter(stubClaimSvc{}, stubAuditSvc{}, svc)

	w := doJSON(r, http.MethodGet, "/claims/"+uuid.NewString()+"/payments/summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var sum domain.PaymentSummary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if sum.ExpectedACV != 5000 || sum.RCVDelta != -2000 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestCreateDemandLetter_NotEligibleIs409(t *testing.T) {
	svc := stubPaySvc{genLetter: func(context.Context, string, string) (*domain.RCVDemandLetter, error) {
		return nil, services.ErrNotEligible
	}}
	r := newClaimsRouter(stubClaimSvc{}, stubAuditSvc{}, svc)

	w := doJSON(r, http.MethodPost, "/claims/"+uuid.NewString()+"/demand-letters", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != ErrCodeNotEligible {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestCreateDemandLetter_Success(t *testing.T) {
	svc := stubPaySvc{genLetter: func(_ context.Context, _, claimID string) (*domain.RCVDemandLetter, error) {
		return &domain.RCVDemandLetter{ID: "l1", ClaimID: claimID, RCVOutstanding: 2000, Body: "Dear Carrier"}, nil
	}}
	r := newClaimsRouter(stubClaimSvc{}, stubAuditSvc{}, svc)

	w := doJSON(r, http.MethodPost, "/claims/"+uuid.NewString()+"/demand-letters", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var letter domain.RCVDemandLetter
	if err := json.Unmarshal(w.Body.Bytes(), &letter); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if letter.ID != "l1" || letter.RCVOutstanding != 2000 {
		t.Fatalf("letter = %+v", letter)
	}
}

func TestSendDemandLetter_PassesOverrideEmail(t *testing.T) {
	var gotEmail string
	svc := stubPaySvc{markSent: func(_ context.Context, _, id, email string) (*domain.RCVDemandLetter, error) {
		gotEmail = email
		now := time.Now()
		return &domain.RCVDemandLetter{ID: id, SentAt: &now, SentToEmail: &email}, nil
	}}
	r := newClaimsRouter(stubClaimSvc{}, stubAuditSvc{}, svc)

	w := doJSON(r, http.MethodPost, "/demand-letters/"+uuid.NewString()+"/send", `{"email":"alt@example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if gotEmail != "alt@example.com" {
		t.Fatalf("email = %q", gotEmail)
	}
}

func TestSendDemandLetter_SecondSendIs409(t *testing.T) {
	svc := stubPaySvc{markSent: func(context.Context, string, string, string) (*domain.RCVDemandLetter, error) {
		return nil, services.ErrAlreadySent
	}}
	r := newClaimsRouter(stubClaimSvc{}, stubAuditSvc{}, svc)

	w := doJSON(r, http.MethodPost, "/demand-letters/"+uuid.NewString()+"/send", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != ErrCodeAlreadySent {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestSendDemandLetter_NoRecipientIs409(t *testing.T) {
	svc := stubPaySvc{markSent: func(context.Context, string, string, string) (*domain.RCVDemandLetter, error) {
		return nil, services.ErrNoRecipient
	}}
	r := newClaimsRouter(stubClaimSvc{}, stubAuditSvc{}, svc)

	w := doJSON(r, http.MethodPost, "/demand-letters/"+uuid.NewString()+"/send", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
}
