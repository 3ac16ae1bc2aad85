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

func TestGetAuditState_ReturnsPhaseAndReport(t *testing.T) {
	rep := &domain.AuditReport{ID: "rep-1", ClaimID: "c1"}
	svc := stubAuditSvc{state: func(context.Context, string, string) (*services.WorkflowState, error) {
		return &services.WorkflowState{Phase: domain.PhaseVerdict, Report: rep}, nil
	}}
	r := newClaimsRouter(stubClaimSvc{}, svc, stubPaySvc{})

	w := doJSON(r, http.MethodGet, "/claims/"+uuid.NewString()+"/audit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp WorkflowStateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Phase != domain.PhaseVerdict || resp.Report == nil || resp.Report.ID != "rep-1" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestGetAuditState_GateMapsTo409(t *testing.T) {
	svc := stubAuditSvc{state: func(context.Context, string, string) (*services.WorkflowState, error) {
		return nil, services.ErrAdjudicationUnavailable
	}}
	r := newClaimsRouter(stubClaimSvc{}, svc, stubPaySvc{})

	w := doJSON(r, http.MethodGet, "/claims/"+uuid.NewString()+"/audit", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != ErrCodeUnavailable {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestRequestUpload_Success(t *testing.T) {
	var gotName, gotCT string
	exp := time.Now().Add(15 * time.Minute).UTC()
	svc := stubAuditSvc{requestUpload: func(_ context.Context, _, _ string, name, ct string) (*services.UploadDestination, error) {
		gotName, gotCT = name, ct
		return &services.UploadDestination{DocumentID: "d1", StorageKey: "k", UploadURL: "https://bucket/k?sig=x", ExpiresAt: exp}, nil
	}}
	r := newClaimsRouter(stubClaimSvc{}, svc, stubPaySvc{})

	w := doJSON(r, http.MethodPost, "/claims/"+uuid.NewString()+"/audit/uploads", `{"file_name":"offer.pdf","content_type":"application/pdf"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if gotName != "offer.pdf" || gotCT != "application/pdf" {
		t.Fatalf("service got name=%q ct=%q", gotName, gotCT)
	}
	var resp UploadDestinationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.DocumentID != "d1" || resp.UploadURL == "" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestRequestUpload_MissingFileNameIs400(t *testing.T) {
	r := newClaimsRouter(stubClaimSvc{}, stubAuditSvc{}, stubPaySvc{})
	w := doJSON(r, http.MethodPost, "/claims/"+uuid.NewString()+"/audit/uploads", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestConfirmUpload_ParseOutcomes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"timeout maps to 504", services.ErrParseTimeout, http.StatusGatewayTimeout},
		{"parse failure maps to 422", services.ErrParseFailed, http.StatusUnprocessableEntity},
		{"upstream maps to 502", services.ErrUpstream, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := stubAuditSvc{confirmUpload: func(context.Context, string, string, string, string, string) (*domain.CarrierEstimateDocument, error) {
				return nil, tc.err
			}}
			r := newClaimsRouter(stubClaimSvc{}, svc, stubPaySvc{})

			path := "/claims/" + uuid.NewString() + "/audit/documents/" + uuid.NewString() + "/confirm"
			w := doJSON(r, http.MethodPost, path, `{"file_name":"offer.pdf"}`)
			if w.Code != tc.want {
				t.Fatalf("status = %d want %d", w.Code, tc.want)
			}
		})
	}
}

func TestConfirmUpload_Success(t *testing.T) {
	docID := uuid.NewString()
	svc := stubAuditSvc{confirmUpload: func(_ context.Context, _, claimID, id, name, _ string) (*domain.CarrierEstimateDocument, error) {
		return &domain.CarrierEstimateDocument{ID: id, ClaimID: claimID, FileName: name, ParseStatus: domain.ParseCompleted}, nil
	}}
	r := newClaimsRouter(stubClaimSvc{}, svc, stubPaySvc{})

	path := "/claims/" + uuid.NewString() + "/audit/documents/" + docID + "/confirm"
	w := doJSON(r, http.MethodPost, path, `{"file_name":"offer.pdf"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var doc domain.CarrierEstimateDocument
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if doc.ID != docID || doc.ParseStatus != domain.ParseCompleted {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestAnalyze_SuccessAndConflicts(t *testing.T) {
	rep := &domain.AuditReport{ID: "rep-9", ClaimID: "c1"}
	svc := stubAuditSvc{analyze: func(context.Context, string, string) (*domain.AuditReport, error) {
		return rep, nil
	}}
	r := newClaimsRouter(stubClaimSvc{}, svc, stubPaySvc{})

	w := doJSON(r, http.MethodPost, "/claims/"+uuid.NewString()+"/audit/analyze", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	svc = stubAuditSvc{analyze: func(context.Context, string, string) (*domain.AuditReport, error) {
		return nil, services.ErrAnalysisInFlight
	}}
	r = newClaimsRouter(stubClaimSvc{}, svc, stubPaySvc{})
	w = doJSON(r, http.MethodPost, "/claims/"+uuid.NewString()+"/audit/analyze", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("in-flight status = %d", w.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != ErrCodeAnalysisInFlight {
		t.Fatalf("code = %q", resp.Code)
	}

	svc = stubAuditSvc{analyze: func(context.Context, string, string) (*domain.AuditReport, error) {
		return nil, services.ErrDocumentNotReady
	}}
	r = newClaimsRouter(stubClaimSvc{}, svc, stubPaySvc{})
	w = doJSON(r, http.MethodPost, "/claims/"+uuid.NewString()+"/audit/analyze", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("not-ready status = %d", w.Code)
	}
}

func TestAnalyze_UnknownVerdictIs500(t *testing.T) {
	svc := stubAuditSvc{analyze: func(context.Context, string, string) (*domain.AuditReport, error) {
		return nil, domain.ErrUnknownVerdict
	}}
	r := newClaimsRouter(stubClaimSvc{}, svc, stubPaySvc{})

	w := doJSON(r, http.MethodPost, "/claims/"+uuid.NewString()+"/audit/analyze", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != ErrCodeUnknownVerdict {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestGenerateLetter_NotOfferedIs409(t *testing.T) {
	svc := stubAuditSvc{letter: func(context.Context, string, string) (*domain.AuditReport, error) {
		return nil, services.ErrLetterNotOffered
	}}
	r := newClaimsRouter(stubClaimSvc{}, svc, stubPaySvc{})

	w := doJSON(r, http.MethodPost, "/claims/"+uuid.NewString()+"/audit/letter", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAcknowledgePitch_RequiresPitch(t *testing.T) {
	svc := stubAuditSvc{ackPitch: func(context.Context, string, string) (*domain.AuditReport, error) {
		return nil, services.ErrPitchNotGenerated
	}}
	r := newClaimsRouter(stubClaimSvc{}, svc, stubPaySvc{})

	w := doJSON(r, http.MethodPost, "/claims/"+uuid.NewString()+"/audit/pitch/ack", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestResetWorkflow_SuccessIs204(t *testing.T) {
	called := false
	svc := stubAuditSvc{reset: func(context.Context, string, string) error {
		called = true
		return nil
	}}
	r := newClaimsRouter(stubClaimSvc{}, svc, stubPaySvc{})

	w := doJSON(r, http.MethodPost, "/claims/"+uuid.NewString()+"/audit/reset", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if !called {
		t.Fatal("service not invoked")
	}
}

func TestResetWorkflow_WrongVerdictIs409(t *testing.T) {
	svc := stubAuditSvc{reset: func(context.Context, string, string) error {
		return services.ErrResetNotAllowed
	}}
	r := newClaimsRouter(stubClaimSvc{}, svc, stubPaySvc{})

	w := doJSON(r, http.MethodPost, "/claims/"+uuid.NewString()+"/audit/reset", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
}
