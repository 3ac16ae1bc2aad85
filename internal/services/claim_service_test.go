package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-claims-backend/internal/domain"
	"github.com/tbourn/go-claims-backend/internal/events"
)

// ----- Fake repo -----

type fakeClaimRepo struct {
	// capture args
	createUserID string
	createEmail  string

	getID     string
	getUserID string
	getClaim  *domain.Claim
	getErr    error

	countTotal int64
	countErr   error

	pageOffset int
	pageLimit  int
	pageItems  []domain.Claim
	pageErr    error

	statusID     string
	statusTarget domain.ClaimStatus
	statusErr    error

	stepsCurrent   int
	stepsCompleted string
	stepsErr       error
}

func (r *fakeClaimRepo) CreateClaim(ctx context.Context, db *gorm.DB, userID, email string) (*domain.Claim, error) {
	r.createUserID, r.createEmail = userID, email
	return &domain.Claim{ID: "cl1", UserID: userID, Status: domain.StatusDraft, CurrentStep: 1, PolicyholderEmail: email}, nil
}

func (r *fakeClaimRepo) GetClaim(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Claim, error) {
	r.getID, r.getUserID = id, userID
	return r.getClaim, r.getErr
}

func (r *fakeClaimRepo) CountClaims(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return r.countTotal, r.countErr
}

func (r *fakeClaimRepo) ListClaimsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Claim, error) {
	r.pageOffset, r.pageLimit = offset, limit
	return r.pageItems, r.pageErr
}

func (r *fakeClaimRepo) UpdateClaimStatus(ctx context.Context, db *gorm.DB, id, userID string, status domain.ClaimStatus) error {
	r.statusID, r.statusTarget = id, status
	return r.statusErr
}

func (r *fakeClaimRepo) UpdateClaimSteps(ctx context.Context, db *gorm.DB, id, userID string, currentStep int, stepsCompleted string) error {
	r.stepsCurrent, r.stepsCompleted = currentStep, stepsCompleted
	return r.stepsErr
}

type fakeReportReader struct {
	report *domain.AuditReport
	err    error
}

func (f *fakeReportReader) ActiveAuditReport(ctx context.Context, db *gorm.DB, claimID string) (*domain.AuditReport, error) {
	return f.report, f.err
}

func claimWith(status domain.ClaimStatus) *domain.Claim {
	return &domain.Claim{ID: "cl1", UserID: "u1", Status: status, CurrentStep: 1}
}

func reportWithVerdict(t *testing.T, v domain.VerdictStatus) *domain.AuditReport {
	t.Helper()
	r := &domain.AuditReport{ID: "r1", ClaimID: "cl1", DocumentID: "d1"}
	if err := r.SetVerdictAnalysis(&domain.VerdictAnalysis{Status: v}); err != nil {
		t.Fatalf("SetVerdictAnalysis: %v", err)
	}
	return r
}

// ----- Tests -----

func TestClaimService_Create_PublishesEvent(t *testing.T) {
	r := &fakeClaimRepo{}
	bus := events.NewBus()
	var published []events.Type
	bus.Subscribe(func(e events.Event) { published = append(published, e.Type) })

	s := NewClaimService(nil, r, &fakeReportReader{err: gorm.ErrRecordNotFound}, bus)
	c, err := s.Create(context.Background(), "u1", "  owner@example.com ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Status != domain.StatusDraft {
		t.Fatalf("expected draft, got %q", c.Status)
	}
	if r.createEmail != "owner@example.com" {
		t.Fatalf("expected trimmed email, got %q", r.createEmail)
	}
	if len(published) != 1 || published[0] != events.ClaimCreated {
		t.Fatalf("expected ClaimCreated event, got %v", published)
	}
}

func TestClaimService_Get_MapsNotFound(t *testing.T) {
	r := &fakeClaimRepo{getErr: gorm.ErrRecordNotFound}
	s := NewClaimService(nil, r, nil, nil)

	if _, err := s.Get(context.Background(), "u1", "missing"); !errors.Is(err, ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
}

func TestClaimService_Transition_LegalEdge(t *testing.T) {
	r := &fakeClaimRepo{getClaim: claimWith(domain.StatusDraft)}
	bus := events.NewBus()
	var got events.Event
	bus.Subscribe(func(e events.Event) { got = e })

	s := NewClaimService(nil, r, nil, bus)
	c, err := s.Transition(context.Background(), "u1", "cl1", domain.StatusFiled)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if c.Status != domain.StatusFiled {
		t.Fatalf("expected filed, got %q", c.Status)
	}
	if r.statusTarget != domain.StatusFiled {
		t.Fatalf("repo received target %q", r.statusTarget)
	}
	if got.Type != events.ClaimStatusChanged || got.Fields["from"] != "draft" || got.Fields["to"] != "filed" {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestClaimService_Transition_IllegalEdge_NoMutation(t *testing.T) {
	r := &fakeClaimRepo{getClaim: claimWith(domain.StatusDraft)}
	s := NewClaimService(nil, r, nil, nil)

	_, err := s.Transition(context.Background(), "u1", "cl1", domain.StatusSettled)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if r.statusID != "" {
		t.Fatal("repo must not be touched on an illegal edge")
	}
}

func TestClaimService_Transition_UnknownStatus(t *testing.T) {
	r := &fakeClaimRepo{getClaim: claimWith(domain.StatusDraft)}
	s := NewClaimService(nil, r, nil, nil)

	if _, err := s.Transition(context.Background(), "u1", "cl1", "abandoned"); !errors.Is(err, domain.ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
}

func TestClaimService_AdvanceStep_RangeAndMonotonicity(t *testing.T) {
	r := &fakeClaimRepo{getClaim: claimWith(domain.StatusFiled)}
	s := NewClaimService(nil, r, &fakeReportReader{err: gorm.ErrRecordNotFound}, nil)

	if _, err := s.AdvanceStep(context.Background(), "u1", "cl1", 0); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("expected ErrInvalidStep for 0, got %v", err)
	}
	if _, err := s.AdvanceStep(context.Background(), "u1", "cl1", 8); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("expected ErrInvalidStep for 8, got %v", err)
	}

	c, err := s.AdvanceStep(context.Background(), "u1", "cl1", 2)
	if err != nil {
		t.Fatalf("AdvanceStep: %v", err)
	}
	if !c.HasStep(2) || c.CurrentStep != 3 {
		t.Fatalf("after advance: steps=%q current=%d", c.StepsCompleted, c.CurrentStep)
	}
	if r.stepsCompleted != "2" || r.stepsCurrent != 3 {
		t.Fatalf("repo received steps=%q current=%d", r.stepsCompleted, r.stepsCurrent)
	}
}

func TestClaimService_AdvanceStep_CursorNeverMovesBack(t *testing.T) {
	claim := claimWith(domain.StatusFiled)
	claim.CurrentStep = 6
	claim.StepsCompleted = "1,2,3,4"
	r := &fakeClaimRepo{getClaim: claim}
	s := NewClaimService(nil, r, &fakeReportReader{err: gorm.ErrRecordNotFound}, nil)

	c, err := s.AdvanceStep(context.Background(), "u1", "cl1", 2)
	if err != nil {
		t.Fatalf("AdvanceStep: %v", err)
	}
	if c.CurrentStep != 6 {
		t.Fatalf("cursor moved back to %d", c.CurrentStep)
	}
}

func TestClaimService_AdvanceStep_AdjudicationGate(t *testing.T) {
	cases := []struct {
		name    string
		reports *fakeReportReader
		wantErr error
	}{
		{"no report", &fakeReportReader{err: gorm.ErrRecordNotFound}, ErrStepBlocked},
		{"no analysis", &fakeReportReader{report: &domain.AuditReport{ID: "r1"}}, ErrStepBlocked},
		{"dispute offer without letter", &fakeReportReader{report: reportWithVerdict(t, domain.VerdictDisputeOffer)}, ErrStepBlocked},
		{"need docs", &fakeReportReader{report: reportWithVerdict(t, domain.VerdictNeedDocs)}, ErrStepBlocked},
		{"close verdict", &fakeReportReader{report: reportWithVerdict(t, domain.VerdictClose)}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &fakeClaimRepo{getClaim: claimWith(domain.StatusAuditPending)}
			s := NewClaimService(nil, r, tc.reports, nil)

			_, err := s.AdvanceStep(context.Background(), "u1", "cl1", 5)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestClaimService_AdvanceStep_GateUnlockedWithArtifacts(t *testing.T) {
	letter := "dispute body"
	report := reportWithVerdict(t, domain.VerdictDisputeOffer)
	report.DisputeLetter = &letter

	r := &fakeClaimRepo{getClaim: claimWith(domain.StatusAuditPending)}
	s := NewClaimService(nil, r, &fakeReportReader{report: report}, nil)

	if _, err := s.AdvanceStep(context.Background(), "u1", "cl1", 5); err != nil {
		t.Fatalf("expected gate unlocked, got %v", err)
	}

	// LEGAL_REVIEW needs pitch generated and acknowledged, in that order.
	pitch := "pitch body"
	lr := reportWithVerdict(t, domain.VerdictLegalReview)
	lr.OwnerPitch = &pitch
	s = NewClaimService(nil, &fakeClaimRepo{getClaim: claimWith(domain.StatusAuditPending)}, &fakeReportReader{report: lr}, nil)
	if _, err := s.AdvanceStep(context.Background(), "u1", "cl1", 5); !errors.Is(err, ErrStepBlocked) {
		t.Fatalf("expected blocked before acknowledgment, got %v", err)
	}

	now := time.Now().UTC()
	lr.PitchSentAt = &now
	s = NewClaimService(nil, &fakeClaimRepo{getClaim: claimWith(domain.StatusAuditPending)}, &fakeReportReader{report: lr}, nil)
	if _, err := s.AdvanceStep(context.Background(), "u1", "cl1", 5); err != nil {
		t.Fatalf("expected unlocked after acknowledgment, got %v", err)
	}
}

func TestClaimService_ListPage_Defaults(t *testing.T) {
	r := &fakeClaimRepo{countTotal: 3, pageItems: []domain.Claim{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	s := NewClaimService(nil, r, nil, nil)

	items, total, err := s.ListPage(context.Background(), "u1", 0, -5)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("total=%d items=%d", total, len(items))
	}
	if r.pageOffset != 0 || r.pageLimit != 20 {
		t.Fatalf("expected defaults offset=0 limit=20, got %d/%d", r.pageOffset, r.pageLimit)
	}
}
