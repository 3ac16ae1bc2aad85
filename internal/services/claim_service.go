// Package services – ClaimService
//
// This file implements the ClaimService, which owns the claim lifecycle: the
// status state machine, pagination over a user's claims, and the advisory
// step-advance workflow. Status moves are validated against the closed
// transition table in domain before anything is persisted; the adjudication
// step additionally consults the active audit report's verdict to decide
// whether completion is unlocked.
//
// Service-level errors (e.g., ErrClaimNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-claims-backend/internal/domain"
	"github.com/tbourn/go-claims-backend/internal/events"
)

// ClaimRepo defines the repository contract required by ClaimService.
// Implementations are responsible for persistence of claim aggregates.
type ClaimRepo interface {
	// CreateClaim inserts a new draft claim for the given user.
	CreateClaim(ctx context.Context, db *gorm.DB, userID, policyholderEmail string) (*domain.Claim, error)

	// GetClaim fetches a claim by ID ensuring it belongs to the user.
	GetClaim(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Claim, error)

	// CountClaims returns the total number of claims for pagination.
	CountClaims(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListClaimsPage returns a page of claims belonging to the user.
	ListClaimsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Claim, error)

	// UpdateClaimStatus persists a status move (only if the claim belongs to
	// the user).
	UpdateClaimStatus(ctx context.Context, db *gorm.DB, id, userID string, status domain.ClaimStatus) error

	// UpdateClaimSteps persists the step cursor and completed-step set.
	UpdateClaimSteps(ctx context.Context, db *gorm.DB, id, userID string, currentStep int, stepsCompleted string) error
}

// ReportReader is the narrow view of the audit-report repository the claim
// step gate needs.
type ReportReader interface {
	// ActiveAuditReport returns the claim's non-superseded report, or
	// repo.ErrNotFound when there is none.
	ActiveAuditReport(ctx context.Context, db *gorm.DB, claimID string) (*domain.AuditReport, error)
}

// adjudicationStep is the claim step that walks through the carrier-offer
// adjudication; completing it is gated on the verdict's required artifact.
const adjudicationStep = 5

// maxClaimStep is the last step of the claim flow.
const maxClaimStep = 7

// ClaimService provides claim-level operations: creation, retrieval,
// status transitions, and step advancement.
type ClaimService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the claim repository used by this service.
	Repo ClaimRepo
	// Reports reads the active audit report for the step gate.
	Reports ReportReader
	// Bus receives domain events; nil disables emission.
	Bus *events.Bus
}

// NewClaimService constructs a ClaimService.
func NewClaimService(db *gorm.DB, r ClaimRepo, reports ReportReader, bus *events.Bus) *ClaimService {
	return &ClaimService{DB: db, Repo: r, Reports: reports, Bus: bus}
}

// Create inserts a new draft claim owned by userID.
func (s *ClaimService) Create(ctx context.Context, userID, policyholderEmail string) (*domain.Claim, error) {
	tr := otel.Tracer("services/ClaimService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	c, err := s.Repo.CreateClaim(ctx, s.DB, userID, strings.TrimSpace(policyholderEmail))
	if err != nil {
		return nil, err
	}
	s.Bus.Publish(events.Event{Type: events.ClaimCreated, ClaimID: c.ID})
	return c, nil
}

// Get fetches a claim owned by userID.
func (s *ClaimService) Get(ctx context.Context, userID, claimID string) (*domain.Claim, error) {
	c, err := s.Repo.GetClaim(ctx, s.DB, claimID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListPage returns a page of claims for a user (paginated).
// It applies defaults for invalid page/pageSize and returns total count.
func (s *ClaimService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Claim, int64, error) {
	tr := otel.Tracer("services/ClaimService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountClaims(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Claim{}, 0, nil
	}

	items, err := s.Repo.ListClaimsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Transition applies a status move along the closed transition table. An
// edge not in the table fails with domain.ErrInvalidTransition and leaves
// the claim unchanged.
func (s *ClaimService) Transition(ctx context.Context, userID, claimID string, target domain.ClaimStatus) (*domain.Claim, error) {
	tr := otel.Tracer("services/ClaimService")
	ctx, span := tr.Start(ctx, "Transition",
		trace.WithAttributes(
			attribute.String("claim.id", claimID),
			attribute.String("claim.target_status", string(target)),
		),
	)
	defer span.End()

	c, err := s.Get(ctx, userID, claimID)
	if err != nil {
		return nil, err
	}
	if _, err := domain.ParseClaimStatus(string(target)); err != nil {
		return nil, err
	}
	if !domain.CanTransition(c.Status, target) {
		return nil, domain.ErrInvalidTransition
	}

	if err := s.Repo.UpdateClaimStatus(ctx, s.DB, claimID, userID, target); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}

	from := c.Status
	c.Status = target
	s.Bus.Publish(events.Event{
		Type:    events.ClaimStatusChanged,
		ClaimID: claimID,
		Fields:  map[string]string{"from": string(from), "to": string(target)},
	})
	return c, nil
}

// AdvanceStep marks step n complete and moves the advisory cursor forward.
// The completed-step set is monotonic: already-completed steps stay
// completed. Completing the adjudication step is blocked until the active
// verdict's required artifact exists (see domain.StepCompletionBlocked).
func (s *ClaimService) AdvanceStep(ctx context.Context, userID, claimID string, step int) (*domain.Claim, error) {
	tr := otel.Tracer("services/ClaimService")
	ctx, span := tr.Start(ctx, "AdvanceStep",
		trace.WithAttributes(
			attribute.String("claim.id", claimID),
			attribute.Int("claim.step", step),
		),
	)
	defer span.End()

	if step < 1 || step > maxClaimStep {
		return nil, ErrInvalidStep
	}

	c, err := s.Get(ctx, userID, claimID)
	if err != nil {
		return nil, err
	}

	if step == adjudicationStep && !c.HasStep(adjudicationStep) {
		if err := s.adjudicationStepGate(ctx, claimID); err != nil {
			return nil, err
		}
	}

	c.MarkStep(step)
	if next := step + 1; next > c.CurrentStep {
		if next > maxClaimStep {
			next = maxClaimStep
		}
		c.CurrentStep = next
	}

	if err := s.Repo.UpdateClaimSteps(ctx, s.DB, claimID, userID, c.CurrentStep, c.StepsCompleted); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}

	s.Bus.Publish(events.Event{
		Type:    events.ClaimStepAdvanced,
		ClaimID: claimID,
		Fields:  map[string]string{"step": strconv.Itoa(step)},
	})
	return c, nil
}

// adjudicationStepGate rejects completion of the adjudication step unless a
// verdict exists and its required artifact is in place.
func (s *ClaimService) adjudicationStepGate(ctx context.Context, claimID string) error {
	report, err := s.Reports.ActiveAuditReport(ctx, s.DB, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStepBlocked
		}
		return err
	}
	a := report.VerdictAnalysis()
	if a == nil {
		return ErrStepBlocked
	}
	if domain.StepCompletionBlocked(a.Status, report.HasLetter(), report.HasPitch(), report.PitchSent()) {
		return ErrStepBlocked
	}
	return nil
}
