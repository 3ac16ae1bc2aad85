// Package services – AuditService
//
// This file implements AuditService, the phase controller of the document
// analysis workflow: upload → parse → ready → analyze → verdict →
// letter/pitch generation. The phase itself is never stored; it is derived
// from persisted state (domain.DerivePhase), which is what makes the
// workflow resumable across restarts. Parsing is awaited by polling the
// parsing collaborator on a fixed interval with a bounded attempt budget.
//
// Failure handling follows one rule: an external-call failure reverts the
// workflow to the nearest safe prior phase and never advances it. An upload
// failure, a parse failure, and an exhausted polling budget all land back on
// idle (fresh upload required); an analysis
// failure lands back on ready (the parsed document stays valid); a letter
// failure keeps the verdict.
//
// Concurrency: at most one analysis per claim is in flight. A second analyze
// request while one runs is rejected with ErrAnalysisInFlight, never queued.
package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/goccy/go-json"

	"github.com/tbourn/go-claims-backend/internal/domain"
	"github.com/tbourn/go-claims-backend/internal/events"
	"github.com/tbourn/go-claims-backend/internal/repo"
)

// WorkflowState is the resumable view of a claim's document analysis
// workflow, assembled on every read.
type WorkflowState struct {
	Phase    domain.Phase
	Document *domain.CarrierEstimateDocument
	Report   *domain.AuditReport
	Analysis *domain.VerdictAnalysis
}

// AuditService drives the document analysis workflow for one claim at a
// time.
type AuditService struct {
	DB          *gorm.DB
	Storage     Storage
	Parser      Parser
	Estimator   Estimator
	Adjudicator Adjudicator
	Letters     LetterGenerator
	Bus         *events.Bus

	// PollInterval is the fixed parse-status polling interval (default 3s).
	PollInterval time.Duration
	// PollMaxAttempts bounds the polling budget (default 40).
	PollMaxAttempts int
	// UploadTTL caps presigned upload URL validity.
	UploadTTL time.Duration

	mu        sync.Mutex
	inFlight  map[string]struct{} // claims with an analysis running
	lettering map[string]struct{} // claims with letter/pitch generation running
	uploads   map[string]time.Time // issued upload destinations by claim, value = expiry
}

// NewAuditService constructs an AuditService with polling defaults.
func NewAuditService(db *gorm.DB, st Storage, p Parser, e Estimator, a Adjudicator, l LetterGenerator, bus *events.Bus) *AuditService {
	return &AuditService{
		DB:              db,
		Storage:         st,
		Parser:          p,
		Estimator:       e,
		Adjudicator:     a,
		Letters:         l,
		Bus:             bus,
		PollInterval:    3 * time.Second,
		PollMaxAttempts: 40,
		UploadTTL:       15 * time.Minute,
		inFlight:        make(map[string]struct{}),
		lettering:       make(map[string]struct{}),
		uploads:         make(map[string]time.Time),
	}
}

// claimForUser loads the claim and verifies the adjudication gate.
func (s *AuditService) claimForUser(ctx context.Context, userID, claimID string) (*domain.Claim, error) {
	c, err := repo.GetClaim(ctx, s.DB, claimID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	if !domain.AdjudicationAvailable(c.Status) {
		return nil, ErrAdjudicationUnavailable
	}
	return c, nil
}

// State reconstructs the workflow position from persisted state. Work that
// only exists in this process overrides the derived phase: a running analysis
// reads as analyzing, running letter/pitch generation as letter_generating,
// and an unexpired upload destination with no document yet as uploading.
func (s *AuditService) State(ctx context.Context, userID, claimID string) (*WorkflowState, error) {
	tr := otel.Tracer("services/AuditService")
	ctx, span := tr.Start(ctx, "State",
		trace.WithAttributes(attribute.String("claim.id", claimID)),
	)
	defer span.End()

	if _, err := s.claimForUser(ctx, userID, claimID); err != nil {
		return nil, err
	}

	doc, err := repo.LatestDocument(ctx, s.DB, claimID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	report, err := repo.ActiveAuditReport(ctx, s.DB, claimID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	st := &WorkflowState{
		Phase:    domain.DerivePhase(doc, report),
		Document: doc,
		Report:   report,
		Analysis: report.VerdictAnalysis(),
	}
	if s.analysisRunning(claimID) {
		st.Phase = domain.PhaseAnalyzing
	}
	if s.letterRunning(claimID) {
		st.Phase = domain.PhaseLetterGenerating
	}
	if st.Phase == domain.PhaseIdle && s.uploadIssued(claimID) {
		st.Phase = domain.PhaseUploading
	}
	return st, nil
}

// uploadKey is the deterministic storage key for a document upload, so the
// confirm step can locate the object without persisted request state.
func uploadKey(claimID, documentID, fileName string) string {
	return path.Join("claims", claimID, documentID, fileName)
}

// RequestUpload mints a document identifier and returns a presigned write
// destination. Nothing is persisted until the upload is confirmed; an
// abandoned destination simply expires.
func (s *AuditService) RequestUpload(ctx context.Context, userID, claimID, fileName, contentType string) (*UploadDestination, error) {
	tr := otel.Tracer("services/AuditService")
	ctx, span := tr.Start(ctx, "RequestUpload",
		trace.WithAttributes(attribute.String("claim.id", claimID)),
	)
	defer span.End()

	if _, err := s.claimForUser(ctx, userID, claimID); err != nil {
		return nil, err
	}
	if fileName == "" || path.Base(fileName) != fileName {
		return nil, fmt.Errorf("invalid file name %q", fileName)
	}

	documentID := uuid.NewString()
	key := uploadKey(claimID, documentID, fileName)

	url, expires, err := s.Storage.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: presign upload: %v", ErrUpstream, err)
	}

	s.markUploadIssued(claimID, expires)
	s.Bus.Publish(events.Event{
		Type:    events.DocumentUploadRequested,
		ClaimID: claimID,
		Fields:  map[string]string{"document_id": documentID},
	})
	return &UploadDestination{
		DocumentID: documentID,
		StorageKey: key,
		UploadURL:  url,
		ExpiresAt:  expires,
	}, nil
}

// ConfirmUpload records the uploaded document, starts a new adjudication
// cycle (archiving any prior report), triggers parsing, and awaits the parse
// outcome. On success the returned document is in completed status with its
// parsed line items; on parse failure the workflow is back on idle.
func (s *AuditService) ConfirmUpload(ctx context.Context, userID, claimID, documentID, fileName, contentType string) (*domain.CarrierEstimateDocument, error) {
	tr := otel.Tracer("services/AuditService")
	ctx, span := tr.Start(ctx, "ConfirmUpload",
		trace.WithAttributes(
			attribute.String("claim.id", claimID),
			attribute.String("document.id", documentID),
		),
	)
	defer span.End()

	if _, err := s.claimForUser(ctx, userID, claimID); err != nil {
		return nil, err
	}
	if fileName == "" || path.Base(fileName) != fileName {
		return nil, fmt.Errorf("invalid file name %q", fileName)
	}

	// Whatever the outcome, a confirm attempt ends the uploading phase; a
	// failure lands the workflow back on idle.
	defer s.clearUploadIssued(claimID)

	// Confirm is retryable but never re-parses a recorded document: a
	// completed one is returned as-is, anything else needs a fresh upload.
	if existing, err := repo.GetDocument(ctx, s.DB, documentID, claimID); err == nil {
		if existing.ParseStatus == domain.ParseCompleted {
			return existing, nil
		}
		return nil, ErrParseFailed
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	key := uploadKey(claimID, documentID, fileName)
	exists, err := s.Storage.ObjectExists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: verify upload: %v", ErrUpstream, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: uploaded object not found", ErrUpstream)
	}

	// A new upload over a finished verdict starts a fresh adjudication cycle;
	// the prior report is archived, never deleted.
	superseded, err := repo.SupersedeAuditReports(ctx, s.DB, claimID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if superseded > 0 {
		s.Bus.Publish(events.Event{Type: events.ReportSuperseded, ClaimID: claimID})
	}

	doc := &domain.CarrierEstimateDocument{
		ID:          documentID,
		ClaimID:     claimID,
		StorageKey:  key,
		FileName:    fileName,
		ContentType: contentType,
		ParseStatus: domain.ParsePending,
	}
	if err := repo.CreateDocument(ctx, s.DB, doc); err != nil {
		return nil, err
	}
	s.Bus.Publish(events.Event{
		Type:    events.DocumentUploaded,
		ClaimID: claimID,
		Fields:  map[string]string{"document_id": documentID},
	})

	if err := s.Parser.StartParse(ctx, documentID, key); err != nil {
		_ = repo.UpdateDocumentParse(ctx, s.DB, documentID, domain.ParseFailed, "")
		return nil, fmt.Errorf("%w: start parse: %v", ErrUpstream, err)
	}

	return s.awaitParse(ctx, doc)
}

// awaitParse polls the parsing collaborator on the fixed interval until the
// document reaches a terminal parse status or the attempt budget runs out.
// A transport failure during polling and an exhausted budget are both
// treated exactly like an explicit parse failure: the document is marked
// failed and the workflow lands back on idle.
func (s *AuditService) awaitParse(ctx context.Context, doc *domain.CarrierEstimateDocument) (*domain.CarrierEstimateDocument, error) {
	interval := s.PollInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	attempts := s.PollMaxAttempts
	if attempts <= 0 {
		attempts = 40
	}

	for i := 0; i < attempts; i++ {
		state, err := s.Parser.GetParseStatus(ctx, doc.ID)
		if err != nil {
			_ = repo.UpdateDocumentParse(ctx, s.DB, doc.ID, domain.ParseFailed, "")
			return nil, fmt.Errorf("%w: parse status: %v", ErrUpstream, err)
		}

		switch state.Status {
		case domain.ParseCompleted:
			items, err := json.Marshal(state.LineItems)
			if err != nil {
				return nil, err
			}
			if err := repo.UpdateDocumentParse(ctx, s.DB, doc.ID, domain.ParseCompleted, string(items)); err != nil {
				return nil, err
			}
			doc.ParseStatus = domain.ParseCompleted
			doc.LineItems = string(items)
			s.Bus.Publish(events.Event{
				Type:    events.DocumentParsed,
				ClaimID: doc.ClaimID,
				Fields:  map[string]string{"document_id": doc.ID, "outcome": "completed"},
			})
			return doc, nil

		case domain.ParseFailed:
			if err := repo.UpdateDocumentParse(ctx, s.DB, doc.ID, domain.ParseFailed, ""); err != nil {
				return nil, err
			}
			doc.ParseStatus = domain.ParseFailed
			s.Bus.Publish(events.Event{
				Type:    events.DocumentParsed,
				ClaimID: doc.ClaimID,
				Fields:  map[string]string{"document_id": doc.ID, "outcome": "failed"},
			})
			return nil, ErrParseFailed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	// Budget exhausted. Nothing is polling anymore, so the document must not
	// stay pending: mark it failed and require a fresh upload.
	if err := repo.UpdateDocumentParse(ctx, s.DB, doc.ID, domain.ParseFailed, ""); err != nil {
		return nil, err
	}
	doc.ParseStatus = domain.ParseFailed
	s.Bus.Publish(events.Event{
		Type:    events.DocumentParsed,
		ClaimID: doc.ClaimID,
		Fields:  map[string]string{"document_id": doc.ID, "outcome": "timeout"},
	})
	return nil, ErrParseTimeout
}

// analysisRunning reports whether an analysis is in flight for the claim.
func (s *AuditService) analysisRunning(claimID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[claimID]
	return ok
}

// beginAnalysis claims the single analysis slot for claimID.
func (s *AuditService) beginAnalysis(claimID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight == nil {
		s.inFlight = make(map[string]struct{})
	}
	if _, ok := s.inFlight[claimID]; ok {
		return false
	}
	s.inFlight[claimID] = struct{}{}
	return true
}

func (s *AuditService) endAnalysis(claimID string) {
	s.mu.Lock()
	delete(s.inFlight, claimID)
	s.mu.Unlock()
}

// letterRunning reports whether letter or pitch generation is in flight for
// the claim, making letter_generating an observable transient phase.
func (s *AuditService) letterRunning(claimID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lettering[claimID]
	return ok
}

func (s *AuditService) beginLettering(claimID string) {
	s.mu.Lock()
	if s.lettering == nil {
		s.lettering = make(map[string]struct{})
	}
	s.lettering[claimID] = struct{}{}
	s.mu.Unlock()
}

func (s *AuditService) endLettering(claimID string) {
	s.mu.Lock()
	delete(s.lettering, claimID)
	s.mu.Unlock()
}

// markUploadIssued records an issued destination so the workflow reads as
// uploading until the destination is confirmed or expires.
func (s *AuditService) markUploadIssued(claimID string, expires time.Time) {
	s.mu.Lock()
	if s.uploads == nil {
		s.uploads = make(map[string]time.Time)
	}
	s.uploads[claimID] = expires
	s.mu.Unlock()
}

func (s *AuditService) clearUploadIssued(claimID string) {
	s.mu.Lock()
	delete(s.uploads, claimID)
	s.mu.Unlock()
}

func (s *AuditService) uploadIssued(claimID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.uploads[claimID]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(s.uploads, claimID)
		return false
	}
	return true
}

// Analyze runs the two-step adjudication: first the contractor-side industry
// estimate, then the comparison against the parsed carrier document using
// the estimate's identifier. The result is persisted as the claim's active
// audit report. A failure in either step leaves the workflow on ready.
//
// Analyze is a no-op when a verdict already exists: the persisted report is
// returned unchanged, and a new cycle requires a fresh upload.
func (s *AuditService) Analyze(ctx context.Context, userID, claimID string) (*domain.AuditReport, error) {
	tr := otel.Tracer("services/AuditService")
	ctx, span := tr.Start(ctx, "Analyze",
		trace.WithAttributes(attribute.String("claim.id", claimID)),
	)
	defer span.End()

	if _, err := s.claimForUser(ctx, userID, claimID); err != nil {
		return nil, err
	}

	if !s.beginAnalysis(claimID) {
		return nil, ErrAnalysisInFlight
	}
	defer s.endAnalysis(claimID)

	// Resume: a durable verdict is never recomputed.
	if existing, err := repo.ActiveAuditReport(ctx, s.DB, claimID); err == nil {
		if existing.VerdictAnalysis() != nil {
			return existing, nil
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	doc, err := repo.LatestDocument(ctx, s.DB, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotReady
		}
		return nil, err
	}
	if doc.ParseStatus != domain.ParseCompleted {
		return nil, ErrDocumentNotReady
	}

	estimate, err := s.Estimator.GenerateIndustryEstimate(ctx, claimID)
	if err != nil {
		return nil, fmt.Errorf("%w: generate estimate: %v", ErrUpstream, err)
	}

	analysis, err := s.Adjudicator.RunAnalysis(ctx, claimID, estimate.ReportID)
	if err != nil {
		return nil, fmt.Errorf("%w: run analysis: %v", ErrUpstream, err)
	}
	if err := analysis.Validate(); err != nil {
		return nil, err
	}

	generated, err := json.Marshal(estimate)
	if err != nil {
		return nil, err
	}
	comparison, err := json.Marshal(map[string]any{
		"carrier_line_items": doc.ParsedLineItems(),
		"contractor_total":   estimate.Total,
		"carrier_total":      analysis.TotalCarrierEstimate,
		"delta":              analysis.TotalDelta,
	})
	if err != nil {
		return nil, err
	}

	report := &domain.AuditReport{
		ID:                estimate.ReportID,
		ClaimID:           claimID,
		DocumentID:        doc.ID,
		GeneratedEstimate: string(generated),
		ComparisonData:    string(comparison),
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if err := report.SetVerdictAnalysis(analysis); err != nil {
		return nil, err
	}
	if err := repo.CreateAuditReport(ctx, s.DB, report); err != nil {
		return nil, err
	}

	s.Bus.Publish(events.Event{
		Type:    events.AnalysisPersisted,
		ClaimID: claimID,
		Fields:  map[string]string{"report_id": report.ID, "verdict": string(analysis.Status)},
	})
	return report, nil
}

// activeReportWithVerdict loads the claim's active report and its decoded
// analysis, failing with ErrNoVerdict when either is missing.
func (s *AuditService) activeReportWithVerdict(ctx context.Context, claimID string) (*domain.AuditReport, *domain.VerdictAnalysis, error) {
	report, err := repo.ActiveAuditReport(ctx, s.DB, claimID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNoVerdict
		}
		return nil, nil, err
	}
	analysis := report.VerdictAnalysis()
	if analysis == nil {
		return nil, nil, ErrNoVerdict
	}
	return report, analysis, nil
}

// GenerateLetter produces the dispute letter for a DISPUTE_OFFER verdict and
// persists it on the report. A generation failure keeps the verdict intact.
func (s *AuditService) GenerateLetter(ctx context.Context, userID, claimID string) (*domain.AuditReport, error) {
	tr := otel.Tracer("services/AuditService")
	ctx, span := tr.Start(ctx, "GenerateLetter",
		trace.WithAttributes(attribute.String("claim.id", claimID)),
	)
	defer span.End()

	if _, err := s.claimForUser(ctx, userID, claimID); err != nil {
		return nil, err
	}
	report, analysis, err := s.activeReportWithVerdict(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !analysis.Status.OffersDisputeLetter() {
		return nil, ErrLetterNotOffered
	}
	if report.HasLetter() {
		return report, nil
	}

	s.beginLettering(claimID)
	defer s.endLettering(claimID)

	text, err := s.Letters.GenerateDisputeLetter(ctx, claimID, report.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: generate dispute letter: %v", ErrUpstream, err)
	}
	report.DisputeLetter = &text
	if err := repo.SaveAuditReport(ctx, s.DB, report); err != nil {
		return nil, err
	}

	s.Bus.Publish(events.Event{
		Type:    events.DisputeLetterReady,
		ClaimID: claimID,
		Fields:  map[string]string{"report_id": report.ID},
	})
	return report, nil
}

// GeneratePitch produces the owner escalation pitch for a LEGAL_REVIEW
// verdict and persists it on the report.
func (s *AuditService) GeneratePitch(ctx context.Context, userID, claimID string) (*domain.AuditReport, error) {
	tr := otel.Tracer("services/AuditService")
	ctx, span := tr.Start(ctx, "GeneratePitch",
		trace.WithAttributes(attribute.String("claim.id", claimID)),
	)
	defer span.End()

	if _, err := s.claimForUser(ctx, userID, claimID); err != nil {
		return nil, err
	}
	report, analysis, err := s.activeReportWithVerdict(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !analysis.Status.OffersOwnerPitch() {
		return nil, ErrPitchNotOffered
	}
	if report.HasPitch() {
		return report, nil
	}

	s.beginLettering(claimID)
	defer s.endLettering(claimID)

	text, err := s.Letters.GenerateOwnerPitch(ctx, claimID, report.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: generate owner pitch: %v", ErrUpstream, err)
	}
	report.OwnerPitch = &text
	if err := repo.SaveAuditReport(ctx, s.DB, report); err != nil {
		return nil, err
	}

	s.Bus.Publish(events.Event{
		Type:    events.OwnerPitchReady,
		ClaimID: claimID,
		Fields:  map[string]string{"report_id": report.ID},
	})
	return report, nil
}

// AcknowledgePitchSent records the manual, non-revocable confirmation that
// the owner pitch was sent. It is only legal after the pitch exists;
// repeating the acknowledgment is a no-op.
func (s *AuditService) AcknowledgePitchSent(ctx context.Context, userID, claimID string) (*domain.AuditReport, error) {
	tr := otel.Tracer("services/AuditService")
	ctx, span := tr.Start(ctx, "AcknowledgePitchSent",
		trace.WithAttributes(attribute.String("claim.id", claimID)),
	)
	defer span.End()

	if _, err := s.claimForUser(ctx, userID, claimID); err != nil {
		return nil, err
	}
	report, _, err := s.activeReportWithVerdict(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !report.HasPitch() {
		return nil, ErrPitchNotGenerated
	}
	if report.PitchSent() {
		return report, nil
	}

	now := time.Now().UTC()
	report.PitchSentAt = &now
	if err := repo.SaveAuditReport(ctx, s.DB, report); err != nil {
		return nil, err
	}

	s.Bus.Publish(events.Event{
		Type:    events.OwnerPitchSent,
		ClaimID: claimID,
		Fields:  map[string]string{"report_id": report.ID},
	})
	return report, nil
}

// Reset returns a NEED_DOCS workflow to idle for a fresh upload: the active
// report is archived and the deficient document is retired. It is the only
// legal action for that verdict and is unavailable for any other.
func (s *AuditService) Reset(ctx context.Context, userID, claimID string) error {
	tr := otel.Tracer("services/AuditService")
	ctx, span := tr.Start(ctx, "Reset",
		trace.WithAttributes(attribute.String("claim.id", claimID)),
	)
	defer span.End()

	if _, err := s.claimForUser(ctx, userID, claimID); err != nil {
		return err
	}
	report, analysis, err := s.activeReportWithVerdict(ctx, claimID)
	if err != nil {
		return err
	}
	if !analysis.Status.RequiresReupload() {
		return ErrResetNotAllowed
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.SupersedeAuditReports(ctx, tx, claimID, time.Now().UTC()); err != nil {
			return err
		}
		if err := repo.SoftDeleteDocument(ctx, tx, report.DocumentID, claimID); err != nil &&
			!errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Bus.Publish(events.Event{Type: events.WorkflowReset, ClaimID: claimID})
	return nil
}
