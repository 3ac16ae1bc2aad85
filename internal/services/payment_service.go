// Package services – PaymentService
//
// This file implements PaymentService, the reconciliation ledger for
// expected-vs-received ACV/RCV payments. Records only move along
// expected → received → reconciled, or received → disputed; both terminal
// moves are enforced by conditional updates in the repository, so an illegal
// move never partially mutates a record. The derived PaymentSummary is
// recomputed on every read and feeds demand-letter eligibility.
//
// Observability: public methods are OpenTelemetry-instrumented; mutations
// emit events on the configured bus.
package services

import (
	"context"
	"errors"
	"strings"
	"text/template"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tbourn/go-claims-backend/internal/domain"
	"github.com/tbourn/go-claims-backend/internal/events"
	"github.com/tbourn/go-claims-backend/internal/repo"
)

// PaymentService coordinates the payment ledger and demand letters.
type PaymentService struct {
	DB  *gorm.DB
	Bus *events.Bus
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(db *gorm.DB, bus *events.Bus) *PaymentService {
	return &PaymentService{DB: db, Bus: bus}
}

// claimForUser loads the claim and verifies the payments gate.
func (s *PaymentService) claimForUser(ctx context.Context, userID, claimID string) (*domain.Claim, error) {
	c, err := repo.GetClaim(ctx, s.DB, claimID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	if !domain.PaymentsAvailable(c.Status) {
		return nil, ErrPaymentsUnavailable
	}
	return c, nil
}

// paymentForUser loads a payment record and verifies the owning claim
// belongs to the user.
func (s *PaymentService) paymentForUser(ctx context.Context, userID, paymentID string) (*domain.PaymentRecord, *domain.Claim, error) {
	p, err := repo.GetPayment(ctx, s.DB, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPaymentNotFound
		}
		return nil, nil, err
	}
	c, err := s.claimForUser(ctx, userID, p.ClaimID)
	if err != nil {
		return nil, nil, err
	}
	return p, c, nil
}

// CreateExpected adds an expected payment of the given type to the claim's
// ledger.
func (s *PaymentService) CreateExpected(ctx context.Context, userID, claimID string, pt domain.PaymentType, expectedAmount *float64) (*domain.PaymentRecord, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "CreateExpected",
		trace.WithAttributes(
			attribute.String("claim.id", claimID),
			attribute.String("payment.type", string(pt)),
		),
	)
	defer span.End()

	if _, err := domain.ParsePaymentType(string(pt)); err != nil {
		return nil, err
	}
	if expectedAmount != nil && *expectedAmount <= 0 {
		return nil, ErrAmountNotPositive
	}
	if _, err := s.claimForUser(ctx, userID, claimID); err != nil {
		return nil, err
	}

	p, err := repo.CreatePayment(ctx, s.DB, claimID, pt, expectedAmount)
	if err != nil {
		return nil, err
	}
	s.Bus.Publish(events.Event{
		Type:    events.PaymentExpected,
		ClaimID: claimID,
		Fields:  map[string]string{"payment_id": p.ID, "type": string(pt)},
	})
	return p, nil
}

// RecordReceived moves an expected payment to received with the actual
// amount and receipt date. Illegal on any other status.
func (s *PaymentService) RecordReceived(ctx context.Context, userID, paymentID string, amount float64, receivedDate time.Time) (*domain.PaymentRecord, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "RecordReceived",
		trace.WithAttributes(attribute.String("payment.id", paymentID)),
	)
	defer span.End()

	if amount <= 0 {
		return nil, ErrAmountNotPositive
	}
	if receivedDate.IsZero() {
		receivedDate = time.Now().UTC()
	}
	p, _, err := s.paymentForUser(ctx, userID, paymentID)
	if err != nil {
		return nil, err
	}

	if err := repo.MarkPaymentReceived(ctx, s.DB, paymentID, amount, receivedDate); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentTransition
		}
		return nil, err
	}
	p.Status = domain.PaymentReceived
	p.Amount = amount
	p.ReceivedDate = &receivedDate

	s.Bus.Publish(events.Event{
		Type:    events.PaymentRecorded,
		ClaimID: p.ClaimID,
		Fields:  map[string]string{"payment_id": p.ID, "type": string(p.PaymentType)},
	})
	return p, nil
}

// Reconcile moves a received payment to the terminal reconciled status.
func (s *PaymentService) Reconcile(ctx context.Context, userID, paymentID string) (*domain.PaymentRecord, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "Reconcile",
		trace.WithAttributes(attribute.String("payment.id", paymentID)),
	)
	defer span.End()

	p, _, err := s.paymentForUser(ctx, userID, paymentID)
	if err != nil {
		return nil, err
	}
	if err := repo.MarkPaymentReconciled(ctx, s.DB, paymentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentTransition
		}
		return nil, err
	}
	p.Status = domain.PaymentReconciled

	s.Bus.Publish(events.Event{
		Type:    events.PaymentReconciled,
		ClaimID: p.ClaimID,
		Fields:  map[string]string{"payment_id": p.ID},
	})
	return p, nil
}

// Dispute moves a received payment to the terminal disputed status with a
// required reason.
func (s *PaymentService) Dispute(ctx context.Context, userID, paymentID, reason string) (*domain.PaymentRecord, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "Dispute",
		trace.WithAttributes(attribute.String("payment.id", paymentID)),
	)
	defer span.End()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyDisputeReason
	}
	p, _, err := s.paymentForUser(ctx, userID, paymentID)
	if err != nil {
		return nil, err
	}
	if err := repo.MarkPaymentDisputed(ctx, s.DB, paymentID, reason); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentTransition
		}
		return nil, err
	}
	p.Status = domain.PaymentDisputed
	p.DisputeReason = &reason

	s.Bus.Publish(events.Event{
		Type:    events.PaymentDisputed,
		ClaimID: p.ClaimID,
		Fields:  map[string]string{"payment_id": p.ID},
	})
	return p, nil
}

// List returns the claim's ledger in creation order.
func (s *PaymentService) List(ctx context.Context, userID, claimID string) ([]domain.PaymentRecord, error) {
	if _, err := s.claimForUser(ctx, userID, claimID); err != nil {
		return nil, err
	}
	return repo.ListPayments(ctx, s.DB, claimID)
}

// Summarize recomputes the derived payment summary for a claim. It is pure
// over the ledger: two calls with no intervening mutation yield identical
// results.
func (s *PaymentService) Summarize(ctx context.Context, userID, claimID string) (domain.PaymentSummary, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "Summarize",
		trace.WithAttributes(attribute.String("claim.id", claimID)),
	)
	defer span.End()

	if _, err := s.claimForUser(ctx, userID, claimID); err != nil {
		return domain.PaymentSummary{}, err
	}
	records, err := repo.ListPayments(ctx, s.DB, claimID)
	if err != nil {
		return domain.PaymentSummary{}, err
	}
	return SummarizeRecords(records), nil
}

// SummarizeRecords aggregates ledger records into a PaymentSummary.
// Disputed amounts are contested and excluded from the received totals;
// fullyReconciled is true iff every record is reconciled, which makes an
// empty ledger vacuously reconciled.
func SummarizeRecords(records []domain.PaymentRecord) domain.PaymentSummary {
	var sum domain.PaymentSummary
	sum.FullyReconciled = true

	for _, r := range records {
		if r.ExpectedAmount != nil {
			switch r.PaymentType {
			case domain.PaymentACV:
				sum.ExpectedACV += *r.ExpectedAmount
			case domain.PaymentRCV:
				sum.ExpectedRCV += *r.ExpectedAmount
			}
		}
		if r.Status == domain.PaymentReceived || r.Status == domain.PaymentReconciled {
			switch r.PaymentType {
			case domain.PaymentACV:
				sum.TotalACVReceived += r.Amount
			case domain.PaymentRCV:
				sum.TotalRCVReceived += r.Amount
			}
		}
		if r.Status != domain.PaymentReconciled {
			sum.FullyReconciled = false
		}
		if r.Status == domain.PaymentDisputed {
			sum.HasDisputes = true
		}
	}

	sum.ACVDelta = sum.TotalACVReceived - sum.ExpectedACV
	sum.RCVDelta = sum.TotalRCVReceived - sum.ExpectedRCV
	return sum
}

// demandLetterTmpl renders the demand body from the frozen monetary
// snapshot. Amounts arrive pre-formatted.
var demandLetterTmpl = template.Must(template.New("demand").Parse(
	`To whom it may concern,

This letter is a formal demand for release of the recoverable depreciation
withheld on claim {{.ClaimID}}.

The actual cash value payment of {{.ACVReceived}} has been received and the
insured repairs are complete. Of the {{.RCVExpected}} recoverable cost value
owed under the policy, {{.RCVOutstanding}} remains outstanding.

Please remit the outstanding balance within 30 days of the date of this
letter.

Sincerely,
{{.Policyholder}}`))

// GenerateDemandLetter checks eligibility (strictly positive RCV gap and
// some ACV already received), renders the letter body, and persists it with
// monetary snapshot fields frozen at generation time.
func (s *PaymentService) GenerateDemandLetter(ctx context.Context, userID, claimID string) (*domain.RCVDemandLetter, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "GenerateDemandLetter",
		trace.WithAttributes(attribute.String("claim.id", claimID)),
	)
	defer span.End()

	claim, err := s.claimForUser(ctx, userID, claimID)
	if err != nil {
		return nil, err
	}
	records, err := repo.ListPayments(ctx, s.DB, claimID)
	if err != nil {
		return nil, err
	}
	sum := SummarizeRecords(records)
	if !sum.DemandLetterEligible() {
		return nil, ErrNotEligible
	}

	p := message.NewPrinter(language.AmericanEnglish)
	usd := func(v float64) string { return p.Sprintf("$%.2f", v) }

	var body strings.Builder
	err = demandLetterTmpl.Execute(&body, map[string]string{
		"ClaimID":        claimID,
		"ACVReceived":    usd(sum.TotalACVReceived),
		"RCVExpected":    usd(sum.ExpectedRCV),
		"RCVOutstanding": usd(sum.RCVOutstanding()),
		"Policyholder":   claim.PolicyholderEmail,
	})
	if err != nil {
		return nil, err
	}

	letter := &domain.RCVDemandLetter{
		ClaimID:        claimID,
		ACVReceived:    sum.TotalACVReceived,
		RCVExpected:    sum.ExpectedRCV,
		RCVOutstanding: sum.RCVOutstanding(),
		Body:           body.String(),
	}
	if err := repo.CreateDemandLetter(ctx, s.DB, letter); err != nil {
		return nil, err
	}

	s.Bus.Publish(events.Event{
		Type:    events.DemandLetterCreated,
		ClaimID: claimID,
		Fields:  map[string]string{"letter_id": letter.ID},
	})
	return letter, nil
}

// ListDemandLetters returns the claim's demand letters, newest first.
func (s *PaymentService) ListDemandLetters(ctx context.Context, userID, claimID string) ([]domain.RCVDemandLetter, error) {
	if _, err := s.claimForUser(ctx, userID, claimID); err != nil {
		return nil, err
	}
	return repo.ListDemandLetters(ctx, s.DB, claimID)
}

// MarkDemandLetterSent stamps the letter as sent exactly once. When email is
// empty the claim's policyholder email is used; with neither present the
// send is rejected.
func (s *PaymentService) MarkDemandLetterSent(ctx context.Context, userID, letterID, email string) (*domain.RCVDemandLetter, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "MarkDemandLetterSent",
		trace.WithAttributes(attribute.String("letter.id", letterID)),
	)
	defer span.End()

	letter, err := repo.GetDemandLetter(ctx, s.DB, letterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLetterNotFound
		}
		return nil, err
	}
	claim, err := s.claimForUser(ctx, userID, letter.ClaimID)
	if err != nil {
		return nil, err
	}
	if letter.Sent() {
		return nil, ErrAlreadySent
	}

	email = strings.TrimSpace(email)
	if email == "" {
		email = strings.TrimSpace(claim.PolicyholderEmail)
	}
	if email == "" {
		return nil, ErrNoRecipient
	}

	at := time.Now().UTC()
	if err := repo.MarkDemandLetterSent(ctx, s.DB, letterID, email, at); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlreadySent
		}
		return nil, err
	}
	letter.SentAt = &at
	letter.SentToEmail = &email

	s.Bus.Publish(events.Event{
		Type:    events.DemandLetterSent,
		ClaimID: letter.ClaimID,
		Fields:  map[string]string{"letter_id": letter.ID},
	})
	return letter, nil
}
