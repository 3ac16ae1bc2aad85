// Package domain defines the persistence models for claims, carrier estimate
// documents, audit reports, payment records, and demand letters. These types
// are mapped with GORM and form the core data layer of the settlement engine.
package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

// Claim represents a property-insurance claim moving through the settlement
// lifecycle. The status column is authoritative for which subsystems are
// reachable; steps_completed and current_step are advisory progress markers
// maintained by the step-advance workflow.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the claim owner; indexed for retrieval.
//   - Status: current lifecycle status (see status.go transition table).
//   - StepsCompleted: CSV of completed step numbers (1..7); grows, never shrinks.
//   - CurrentStep: UI cursor hint; not authoritative for permissions.
//   - PolicyholderEmail: contact used when marking demand letters sent.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Claim struct {
	ID                string         `json:"id"                 gorm:"type:char(36);primaryKey"`
	UserID            string         `json:"user_id"            gorm:"type:varchar(64);not null;index:idx_user_claims"`
	Status            ClaimStatus    `json:"status"             gorm:"type:varchar(24);not null;default:'draft'"`
	StepsCompleted    string         `json:"-"                  gorm:"type:varchar(32);not null;default:''"`
	CurrentStep       int            `json:"current_step"       gorm:"not null;default:1"`
	PolicyholderEmail string         `json:"policyholder_email" gorm:"type:varchar(255)"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-"                  gorm:"index"`
}

// TableName returns the database table name for Claim.
func (Claim) TableName() string { return "claims" }

// Steps decodes the steps_completed CSV into an insertion-ordered slice.
func (c *Claim) Steps() []int {
	if c.StepsCompleted == "" {
		return nil
	}
	parts := strings.Split(c.StepsCompleted, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// MarkStep records step n as completed. The set is monotonic: marking an
// already-completed step is a no-op and steps are never removed.
func (c *Claim) MarkStep(n int) {
	if c.HasStep(n) {
		return
	}
	if c.StepsCompleted == "" {
		c.StepsCompleted = strconv.Itoa(n)
		return
	}
	c.StepsCompleted += "," + strconv.Itoa(n)
}

// HasStep reports whether step n is in the completed set.
func (c *Claim) HasStep(n int) bool {
	for _, s := range c.Steps() {
		if s == n {
			return true
		}
	}
	return false
}

// EstimateLineItem is one priced line of a parsed or generated estimate.
type EstimateLineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitCost    float64 `json:"unit_cost"`
	Total       float64 `json:"total"`
	Category    string  `json:"category"`
}

// CarrierEstimateDocument is one uploaded carrier settlement-offer file.
// A row is created when the upload is confirmed; the external parsing
// collaborator then drives parse_status to a terminal value, after which the
// row is immutable.
//
// Fields:
//   - ID: UUID primary key, also the document id handed to collaborators.
//   - ClaimID: owning claim (indexed).
//   - StorageKey: object key in the storage collaborator.
//   - FileName / ContentType: client-supplied file metadata.
//   - ParseStatus: pending | processing | completed | failed.
//   - LineItems: serialized parsed estimate, set only when parsing completes.
type CarrierEstimateDocument struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	ClaimID     string         `json:"claim_id"     gorm:"type:char(36);not null;index:idx_claim_docs"`
	StorageKey  string         `json:"-"            gorm:"type:varchar(512);not null"`
	FileName    string         `json:"file_name"    gorm:"type:varchar(255);not null"`
	ContentType string         `json:"content_type" gorm:"type:varchar(128)"`
	ParseStatus ParseStatus    `json:"parse_status" gorm:"type:varchar(16);not null;default:'pending'"`
	LineItems   string         `json:"-"            gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`

	Claim Claim `json:"-" gorm:"foreignKey:ClaimID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for CarrierEstimateDocument.
func (CarrierEstimateDocument) TableName() string { return "carrier_estimate_documents" }

// ParsedLineItems decodes the serialized estimate. A malformed or empty blob
// yields nil, never an error: corrupt persisted state reads as absent.
func (d *CarrierEstimateDocument) ParsedLineItems() []EstimateLineItem {
	if d.LineItems == "" {
		return nil
	}
	var items []EstimateLineItem
	if err := json.Unmarshal([]byte(d.LineItems), &items); err != nil {
		return nil
	}
	return items
}

// SetLineItems serializes the parsed estimate onto the row.
func (d *CarrierEstimateDocument) SetLineItems(items []EstimateLineItem) error {
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	d.LineItems = string(b)
	return nil
}

// AuditReport is the durable adjudication record for a claim: the generated
// contractor-side estimate, the carrier comparison, the persisted verdict
// analysis, and any follow-up artifacts. It is what makes the document
// analysis workflow resumable: a report with a non-empty analysis puts the
// workflow straight into the verdict phase on load.
//
// At most one report per claim is active (superseded_at IS NULL); starting a
// new adjudication cycle archives the prior report instead of deleting it.
type AuditReport struct {
	ID                string         `json:"id"          gorm:"type:char(36);primaryKey"`
	ClaimID           string         `json:"claim_id"    gorm:"type:char(36);not null;index:idx_claim_reports"`
	DocumentID        string         `json:"document_id" gorm:"type:char(36);not null"`
	GeneratedEstimate string         `json:"-"           gorm:"type:text"`
	ComparisonData    string         `json:"-"           gorm:"type:text"`
	Analysis          string         `json:"-"           gorm:"type:text"`
	DisputeLetter     *string        `json:"dispute_letter,omitempty" gorm:"type:text"`
	OwnerPitch        *string        `json:"owner_pitch,omitempty"    gorm:"type:text"`
	PitchSentAt       *time.Time     `json:"pitch_sent_at,omitempty"`
	SupersededAt      *time.Time     `json:"superseded_at,omitempty"  gorm:"index"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`

	Claim Claim `json:"-" gorm:"foreignKey:ClaimID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for AuditReport.
func (AuditReport) TableName() string { return "audit_reports" }

// VerdictAnalysis decodes the persisted analysis blob. A malformed blob, or
// one carrying an unknown verdict status, decodes to nil: corrupt persisted
// state is treated as absence of the analysis, not a crash.
func (r *AuditReport) VerdictAnalysis() *VerdictAnalysis {
	if r == nil || r.Analysis == "" {
		return nil
	}
	var a VerdictAnalysis
	if err := json.Unmarshal([]byte(r.Analysis), &a); err != nil {
		return nil
	}
	if a.Validate() != nil {
		return nil
	}
	return &a
}

// SetVerdictAnalysis serializes the analysis onto the report after validating
// its verdict status against the closed set.
func (r *AuditReport) SetVerdictAnalysis(a *VerdictAnalysis) error {
	if err := a.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	r.Analysis = string(b)
	return nil
}

// HasLetter reports whether a dispute letter has been generated.
func (r *AuditReport) HasLetter() bool {
	return r != nil && r.DisputeLetter != nil && *r.DisputeLetter != ""
}

// HasPitch reports whether an owner escalation pitch has been generated.
func (r *AuditReport) HasPitch() bool {
	return r != nil && r.OwnerPitch != nil && *r.OwnerPitch != ""
}

// PitchSent reports whether the pitch was acknowledged as sent.
func (r *AuditReport) PitchSent() bool {
	return r != nil && r.PitchSentAt != nil
}

// PaymentRecord is one expected or received payment on a claim's ledger.
// Rows are never deleted; the status column is the per-record reconciliation
// state (see PaymentStatus). Amount stays 0 until the payment is recorded.
type PaymentRecord struct {
	ID             string         `json:"id"              gorm:"type:char(36);primaryKey"`
	ClaimID        string         `json:"claim_id"        gorm:"type:char(36);not null;index:idx_claim_payments"`
	PaymentType    PaymentType    `json:"payment_type"    gorm:"type:varchar(8);not null;check:payment_type IN ('ACV','RCV')"`
	Status         PaymentStatus  `json:"status"          gorm:"type:varchar(16);not null;default:'expected'"`
	ExpectedAmount *float64       `json:"expected_amount,omitempty"`
	Amount         float64        `json:"amount"          gorm:"not null;default:0"`
	ReceivedDate   *time.Time     `json:"received_date,omitempty"`
	DisputeReason  *string        `json:"dispute_reason,omitempty" gorm:"type:text"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	Claim Claim `json:"-" gorm:"foreignKey:ClaimID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for PaymentRecord.
func (PaymentRecord) TableName() string { return "payment_records" }

// PaymentSummary aggregates a claim's payment records. It is derived on
// every read and never persisted.
type PaymentSummary struct {
	ExpectedACV      float64 `json:"expected_acv"`
	ExpectedRCV      float64 `json:"expected_rcv"`
	TotalACVReceived float64 `json:"total_acv_received"`
	TotalRCVReceived float64 `json:"total_rcv_received"`
	ACVDelta         float64 `json:"acv_delta"`
	RCVDelta         float64 `json:"rcv_delta"`
	FullyReconciled  bool    `json:"fully_reconciled"`
	HasDisputes      bool    `json:"has_disputes"`
}

// RCVOutstanding is the unpaid RCV balance consumed by demand-letter
// eligibility checks.
func (s PaymentSummary) RCVOutstanding() float64 {
	return s.ExpectedRCV - s.TotalRCVReceived
}

// DemandLetterEligible reports whether demand-letter generation is offered:
// the RCV gap must be strictly positive and some ACV must have been paid.
func (s PaymentSummary) DemandLetterEligible() bool {
	return s.RCVOutstanding() > 0 && s.TotalACVReceived > 0
}

// RCVDemandLetter is a generated demand for the outstanding RCV balance.
// The monetary fields are snapshots captured at generation time and are not
// recomputed afterwards. SentAt/SentToEmail are set exactly once.
type RCVDemandLetter struct {
	ID              string         `json:"id"         gorm:"type:char(36);primaryKey"`
	ClaimID         string         `json:"claim_id"   gorm:"type:char(36);not null;index:idx_claim_letters"`
	PaymentRecordID *string        `json:"payment_record_id,omitempty" gorm:"type:char(36)"`
	ACVReceived     float64        `json:"acv_received"     gorm:"not null"`
	RCVExpected     float64        `json:"rcv_expected"     gorm:"not null"`
	RCVOutstanding  float64        `json:"rcv_outstanding"  gorm:"not null"`
	Body            string         `json:"body"             gorm:"type:text;not null"`
	SentAt          *time.Time     `json:"sent_at,omitempty"`
	SentToEmail     *string        `json:"sent_to_email,omitempty" gorm:"type:varchar(255)"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	Claim Claim `json:"-" gorm:"foreignKey:ClaimID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for RCVDemandLetter.
func (RCVDemandLetter) TableName() string { return "rcv_demand_letters" }

// Sent reports whether the letter was already marked sent.
func (l *RCVDemandLetter) Sent() bool { return l.SentAt != nil }
