// Package events provides the in-process event bus the settlement engine
// publishes domain events on. Mutating operations emit explicit typed events
// (PaymentRecorded, VerdictReached, ...) that read-models and other
// subscribers consume; there is no implicit cache invalidation anywhere in
// the engine.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Type names a domain event.
type Type string

const (
	ClaimCreated       Type = "claim.created"
	ClaimStatusChanged Type = "claim.status_changed"
	ClaimStepAdvanced  Type = "claim.step_advanced"

	DocumentUploadRequested Type = "audit.upload_requested"
	DocumentUploaded        Type = "audit.document_uploaded"
	DocumentParsed          Type = "audit.document_parsed"
	AnalysisPersisted       Type = "audit.analysis_persisted"
	ReportSuperseded        Type = "audit.report_superseded"
	DisputeLetterReady      Type = "audit.dispute_letter_ready"
	OwnerPitchReady         Type = "audit.owner_pitch_ready"
	OwnerPitchSent          Type = "audit.owner_pitch_sent"
	WorkflowReset           Type = "audit.workflow_reset"

	PaymentExpected     Type = "payment.expected"
	PaymentRecorded     Type = "payment.recorded"
	PaymentReconciled   Type = "payment.reconciled"
	PaymentDisputed     Type = "payment.disputed"
	DemandLetterCreated Type = "payment.demand_letter_created"
	DemandLetterSent    Type = "payment.demand_letter_sent"
)

// Event is one published domain event. Fields carries small string-valued
// details (verdict status, payment id, ...); it is never used to transport
// aggregates.
type Event struct {
	Type    Type
	ClaimID string
	At      time.Time
	Fields  map[string]string
}

// Handler consumes published events. Handlers must be fast; a slow consumer
// should hand off to its own goroutine.
type Handler func(Event)

// Bus is a minimal publish/subscribe fan-out. Subscribers are registered at
// wiring time; Publish never blocks on or fails because of a subscriber.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus { return &Bus{} }

// Subscribe registers a handler for every subsequent event.
func (b *Bus) Subscribe(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

// Publish delivers the event to every subscriber in registration order.
// A nil bus is valid and drops events, so services can publish
// unconditionally.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.RLock()
	hs := make([]Handler, len(b.handlers))
	copy(hs, b.handlers)
	b.mu.RUnlock()

	log.Debug().
		Str("event", string(e.Type)).
		Str("claim_id", e.ClaimID).
		Msg("event published")

	for _, h := range hs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Str("event", string(e.Type)).
						Interface("panic", r).
						Msg("event handler panicked")
				}
			}()
			h(e)
		}()
	}
}
