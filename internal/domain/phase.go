// Package domain – workflow phases.
//
// The document analysis workflow never serializes its phase. Instead the
// phase is derived from persisted state (claim, active document, active audit
// report) so that a process restart reconstructs exactly where the workflow
// left off. DerivePhase is the single source of that mapping and is pure.
package domain

// Phase is the position of a claim's document analysis workflow.
type Phase string

const (
	// PhaseIdle: no document selected, or the prior upload/parse failed.
	PhaseIdle Phase = "idle"
	// PhaseUploading: an upload destination was issued but receipt has not
	// been confirmed yet.
	PhaseUploading Phase = "uploading"
	// PhaseParsing: awaiting the external parse collaborator.
	PhaseParsing Phase = "parsing"
	// PhaseReady: parsed document available, analysis not yet run.
	PhaseReady Phase = "ready"
	// PhaseAnalyzing: estimate generation + adjudication in flight.
	PhaseAnalyzing Phase = "analyzing"
	// PhaseVerdict: persisted classification available.
	PhaseVerdict Phase = "verdict"
	// PhaseLetterGenerating: dispute letter or owner pitch in flight;
	// returns to verdict on completion or failure.
	PhaseLetterGenerating Phase = "letter_generating"
)

// DerivePhase reconstructs the workflow phase from persisted state.
//
// Precedence:
//  1. An active report with a valid persisted analysis → verdict. Upload,
//     parse, and analysis are never repeated once a verdict is durable.
//  2. A document whose parse completed (and no analysis) → ready.
//  3. A document still pending/processing → parsing.
//  4. Anything else (no document, failed parse, malformed analysis with no
//     parsed document) → idle.
//
// A report whose analysis blob is malformed decodes to nil (see
// AuditReport.VerdictAnalysis) and therefore falls through to the document
// rules rather than being raised as an error.
func DerivePhase(doc *CarrierEstimateDocument, report *AuditReport) Phase {
	if report != nil && report.SupersededAt == nil && report.VerdictAnalysis() != nil {
		return PhaseVerdict
	}
	if doc == nil {
		return PhaseIdle
	}
	switch doc.ParseStatus {
	case ParseCompleted:
		return PhaseReady
	case ParsePending, ParseProcessing:
		return PhaseParsing
	}
	// Failed parses require a fresh upload.
	return PhaseIdle
}
