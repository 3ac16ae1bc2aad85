// Package clients implements the HTTP collaborators the settlement engine
// calls out to: the document parser, the industry estimator, the
// adjudication engine, and the letter/pitch generator. Each is a thin JSON
// client over a configured base URL; any transport error, timeout, or
// non-2xx response is reported as a plain error and the workflow treats all
// of them identically.
package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tbourn/go-claims-backend/internal/domain"
	"github.com/tbourn/go-claims-backend/internal/services"
)

// DefaultTimeout bounds every collaborator call.
const DefaultTimeout = 30 * time.Second

// httpDoer lets tests stub the transport.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type baseClient struct {
	baseURL string
	http    httpDoer
}

func newBaseClient(baseURL string, h httpDoer) baseClient {
	if h == nil {
		h = &http.Client{Timeout: DefaultTimeout}
	}
	return baseClient{baseURL: strings.TrimRight(baseURL, "/"), http: h}
}

// postJSON POSTs the payload and decodes the 2xx response body into out
// (skipped when out is nil).
func (c baseClient) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c baseClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c baseClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ParserClient talks to the document parsing service.
type ParserClient struct{ baseClient }

// NewParserClient returns a parser client for the given base URL. Passing a
// nil doer uses a default http.Client with DefaultTimeout.
func NewParserClient(baseURL string, h httpDoer) *ParserClient {
	return &ParserClient{newBaseClient(baseURL, h)}
}

// StartParse triggers the asynchronous parse of an uploaded document.
func (c *ParserClient) StartParse(ctx context.Context, documentID, storageKey string) error {
	payload := map[string]string{"document_id": documentID, "storage_key": storageKey}
	return c.postJSON(ctx, "/v1/parse", payload, nil)
}

// GetParseStatus reports the parser's progress on a document.
func (c *ParserClient) GetParseStatus(ctx context.Context, documentID string) (services.ParseState, error) {
	var resp struct {
		Status    string                    `json:"status"`
		LineItems []domain.EstimateLineItem `json:"line_items"`
	}
	if err := c.getJSON(ctx, "/v1/parse/"+documentID, &resp); err != nil {
		return services.ParseState{}, err
	}
	return services.ParseState{
		Status:    domain.ParseStatus(resp.Status),
		LineItems: resp.LineItems,
	}, nil
}

// EstimatorClient talks to the industry-estimate generation service.
type EstimatorClient struct{ baseClient }

// NewEstimatorClient returns an estimator client for the given base URL.
func NewEstimatorClient(baseURL string, h httpDoer) *EstimatorClient {
	return &EstimatorClient{newBaseClient(baseURL, h)}
}

// GenerateIndustryEstimate produces the contractor-side estimate for a
// claim.
func (c *EstimatorClient) GenerateIndustryEstimate(ctx context.Context, claimID string) (services.IndustryEstimate, error) {
	var resp struct {
		ReportID       string                    `json:"report_id"`
		LineItems      []domain.EstimateLineItem `json:"line_items"`
		Subtotal       float64                   `json:"subtotal"`
		OverheadProfit float64                   `json:"overhead_profit"`
		Total          float64                   `json:"total"`
	}
	payload := map[string]string{"claim_id": claimID}
	if err := c.postJSON(ctx, "/v1/estimates", payload, &resp); err != nil {
		return services.IndustryEstimate{}, err
	}
	return services.IndustryEstimate{
		ReportID:       resp.ReportID,
		LineItems:      resp.LineItems,
		Subtotal:       resp.Subtotal,
		OverheadProfit: resp.OverheadProfit,
		Total:          resp.Total,
	}, nil
}

// AdjudicatorClient talks to the comparison/adjudication service.
type AdjudicatorClient struct{ baseClient }

// NewAdjudicatorClient returns an adjudicator client for the given base URL.
func NewAdjudicatorClient(baseURL string, h httpDoer) *AdjudicatorClient {
	return &AdjudicatorClient{newBaseClient(baseURL, h)}
}

// RunAnalysis compares the generated estimate against the parsed carrier
// offer and returns the structured verdict.
func (c *AdjudicatorClient) RunAnalysis(ctx context.Context, claimID, reportID string) (*domain.VerdictAnalysis, error) {
	var resp domain.VerdictAnalysis
	payload := map[string]string{"claim_id": claimID, "report_id": reportID}
	if err := c.postJSON(ctx, "/v1/analyses", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LettersClient talks to the letter/pitch text-generation service.
type LettersClient struct{ baseClient }

// NewLettersClient returns a letters client for the given base URL.
func NewLettersClient(baseURL string, h httpDoer) *LettersClient {
	return &LettersClient{newBaseClient(baseURL, h)}
}

func (c *LettersClient) generate(ctx context.Context, path, claimID, reportID string) (string, error) {
	var resp struct {
		Text string `json:"text"`
	}
	payload := map[string]string{"claim_id": claimID, "report_id": reportID}
	if err := c.postJSON(ctx, path, payload, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

// GenerateDisputeLetter renders the formal dispute letter for a report.
func (c *LettersClient) GenerateDisputeLetter(ctx context.Context, claimID, reportID string) (string, error) {
	return c.generate(ctx, "/v1/letters/dispute", claimID, reportID)
}

// GenerateOwnerPitch renders the owner escalation pitch for a report.
func (c *LettersClient) GenerateOwnerPitch(ctx context.Context, claimID, reportID string) (string, error) {
	return c.generate(ctx, "/v1/letters/pitch", claimID, reportID)
}

// Interface guards: every client satisfies its services contract.
var (
	_ services.Parser          = (*ParserClient)(nil)
	_ services.Estimator       = (*EstimatorClient)(nil)
	_ services.Adjudicator     = (*AdjudicatorClient)(nil)
	_ services.LetterGenerator = (*LettersClient)(nil)
)
