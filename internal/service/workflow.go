package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/RateForge/internal/domain"
	"github.com/Strob0t/RateForge/internal/domain/forex"
	"github.com/Strob0t/RateForge/internal/port/agentruntime"
	"github.com/Strob0t/RateForge/internal/port/rateprovider"
)

// WorkflowAnalysis is the registry name of the exchange-analysis workflow.
const WorkflowAnalysis = "exchange-analysis"

const defaultLookbackDays = 30

// AnalysisRequest is the JSON input of the exchange-analysis workflow.
// It arrives as the text of the triggering message.
type AnalysisRequest struct {
	Currencies []string `json:"currencies"`
	Source     string   `json:"source,omitempty"`    // default USD
	StartDate  string   `json:"startDate,omitempty"` // YYYY-MM-DD, default 30 days back
	EndDate    string   `json:"endDate,omitempty"`   // YYYY-MM-DD, default today
	Summarize  bool     `json:"summarize,omitempty"`
}

// CurrencyReport is the per-currency section of the workflow output.
type CurrencyReport struct {
	Currency string        `json:"currency"`
	Pair     string        `json:"pair"`
	Stats    forex.Summary `json:"stats"`
}

// AnalysisReport is the workflow output.
type AnalysisReport struct {
	Source     string              `json:"source"`
	StartDate  string              `json:"startDate"`
	EndDate    string              `json:"endDate"`
	Currencies []CurrencyReport    `json:"currencies"`
	Arbitrage  []forex.Opportunity `json:"arbitrage,omitempty"`
	LiveQuotes rateprovider.Quotes `json:"liveQuotes"`
}

// AnalysisWorkflow runs a multi-currency exchange analysis: per-currency
// timeframe statistics fetched concurrently, a triangular arbitrage scan
// over live quotes, and an optional model-written summary. It implements
// agentruntime.Runtime so it shares the task queue with plain agents.
type AnalysisWorkflow struct {
	provider   rateprovider.Provider
	summarizer agentruntime.Runtime // nil disables the narrative summary
	threshold  float64
}

// NewAnalysisWorkflow creates the workflow. summarizer may be nil, in
// which case the Summarize flag is ignored and the report is returned raw.
func NewAnalysisWorkflow(provider rateprovider.Provider, summarizer agentruntime.Runtime) *AnalysisWorkflow {
	return &AnalysisWorkflow{provider: provider, summarizer: summarizer, threshold: 0.001}
}

func (w *AnalysisWorkflow) Name() string { return WorkflowAnalysis }

// Generate parses the request from the last message, builds the report,
// and returns it as JSON text plus a structured tool result.
func (w *AnalysisWorkflow) Generate(ctx context.Context, messages []agentruntime.Message) (*agentruntime.Result, error) {
	req, err := parseAnalysisRequest(messages)
	if err != nil {
		return nil, err
	}

	report, err := w.run(ctx, req)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	res := &agentruntime.Result{
		Text: string(raw),
		ToolResults: []agentruntime.ToolResult{
			{Tool: WorkflowAnalysis, Result: report},
		},
	}

	if req.Summarize && w.summarizer != nil {
		summary, err := w.summarizer.Generate(ctx, []agentruntime.Message{{
			Role:    "user",
			Content: "Summarize this exchange-rate analysis for a non-specialist. Flag any arbitrage opportunities explicitly.\n\n" + string(raw),
		}})
		if err == nil && summary.Text != "" {
			res.Text = summary.Text
		}
	}
	return res, nil
}

// run fetches all series concurrently and assembles the report.
func (w *AnalysisWorkflow) run(ctx context.Context, req *AnalysisRequest) (*AnalysisReport, error) {
	start, end, err := req.window()
	if err != nil {
		return nil, err
	}

	report := &AnalysisReport{
		Source:     req.Source,
		StartDate:  start.Format("2006-01-02"),
		EndDate:    end.Format("2006-01-02"),
		Currencies: make([]CurrencyReport, len(req.Currencies)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for i, cur := range req.Currencies {
		g.Go(func() error {
			frame, err := w.provider.Timeframe(gctx, start, end, req.Source, []string{cur})
			if err != nil {
				return fmt.Errorf("timeframe %s%s: %w", req.Source, cur, err)
			}
			pair := req.Source + cur
			series := flattenSeries(frame, pair)
			mu.Lock()
			report.Currencies[i] = CurrencyReport{Currency: cur, Pair: pair, Stats: forex.Stats(series)}
			mu.Unlock()
			return nil
		})
	}

	g.Go(func() error {
		live, err := w.provider.LiveRates(gctx, req.Source, req.Currencies)
		if err != nil {
			return fmt.Errorf("live rates: %w", err)
		}
		mu.Lock()
		report.LiveQuotes = live
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(req.Currencies) >= 2 {
		triple := append([]string{req.Source}, req.Currencies...)
		report.Arbitrage = forex.FindTriangular(report.LiveQuotes, triple, w.threshold)
	}
	return report, nil
}

// window resolves the request dates, defaulting to the trailing month.
func (r *AnalysisRequest) window() (start, end time.Time, err error) {
	end = time.Now().UTC().Truncate(24 * time.Hour)
	start = end.AddDate(0, 0, -defaultLookbackDays)

	if r.EndDate != "" {
		if end, err = time.Parse("2006-01-02", r.EndDate); err != nil {
			return start, end, fmt.Errorf("%w: endDate: %v", domain.ErrValidation, err)
		}
	}
	if r.StartDate != "" {
		if start, err = time.Parse("2006-01-02", r.StartDate); err != nil {
			return start, end, fmt.Errorf("%w: startDate: %v", domain.ErrValidation, err)
		}
	}
	if !start.Before(end) {
		return start, end, fmt.Errorf("%w: startDate must precede endDate", domain.ErrValidation)
	}
	return start, end, nil
}

// parseAnalysisRequest decodes and validates the triggering message.
func parseAnalysisRequest(messages []agentruntime.Message) (*AnalysisRequest, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: empty workflow input", domain.ErrValidation)
	}

	var req AnalysisRequest
	input := messages[len(messages)-1].Content
	if err := json.Unmarshal([]byte(input), &req); err != nil {
		return nil, fmt.Errorf("%w: workflow input must be a JSON object: %v", domain.ErrValidation, err)
	}
	if len(req.Currencies) == 0 {
		return nil, fmt.Errorf("%w: currencies is required and must be a non-empty array", domain.ErrValidation)
	}
	for i, c := range req.Currencies {
		req.Currencies[i] = strings.ToUpper(strings.TrimSpace(c))
	}
	if req.Source == "" {
		req.Source = "USD"
	}
	req.Source = strings.ToUpper(strings.TrimSpace(req.Source))
	return &req, nil
}

// flattenSeries orders a timeframe response by date and extracts one pair.
func flattenSeries(frame map[string]rateprovider.Quotes, pair string) []float64 {
	dates := make([]string, 0, len(frame))
	for d := range frame {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	series := make([]float64, 0, len(dates))
	for _, d := range dates {
		if rate, ok := frame[d][pair]; ok {
			series = append(series, rate)
		}
	}
	return series
}
