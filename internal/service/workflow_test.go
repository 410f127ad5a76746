package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/RateForge/internal/domain"
	"github.com/Strob0t/RateForge/internal/port/agentruntime"
	"github.com/Strob0t/RateForge/internal/port/rateprovider"
)

// stubProvider serves canned series and quotes.
type stubProvider struct {
	frame map[string]rateprovider.Quotes
	live  rateprovider.Quotes
	err   error
}

func (p *stubProvider) LiveRates(_ context.Context, _ string, _ []string) (rateprovider.Quotes, error) {
	return p.live, p.err
}

func (p *stubProvider) HistoricalRates(_ context.Context, _ time.Time, _ string, _ []string) (rateprovider.Quotes, error) {
	return p.live, p.err
}

func (p *stubProvider) Convert(_ context.Context, from, to string, amount float64) (*rateprovider.Conversion, error) {
	return &rateprovider.Conversion{From: from, To: to, Amount: amount, Rate: 1, Result: amount}, p.err
}

func (p *stubProvider) Timeframe(_ context.Context, _, _ time.Time, _ string, _ []string) (map[string]rateprovider.Quotes, error) {
	return p.frame, p.err
}

func analysisInput(t *testing.T, req AnalysisRequest) []agentruntime.Message {
	t.Helper()
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return []agentruntime.Message{{Role: "user", Content: string(raw)}}
}

func TestWorkflowGenerate(t *testing.T) {
	provider := &stubProvider{
		frame: map[string]rateprovider.Quotes{
			"2026-01-03": {"USDEUR": 0.94},
			"2026-01-01": {"USDEUR": 0.90},
			"2026-01-02": {"USDEUR": 0.92},
		},
		live: rateprovider.Quotes{"USDEUR": 0.95},
	}
	w := NewAnalysisWorkflow(provider, nil)

	res, err := w.Generate(context.Background(), analysisInput(t, AnalysisRequest{
		Currencies: []string{"eur"},
		StartDate:  "2026-01-01",
		EndDate:    "2026-01-03",
	}))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var report AnalysisReport
	if err := json.Unmarshal([]byte(res.Text), &report); err != nil {
		t.Fatalf("report not JSON: %v", err)
	}
	if report.Source != "USD" {
		t.Fatalf("expected default source USD, got %q", report.Source)
	}
	if len(report.Currencies) != 1 || report.Currencies[0].Currency != "EUR" {
		t.Fatalf("unexpected currencies: %+v", report.Currencies)
	}

	stats := report.Currencies[0].Stats
	if stats.Count != 3 {
		t.Fatalf("expected 3 samples, got %d", stats.Count)
	}
	if diff := stats.Mean - 0.92; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("mean = %v, want 0.92", stats.Mean)
	}
	if stats.Highest != 0.94 || stats.Lowest != 0.90 {
		t.Fatalf("extremes wrong: %+v", stats)
	}

	if len(res.ToolResults) != 1 || res.ToolResults[0].Tool != WorkflowAnalysis {
		t.Fatalf("expected structured report tool result, got %+v", res.ToolResults)
	}
}

func TestWorkflowValidation(t *testing.T) {
	w := NewAnalysisWorkflow(&stubProvider{}, nil)

	cases := []struct {
		name  string
		input string
	}{
		{"not json", "analyze the euro please"},
		{"no currencies", `{"source":"USD"}`},
		{"bad date", `{"currencies":["EUR"],"startDate":"01/01/2026"}`},
		{"inverted window", `{"currencies":["EUR"],"startDate":"2026-02-01","endDate":"2026-01-01"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := w.Generate(context.Background(), []agentruntime.Message{{Role: "user", Content: tc.input}})
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if _, err := w.Generate(context.Background(), nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for empty input, got %v", err)
	}
}

func TestWorkflowProviderError(t *testing.T) {
	w := NewAnalysisWorkflow(&stubProvider{err: errors.New("upstream 503")}, nil)

	_, err := w.Generate(context.Background(), analysisInput(t, AnalysisRequest{Currencies: []string{"EUR"}}))
	if err == nil || !strings.Contains(err.Error(), "upstream 503") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestWorkflowSummarize(t *testing.T) {
	provider := &stubProvider{
		frame: map[string]rateprovider.Quotes{"2026-01-01": {"USDEUR": 0.9}},
		live:  rateprovider.Quotes{"USDEUR": 0.9},
	}
	summarizer := &recordingRuntime{name: "analyst", fn: func(msgs []agentruntime.Message) (*agentruntime.Result, error) {
		if !strings.Contains(msgs[0].Content, `"USDEUR"`) {
			return nil, errors.New("report not passed to summarizer")
		}
		return &agentruntime.Result{Text: "The euro held steady."}, nil
	}}

	w := NewAnalysisWorkflow(provider, summarizer)
	res, err := w.Generate(context.Background(), analysisInput(t, AnalysisRequest{
		Currencies: []string{"EUR"},
		Summarize:  true,
	}))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Text != "The euro held steady." {
		t.Fatalf("expected narrative summary, got %q", res.Text)
	}
	if len(res.ToolResults) != 1 {
		t.Fatal("structured report should survive summarization")
	}
}

func TestWorkflowName(t *testing.T) {
	w := NewAnalysisWorkflow(&stubProvider{}, nil)
	if w.Name() != WorkflowAnalysis {
		t.Fatalf("unexpected name %q", w.Name())
	}
}
