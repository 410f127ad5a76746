package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/RateForge/internal/domain/forex"
	"github.com/Strob0t/RateForge/internal/port/rateprovider"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.liveRatesTool(),
		s.convertCurrencyTool(),
		s.rateStatisticsTool(),
		s.findArbitrageTool(),
		s.queueStatusTool(),
	)
}

func (s *Server) liveRatesTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("live_rates",
		mcplib.WithDescription("Get live exchange rates for a source currency"),
		mcplib.WithString("source",
			mcplib.Description("3-letter source currency code, defaults to USD"),
		),
		mcplib.WithString("currencies",
			mcplib.Description("Comma-separated target currency codes; empty requests all"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleLiveRates,
	}
}

func (s *Server) convertCurrencyTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("convert_currency",
		mcplib.WithDescription("Convert an amount between two currencies at the live rate"),
		mcplib.WithString("from",
			mcplib.Required(),
			mcplib.Description("3-letter source currency code"),
		),
		mcplib.WithString("to",
			mcplib.Required(),
			mcplib.Description("3-letter target currency code"),
		),
		mcplib.WithNumber("amount",
			mcplib.Required(),
			mcplib.Description("Amount to convert"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleConvertCurrency,
	}
}

func (s *Server) rateStatisticsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("rate_statistics",
		mcplib.WithDescription("Compute mean, variance, highest and lowest over a rate series"),
		mcplib.WithString("currency",
			mcplib.Required(),
			mcplib.Description("3-letter target currency code"),
		),
		mcplib.WithString("start_date",
			mcplib.Required(),
			mcplib.Description("Series start, YYYY-MM-DD"),
		),
		mcplib.WithString("end_date",
			mcplib.Required(),
			mcplib.Description("Series end, YYYY-MM-DD"),
		),
		mcplib.WithString("source",
			mcplib.Description("3-letter source currency code, defaults to USD"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleRateStatistics,
	}
}

func (s *Server) findArbitrageTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("find_arbitrage",
		mcplib.WithDescription("Scan currency triples for triangular arbitrage opportunities"),
		mcplib.WithString("currencies",
			mcplib.Required(),
			mcplib.Description("Comma-separated list of at least 3 currency codes"),
		),
		mcplib.WithNumber("threshold",
			mcplib.Description("Minimum profit fraction to report, defaults to 0.001"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleFindArbitrage,
	}
}

func (s *Server) queueStatusTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("queue_status",
		mcplib.WithDescription("Report the task queue length and whether a task is processing"),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleQueueStatus,
	}
}

func (s *Server) handleLiveRates(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Rates == nil {
		return mcplib.NewToolResultError("rate provider not configured"), nil
	}
	args := req.GetArguments()
	source := currencyArg(args, "source", "USD")

	quotes, err := s.deps.Rates.LiveRates(ctx, source, currencyList(args, "currencies"))
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to fetch live rates", err), nil
	}
	return toolResultJSON(quotes)
}

func (s *Server) handleConvertCurrency(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Rates == nil {
		return mcplib.NewToolResultError("rate provider not configured"), nil
	}
	args := req.GetArguments()
	from := currencyArg(args, "from", "")
	to := currencyArg(args, "to", "")
	amount, ok := args["amount"].(float64)
	if from == "" || to == "" || !ok {
		return mcplib.NewToolResultError("from, to and amount are required"), nil
	}

	conv, err := s.deps.Rates.Convert(ctx, from, to, amount)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("conversion failed", err), nil
	}
	return toolResultJSON(conv)
}

func (s *Server) handleRateStatistics(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Rates == nil {
		return mcplib.NewToolResultError("rate provider not configured"), nil
	}
	args := req.GetArguments()
	currency := currencyArg(args, "currency", "")
	if currency == "" {
		return mcplib.NewToolResultError("currency is required"), nil
	}
	source := currencyArg(args, "source", "USD")

	start, err := dateArg(args, "start_date")
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	end, err := dateArg(args, "end_date")
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}

	frame, err := s.deps.Rates.Timeframe(ctx, start, end, source, []string{currency})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to fetch timeframe", err), nil
	}

	pair := source + currency
	var series []float64
	for _, d := range sortedDates(frame) {
		if rate, ok := frame[d][pair]; ok {
			series = append(series, rate)
		}
	}
	return toolResultJSON(map[string]any{
		"pair":  pair,
		"stats": forex.Stats(series),
	})
}

func (s *Server) handleFindArbitrage(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Rates == nil {
		return mcplib.NewToolResultError("rate provider not configured"), nil
	}
	args := req.GetArguments()
	currencies := currencyList(args, "currencies")
	if len(currencies) < 3 {
		return mcplib.NewToolResultError("currencies must list at least 3 codes"), nil
	}
	threshold := 0.001
	if v, ok := args["threshold"].(float64); ok && v > 0 {
		threshold = v
	}

	quotes := make(map[string]float64)
	for _, source := range currencies {
		live, err := s.deps.Rates.LiveRates(ctx, source, currencies)
		if err != nil {
			return mcplib.NewToolResultErrorFromErr("failed to fetch pair quotes", err), nil
		}
		for pair, rate := range live {
			quotes[pair] = rate
		}
	}

	opps := forex.FindTriangular(quotes, currencies, threshold)
	return toolResultJSON(map[string]any{
		"threshold":     threshold,
		"opportunities": opps,
	})
}

func (s *Server) handleQueueStatus(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Queue == nil {
		return mcplib.NewToolResultError("queue not configured"), nil
	}
	return toolResultJSON(s.deps.Queue.Status())
}

// toolResultJSON marshals v as the tool's text content.
func toolResultJSON(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

// currencyArg reads an upper-cased currency code argument.
func currencyArg(args map[string]any, key, fallback string) string {
	v, ok := args[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	return strings.ToUpper(strings.TrimSpace(v))
}

// currencyList splits a comma-separated currency argument.
func currencyList(args map[string]any, key string) []string {
	raw, ok := args[key].(string)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if code := strings.ToUpper(strings.TrimSpace(part)); code != "" {
			out = append(out, code)
		}
	}
	return out
}

// dateArg parses a required YYYY-MM-DD argument.
func dateArg(args map[string]any, key string) (time.Time, error) {
	raw, _ := args[key].(string)
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a YYYY-MM-DD date", key)
	}
	return t, nil
}

// sortedDates returns the frame's date keys in ascending order.
func sortedDates(frame map[string]rateprovider.Quotes) []string {
	out := make([]string, 0, len(frame))
	for d := range frame {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
