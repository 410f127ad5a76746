package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/RateForge/internal/adapter/litellm"
	"github.com/Strob0t/RateForge/internal/domain/forex"
	"github.com/Strob0t/RateForge/internal/port/rateprovider"
)

// ForexTools returns the tool set the analyst agent may call.
func ForexTools(provider rateprovider.Provider) []litellm.Tool {
	return []litellm.Tool{
		liveRatesTool(provider),
		convertTool(provider),
		statsTool(provider),
		arbitrageTool(provider),
	}
}

func liveRatesTool(provider rateprovider.Provider) litellm.Tool {
	return litellm.Tool{
		Name:        "get_live_rates",
		Description: "Get current exchange rates for a source currency against a list of target currencies.",
		Parameters: objectSchema(map[string]any{
			"source":     stringProp("Three-letter source currency code, e.g. USD"),
			"currencies": arrayProp("Target currency codes; empty for all"),
		}, "source"),
		Fn: func(ctx context.Context, args map[string]any) (any, error) {
			source, err := stringArg(args, "source")
			if err != nil {
				return nil, err
			}
			return provider.LiveRates(ctx, source, stringSlice(args["currencies"]))
		},
	}
}

func convertTool(provider rateprovider.Provider) litellm.Tool {
	return litellm.Tool{
		Name:        "convert_currency",
		Description: "Convert an amount from one currency to another at the live rate.",
		Parameters: objectSchema(map[string]any{
			"from":   stringProp("Source currency code"),
			"to":     stringProp("Target currency code"),
			"amount": map[string]any{"type": "number", "description": "Amount to convert"},
		}, "from", "to", "amount"),
		Fn: func(ctx context.Context, args map[string]any) (any, error) {
			from, err := stringArg(args, "from")
			if err != nil {
				return nil, err
			}
			to, err := stringArg(args, "to")
			if err != nil {
				return nil, err
			}
			amount, ok := args["amount"].(float64)
			if !ok {
				return nil, fmt.Errorf("amount must be a number")
			}
			return provider.Convert(ctx, from, to, amount)
		},
	}
}

func statsTool(provider rateprovider.Provider) litellm.Tool {
	return litellm.Tool{
		Name:        "rate_statistics",
		Description: "Compute mean, variance, highest and lowest of a currency pair's daily rates over the past N days.",
		Parameters: objectSchema(map[string]any{
			"source":   stringProp("Source currency code"),
			"currency": stringProp("Target currency code"),
			"days":     map[string]any{"type": "integer", "description": "Number of past days, max 365"},
		}, "source", "currency"),
		Fn: func(ctx context.Context, args map[string]any) (any, error) {
			source, err := stringArg(args, "source")
			if err != nil {
				return nil, err
			}
			currency, err := stringArg(args, "currency")
			if err != nil {
				return nil, err
			}
			days := 30
			if d, ok := args["days"].(float64); ok && d > 0 {
				days = min(int(d), 365)
			}

			end := time.Now().UTC()
			start := end.AddDate(0, 0, -days)
			frame, err := provider.Timeframe(ctx, start, end, source, []string{currency})
			if err != nil {
				return nil, err
			}

			key := source + currency
			series := make([]float64, 0, len(frame))
			for _, quotes := range frame {
				if r, ok := quotes[key]; ok {
					series = append(series, r)
				}
			}
			return forex.Stats(series), nil
		},
	}
}

func arbitrageTool(provider rateprovider.Provider) litellm.Tool {
	return litellm.Tool{
		Name:        "find_arbitrage",
		Description: "Search for triangular arbitrage opportunities across a list of currencies using direct pair quotes.",
		Parameters: objectSchema(map[string]any{
			"currencies": arrayProp("Currency codes to search across, at least 3"),
			"threshold":  map[string]any{"type": "number", "description": "Minimum fractional profit, default 0.001"},
		}, "currencies"),
		Fn: func(ctx context.Context, args map[string]any) (any, error) {
			currencies := stringSlice(args["currencies"])
			if len(currencies) < 3 {
				return nil, fmt.Errorf("need at least 3 currencies")
			}
			threshold := 0.001
			if v, ok := args["threshold"].(float64); ok {
				threshold = v
			}

			quotes, err := DirectPairQuotes(ctx, provider, currencies)
			if err != nil {
				return nil, err
			}
			return forex.FindTriangular(quotes, currencies, threshold), nil
		},
	}
}

// DirectPairQuotes fetches live quotes with each currency as source so the
// arbitrage search operates on direct pair rates rather than derived crosses.
func DirectPairQuotes(ctx context.Context, provider rateprovider.Provider, currencies []string) (map[string]float64, error) {
	quotes := make(map[string]float64)
	for _, source := range currencies {
		targets := make([]string, 0, len(currencies)-1)
		for _, c := range currencies {
			if c != source {
				targets = append(targets, c)
			}
		}
		live, err := provider.LiveRates(ctx, source, targets)
		if err != nil {
			return nil, fmt.Errorf("quotes for %s: %w", source, err)
		}
		for pair, rate := range live {
			quotes[pair] = rate
		}
	}
	return quotes, nil
}

// --- JSON schema helpers -----------------------------------------------

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func arrayProp(desc string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": desc,
	}
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return strings.ToUpper(v), nil
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}
