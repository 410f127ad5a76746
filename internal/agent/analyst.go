// Package agent assembles the currency analysis agents from the LLM
// runtime and the forex tool set.
package agent

import (
	"github.com/Strob0t/RateForge/internal/adapter/litellm"
	"github.com/Strob0t/RateForge/internal/port/rateprovider"
)

// AnalystName is the registry name of the currency analyst agent.
const AnalystName = "currency-analyst"

const analystPrompt = `You are a currency exchange analyst. You answer questions about
exchange rates, currency conversion, rate statistics and arbitrage using the
provided tools. Always fetch fresh data through the tools rather than relying
on remembered rates. Be concise and cite the numbers you used.`

// NewAnalyst builds the currency analyst runtime with tools bound to the
// given rate provider.
func NewAnalyst(client *litellm.Client, provider rateprovider.Provider, model string, maxToolRounds int) *litellm.Runtime {
	return litellm.NewRuntime(AnalystName, client, model,
		litellm.WithSystemPrompt(analystPrompt),
		litellm.WithMaxToolRounds(maxToolRounds),
		litellm.WithTools(ForexTools(provider)...),
	)
}
