// Package agentruntime defines the agent runtime port (interface) and registry.
package agentruntime

import "context"

// Message is a single conversation turn in the shape the runtime expects.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolResult records one tool invocation made while generating a response.
type ToolResult struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args,omitempty"`
	Result any            `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Result is the outcome of a generation call.
type Result struct {
	Text        string       `json:"text"`
	ToolResults []ToolResult `json:"toolResults,omitempty"`
}

// Runtime is the port interface for invoking an LLM-backed agent.
type Runtime interface {
	// Name returns the unique identifier this runtime is addressed by.
	Name() string

	// Generate produces a response for the given conversation.
	Generate(ctx context.Context, messages []Message) (*Result, error)
}
