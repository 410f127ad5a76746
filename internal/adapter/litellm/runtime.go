package litellm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Strob0t/RateForge/internal/port/agentruntime"
)

// ToolFunc executes a tool with the model-supplied arguments.
type ToolFunc func(ctx context.Context, args map[string]any) (any, error)

// Tool is a function the model may call while generating a response.
type Tool struct {
	Name        string
	Description string
	// Parameters is a JSON schema object describing the arguments.
	Parameters map[string]any
	Fn         ToolFunc
}

// Runtime implements agentruntime.Runtime on top of the chat completions
// API with an optional tool-calling loop.
type Runtime struct {
	name          string
	client        *Client
	model         string
	systemPrompt  string
	tools         []Tool
	maxToolRounds int
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithSystemPrompt sets the system prompt prepended to every conversation.
func WithSystemPrompt(prompt string) RuntimeOption {
	return func(r *Runtime) { r.systemPrompt = prompt }
}

// WithTools registers tools the model may call.
func WithTools(tools ...Tool) RuntimeOption {
	return func(r *Runtime) { r.tools = append(r.tools, tools...) }
}

// WithMaxToolRounds bounds the number of tool-calling round trips.
func WithMaxToolRounds(n int) RuntimeOption {
	return func(r *Runtime) { r.maxToolRounds = n }
}

// NewRuntime creates a named agent runtime using the given model.
func NewRuntime(name string, client *Client, model string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		name:          name,
		client:        client,
		model:         model,
		maxToolRounds: 5,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the runtime's registry name.
func (r *Runtime) Name() string {
	return r.name
}

// Generate runs the conversation through the model, executing tool calls
// until the model produces a final text answer or the round budget is spent.
func (r *Runtime) Generate(ctx context.Context, messages []agentruntime.Message) (*agentruntime.Result, error) {
	chat := make([]chatMessage, 0, len(messages)+1)
	if r.systemPrompt != "" {
		chat = append(chat, chatMessage{Role: "system", Content: r.systemPrompt})
	}
	for _, m := range messages {
		chat = append(chat, chatMessage{Role: m.Role, Content: m.Content})
	}

	specs := r.toolSpecs()
	var toolResults []agentruntime.ToolResult

	for round := 0; ; round++ {
		resp, err := r.client.ChatCompletion(ctx, chatRequest{
			Model:    r.model,
			Messages: chat,
			Tools:    specs,
		})
		if err != nil {
			return nil, err
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return &agentruntime.Result{Text: msg.Content, ToolResults: toolResults}, nil
		}

		if round >= r.maxToolRounds {
			return nil, fmt.Errorf("agent %s: tool round budget (%d) exhausted", r.name, r.maxToolRounds)
		}

		chat = append(chat, msg)
		for _, call := range msg.ToolCalls {
			result := r.execTool(ctx, call)
			toolResults = append(toolResults, result)

			content, err := json.Marshal(result.Result)
			if result.Error != "" {
				content = []byte(result.Error)
			} else if err != nil {
				content = []byte(fmt.Sprintf("marshal tool result: %v", err))
			}
			chat = append(chat, chatMessage{
				Role:       "tool",
				Content:    string(content),
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
		}
	}
}

// execTool runs a single tool call, catching unknown tools and bad arguments.
func (r *Runtime) execTool(ctx context.Context, call toolCall) agentruntime.ToolResult {
	res := agentruntime.ToolResult{Tool: call.Function.Name}

	var tool *Tool
	for i := range r.tools {
		if r.tools[i].Name == call.Function.Name {
			tool = &r.tools[i]
			break
		}
	}
	if tool == nil {
		res.Error = fmt.Sprintf("unknown tool %q", call.Function.Name)
		return res
	}

	args := map[string]any{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			res.Error = fmt.Sprintf("invalid tool arguments: %v", err)
			return res
		}
	}
	res.Args = args

	out, err := tool.Fn(ctx, args)
	if err != nil {
		slog.Warn("tool call failed", "agent", r.name, "tool", tool.Name, "error", err)
		res.Error = err.Error()
		return res
	}
	res.Result = out
	return res
}

func (r *Runtime) toolSpecs() []toolSpec {
	if len(r.tools) == 0 {
		return nil
	}
	specs := make([]toolSpec, len(r.tools))
	for i, t := range r.tools {
		specs[i].Type = "function"
		specs[i].Function.Name = t.Name
		specs[i].Function.Description = t.Description
		specs[i].Function.Parameters = t.Parameters
	}
	return specs
}
