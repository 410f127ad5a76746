package a2a

import "time"

// TaskState is the externally visible state of a task.
// Canonical vocabulary: submitted -> working -> completed | failed.
type TaskState string

const (
	TaskStateSubmitted TaskState = "submitted"
	TaskStateWorking   TaskState = "working"
	TaskStateCompleted TaskState = "completed"
	TaskStateFailed    TaskState = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s TaskState) Terminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed
}

// CanTransition reports whether a transition from s to next is legal.
func (s TaskState) CanTransition(next TaskState) bool {
	switch s {
	case TaskStateSubmitted:
		return next == TaskStateWorking || next.Terminal()
	case TaskStateWorking:
		return next.Terminal()
	default:
		return false
	}
}

// Part is a chunk of message or artifact content.
type Part struct {
	Kind string         `json:"kind"`
	Text string         `json:"text,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// TextPart builds a text content part.
func TextPart(text string) Part {
	return Part{Kind: "text", Text: text}
}

// DataPart builds a structured data content part.
func DataPart(data map[string]any) Part {
	return Part{Kind: "data", Data: data}
}

// Message is a single conversation turn.
type Message struct {
	Kind      string `json:"kind,omitempty"`
	Role      string `json:"role"`
	Parts     []Part `json:"parts"`
	MessageID string `json:"messageId,omitempty"`
	TaskID    string `json:"taskId,omitempty"`
	ContextID string `json:"contextId,omitempty"`
}

// Text returns the concatenated text parts of the message.
func (m *Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Kind == "text" {
			out += p.Text
		}
	}
	return out
}

// Artifact is a named, typed chunk of output attached to a task.
type Artifact struct {
	ArtifactID string `json:"artifactId"`
	Name       string `json:"name,omitempty"`
	Parts      []Part `json:"parts"`
}

// TaskStatus describes the current state of a task.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
}

// Task is the A2A task envelope returned to callers and pushed to webhooks.
type Task struct {
	ID        string         `json:"id"`
	ContextID string         `json:"contextId,omitempty"`
	Kind      string         `json:"kind"`
	Status    TaskStatus     `json:"status"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	History   []Message      `json:"history,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewTask builds a task envelope in the given state, timestamped now.
func NewTask(id, contextID string, state TaskState) *Task {
	return &Task{
		ID:        id,
		ContextID: contextID,
		Kind:      "task",
		Status: TaskStatus{
			State:     state,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// PushAuthentication describes how to authenticate with a webhook endpoint.
type PushAuthentication struct {
	Schemes     []string `json:"schemes,omitempty"`
	Credentials string   `json:"credentials,omitempty"`
}

// PushNotificationConfig is the caller-supplied webhook configuration.
// It is immutable once received and lives no longer than the task using it.
type PushNotificationConfig struct {
	URL            string              `json:"url"`
	Token          string              `json:"token,omitempty"`
	Authentication *PushAuthentication `json:"authentication,omitempty"`
}

// BearerToken returns the token to send as an Authorization bearer
// credential, or "" when bearer auth is not requested.
func (c *PushNotificationConfig) BearerToken() string {
	if c == nil || c.Authentication == nil {
		return ""
	}
	for _, scheme := range c.Authentication.Schemes {
		if scheme == "Bearer" {
			if c.Token != "" {
				return c.Token
			}
			return c.Authentication.Credentials
		}
	}
	return ""
}

// MessageSendConfiguration controls blocking behaviour and webhook delivery
// for a message/send request.
type MessageSendConfiguration struct {
	Blocking               *bool                   `json:"blocking,omitempty"`
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig,omitempty"`
}

// IsBlocking reports the effective blocking mode; absent means blocking.
func (c *MessageSendConfiguration) IsBlocking() bool {
	if c == nil || c.Blocking == nil {
		return true
	}
	return *c.Blocking
}

// Webhook returns the push notification config, nil when absent.
func (c *MessageSendConfiguration) Webhook() *PushNotificationConfig {
	if c == nil {
		return nil
	}
	return c.PushNotificationConfig
}

// MessageSendParams are the params of a message/send request.
type MessageSendParams struct {
	Message       Message                   `json:"message"`
	Configuration *MessageSendConfiguration `json:"configuration,omitempty"`
	Metadata      map[string]any            `json:"metadata,omitempty"`
}

// TaskQueryParams are the params of a tasks/get request.
type TaskQueryParams struct {
	ID string `json:"id"`
}

// WorkflowTriggerParams are the params of a workflow trigger request.
type WorkflowTriggerParams struct {
	Input         map[string]any            `json:"input"`
	Configuration *MessageSendConfiguration `json:"configuration,omitempty"`
}
