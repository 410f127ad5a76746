package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/RateForge/internal/port/a2a"
	"github.com/Strob0t/RateForge/internal/port/agentruntime"
)

// toRuntimeMessages flattens A2A messages into the runtime's input shape.
func toRuntimeMessages(messages []a2a.Message) []agentruntime.Message {
	out := make([]agentruntime.Message, 0, len(messages))
	for i := range messages {
		role := messages[i].Role
		if role == "" {
			role = "user"
		}
		out = append(out, agentruntime.Message{Role: role, Content: messages[i].Text()})
	}
	return out
}

// completedTask builds the terminal envelope for a successful invocation:
// the response text as the primary artifact, tool invocation results as a
// second data artifact when present, and the reconstructed history.
func completedTask(taskID, contextID string, history []a2a.Message, res *agentruntime.Result) *a2a.Task {
	t := a2a.NewTask(taskID, contextID, a2a.TaskStateCompleted)

	t.Artifacts = append(t.Artifacts, a2a.Artifact{
		ArtifactID: uuid.NewString(),
		Name:       "response",
		Parts:      []a2a.Part{a2a.TextPart(res.Text)},
	})
	if len(res.ToolResults) > 0 {
		t.Artifacts = append(t.Artifacts, a2a.Artifact{
			ArtifactID: uuid.NewString(),
			Name:       "toolResults",
			Parts:      []a2a.Part{a2a.DataPart(map[string]any{"toolResults": res.ToolResults})},
		})
	}

	t.History = appendAgentReply(history, taskID, contextID, res.Text)
	return t
}

// failedTask builds the terminal envelope for a failed invocation with the
// error text carried on the status message.
func failedTask(taskID, contextID string, history []a2a.Message, err error) *a2a.Task {
	t := a2a.NewTask(taskID, contextID, a2a.TaskStateFailed)
	t.Status.Message = &a2a.Message{
		Kind:      "message",
		Role:      "agent",
		Parts:     []a2a.Part{a2a.TextPart(err.Error())},
		MessageID: uuid.NewString(),
		TaskID:    taskID,
		ContextID: contextID,
	}
	t.History = history
	return t
}

// appendAgentReply reconstructs the conversation including the reply.
func appendAgentReply(history []a2a.Message, taskID, contextID, text string) []a2a.Message {
	out := make([]a2a.Message, 0, len(history)+1)
	for _, m := range history {
		if m.TaskID == "" {
			m.TaskID = taskID
		}
		if m.ContextID == "" {
			m.ContextID = contextID
		}
		out = append(out, m)
	}
	return append(out, a2a.Message{
		Kind:      "message",
		Role:      "agent",
		Parts:     []a2a.Part{a2a.TextPart(text)},
		MessageID: uuid.NewString(),
		TaskID:    taskID,
		ContextID: contextID,
	})
}

// rfc3339Now is the timestamp format used on status transitions.
func rfc3339Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// quotedID wraps a string in a JSON-RPC id value.
func quotedID(id string) json.RawMessage {
	b, _ := json.Marshal(id)
	return b
}
