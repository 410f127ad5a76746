package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Strob0t/RateForge/internal/domain"
)

// Methods accepted on the A2A endpoints.
const (
	MethodMessageSend = "message/send"
	MethodTasksGet    = "tasks/get"
	MethodWorkflowRun = "workflow/run"
)

// TaskSubmission is one unit of agent or workflow work as the protocol
// layer hands it to the application.
type TaskSubmission struct {
	Name      string // agent or workflow name
	Messages  []Message
	TaskID    string
	ContextID string
	Webhook   *PushNotificationConfig
}

// Service is the application surface the protocol handler drives.
type Service interface {
	// SubmitTask enqueues the submission for background processing and
	// returns the task id. Fails with domain.ErrQueueFull at capacity.
	SubmitTask(sub TaskSubmission) (string, error)

	// ExecuteBlocking runs the submission synchronously under the
	// orchestrator's deadline.
	ExecuteBlocking(ctx context.Context, sub TaskSubmission) (*Task, error)

	// GetTask looks up a task envelope by id.
	GetTask(id string) (*Task, bool)

	// ResolvePending settles a registered pending request with an
	// inbound webhook result.
	ResolvePending(id string, result json.RawMessage) bool

	HasAgent(name string) bool
	HasWorkflow(name string) bool
	AgentNames() []string
	WorkflowNames() []string
}

// Handler serves the A2A protocol endpoints: JSON-RPC 2.0 over POST plus
// the agent discovery card.
type Handler struct {
	baseURL string
	svc     Service
}

// NewHandler creates an A2A handler backed by the given service.
func NewHandler(baseURL string, svc Service) *Handler {
	return &Handler{baseURL: baseURL, svc: svc}
}

// MountRoutes registers A2A routes on the given chi router.
// These are mounted at the root level, not under /api/v1.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/.well-known/agent.json", h.handleAgentCard)
	r.Post("/a2a/agents/{name}", h.handleAgent)
	r.Post("/a2a/workflows/{name}", h.handleWorkflow)
	r.Get("/a2a/tasks/{id}", h.handleGetTask)
	r.Post("/a2a/webhooks/inbound", h.handleInboundWebhook)
}

func (h *Handler) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	card := BuildAgentCard(h.baseURL, h.svc.AgentNames(), h.svc.WorkflowNames())
	writeJSON(w, http.StatusOK, card)
}

// handleAgent serves message/send and tasks/get against a named agent.
func (h *Handler) handleAgent(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	name := chi.URLParam(r, "name")
	if !h.svc.HasAgent(name) {
		writeError(w, http.StatusNotFound, req.ID, CodeInvalidParams, "unknown agent: "+name, nil)
		return
	}

	switch req.Method {
	case MethodMessageSend:
		h.dispatchMessage(w, r, req, name)
	case MethodTasksGet:
		h.queryTask(w, req)
	default:
		writeError(w, http.StatusOK, req.ID, CodeMethodNotFound, "method not found: "+req.Method, nil)
	}
}

// handleWorkflow serves workflow/run against a named workflow. Workflow
// input is validated here because the queue worker has no reply channel.
func (h *Handler) handleWorkflow(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	name := chi.URLParam(r, "name")
	if !h.svc.HasWorkflow(name) {
		writeError(w, http.StatusNotFound, req.ID, CodeInvalidParams, "unknown workflow: "+name, nil)
		return
	}

	if req.Method != MethodWorkflowRun && req.Method != MethodMessageSend {
		writeError(w, http.StatusOK, req.ID, CodeMethodNotFound, "method not found: "+req.Method, nil)
		return
	}

	var params WorkflowTriggerParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, CodeInvalidParams, "invalid params", &ErrorData{Details: err.Error()})
		return
	}
	if err := validateWorkflowInput(params.Input); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, CodeInvalidParams, err.Error(), nil)
		return
	}

	input, err := json.Marshal(params.Input)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, CodeInvalidParams, "invalid params", &ErrorData{Details: err.Error()})
		return
	}

	sub := TaskSubmission{
		Name:      name,
		Messages:  []Message{{Kind: "message", Role: "user", Parts: []Part{TextPart(string(input))}, MessageID: uuid.NewString()}},
		TaskID:    uuid.NewString(),
		ContextID: uuid.NewString(),
		Webhook:   params.Configuration.Webhook(),
	}
	h.run(w, r, req, sub, params.Configuration.IsBlocking())
}

// dispatchMessage validates message/send params and runs the submission.
func (h *Handler) dispatchMessage(w http.ResponseWriter, r *http.Request, req *Request, name string) {
	var params MessageSendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, CodeInvalidParams, "invalid params", &ErrorData{Details: err.Error()})
		return
	}
	if len(params.Message.Parts) == 0 || params.Message.Text() == "" {
		writeError(w, http.StatusBadRequest, req.ID, CodeInvalidParams, "message must contain at least one non-empty text part", nil)
		return
	}

	sub := TaskSubmission{
		Name:      name,
		Messages:  []Message{params.Message},
		TaskID:    params.Message.TaskID,
		ContextID: params.Message.ContextID,
		Webhook:   params.Configuration.Webhook(),
	}
	if sub.TaskID == "" {
		sub.TaskID = uuid.NewString()
	}
	if sub.ContextID == "" {
		sub.ContextID = uuid.NewString()
	}
	h.run(w, r, req, sub, params.Configuration.IsBlocking())
}

// run routes a validated submission down the blocking or queued path.
func (h *Handler) run(w http.ResponseWriter, r *http.Request, req *Request, sub TaskSubmission, blocking bool) {
	if !blocking {
		id, err := h.svc.SubmitTask(sub)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, domain.ErrQueueFull) {
				status = http.StatusServiceUnavailable
			}
			writeError(w, status, req.ID, CodeInternalError, "task not accepted", &ErrorData{Details: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, NewResponse(req.ID, NewTask(id, sub.ContextID, TaskStateSubmitted)))
		return
	}

	task, err := h.svc.ExecuteBlocking(r.Context(), sub)
	if err != nil {
		slog.Error("blocking invocation failed", "name", sub.Name, "task_id", sub.TaskID, "error", err)
		status, msg := http.StatusInternalServerError, "internal error"
		if isTimeout(err) {
			status, msg = http.StatusRequestTimeout, "request timed out"
		}
		writeError(w, status, req.ID, CodeInternalError, msg, &ErrorData{Details: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, NewResponse(req.ID, task))
}

// handleGetTask serves the REST-shaped task lookup.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	task, ok := h.svc.GetTask(id)
	if !ok {
		writeError(w, http.StatusNotFound, nil, CodeInvalidParams, "unknown task: "+id, nil)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// queryTask serves the JSON-RPC tasks/get method.
func (h *Handler) queryTask(w http.ResponseWriter, req *Request) {
	var params TaskQueryParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.ID == "" {
		writeError(w, http.StatusBadRequest, req.ID, CodeInvalidParams, "invalid params: id is required", nil)
		return
	}
	task, ok := h.svc.GetTask(params.ID)
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, CodeInvalidParams, "unknown task: "+params.ID, nil)
		return
	}
	writeJSON(w, http.StatusOK, NewResponse(req.ID, task))
}

// handleInboundWebhook resolves pending-request correlation entries from
// JSON-RPC-shaped callback bodies.
func (h *Handler) handleInboundWebhook(w http.ResponseWriter, r *http.Request) {
	var body struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  json.RawMessage `json:"result,omitempty"`
		Error   *Error          `json:"error,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, nil, CodeParseError, "parse error", &ErrorData{Details: err.Error()})
		return
	}

	var id string
	if err := json.Unmarshal(body.ID, &id); err != nil || id == "" {
		writeError(w, http.StatusBadRequest, body.ID, CodeInvalidRequest, "invalid request: string id is required", nil)
		return
	}
	if len(body.Result) == 0 {
		writeError(w, http.StatusBadRequest, body.ID, CodeInvalidParams, "invalid params: result is required", nil)
		return
	}

	resolved := h.svc.ResolvePending(id, body.Result)
	if !resolved {
		slog.Debug("inbound webhook for unknown pending request", "id", id)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"resolved": resolved})
}

// decodeRequest parses and protocol-validates the JSON-RPC envelope.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (*Request, bool) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, nil, CodeParseError, "parse error", &ErrorData{Details: err.Error()})
		return nil, false
	}
	if req.JSONRPC != Version || !req.HasID() {
		writeError(w, http.StatusBadRequest, req.ID, CodeInvalidRequest, "invalid request: jsonrpc must be \"2.0\" and id is required", nil)
		return nil, false
	}
	return &req, true
}

// validateWorkflowInput checks the analysis trigger shape: a non-empty
// currencies array of 3-letter codes.
func validateWorkflowInput(input map[string]any) error {
	raw, ok := input["currencies"]
	if !ok {
		return errors.New("invalid params: input.currencies is required")
	}
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return errors.New("invalid params: input.currencies must be a non-empty array")
	}
	for _, item := range list {
		code, ok := item.(string)
		if !ok || len(code) != 3 {
			return errors.New("invalid params: currencies must be 3-letter codes")
		}
	}
	return nil
}

// isTimeout matches errors exposing the net.Error-style Timeout method.
func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, id json.RawMessage, code int, message string, data *ErrorData) {
	var payload any
	if data != nil {
		payload = data
	}
	writeJSON(w, status, NewErrorResponse(id, code, message, payload))
}
