package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Strob0t/RateForge/internal/port/a2a"
	"github.com/Strob0t/RateForge/internal/port/agentruntime"
)

// App wires the task queue, orchestrator, store and webhook deliverer
// behind the protocol handler's service surface. Runtimes registered
// under a workflow name are addressed via the workflow routes only.
type App struct {
	runtimes  *agentruntime.Registry
	workflows map[string]struct{}
	queue     *Queue
	orch      *Orchestrator
	store     *TaskStore
	deliverer *Deliverer
}

// NewApp builds the application facade. workflowNames marks which
// registry entries are workflows rather than conversational agents.
func NewApp(runtimes *agentruntime.Registry, workflowNames []string, queue *Queue, orch *Orchestrator, store *TaskStore, deliverer *Deliverer) *App {
	wf := make(map[string]struct{}, len(workflowNames))
	for _, name := range workflowNames {
		wf[name] = struct{}{}
	}
	return &App{
		runtimes:  runtimes,
		workflows: wf,
		queue:     queue,
		orch:      orch,
		store:     store,
		deliverer: deliverer,
	}
}

// SubmitTask enqueues the submission for background processing.
func (a *App) SubmitTask(sub a2a.TaskSubmission) (string, error) {
	return a.queue.Enqueue(TaskSpec{
		AgentName: sub.Name,
		Messages:  sub.Messages,
		TaskID:    sub.TaskID,
		ContextID: sub.ContextID,
		Webhook:   sub.Webhook,
	})
}

// ExecuteBlocking runs the submission synchronously under the
// orchestrator's deadline.
func (a *App) ExecuteBlocking(ctx context.Context, sub a2a.TaskSubmission) (*a2a.Task, error) {
	rt, ok := a.runtimes.Get(sub.Name)
	if !ok {
		return nil, fmt.Errorf("unknown runtime %q", sub.Name)
	}

	return a.orch.Execute(ctx, sub.TaskID, sub.ContextID, sub.Webhook, func(ctx context.Context) (*a2a.Task, error) {
		res, err := rt.Generate(ctx, toRuntimeMessages(sub.Messages))
		if err != nil {
			return nil, err
		}
		return completedTask(sub.TaskID, sub.ContextID, sub.Messages, res), nil
	})
}

// GetTask looks up a stored task envelope.
func (a *App) GetTask(id string) (*a2a.Task, bool) {
	return a.store.Get(id)
}

// ResolvePending settles a pending request with an inbound result.
func (a *App) ResolvePending(id string, result json.RawMessage) bool {
	return a.deliverer.Resolve(id, result)
}

// HasAgent reports whether name is a registered conversational agent.
func (a *App) HasAgent(name string) bool {
	if _, wf := a.workflows[name]; wf {
		return false
	}
	_, ok := a.runtimes.Get(name)
	return ok
}

// HasWorkflow reports whether name is a registered workflow.
func (a *App) HasWorkflow(name string) bool {
	if _, wf := a.workflows[name]; !wf {
		return false
	}
	_, ok := a.runtimes.Get(name)
	return ok
}

// AgentNames lists registered agents, sorted.
func (a *App) AgentNames() []string {
	var out []string
	for _, name := range a.runtimes.Names() {
		if _, wf := a.workflows[name]; !wf {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// WorkflowNames lists registered workflows, sorted.
func (a *App) WorkflowNames() []string {
	out := make([]string, 0, len(a.workflows))
	for name := range a.workflows {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
