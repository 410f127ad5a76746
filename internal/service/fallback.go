package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Strob0t/RateForge/internal/port/a2a"
)

// TimeoutError is returned when blocking work exceeds the orchestrator
// deadline and no webhook was configured to receive the late result.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request exceeded the %s synchronous limit; configure a pushNotification webhook to receive results of long-running operations", e.Limit)
}

// Timeout marks the error as a deadline failure for transport layers.
func (e *TimeoutError) Timeout() bool { return true }

// Work produces the terminal task envelope for a blocking invocation.
// It must honor ctx cancellation.
type Work func(ctx context.Context) (*a2a.Task, error)

// Orchestrator runs blocking work against a deadline. When the deadline
// passes and the caller supplied a webhook, the in-flight work is left
// running and the orchestrator takes over its completion: it records the
// terminal envelope and delivers it to the webhook, so the work is never
// executed twice. Without a webhook the work is cancelled outright.
type Orchestrator struct {
	deliverer *Deliverer
	store     *TaskStore
	timeout   time.Duration
}

// NewOrchestrator creates an orchestrator with the given synchronous limit.
func NewOrchestrator(deliverer *Deliverer, store *TaskStore, timeout time.Duration) *Orchestrator {
	return &Orchestrator{deliverer: deliverer, store: store, timeout: timeout}
}

type workOutcome struct {
	task *a2a.Task
	err  error
}

// Execute runs work and waits up to the configured timeout.
//
// Success before the deadline returns the terminal envelope; when a
// webhook is configured the result is additionally pushed to it
// best-effort, so callers wanting both delivery paths get both.
//
// On timeout with a webhook configured, Execute returns a working marker
// immediately and finishes the task in the background. On timeout
// without a webhook it cancels the work and returns a *TimeoutError.
// Any non-timeout error from work propagates unchanged.
func (o *Orchestrator) Execute(ctx context.Context, taskID, contextID string, webhook *a2a.PushNotificationConfig, work Work) (*a2a.Task, error) {
	// Detach from the request context so a client disconnect cannot kill
	// work that a webhook is waiting on; cancellation stays under the
	// orchestrator's control.
	workCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	done := make(chan workOutcome, 1)
	go func() {
		t, err := work(workCtx)
		done <- workOutcome{task: t, err: err}
	}()

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		cancel()
		if out.err != nil {
			return nil, out.err
		}
		o.store.Put(out.task)
		if webhook != nil {
			go func() {
				payload := a2a.NewResponse(quotedID(taskID), out.task)
				o.deliverer.Send(context.Background(), webhook, payload)
			}()
		}
		return out.task, nil

	case <-timer.C:
		if webhook == nil {
			cancel()
			go func() { <-done }() // drain the cancelled work
			return nil, &TimeoutError{Limit: o.timeout}
		}

		slog.Info("blocking work exceeded deadline, continuing via webhook",
			"task_id", taskID, "timeout", o.timeout)

		marker := a2a.NewTask(taskID, contextID, a2a.TaskStateWorking)
		o.store.Put(marker)

		go o.finish(taskID, contextID, webhook, done, cancel)
		return marker, nil
	}
}

// finish waits for detached work to settle, records its terminal
// envelope, and delivers it to the webhook.
func (o *Orchestrator) finish(taskID, contextID string, webhook *a2a.PushNotificationConfig, done <-chan workOutcome, cancel context.CancelFunc) {
	defer cancel()

	out := <-done
	result := out.task
	if out.err != nil {
		result = failedTask(taskID, contextID, nil, out.err)
	}

	o.store.Put(result)

	payload := a2a.NewResponse(quotedID(taskID), result)
	if !o.deliverer.Send(context.Background(), webhook, payload) {
		slog.Error("late result delivery failed", "task_id", taskID, "url", webhook.URL)
	}
}
