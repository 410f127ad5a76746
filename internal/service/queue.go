package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/RateForge/internal/adapter/otel"
	"github.com/Strob0t/RateForge/internal/adapter/ws"
	"github.com/Strob0t/RateForge/internal/domain"
	"github.com/Strob0t/RateForge/internal/port/a2a"
	"github.com/Strob0t/RateForge/internal/port/agentruntime"
	"github.com/Strob0t/RateForge/internal/port/broadcast"
)

// TaskSpec describes one unit of background agent work before it is
// assigned an id and timestamp.
type TaskSpec struct {
	AgentName string
	Messages  []a2a.Message
	TaskID    string // optional; assigned when empty
	ContextID string // optional; assigned when empty
	Webhook   *a2a.PushNotificationConfig
	Metadata  map[string]any
}

// queuedTask is a TaskSpec after admission.
type queuedTask struct {
	TaskSpec
	CreatedAt time.Time
}

// Queue is the in-process FIFO task queue with a single long-lived worker.
// Tasks are processed strictly serially: a slow agent call delays all
// subsequent tasks. Volume is expected to be low; run multiple Queue
// instances if that assumption breaks.
type Queue struct {
	runtimes    *agentruntime.Registry
	deliverer   *Deliverer
	store       *TaskStore
	broadcaster broadcast.Broadcaster
	metrics     *otel.Metrics

	tasks      chan queuedTask
	processing atomic.Bool
	wg         sync.WaitGroup
	started    atomic.Bool
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithBroadcaster attaches a real-time event broadcaster.
func WithBroadcaster(b broadcast.Broadcaster) QueueOption {
	return func(q *Queue) { q.broadcaster = b }
}

// WithMetrics attaches metric instruments.
func WithMetrics(m *otel.Metrics) QueueOption {
	return func(q *Queue) { q.metrics = m }
}

// NewQueue creates a queue with the given capacity. The worker is not
// running until Start is called.
func NewQueue(capacity int, runtimes *agentruntime.Registry, deliverer *Deliverer, store *TaskStore, opts ...QueueOption) *Queue {
	q := &Queue{
		runtimes:  runtimes,
		deliverer: deliverer,
		store:     store,
		tasks:     make(chan queuedTask, capacity),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start launches the worker goroutine. The worker drains remaining tasks
// and exits when Close is called; ctx cancellation aborts in-flight work.
func (q *Queue) Start(ctx context.Context) {
	if !q.started.CompareAndSwap(false, true) {
		return
	}
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for t := range q.tasks {
			q.process(ctx, t)
		}
	}()
}

// Close stops admission, waits for the worker to drain, and returns.
func (q *Queue) Close() {
	if !q.started.Load() {
		return
	}
	close(q.tasks)
	q.wg.Wait()
}

// Enqueue admits a task: assigns id and timestamp, records it as
// submitted, and appends it to the queue. Returns domain.ErrQueueFull
// when the queue is at capacity.
func (q *Queue) Enqueue(spec TaskSpec) (string, error) {
	if spec.TaskID == "" {
		spec.TaskID = uuid.NewString()
	}
	if spec.ContextID == "" {
		spec.ContextID = uuid.NewString()
	}

	t := queuedTask{TaskSpec: spec, CreatedAt: time.Now().UTC()}

	// Record and announce submitted before the channel send, so the
	// worker cannot publish a later state first.
	q.store.Put(a2a.NewTask(spec.TaskID, spec.ContextID, a2a.TaskStateSubmitted))
	q.notifyState(spec, a2a.TaskStateSubmitted)

	select {
	case q.tasks <- t:
	default:
		q.store.Delete(spec.TaskID)
		return "", domain.ErrQueueFull
	}

	if q.metrics != nil {
		q.metrics.TasksEnqueued.Add(context.Background(), 1)
		q.metrics.QueueDepth.Add(context.Background(), 1)
	}

	slog.Info("task enqueued", "task_id", spec.TaskID, "agent", spec.AgentName, "queue_length", len(q.tasks))
	return spec.TaskID, nil
}

// QueueStatus is a point-in-time observation of the queue.
type QueueStatus struct {
	QueueLength int  `json:"queueLength"`
	Processing  bool `json:"processing"`
}

// Status reports the current queue length and whether a task is being
// processed right now.
func (q *Queue) Status() QueueStatus {
	return QueueStatus{
		QueueLength: len(q.tasks),
		Processing:  q.processing.Load(),
	}
}

// process runs one task to its terminal state. A failure produces a
// failed envelope and webhook delivery; it never halts the worker.
func (q *Queue) process(ctx context.Context, t queuedTask) {
	q.processing.Store(true)
	defer q.processing.Store(false)

	if q.metrics != nil {
		q.metrics.QueueDepth.Add(ctx, -1)
	}

	ctx, span := otel.StartTaskSpan(ctx, t.TaskID, t.AgentName)
	defer span.End()

	start := time.Now()
	q.store.SetState(t.TaskID, a2a.TaskStateWorking, rfc3339Now())
	q.notifyState(t.TaskSpec, a2a.TaskStateWorking)

	result := q.invoke(ctx, t)
	q.store.Put(result)
	q.notifyState(t.TaskSpec, result.Status.State)

	if q.metrics != nil {
		q.metrics.TaskDuration.Record(ctx, time.Since(start).Seconds())
		if result.Status.State == a2a.TaskStateCompleted {
			q.metrics.TasksCompleted.Add(ctx, 1)
		} else {
			q.metrics.TasksFailed.Add(ctx, 1)
		}
	}

	if t.Webhook != nil {
		q.deliver(ctx, t, result)
	}

	slog.Info("task processed",
		"task_id", t.TaskID,
		"agent", t.AgentName,
		"state", result.Status.State,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// invoke resolves the runtime and produces the terminal task envelope.
func (q *Queue) invoke(ctx context.Context, t queuedTask) *a2a.Task {
	rt, ok := q.runtimes.Get(t.AgentName)
	if !ok {
		return failedTask(t.TaskID, t.ContextID, t.Messages, fmt.Errorf("unknown agent %q", t.AgentName))
	}

	res, err := rt.Generate(ctx, toRuntimeMessages(t.Messages))
	if err != nil {
		return failedTask(t.TaskID, t.ContextID, t.Messages, err)
	}
	return completedTask(t.TaskID, t.ContextID, t.Messages, res)
}

// deliver pushes the terminal envelope to the task's webhook.
func (q *Queue) deliver(ctx context.Context, t queuedTask, result *a2a.Task) {
	ctx, span := otel.StartWebhookSpan(ctx, t.TaskID, t.Webhook.URL)
	defer span.End()

	if q.metrics != nil {
		q.metrics.WebhookAttempts.Add(ctx, 1)
	}

	payload := a2a.NewResponse(quotedID(t.TaskID), result)
	if !q.deliverer.Send(ctx, t.Webhook, payload) && q.metrics != nil {
		q.metrics.WebhookGiveUps.Add(ctx, 1)
	}
}

func (q *Queue) notifyState(spec TaskSpec, state a2a.TaskState) {
	if q.broadcaster == nil {
		return
	}
	q.broadcaster.BroadcastEvent(context.Background(), ws.EventTaskStatus, ws.TaskStatusEvent{
		TaskID:    spec.TaskID,
		ContextID: spec.ContextID,
		AgentName: spec.AgentName,
		State:     string(state),
	})
}
