package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "rateforge"

// Metrics holds all RateForge metric instruments.
type Metrics struct {
	TasksEnqueued   metric.Int64Counter
	TasksCompleted  metric.Int64Counter
	TasksFailed     metric.Int64Counter
	WebhookAttempts metric.Int64Counter
	WebhookGiveUps  metric.Int64Counter
	QueueDepth      metric.Int64UpDownCounter
	TaskDuration    metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TasksEnqueued, err = meter.Int64Counter("rateforge.tasks.enqueued",
		metric.WithDescription("Number of tasks accepted onto the queue"))
	if err != nil {
		return nil, err
	}

	m.TasksCompleted, err = meter.Int64Counter("rateforge.tasks.completed",
		metric.WithDescription("Number of tasks completed"))
	if err != nil {
		return nil, err
	}

	m.TasksFailed, err = meter.Int64Counter("rateforge.tasks.failed",
		metric.WithDescription("Number of tasks failed"))
	if err != nil {
		return nil, err
	}

	m.WebhookAttempts, err = meter.Int64Counter("rateforge.webhook.attempts",
		metric.WithDescription("Number of webhook delivery attempt sequences"))
	if err != nil {
		return nil, err
	}

	m.WebhookGiveUps, err = meter.Int64Counter("rateforge.webhook.giveups",
		metric.WithDescription("Number of webhook deliveries abandoned after retry budget"))
	if err != nil {
		return nil, err
	}

	m.QueueDepth, err = meter.Int64UpDownCounter("rateforge.queue.depth",
		metric.WithDescription("Tasks currently waiting on the queue"))
	if err != nil {
		return nil, err
	}

	m.TaskDuration, err = meter.Float64Histogram("rateforge.task.duration_seconds",
		metric.WithDescription("Task processing duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
