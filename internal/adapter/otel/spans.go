package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "rateforge"

// StartTaskSpan starts a span for processing one queued task.
func StartTaskSpan(ctx context.Context, taskID, agentName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "task",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("agent.name", agentName),
		),
	)
}

// StartWebhookSpan starts a span for one webhook delivery sequence.
func StartWebhookSpan(ctx context.Context, taskID, url string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "webhook",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("webhook.url", url),
		),
	)
}
