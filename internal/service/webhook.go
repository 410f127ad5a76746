package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Strob0t/RateForge/internal/config"
	"github.com/Strob0t/RateForge/internal/port/a2a"
)

// ErrPendingTimeout is the rejection delivered when a registered pending
// request is not resolved within its window.
var ErrPendingTimeout = errors.New("pending request timed out waiting for inbound webhook")

// Deliverer pushes task result envelopes to caller-supplied webhook URLs
// with capped exponential backoff, and correlates inbound webhook calls
// with pending requests.
type Deliverer struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration

	pendingTimeout time.Duration
	mu             sync.Mutex
	pending        map[string]*pendingRequest
}

type pendingRequest struct {
	ch    chan PendingOutcome
	timer *time.Timer
}

// PendingOutcome is the settlement of a pending request: exactly one of
// Result and Err is set.
type PendingOutcome struct {
	Result json.RawMessage
	Err    error
}

// NewDeliverer creates a webhook deliverer from config.
func NewDeliverer(cfg config.Webhook) *Deliverer {
	return &Deliverer{
		httpClient:     &http.Client{Timeout: 15 * time.Second},
		maxRetries:     cfg.MaxRetries,
		baseDelay:      cfg.BaseDelay,
		maxDelay:       cfg.MaxDelay,
		pendingTimeout: cfg.PendingTimeout,
		pending:        make(map[string]*pendingRequest),
	}
}

// Send delivers the payload to the webhook URL, retrying failed attempts
// up to maxRetries times with delays of min(base*2^(attempt-1), max).
// A non-2xx response and a transport error count the same. The payload is
// marshalled once and reused across attempts. Send never panics and never
// returns an error; it reports delivery success only.
func (d *Deliverer) Send(ctx context.Context, cfg *a2a.PushNotificationConfig, payload *a2a.Response) bool {
	if cfg == nil || cfg.URL == "" {
		return false
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("webhook payload marshal failed", "url", cfg.URL, "error", err)
		return false
	}

	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		return struct{}{}, d.post(ctx, cfg, body)
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = d.baseDelay
	expo.RandomizationFactor = 0
	expo.Multiplier = 2
	expo.MaxInterval = d.maxDelay

	_, err = backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(d.maxRetries)+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("webhook delivery attempt failed",
				"url", cfg.URL, "attempt", attempt, "retry_in", next, "error", err)
		}),
	)
	if err != nil {
		slog.Error("webhook delivery gave up", "url", cfg.URL, "attempts", attempt, "error", err)
		return false
	}

	slog.Info("webhook delivered", "url", cfg.URL, "attempts", attempt)
	return true
}

// post performs a single delivery attempt.
func (d *Deliverer) post(ctx context.Context, cfg *a2a.PushNotificationConfig, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if token := cfg.BearerToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// Register creates a pending-request entry for the given id and returns
// the channel its settlement will arrive on. The entry auto-rejects with
// ErrPendingTimeout when the window elapses. A zero timeout uses the
// configured default.
func (d *Deliverer) Register(id string, timeout time.Duration) <-chan PendingOutcome {
	if timeout <= 0 {
		timeout = d.pendingTimeout
	}

	entry := &pendingRequest{ch: make(chan PendingOutcome, 1)}

	// The entry must be in the map before the timer can fire, or a
	// short window leaves it there forever. The reject callback blocks
	// on the mutex until the insert is published.
	d.mu.Lock()
	d.pending[id] = entry
	entry.timer = time.AfterFunc(timeout, func() {
		d.Reject(id, ErrPendingTimeout)
	})
	d.mu.Unlock()

	return entry.ch
}

// Resolve settles the pending request with a result. Returns false when
// the id is unknown or already settled.
func (d *Deliverer) Resolve(id string, result json.RawMessage) bool {
	return d.settle(id, PendingOutcome{Result: result})
}

// Reject settles the pending request with an error. Returns false when
// the id is unknown or already settled.
func (d *Deliverer) Reject(id string, err error) bool {
	return d.settle(id, PendingOutcome{Err: err})
}

// settle removes the entry under lock, so each id settles at most once.
func (d *Deliverer) settle(id string, outcome PendingOutcome) bool {
	d.mu.Lock()
	entry, ok := d.pending[id]
	if ok {
		delete(d.pending, id)
	}
	d.mu.Unlock()

	if !ok {
		return false
	}

	entry.timer.Stop()
	entry.ch <- outcome
	return true
}

// PendingCount returns the number of unsettled pending requests.
func (d *Deliverer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
