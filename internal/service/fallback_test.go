package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Strob0t/RateForge/internal/port/a2a"
)

func TestOrchestratorSuccess(t *testing.T) {
	store := NewTaskStore()
	o := NewOrchestrator(testDeliverer(), store, time.Second)

	result, err := o.Execute(context.Background(), "t1", "c1", nil, func(_ context.Context) (*a2a.Task, error) {
		return completedTask("t1", "c1", nil, stubResult("fast answer")), nil
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Status.State != a2a.TaskStateCompleted {
		t.Fatalf("expected completed, got %s", result.Status.State)
	}
	if stored, ok := store.Get("t1"); !ok || stored.Status.State != a2a.TaskStateCompleted {
		t.Fatal("result not recorded in store")
	}
}

func TestOrchestratorErrorPropagates(t *testing.T) {
	o := NewOrchestrator(testDeliverer(), NewTaskStore(), time.Second)

	wantErr := errors.New("provider down")
	_, err := o.Execute(context.Background(), "t1", "c1", nil, func(_ context.Context) (*a2a.Task, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected original error, got %v", err)
	}
}

func TestOrchestratorTimeoutWithoutWebhook(t *testing.T) {
	o := NewOrchestrator(testDeliverer(), NewTaskStore(), 20*time.Millisecond)

	cancelled := make(chan struct{})
	_, err := o.Execute(context.Background(), "t1", "c1", nil, func(ctx context.Context) (*a2a.Task, error) {
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	})

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *TimeoutError, got %v", err)
	}
	if timeoutErr.Limit != 20*time.Millisecond {
		t.Fatalf("unexpected timeout value: %v", timeoutErr.Limit)
	}

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("abandoned work was never cancelled")
	}
}

func TestOrchestratorTimeoutWithWebhook(t *testing.T) {
	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(body)
		received <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewTaskStore()
	o := NewOrchestrator(testDeliverer(), store, 10*time.Millisecond)

	marker, err := o.Execute(context.Background(), "t1", "c1", webhookCfg(srv.URL), func(_ context.Context) (*a2a.Task, error) {
		time.Sleep(50 * time.Millisecond)
		return completedTask("t1", "c1", nil, stubResult("late answer")), nil
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if marker.Status.State != a2a.TaskStateWorking {
		t.Fatalf("expected working marker, got %s", marker.Status.State)
	}

	select {
	case body := <-received:
		var resp struct {
			Result a2a.Task `json:"result"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("webhook payload: %v", err)
		}
		if resp.Result.Status.State != a2a.TaskStateCompleted {
			t.Fatalf("late delivery state %s, want completed", resp.Result.Status.State)
		}
		if resp.Result.Artifacts[0].Parts[0].Text != "late answer" {
			t.Fatal("late delivery missing response artifact")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("late result never delivered")
	}

	waitForState(t, store, "t1", a2a.TaskStateCompleted)
}

func TestOrchestratorSuccessDoubleDelivery(t *testing.T) {
	received := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	o := NewOrchestrator(testDeliverer(), NewTaskStore(), time.Second)

	result, err := o.Execute(context.Background(), "t1", "c1", webhookCfg(srv.URL), func(_ context.Context) (*a2a.Task, error) {
		return completedTask("t1", "c1", nil, stubResult("both paths")), nil
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Artifacts[0].Parts[0].Text != "both paths" {
		t.Fatal("synchronous result missing")
	}

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("best-effort webhook never fired")
	}
}

func TestOrchestratorTimeoutWorkFailure(t *testing.T) {
	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(body)
		received <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewTaskStore()
	o := NewOrchestrator(testDeliverer(), store, 10*time.Millisecond)

	_, err := o.Execute(context.Background(), "t1", "c1", webhookCfg(srv.URL), func(_ context.Context) (*a2a.Task, error) {
		time.Sleep(30 * time.Millisecond)
		return nil, errors.New("model crashed")
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	select {
	case body := <-received:
		var resp struct {
			Result a2a.Task `json:"result"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("webhook payload: %v", err)
		}
		if resp.Result.Status.State != a2a.TaskStateFailed {
			t.Fatalf("expected failed envelope, got %s", resp.Result.Status.State)
		}
		if resp.Result.Status.Message.Text() != "model crashed" {
			t.Fatal("failed envelope missing error text")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("failure was never delivered")
	}
}
