package service

import (
	"testing"

	"github.com/Strob0t/RateForge/internal/port/a2a"
)

func TestStorePutGet(t *testing.T) {
	s := NewTaskStore()

	s.Put(a2a.NewTask("t1", "c1", a2a.TaskStateSubmitted))

	got, ok := s.Get("t1")
	if !ok {
		t.Fatal("expected task to exist")
	}
	if got.Status.State != a2a.TaskStateSubmitted {
		t.Fatalf("expected submitted, got %s", got.Status.State)
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected missing id to return false")
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	s := NewTaskStore()
	s.Put(a2a.NewTask("t1", "c1", a2a.TaskStateSubmitted))

	got, _ := s.Get("t1")
	got.Status.State = a2a.TaskStateFailed

	again, _ := s.Get("t1")
	if again.Status.State != a2a.TaskStateSubmitted {
		t.Fatal("mutation of returned task leaked into store")
	}
}

func TestStoreTerminalNotReplaced(t *testing.T) {
	s := NewTaskStore()
	s.Put(a2a.NewTask("t1", "c1", a2a.TaskStateCompleted))
	s.Put(a2a.NewTask("t1", "c1", a2a.TaskStateWorking))

	got, _ := s.Get("t1")
	if got.Status.State != a2a.TaskStateCompleted {
		t.Fatalf("terminal task replaced by %s", got.Status.State)
	}
}

func TestStoreSetState(t *testing.T) {
	s := NewTaskStore()
	s.Put(a2a.NewTask("t1", "c1", a2a.TaskStateSubmitted))

	if !s.SetState("t1", a2a.TaskStateWorking, "2026-01-01T00:00:00Z") {
		t.Fatal("submitted -> working should be legal")
	}
	if s.SetState("t1", a2a.TaskStateSubmitted, "2026-01-01T00:00:01Z") {
		t.Fatal("working -> submitted should be illegal")
	}
	if s.SetState("missing", a2a.TaskStateWorking, "2026-01-01T00:00:02Z") {
		t.Fatal("unknown id should return false")
	}

	got, _ := s.Get("t1")
	if got.Status.Timestamp != "2026-01-01T00:00:00Z" {
		t.Fatalf("timestamp not recorded: %q", got.Status.Timestamp)
	}
}
