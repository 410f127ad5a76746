package service

import (
	"sync"

	"github.com/Strob0t/RateForge/internal/port/a2a"
)

// TaskStore is the in-memory record of tasks the service has accepted.
// Nothing is persisted; a restart forgets all tasks.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*a2a.Task
}

// NewTaskStore creates an empty task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]*a2a.Task)}
}

// Put records the task envelope, replacing any previous version.
// A terminal task is never replaced by a non-terminal one.
func (s *TaskStore) Put(t *a2a.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.tasks[t.ID]; ok {
		if prev.Status.State.Terminal() && !t.Status.State.Terminal() {
			return
		}
	}
	s.tasks[t.ID] = t
}

// Delete removes the task record, if any.
func (s *TaskStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
}

// SetState transitions the stored task to the given state if the
// transition is legal. Returns false for unknown ids or illegal moves.
func (s *TaskStore) SetState(id string, state a2a.TaskState, timestamp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || !t.Status.State.CanTransition(state) {
		return false
	}
	t.Status.State = state
	t.Status.Timestamp = timestamp
	return true
}

// Get returns a copy of the stored task envelope.
func (s *TaskStore) Get(id string) (*a2a.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	cp := *t
	return &cp, true
}

// Len returns the number of recorded tasks.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
