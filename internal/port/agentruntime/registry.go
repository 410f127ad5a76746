package agentruntime

import "sync"

// Registry holds the runtimes addressable by name. It is constructed at
// the composition root and injected where needed; there is no package-level
// default instance.
type Registry struct {
	mu       sync.RWMutex
	runtimes map[string]Runtime
}

// NewRegistry creates an empty runtime registry.
func NewRegistry() *Registry {
	return &Registry{runtimes: make(map[string]Runtime)}
}

// Register adds a runtime under its own name. Registering the same name
// twice is a programming error and panics.
func (r *Registry) Register(rt Runtime) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runtimes[rt.Name()]; exists {
		panic("agentruntime: duplicate registration for " + rt.Name())
	}
	r.runtimes[rt.Name()] = rt
}

// Get returns the runtime registered under name.
func (r *Registry) Get(name string) (Runtime, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.runtimes[name]
	return rt, ok
}

// Names returns the names of all registered runtimes.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.runtimes))
	for name := range r.runtimes {
		names = append(names, name)
	}
	return names
}
