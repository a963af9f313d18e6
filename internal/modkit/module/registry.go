package module

import (
	"slices"
	"sync"
)

// Registry maps module names to their port sets
type Registry struct {
	mu    sync.RWMutex
	ports map[string]any
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry { return &Registry{ports: map[string]any{}} }

// Register stores ports under name, replacing any earlier set
func (r *Registry) Register(name string, ports any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ports[name] = ports
}

// Lookup returns the raw port set for name
func (r *Registry) Lookup(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.ports[name]
	return v, ok
}

// Names returns the registered module names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.ports))
	for n := range r.ports {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Reset drops every entry
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.ports)
}

// Default is the process registry filled by the api composition root
var Default = NewRegistry()

// Register stores ports in Default
func Register(name string, ports any) { Default.Register(name, ports) }

// Reset clears Default
func Reset() { Default.Reset() }

// PortsAs fetches the set registered under name in Default as T
func PortsAs[T any](name string) (T, bool) {
	v, ok := Default.Lookup(name)
	if !ok {
		var zero T
		return zero, false
	}
	out, ok := v.(T)
	return out, ok
}
