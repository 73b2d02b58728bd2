package breaker

import (
	"fmt"
	"sync"
)

// Registry owns the shared breaker instances for one client (or, when
// passed to several clients, for all of them). Breakers are keyed by
// (host, threshold, cooldown): two callers using different thresholds
// against the same host get independent breakers. That keying mirrors the
// behavior callers depend on for testability; share a Registry and a
// Config to share breaker state.
//
// Breaker state is never evicted. Dropping an open breaker would silently
// close its circuit, so the registry is a plain map that lives as long as
// the registry itself.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewRegistry creates an empty breaker registry.
func NewRegistry() *Registry {
	return &Registry{breakers: make(map[string]*Breaker)}
}

// Get returns the shared breaker for (host, cfg), creating it on first use.
func (r *Registry) Get(host string, cfg Config) *Breaker {
	key := fmt.Sprintf("%s|%d|%s", host, cfg.Threshold, cfg.Cooldown)

	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[key]
	if !ok {
		b = New(host, cfg)
		r.breakers[key] = b
	}
	return b
}

// Len returns the number of distinct breakers created so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.breakers)
}
