package extraction

import (
	"context"
	"sync"
)

// Coordinator serializes extraction generations so a resubmission
// supersedes any in-flight request: starting a new generation cancels
// the previous one's context, and only the latest generation's result
// may be applied to visible state.
type Coordinator struct {
	mu     sync.Mutex
	latest uint64
	cancel context.CancelFunc
}

// NewCoordinator creates a coordinator with no generation in flight.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Begin starts a new generation. The returned context is cancelled when
// a later generation begins.
func (c *Coordinator) Begin(ctx context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.latest++
	return ctx, c.latest
}

// Apply reports whether gen is still the latest generation. A false
// return means the result belongs to a superseded request and must be
// discarded.
func (c *Coordinator) Apply(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.latest
}

// Registry holds one coordinator per client key. Supersession only
// happens between requests sharing a key; unrelated clients never
// cancel each other's extractions.
type Registry struct {
	mu     sync.Mutex
	coords map[string]*Coordinator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{coords: make(map[string]*Coordinator)}
}

// For returns the coordinator for key, creating one on first use.
func (r *Registry) For(key string) *Coordinator {
	r.mu.Lock()
	defer r.mu.Unlock()

	coord, ok := r.coords[key]
	if !ok {
		coord = NewCoordinator()
		r.coords[key] = coord
	}
	return coord
}
