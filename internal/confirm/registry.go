package confirm

import "sync"

// Pending is a location candidate waiting for a yes/no answer.
type Pending struct {
	Intent        string `json:"intent"`
	Location      string `json:"location"`
	OriginalQuery string `json:"original_query"`
}

// Registry holds at most one pending confirmation per sender.
type Registry struct {
	mu      sync.Mutex
	pending map[string]Pending
}

func NewRegistry() *Registry {
	return &Registry{pending: make(map[string]Pending)}
}

// Put stores p for sender, replacing any earlier proposal.
func (r *Registry) Put(sender string, p Pending) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[sender] = p
}

func (r *Registry) Get(sender string) (Pending, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[sender]
	return p, ok
}

// Take removes and returns the proposal for sender.
func (r *Registry) Take(sender string) (Pending, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[sender]
	if ok {
		delete(r.pending, sender)
	}
	return p, ok
}

// Clear drops the proposal for sender. Idempotent.
func (r *Registry) Clear(sender string) bool {
	_, ok := r.Take(sender)
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
