package writereq

import "sync"

// Tracker keeps the latest stable inputs and the specs derived from them.
// Specs are re-derived only when an input actually changes.
type Tracker struct {
	mu      sync.RWMutex
	builder *Builder
	inputs  Inputs
	specs   Specs
	derived int
}

func NewTracker(b *Builder) *Tracker {
	t := &Tracker{builder: b}
	t.specs = b.Derive(t.inputs)
	return t
}

// Update applies fn to a copy of the inputs and re-derives if they changed.
// It reports whether a re-derivation happened.
func (t *Tracker) Update(fn func(*Inputs)) (Specs, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.inputs
	fn(&next)
	if next == t.inputs {
		return t.specs, false
	}
	t.inputs = next
	t.specs = t.builder.Derive(next)
	t.derived++
	return t.specs, true
}

// Spec returns the current spec for k.
func (t *Tracker) Spec(k Kind) (WriteSpec, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.specs.Get(k)
}

func (t *Tracker) Specs() Specs {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.specs
}

func (t *Tracker) Inputs() Inputs {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.inputs
}

// Derivations counts how many times inputs changed (for tests and metrics).
func (t *Tracker) Derivations() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.derived
}
