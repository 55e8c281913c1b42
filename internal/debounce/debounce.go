// Package debounce promotes rapidly edited user inputs to stable values.
package debounce

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultWindow is the quiescence window applied to order-entry fields.
const DefaultWindow = 500 * time.Millisecond

// Debouncer holds one logical field. Set records a raw edit and restarts the
// quiescence window; when the window elapses with no further edit, the last
// raw value becomes the stable value and onStable is called with it.
//
// A stable value is always a value that was passed to Set. While edits keep
// arriving faster than the window, nothing is published.
type Debouncer[T comparable] struct {
	mu     sync.Mutex
	clock  clock.Clock
	window time.Duration
	timer  *clock.Timer
	gen    uint64

	raw       T
	stable    T
	hasStable bool
	stopped   bool

	onStable func(T)
}

// New creates a debouncer on the wall clock.
func New[T comparable](window time.Duration, onStable func(T)) *Debouncer[T] {
	return NewWithClock(clock.New(), window, onStable)
}

// NewWithClock creates a debouncer driven by clk (a mock clock in tests).
func NewWithClock[T comparable](clk clock.Clock, window time.Duration, onStable func(T)) *Debouncer[T] {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer[T]{
		clock:    clk,
		window:   window,
		onStable: onStable,
	}
}

// Set records a raw edit.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.raw = v
	d.gen++
	gen := d.gen

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.window, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// A newer Set superseded this timer.
	if gen != d.gen || d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer = nil

	v := d.raw
	if d.hasStable && v == d.stable {
		d.mu.Unlock()
		return
	}
	d.stable = v
	d.hasStable = true
	cb := d.onStable
	d.mu.Unlock()

	if cb != nil {
		cb(v)
	}
}

// Stable returns the last promoted value and whether one exists yet.
func (d *Debouncer[T]) Stable() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stable, d.hasStable
}

// Pending reports whether an edit is waiting for its window to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending promotion. Later Sets are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
