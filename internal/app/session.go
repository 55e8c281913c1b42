package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"rollup_book/internal/debounce"
	"rollup_book/internal/dispatch"
	"rollup_book/internal/poller"
	"rollup_book/internal/state"
	"rollup_book/internal/writereq"
)

// Deps are the collaborators of a Session.
type Deps struct {
	Builder *writereq.Builder
	Signer  dispatch.Signer
	Journal dispatch.Journal // optional
	Fetcher poller.Fetcher
	Store   *state.Store // optional; a fresh store is created when nil

	Window          time.Duration // debounce window
	Poll            poller.Options
	Clock           clock.Clock
	DispatchMetrics *dispatch.Metrics
}

// Session wires one user's order entry and state sync:
// edits -> debouncers -> tracker -> (prepare) -> dispatcher on trigger,
// and, independently, poller -> store.
type Session struct {
	store      *state.Store
	tracker    *writereq.Tracker
	dispatcher *dispatch.Dispatcher
	sync       *poller.Synchronizer
	fields     map[Field]*debounce.Debouncer[string]
	prepare    chan struct{}

	mu      sync.Mutex
	address *common.Address
}

func NewSession(d Deps) *Session {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Poll.Clock == nil {
		d.Poll.Clock = d.Clock
	}
	if d.Store == nil {
		d.Store = state.NewStore()
	}

	s := &Session{
		store:   d.Store,
		tracker: writereq.NewTracker(d.Builder),
		sync:    poller.NewSynchronizer(d.Fetcher, d.Store, d.Poll),
		fields:  make(map[Field]*debounce.Debouncer[string], len(Fields)),
		prepare: make(chan struct{}, 1),
	}
	s.dispatcher = dispatch.NewDispatcher(s.tracker, d.Signer, d.Journal, d.DispatchMetrics)

	for _, f := range Fields {
		f := f
		s.fields[f] = debounce.NewWithClock(d.Clock, d.Window, func(v string) { s.onStable(f, v) })
	}
	return s
}

func (s *Session) onStable(f Field, v string) {
	specs, changed := s.tracker.Update(func(in *writereq.Inputs) { f.apply(in, v) })
	if !changed {
		return
	}
	slog.Debug("Input stable",
		slog.String("field", f.String()),
		slog.String("value", v),
		slog.Bool("order_ready", specs.AddOrder.Ready),
		slog.Bool("deposit_ready", specs.Deposit.Ready))

	select {
	case s.prepare <- struct{}{}:
	default:
	}
}

// Edit records a raw keystroke-level value for f.
func (s *Session) Edit(f Field, raw string) error {
	d, ok := s.fields[f]
	if !ok {
		return fmt.Errorf("unknown field %d", f)
	}
	d.Set(raw)
	return nil
}

// Trigger submits the current spec of kind k if it is ready and prepared.
func (s *Session) Trigger(ctx context.Context, k writereq.Kind) (dispatch.Result, error) {
	return s.dispatcher.Trigger(ctx, k)
}

// SetAddress switches the connected account. nil disconnects.
func (s *Session) SetAddress(addr *common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if (s.address == nil && addr == nil) || (s.address != nil && addr != nil && *s.address == *addr) {
		return
	}
	old := s.address
	if addr != nil {
		a := *addr
		s.address = &a
	} else {
		s.address = nil
	}
	s.sync.OnAddressChanged(old, s.address)
}

func (s *Session) Address() *common.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.address == nil {
		return nil
	}
	a := *s.address
	return &a
}

func (s *Session) Store() *state.Store { return s.store }
func (s *Session) Specs() writereq.Specs { return s.tracker.Specs() }
func (s *Session) Inputs() writereq.Inputs { return s.tracker.Inputs() }
func (s *Session) Poller() *poller.Synchronizer { return s.sync }

// Pending reports whether any field has an edit still inside its window.
func (s *Session) Pending() bool {
	for _, d := range s.fields {
		if d.Pending() {
			return true
		}
	}
	return false
}

// Run polls and prepares writes until ctx is done. Pending edits are
// dropped on return.
func (s *Session) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.sync.Run(ctx) })
	g.Go(func() error {
		s.prepareLoop(ctx)
		return nil
	})
	err := g.Wait()

	for _, d := range s.fields {
		d.Stop()
	}
	return err
}

// prepareLoop asks the signer to prepare specs after each input change,
// one pass at a time; bursts of changes coalesce into one pass.
func (s *Session) prepareLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.prepare:
			s.dispatcher.PrepareAll(ctx, s.tracker.Specs())
		}
	}
}
