// Package poller keeps the state store fresh by polling the read endpoints.
//
// Three loops run independently: the public book for the whole session, and
// the user's orders and balances while an address is set. Every tick launches
// its own fetch without waiting for earlier ones, so responses may arrive out
// of order; each request carries a per-slot sequence number and the store
// keeps only the newest.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"

	"rollup_book/internal/domain"
	"rollup_book/internal/infra"
	"rollup_book/internal/state"
	"rollup_book/pkg/quant"
)

// Fetcher reads the off-chain service. *readapi.Client implements it.
type Fetcher interface {
	FetchBook(ctx context.Context, addr *common.Address) (domain.Book, error)
	FetchBalances(ctx context.Context, addr common.Address) ([]domain.Balance, error)
}

// Intervals are the per-loop tick periods.
type Intervals struct {
	Book     time.Duration
	Orders   time.Duration
	Balances time.Duration
}

// Options configure a Synchronizer. Zero fields take defaults.
type Options struct {
	Intervals Intervals
	Breaker   infra.CircuitBreakerConfig // Name is set per slot
	Clock     clock.Clock
	Metrics   *Metrics
}

var ErrAlreadyStarted = errors.New("synchronizer already started")

// Synchronizer owns the poll loops.
type Synchronizer struct {
	fetch    Fetcher
	store    *state.Store
	clock    clock.Clock
	iv       Intervals
	metrics  *Metrics
	breaker  infra.CircuitBreakerConfig

	// breakers holds one breaker per slot. User-scoped breakers are
	// replaced on every address change so a new address starts closed.
	breakers map[state.Slot]*infra.CircuitBreaker

	// Sequence counters are never reset, so a restarted loop cannot
	// reissue a number the store has already seen.
	bookSeq, ordersSeq, balancesSeq uint64

	mu         sync.Mutex
	running    bool
	ctx        context.Context
	cancel     context.CancelFunc
	userCancel context.CancelFunc
	wg         sync.WaitGroup
}

// NewSynchronizer creates a synchronizer writing into store.
func NewSynchronizer(fetch Fetcher, store *state.Store, opts Options) *Synchronizer {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics()
	}
	if opts.Intervals.Book <= 0 {
		opts.Intervals.Book = time.Second
	}
	if opts.Intervals.Orders <= 0 {
		opts.Intervals.Orders = 2 * time.Second
	}
	if opts.Intervals.Balances <= 0 {
		opts.Intervals.Balances = 2 * time.Second
	}
	if opts.Breaker.Timeout <= 0 {
		opts.Breaker = infra.DefaultCircuitBreakerConfig("")
	}
	if opts.Breaker.Clock == nil {
		opts.Breaker.Clock = opts.Clock
	}

	s := &Synchronizer{
		fetch:    fetch,
		store:    store,
		clock:    opts.Clock,
		iv:       opts.Intervals,
		metrics:  opts.Metrics,
		breaker:  opts.Breaker,
		breakers: make(map[state.Slot]*infra.CircuitBreaker),
	}
	for _, slot := range slots {
		s.breakers[slot] = s.newBreaker(slot)
	}
	return s
}

var slots = []state.Slot{state.SlotPublicBook, state.SlotUserOrders, state.SlotUserBalances}

func (s *Synchronizer) newBreaker(slot state.Slot) *infra.CircuitBreaker {
	cfg := s.breaker
	cfg.Name = slot.String()
	return infra.NewCircuitBreaker(cfg)
}

// Start launches the public loop, and the user loops if the store already
// has an address. Each loop fetches once immediately.
func (s *Synchronizer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyStarted
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)

	book := s.breakers[state.SlotPublicBook]
	s.startLoop(s.ctx, state.SlotPublicBook, s.iv.Book, func(ctx context.Context) {
		s.pollBook(ctx, book)
	})
	if addr, ok := s.store.Address(); ok {
		s.startUserLoops(addr, s.store.Epoch())
	}

	slog.Info("Synchronizer started",
		slog.Duration("book", s.iv.Book),
		slog.Duration("orders", s.iv.Orders),
		slog.Duration("balances", s.iv.Balances))
	return nil
}

// Stop cancels every loop and in-flight fetch and waits for them to return.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.userCancel = nil
	s.mu.Unlock()

	s.wg.Wait()
	slog.Info("Synchronizer stopped")
}

// Run starts the loops and blocks until ctx is done.
func (s *Synchronizer) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// OnAddressChanged tears down the user loops for old (timers and in-flight
// requests), clears the user slots, and starts new loops when next is set.
func (s *Synchronizer) OnAddressChanged(old, next *common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userCancel != nil {
		s.userCancel()
		s.userCancel = nil
	}

	// Failures seen for the old address say nothing about the new one.
	for _, slot := range slots {
		if slot.UserScoped() {
			s.breakers[slot] = s.newBreaker(slot)
		}
	}

	epoch := s.store.SetAddress(next)
	slog.Info("Address changed",
		slog.String("old", addrString(old)),
		slog.String("new", addrString(next)),
		slog.Uint64("epoch", uint64(epoch)))

	if s.running && next != nil {
		s.startUserLoops(*next, epoch)
	}
}

// startUserLoops must be called with mu held.
func (s *Synchronizer) startUserLoops(addr common.Address, epoch state.Epoch) {
	ctx, cancel := context.WithCancel(s.ctx)
	s.userCancel = cancel

	orders, bals := s.breakers[state.SlotUserOrders], s.breakers[state.SlotUserBalances]
	s.startLoop(ctx, state.SlotUserOrders, s.iv.Orders, func(ctx context.Context) {
		s.pollUserOrders(ctx, orders, addr, epoch)
	})
	s.startLoop(ctx, state.SlotUserBalances, s.iv.Balances, func(ctx context.Context) {
		s.pollUserBalances(ctx, bals, addr, epoch)
	})
}

// startLoop creates the ticker before returning so no tick is missed.
func (s *Synchronizer) startLoop(ctx context.Context, slot state.Slot, interval time.Duration, tick func(context.Context)) {
	ticker := s.clock.Ticker(interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		s.spawn(ctx, slot, tick)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.spawn(ctx, slot, tick)
			}
		}
	}()
}

// spawn runs one fetch without blocking the loop.
func (s *Synchronizer) spawn(ctx context.Context, slot state.Slot, tick func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Poll panic recovered", slog.String("slot", slot.String()), slog.Any("panic", r))
			}
		}()
		tick(ctx)
	}()
}

// guarded runs fetch through cb and records metrics under the breaker's
// name, which is the slot name. It returns false when nothing should be applied.
func (s *Synchronizer) guarded(ctx context.Context, cb *infra.CircuitBreaker, fetch func() error) bool {
	if ctx.Err() != nil {
		return false
	}
	s.metrics.InFlight.Add(1)
	defer s.metrics.InFlight.Add(-1)

	slot := cb.Name()
	start := s.clock.Now()
	err := cb.Execute(fetch)
	switch {
	case err == nil:
		s.metrics.FetchSeconds.With("slot", slot).Observe(s.clock.Since(start).Seconds())
		return true
	case errors.Is(err, infra.ErrCircuitOpen):
		s.metrics.Polls.With("slot", slot, "result", "skipped").Add(1)
		slog.Debug("Poll skipped: circuit open", slog.String("slot", slot))
	case ctx.Err() != nil:
		// cancelled by address change or shutdown
	default:
		s.metrics.Polls.With("slot", slot, "result", "error").Add(1)
		slog.Warn("Poll failed, keeping previous snapshot",
			slog.String("slot", slot),
			slog.Any("error", err))
	}
	return false
}

func (s *Synchronizer) applied(slot state.Slot, ok bool) {
	result := "accepted"
	if !ok {
		result = "stale"
	}
	s.metrics.Polls.With("slot", slot.String(), "result", result).Add(1)
}

func (s *Synchronizer) pollBook(ctx context.Context, cb *infra.CircuitBreaker) {
	seq := quant.NextSeq(&s.bookSeq)
	var book domain.Book
	if !s.guarded(ctx, cb, func() (err error) {
		book, err = s.fetch.FetchBook(ctx, nil)
		return err
	}) {
		return
	}
	s.applied(state.SlotPublicBook, s.store.Apply(state.PublicBookFetched{Seq: seq, Book: book}))
}

func (s *Synchronizer) pollUserOrders(ctx context.Context, cb *infra.CircuitBreaker, addr common.Address, epoch state.Epoch) {
	seq := quant.NextSeq(&s.ordersSeq)
	var book domain.Book
	if !s.guarded(ctx, cb, func() (err error) {
		book, err = s.fetch.FetchBook(ctx, &addr)
		return err
	}) {
		return
	}
	s.applied(state.SlotUserOrders, s.store.Apply(state.UserOrdersFetched{
		Seq: seq, Epoch: epoch, Address: addr, Book: book,
	}))
}

func (s *Synchronizer) pollUserBalances(ctx context.Context, cb *infra.CircuitBreaker, addr common.Address, epoch state.Epoch) {
	seq := quant.NextSeq(&s.balancesSeq)
	var bals []domain.Balance
	if !s.guarded(ctx, cb, func() (err error) {
		bals, err = s.fetch.FetchBalances(ctx, addr)
		return err
	}) {
		return
	}
	s.applied(state.SlotUserBalances, s.store.Apply(state.UserBalancesFetched{
		Seq: seq, Epoch: epoch, Address: addr, Balances: bals,
	}))
}

// Issued returns how many requests a slot has stamped so far.
func (s *Synchronizer) Issued(slot state.Slot) uint64 {
	switch slot {
	case state.SlotPublicBook:
		return atomic.LoadUint64(&s.bookSeq)
	case state.SlotUserOrders:
		return atomic.LoadUint64(&s.ordersSeq)
	case state.SlotUserBalances:
		return atomic.LoadUint64(&s.balancesSeq)
	default:
		return 0
	}
}

func addrString(a *common.Address) string {
	if a == nil {
		return "none"
	}
	return a.Hex()
}
