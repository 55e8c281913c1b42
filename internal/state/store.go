// Package state holds the latest synchronized view of the order book and the
// connected user's orders and balances.
//
// The Store is mutated only through Apply. Each slot is written by exactly one
// poll loop; a write is accepted only if its request sequence number is higher
// than any accepted so far for that slot, and, for user-scoped slots, only if
// it was issued during the current address epoch.
package state

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"rollup_book/internal/domain"
	"rollup_book/pkg/quant"
)

// Slot identifies one independently-owned part of the snapshot.
type Slot uint8

const (
	SlotPublicBook Slot = iota + 1
	SlotUserOrders
	SlotUserBalances
)

func (s Slot) String() string {
	switch s {
	case SlotPublicBook:
		return "public_book"
	case SlotUserOrders:
		return "user_orders"
	case SlotUserBalances:
		return "user_balances"
	default:
		return "unknown"
	}
}

// UserScoped reports whether the slot belongs to an address.
func (s Slot) UserScoped() bool {
	return s == SlotUserOrders || s == SlotUserBalances
}

// Snapshot is a read-only copy of the store.
type Snapshot struct {
	Address      *common.Address  `json:"address,omitempty"`
	PublicAsks   []domain.Level   `json:"public_asks"`
	PublicBids   []domain.Level   `json:"public_bids"`
	UserAsks     []domain.Level   `json:"user_asks"`
	UserBids     []domain.Level   `json:"user_bids"`
	UserBalances []domain.Balance `json:"user_balances"`
	Version      uint64           `json:"version"`
}

// Update is a reducer input.
type Update interface {
	slot() Slot
}

// PublicBookFetched replaces publicAsks/publicBids.
type PublicBookFetched struct {
	Seq  quant.Seq
	Book domain.Book
}

// Epoch counts address changes. A user-scoped request is stamped with the
// epoch it was issued in and is rejected once the epoch moves on, even if the
// user later switches back to the same address.
type Epoch uint64

// UserOrdersFetched replaces the user's asks/bids.
type UserOrdersFetched struct {
	Seq     quant.Seq
	Epoch   Epoch
	Address common.Address
	Book    domain.Book
}

// UserBalancesFetched replaces the user's balances.
type UserBalancesFetched struct {
	Seq      quant.Seq
	Epoch    Epoch
	Address  common.Address
	Balances []domain.Balance
}

func (PublicBookFetched) slot() Slot   { return SlotPublicBook }
func (UserOrdersFetched) slot() Slot   { return SlotUserOrders }
func (UserBalancesFetched) slot() Slot { return SlotUserBalances }

// Store is the single owner of the synchronized state.
type Store struct {
	mu sync.RWMutex

	address *common.Address
	epoch   Epoch
	public  domain.Book
	user    domain.Book
	bals    []domain.Balance

	lastSeq map[Slot]quant.Seq
	version uint64

	subMu sync.Mutex
	subs  map[chan struct{}]struct{}
}

func NewStore() *Store {
	return &Store{
		lastSeq: make(map[Slot]quant.Seq),
		subs:    make(map[chan struct{}]struct{}),
	}
}

// SetAddress switches the active user and returns the new epoch. User slots
// are cleared; responses stamped with an older epoch are rejected from now on.
// Setting the same address again keeps the current epoch.
func (s *Store) SetAddress(addr *common.Address) Epoch {
	s.mu.Lock()
	if sameAddress(s.address, addr) {
		epoch := s.epoch
		s.mu.Unlock()
		return epoch
	}
	if addr != nil {
		a := *addr
		s.address = &a
	} else {
		s.address = nil
	}
	s.epoch++
	epoch := s.epoch
	s.user = domain.Book{}
	s.bals = nil
	s.version++
	s.mu.Unlock()

	s.notify()
	return epoch
}

// Epoch returns the current address epoch.
func (s *Store) Epoch() Epoch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Address returns the active address, if any.
func (s *Store) Address() (common.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.address == nil {
		return common.Address{}, false
	}
	return *s.address, true
}

// Apply reduces u into the store and reports whether it was accepted.
func (s *Store) Apply(u Update) bool {
	s.mu.Lock()
	accepted := s.apply(u)
	if accepted {
		s.version++
	}
	s.mu.Unlock()

	if accepted {
		s.notify()
	}
	return accepted
}

// apply must be called with mu held.
func (s *Store) apply(u Update) bool {
	slot := u.slot()
	switch u := u.(type) {
	case PublicBookFetched:
		if !s.advance(slot, u.Seq) {
			return false
		}
		s.public = u.Book.Clone()

	case UserOrdersFetched:
		if !s.isActive(u.Epoch, u.Address) || !s.advance(slot, u.Seq) {
			return false
		}
		s.user = u.Book.Clone()

	case UserBalancesFetched:
		if !s.isActive(u.Epoch, u.Address) || !s.advance(slot, u.Seq) {
			return false
		}
		s.bals = append([]domain.Balance(nil), u.Balances...)

	default:
		return false
	}
	return true
}

func (s *Store) advance(slot Slot, seq quant.Seq) bool {
	if seq <= s.lastSeq[slot] {
		return false
	}
	s.lastSeq[slot] = seq
	return true
}

func (s *Store) isActive(epoch Epoch, addr common.Address) bool {
	return epoch == s.epoch && s.address != nil && *s.address == addr
}

// LastSeq returns the highest accepted sequence number for slot.
func (s *Store) LastSeq(slot Slot) quant.Seq {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeq[slot]
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pub := s.public.Clone()
	usr := s.user.Clone()
	snap := Snapshot{
		PublicAsks:   pub.Asks,
		PublicBids:   pub.Bids,
		UserAsks:     usr.Asks,
		UserBids:     usr.Bids,
		UserBalances: append([]domain.Balance(nil), s.bals...),
		Version:      s.version,
	}
	if s.address != nil {
		a := *s.address
		snap.Address = &a
	}
	return snap
}

// Subscribe returns a channel that receives a signal after accepted changes.
// Signals are coalesced; readers call Snapshot to see the new state.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		delete(s.subs, ch)
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func sameAddress(a, b *common.Address) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
