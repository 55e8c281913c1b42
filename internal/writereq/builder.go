// Package writereq derives the parameterized contract calls (approve, deposit,
// rollup input) from the current stable order-entry inputs.
//
// Derivation is pure: the same Inputs always produce the same Specs, and
// nothing here talks to a chain. Each spec carries a Ready flag computed from
// its own inputs only; a spec that is not ready has no Args.
package writereq

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"

	"rollup_book/internal/action"
	"rollup_book/internal/domain"
	"rollup_book/pkg/quant"
)

// Inputs are the stable (debounced) order-entry values, as typed.
type Inputs struct {
	Side          string
	Quantity      string
	Price         string
	DepositToken  string // "bid" or "ask"
	DepositAmount string
	CancelOrderID string
}

// Addresses are the fixed contracts of a deployment.
type Addresses struct {
	Rollup   common.Address
	Portal   common.Address
	BidToken common.Address
	AskToken common.Address
}

// WriteSpec is one prepared contract call.
type WriteSpec struct {
	Kind   Kind
	Target common.Address
	Method string
	Args   []any
	Ready  bool
	Reason string // why the spec is not ready; empty when Ready
}

// Specs holds one spec per kind.
type Specs struct {
	Approve     WriteSpec
	Deposit     WriteSpec
	AddOrder    WriteSpec
	CancelOrder WriteSpec
}

// Get returns the spec for k.
func (s Specs) Get(k Kind) (WriteSpec, bool) {
	switch k {
	case KindApprove:
		return s.Approve, true
	case KindDeposit:
		return s.Deposit, true
	case KindAddOrder:
		return s.AddOrder, true
	case KindCancelOrder:
		return s.CancelOrder, true
	default:
		return WriteSpec{}, false
	}
}

var (
	ErrUnknownToken = errors.New("deposit token not configured")
	ErrNoPortal     = errors.New("portal address not configured")
)

// Builder derives specs against one deployment.
type Builder struct {
	addrs Addresses
}

func NewBuilder(addrs Addresses) *Builder {
	return &Builder{addrs: addrs}
}

// ResolveToken maps the bid/ask toggle to a configured token address.
func (b *Builder) ResolveToken(raw string) (common.Address, error) {
	side, err := domain.ParseTokenSide(raw)
	if err != nil {
		return common.Address{}, err
	}
	var addr common.Address
	switch side {
	case domain.TokenBid:
		addr = b.addrs.BidToken
	case domain.TokenAsk:
		addr = b.addrs.AskToken
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%s: %w", side, ErrUnknownToken)
	}
	return addr, nil
}

// Derive computes all specs from in.
func (b *Builder) Derive(in Inputs) Specs {
	return Specs{
		Approve:     b.approve(in),
		Deposit:     b.deposit(in),
		AddOrder:    b.addOrder(in),
		CancelOrder: b.cancelOrder(in),
	}
}

func notReady(k Kind, target common.Address, err error) WriteSpec {
	return WriteSpec{Kind: k, Target: target, Method: k.Method(), Reason: err.Error()}
}

// depositArgs validates the shared approve/deposit inputs.
func (b *Builder) depositArgs(in Inputs) (common.Address, *big.Int, error) {
	if b.addrs.Portal == (common.Address{}) {
		return common.Address{}, nil, ErrNoPortal
	}
	token, err := b.ResolveToken(in.DepositToken)
	if err != nil {
		return common.Address{}, nil, err
	}
	amount, err := quant.ToFixed18Str(in.DepositAmount)
	if err != nil {
		return token, nil, fmt.Errorf("deposit amount: %w", err)
	}
	return token, amount.Int(), nil
}

func (b *Builder) approve(in Inputs) WriteSpec {
	token, amount, err := b.depositArgs(in)
	if err != nil {
		return notReady(KindApprove, token, err)
	}
	return WriteSpec{
		Kind:   KindApprove,
		Target: token,
		Method: KindApprove.Method(),
		Args:   []any{b.addrs.Portal, amount},
		Ready:  true,
	}
}

func (b *Builder) deposit(in Inputs) WriteSpec {
	token, amount, err := b.depositArgs(in)
	if err != nil {
		return notReady(KindDeposit, b.addrs.Portal, err)
	}
	return WriteSpec{
		Kind:   KindDeposit,
		Target: b.addrs.Portal,
		Method: KindDeposit.Method(),
		Args:   []any{token, amount, []byte{}},
		Ready:  true,
	}
}

// OrderPayload validates side, quantity and price and returns the intent.
// All three are required: quantity > 0, price > 0, and a known side.
func OrderPayload(in Inputs) (action.AddOrder, error) {
	side, err := domain.ParseSide(in.Side)
	if err != nil {
		return action.AddOrder{}, err
	}
	qty, err := quant.ParsePositive(in.Quantity)
	if err != nil {
		return action.AddOrder{}, fmt.Errorf("quantity: %w", err)
	}
	// Quantity is token-denominated and must scale to smallest units.
	units, err := quant.ToFixed18(qty)
	if err != nil {
		return action.AddOrder{}, fmt.Errorf("quantity: %w", err)
	}
	price, err := quant.ParsePositive(in.Price)
	if err != nil {
		return action.AddOrder{}, fmt.Errorf("price: %w", err)
	}
	order := domain.Order{Side: side, Quantity: units, Price: price}
	if !order.IsSubmittable() {
		return action.AddOrder{}, fmt.Errorf("quantity %s is below one token unit", qty)
	}
	return action.AddOrder{Side: order.Side, Quantity: qty, Price: order.Price}, nil
}

func (b *Builder) addOrder(in Inputs) WriteSpec {
	p, err := OrderPayload(in)
	if err != nil {
		return notReady(KindAddOrder, b.addrs.Rollup, err)
	}
	return WriteSpec{
		Kind:   KindAddOrder,
		Target: b.addrs.Rollup,
		Method: KindAddOrder.Method(),
		Args:   []any{action.Encode(p)},
		Ready:  true,
	}
}

func (b *Builder) cancelOrder(in Inputs) WriteSpec {
	id := strings.TrimSpace(in.CancelOrderID)
	if id == "" {
		return notReady(KindCancelOrder, b.addrs.Rollup, errors.New("order id: empty"))
	}
	if !utf8.ValidString(id) {
		return notReady(KindCancelOrder, b.addrs.Rollup, errors.New("order id: invalid UTF-8"))
	}
	return WriteSpec{
		Kind:   KindCancelOrder,
		Target: b.addrs.Rollup,
		Method: KindCancelOrder.Method(),
		Args:   []any{action.Encode(action.CancelOrder{OrderID: id})},
		Ready:  true,
	}
}
