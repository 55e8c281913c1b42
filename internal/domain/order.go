package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"rollup_book/pkg/quant"
)

// Side is the order side as written on the wire.
type Side string

const (
	SideBuy  Side = "BUY"  // bid
	SideSell Side = "SELL" // ask
)

// ParseSide accepts the wire tokens and the book names ("bid"/"ask"), case-insensitively.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY", "BID":
		return SideBuy, nil
	case "SELL", "ASK":
		return SideSell, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Order represents a limit order on the off-chain book.
// Quantity is in token smallest units; Price is a plain decimal.
type Order struct {
	Side     Side
	Quantity quant.Fixed18
	Price    decimal.Decimal
	OrderID  string // empty until the book assigns one
}

// IsSubmittable checks the invariants an order must hold before it is sent.
func (o *Order) IsSubmittable() bool {
	return o.Side.Valid() && o.Quantity.Sign() > 0 && o.Price.IsPositive()
}
