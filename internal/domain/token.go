package domain

import (
	"fmt"
	"strings"
)

// TokenSide selects one of the two configured deposit tokens.
// The bid token pays for bids (quote), the ask token is what asks sell (base).
type TokenSide string

const (
	TokenBid TokenSide = "bid"
	TokenAsk TokenSide = "ask"
)

func ParseTokenSide(s string) (TokenSide, error) {
	switch TokenSide(strings.ToLower(strings.TrimSpace(s))) {
	case TokenBid:
		return TokenBid, nil
	case TokenAsk:
		return TokenAsk, nil
	default:
		return "", fmt.Errorf("unknown deposit token %q (want bid or ask)", s)
	}
}
