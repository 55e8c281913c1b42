package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"rollup_book/pkg/quant"
	"rollup_book/pkg/safe"
)

// Balance is a user's holding of one token inside the rollup.
// All amounts are in the token's smallest unit.
type Balance struct {
	Token     common.Address `json:"token"`
	Total     quant.Fixed18  `json:"total"`
	Available quant.Fixed18  `json:"available"`
}

// VerifyInvariant checks 0 <= Available <= Total.
func (b *Balance) VerifyInvariant() error {
	if b.Total.Sign() < 0 || b.Available.Sign() < 0 {
		return fmt.Errorf("balance %s: negative amount", b.Token.Hex())
	}
	if b.Available.Cmp(b.Total) > 0 {
		return fmt.Errorf("balance %s: available %s exceeds total %s", b.Token.Hex(), b.Available, b.Total)
	}
	return nil
}

// Reserved is the part of Total locked in open orders. It fails for a
// balance that does not hold the invariant.
func (b *Balance) Reserved() (quant.Fixed18, error) {
	r, err := safe.SafeSub(b.Total.Int(), b.Available.Int())
	if err != nil {
		return quant.Fixed18{}, fmt.Errorf("balance %s: %w", b.Token.Hex(), err)
	}
	return quant.NewFixed18(r), nil
}
