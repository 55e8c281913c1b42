package safe

import (
	"errors"
	"math/big"
)

var (
	// ErrNegative is returned when an on-chain amount would be below zero.
	ErrNegative = errors.New("CORE_SAFE_UINT256_NEGATIVE")
	// ErrOverflow is returned when an on-chain amount does not fit in 256 bits.
	ErrOverflow = errors.New("CORE_SAFE_UINT256_OVERFLOW")
)

// MaxUint256 is the largest value an EVM uint256 can hold.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// CheckUint256 reports whether x can be passed as a uint256 contract argument.
func CheckUint256(x *big.Int) error {
	if x == nil {
		return ErrNegative
	}
	if x.Sign() < 0 {
		return ErrNegative
	}
	if x.BitLen() > 256 {
		return ErrOverflow
	}
	return nil
}

// SafeSub subtracts b from a and fails when the result would go negative.
func SafeSub(a, b *big.Int) (*big.Int, error) {
	if err := CheckUint256(a); err != nil {
		return nil, err
	}
	if err := CheckUint256(b); err != nil {
		return nil, err
	}
	diff := new(big.Int).Sub(a, b)
	if diff.Sign() < 0 {
		return nil, ErrNegative
	}
	return diff, nil
}
