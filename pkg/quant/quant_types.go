package quant

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"rollup_book/pkg/safe"
)

// Decimals is the token smallest-unit convention (ERC-20 default).
const Decimals = 18

// maxExponent bounds scientific notation so scaling never materializes huge powers of ten.
const maxExponent = 96

var (
	ErrEmpty       = errors.New("empty numeric input")
	ErrNotPositive = errors.New("value must be positive")
)

// Fixed18 represents a token amount multiplied by 10^18.
// E.g., 1.5 tokens = 1,500,000,000,000,000,000 Fixed18.
type Fixed18 struct {
	i *big.Int
}

// NewFixed18 wraps a smallest-unit integer. The value is copied.
func NewFixed18(i *big.Int) Fixed18 {
	if i == nil {
		return Fixed18{}
	}
	return Fixed18{i: new(big.Int).Set(i)}
}

// Int returns a copy of the underlying integer (zero when unset).
func (f Fixed18) Int() *big.Int {
	if f.i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(f.i)
}

func (f Fixed18) Sign() int {
	if f.i == nil {
		return 0
	}
	return f.i.Sign()
}

func (f Fixed18) Cmp(o Fixed18) int {
	return f.Int().Cmp(o.Int())
}

func (f Fixed18) IsZero() bool { return f.Sign() == 0 }

// String returns the smallest-unit integer text.
func (f Fixed18) String() string {
	return f.Int().String()
}

// Decimal returns the human-readable token amount.
func (f Fixed18) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(f.Int(), -Decimals)
}

// MarshalJSON encodes the amount as a quoted integer so 256-bit values survive JSON consumers.
func (f Fixed18) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.String() + `"`), nil
}

func (f *Fixed18) UnmarshalJSON(b []byte) error {
	v, err := ParseFixed18Units(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ParseDecimal parses user or wire text into a decimal without float64.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrEmpty
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero, fmt.Errorf("decimal %q out of range", s)
	}
	return d, nil
}

// ParsePositive parses s and requires a strictly positive value.
func ParsePositive(s string) (decimal.Decimal, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%q: %w", s, ErrNotPositive)
	}
	return d, nil
}

// ToFixed18 converts a token amount to smallest units: round(d * 10^18).
// Rounding is half away from zero; values that do not fit a uint256 fail.
func ToFixed18(d decimal.Decimal) (Fixed18, error) {
	scaled := d.Shift(Decimals).Round(0).BigInt()
	if err := safe.CheckUint256(scaled); err != nil {
		return Fixed18{}, fmt.Errorf("amount %s: %w", d.String(), err)
	}
	return Fixed18{i: scaled}, nil
}

// ToFixed18Str parses and scales a positive human amount ("1.5" -> 1500000000000000000).
func ToFixed18Str(s string) (Fixed18, error) {
	d, err := ParsePositive(s)
	if err != nil {
		return Fixed18{}, err
	}
	return ToFixed18(d)
}

// ParseFixed18Units parses an amount already expressed in smallest units,
// as returned by the balance endpoint. Fractional digits are rejected.
func ParseFixed18Units(s string) (Fixed18, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return Fixed18{}, err
	}
	if !d.Equal(d.Truncate(0)) {
		return Fixed18{}, fmt.Errorf("smallest-unit amount %q has a fraction", s)
	}
	i := d.BigInt()
	if err := safe.CheckUint256(i); err != nil {
		return Fixed18{}, fmt.Errorf("smallest-unit amount %q: %w", s, err)
	}
	return Fixed18{i: i}, nil
}
