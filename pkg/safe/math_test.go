package safe

import (
	"errors"
	"math/big"
	"testing"
)

func TestCheckUint256(t *testing.T) {
	tests := []struct {
		name string
		val  *big.Int
		want error
	}{
		{"Zero", big.NewInt(0), nil},
		{"One Token", new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil), nil},
		{"Max Boundary", MaxUint256, nil},
		{"Overflow", new(big.Int).Add(MaxUint256, big.NewInt(1)), ErrOverflow},
		{"Negative", big.NewInt(-1), ErrNegative},
		{"Nil", nil, ErrNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckUint256(tt.val); !errors.Is(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSafeSub(t *testing.T) {
	t.Run("Underflow", func(t *testing.T) {
		if _, err := SafeSub(big.NewInt(1), big.NewInt(2)); !errors.Is(err, ErrNegative) {
			t.Errorf("expected negative, got %v", err)
		}
	})

	t.Run("Normal", func(t *testing.T) {
		got, err := SafeSub(big.NewInt(30), big.NewInt(20))
		if err != nil || got.Int64() != 10 {
			t.Errorf("got %v (%v), want 10", got, err)
		}
	})

	t.Run("Operand overflow", func(t *testing.T) {
		big257 := new(big.Int).Add(MaxUint256, big.NewInt(1))
		if _, err := SafeSub(big257, big.NewInt(1)); !errors.Is(err, ErrOverflow) {
			t.Errorf("expected overflow, got %v", err)
		}
	})
}
