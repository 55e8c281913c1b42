package quant

import (
	"testing"
)

// FuzzToFixed18Str tests amount scaling with fuzzing.
func FuzzToFixed18Str(f *testing.F) {
	f.Add("0")
	f.Add("1.5")
	f.Add("-1.23")
	f.Add("0.000000000000000001")
	f.Add("115792089237316195423570985008687907853269984665640564039457")

	f.Fuzz(func(t *testing.T, s string) {
		// Should return an error on bad input, never panic
		v, err := ToFixed18Str(s)
		if err == nil && v.Sign() <= 0 {
			t.Errorf("ToFixed18Str(%q) accepted a non-positive amount %s", s, v)
		}
	})
}

// FuzzParseFixed18Units tests smallest-unit parsing with fuzzing.
func FuzzParseFixed18Units(f *testing.F) {
	f.Add("0")
	f.Add("1000000000000000000")
	f.Add("-1")
	f.Add("1.5")

	f.Fuzz(func(t *testing.T, s string) {
		_, _ = ParseFixed18Units(s)
	})
}
