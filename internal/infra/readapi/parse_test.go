package readapi

import (
	"errors"
	"testing"
)

func TestParseLevels(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    [][2]string
		wantErr bool
	}{
		{"Numbers", `[{"price":10,"quantity":2},{"price":10.5,"quantity":0.25}]`, [][2]string{{"10", "2"}, {"10.5", "0.25"}}, false},
		{"Numeric strings", `[{"price":"99.99","quantity":"1"}]`, [][2]string{{"99.99", "1"}}, false},
		{"Precision kept", `[{"price":0.1000000000000000055511151231257827,"quantity":1}]`, [][2]string{{"0.1000000000000000055511151231257827", "1"}}, false},
		{"Empty", `[]`, nil, false},
		{"Null", `null`, nil, false},
		{"Missing quantity", `[{"price":1}]`, nil, true},
		{"Bool price", `[{"price":true,"quantity":1}]`, nil, true},
		{"Not an array", `{"price":1}`, nil, true},
		{"Garbage", `[{`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevels([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d levels, want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				if got[i].Price.String() != w[0] || got[i].Quantity.String() != w[1] {
					t.Errorf("level %d = %s@%s, want %s@%s", i, got[i].Quantity, got[i].Price, w[1], w[0])
				}
			}
		})
	}
}

func TestParseBalances(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		body := `[{"token":"0x5FbDB2315678afecb367f032d93F642f64180aa3","total":"1500000000000000000","available":1000000000000000000}]`
		got, err := ParseBalances([]byte(body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 balance, got %d", len(got))
		}
		if got[0].Total.String() != "1500000000000000000" {
			t.Errorf("total = %s", got[0].Total)
		}
		if got[0].Available.String() != "1000000000000000000" {
			t.Errorf("available = %s", got[0].Available)
		}
		if got[0].Token.Hex() != "0x5FbDB2315678afecb367f032d93F642f64180aa3" {
			t.Errorf("token = %s", got[0].Token.Hex())
		}
	})

	t.Run("Available exceeds total", func(t *testing.T) {
		body := `[{"token":"0x5FbDB2315678afecb367f032d93F642f64180aa3","total":1,"available":2}]`
		if _, err := ParseBalances([]byte(body)); !errors.Is(err, ErrMalformed) {
			t.Errorf("expected ErrMalformed, got %v", err)
		}
	})

	t.Run("Bad token", func(t *testing.T) {
		body := `[{"token":"nope","total":1,"available":1}]`
		if _, err := ParseBalances([]byte(body)); !errors.Is(err, ErrMalformed) {
			t.Errorf("expected ErrMalformed, got %v", err)
		}
	})

	t.Run("Fractional units", func(t *testing.T) {
		body := `[{"token":"0x5FbDB2315678afecb367f032d93F642f64180aa3","total":1.5,"available":1}]`
		if _, err := ParseBalances([]byte(body)); err == nil {
			t.Error("expected error for fractional smallest units")
		}
	})
}
