package api

import (
	"rollup_book/internal/domain"
)

// BalanceView is the JSON form of a balance with its locked part spelled out.
type BalanceView struct {
	Token     string `json:"token"`
	Total     string `json:"total"`
	Available string `json:"available"`
	Reserved  string `json:"reserved"`
	Error     string `json:"error,omitempty"`
}

func NewBalanceView(b domain.Balance) BalanceView {
	v := BalanceView{
		Token:     b.Token.Hex(),
		Total:     b.Total.String(),
		Available: b.Available.String(),
	}
	reserved, err := b.Reserved()
	if err != nil {
		v.Error = err.Error()
		return v
	}
	v.Reserved = reserved.String()
	return v
}
