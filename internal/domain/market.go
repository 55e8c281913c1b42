package domain

import "github.com/shopspring/decimal"

// Level is one row returned by the book endpoints.
type Level struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Book is one side-pair of the order book as last fetched.
type Book struct {
	Asks []Level `json:"asks"`
	Bids []Level `json:"bids"`
}

// Clone returns a deep copy so readers never share slices with the store.
func (b Book) Clone() Book {
	out := Book{}
	if b.Asks != nil {
		out.Asks = append([]Level(nil), b.Asks...)
	}
	if b.Bids != nil {
		out.Bids = append([]Level(nil), b.Bids...)
	}
	return out
}
