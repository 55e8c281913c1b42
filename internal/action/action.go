// Package action encodes trading intents into the payload the rollup's
// input channel hands to the matching service.
//
// The byte layout is a fixed schema shared by every client of a deployment:
//
//	{"action":"ADD_ORDER","side":"BUY","quantity":2,"price":10}
//	{"action":"CANCEL_ORDER","order_id":"42"}
//
// Numbers are written from their canonical decimal text, never through float64.
package action

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"rollup_book/internal/domain"
)

// Kind is the wire value of the "action" field.
type Kind string

const (
	KindAddOrder    Kind = "ADD_ORDER"
	KindCancelOrder Kind = "CANCEL_ORDER"
)

// Payload is the tagged union of intents. Only AddOrder and CancelOrder implement it.
type Payload interface {
	Kind() Kind
	wire() any
}

// AddOrder places a limit order. Quantity is the human token amount.
type AddOrder struct {
	Side     domain.Side
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

func (AddOrder) Kind() Kind { return KindAddOrder }

// CancelOrder withdraws a resting order by its book-assigned identifier.
type CancelOrder struct {
	OrderID string
}

func (CancelOrder) Kind() Kind { return KindCancelOrder }

// Field order in these structs is the wire order.
type addOrderWire struct {
	Action   Kind        `json:"action"`
	Side     domain.Side `json:"side"`
	Quantity json.Number `json:"quantity"`
	Price    json.Number `json:"price"`
}

type cancelOrderWire struct {
	Action  Kind   `json:"action"`
	OrderID string `json:"order_id"`
}

func (a AddOrder) wire() any {
	return addOrderWire{
		Action:   KindAddOrder,
		Side:     a.Side,
		Quantity: json.Number(a.Quantity.String()),
		Price:    json.Number(a.Price.String()),
	}
}

func (c CancelOrder) wire() any {
	return cancelOrderWire{Action: KindCancelOrder, OrderID: c.OrderID}
}

// Encode serializes p as UTF-8 JSON with no incidental whitespace.
// Callers gate on validity first; Encode does not validate.
func Encode(p Payload) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p.wire()); err != nil {
		// Only reachable with a malformed decimal, which decimal.String never produces.
		panic(fmt.Sprintf("action: encode %s: %v", p.Kind(), err))
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}

var ErrUnknownAction = errors.New("unknown action")

// Decode parses a payload the way the matching service reads it.
func Decode(b []byte) (Payload, error) {
	var head struct {
		Action Kind `json:"action"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	switch head.Action {
	case KindAddOrder:
		var w addOrderWire
		if err := dec.Decode(&w); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Action, err)
		}
		qty, err := decimal.NewFromString(w.Quantity.String())
		if err != nil {
			return nil, fmt.Errorf("decode quantity: %w", err)
		}
		price, err := decimal.NewFromString(w.Price.String())
		if err != nil {
			return nil, fmt.Errorf("decode price: %w", err)
		}
		return AddOrder{Side: w.Side, Quantity: qty, Price: price}, nil

	case KindCancelOrder:
		var w cancelOrderWire
		if err := dec.Decode(&w); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Action, err)
		}
		return CancelOrder{OrderID: w.OrderID}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, head.Action)
	}
}
