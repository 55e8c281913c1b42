package app

import (
	"fmt"
	"strings"

	"rollup_book/internal/writereq"
)

// Field is one order-entry input the user edits.
type Field uint8

const (
	FieldSide Field = iota + 1
	FieldQuantity
	FieldPrice
	FieldDepositToken
	FieldDepositAmount
	FieldCancelOrderID
)

// Fields lists every editable field.
var Fields = []Field{FieldSide, FieldQuantity, FieldPrice, FieldDepositToken, FieldDepositAmount, FieldCancelOrderID}

func (f Field) String() string {
	switch f {
	case FieldSide:
		return "side"
	case FieldQuantity:
		return "quantity"
	case FieldPrice:
		return "price"
	case FieldDepositToken:
		return "deposit_token"
	case FieldDepositAmount:
		return "deposit_amount"
	case FieldCancelOrderID:
		return "cancel_order_id"
	default:
		return "unknown"
	}
}

// ParseField accepts field names and short aliases (qty, token, amount, order_id).
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "side":
		return FieldSide, nil
	case "quantity", "qty":
		return FieldQuantity, nil
	case "price":
		return FieldPrice, nil
	case "deposit_token", "token":
		return FieldDepositToken, nil
	case "deposit_amount", "amount":
		return FieldDepositAmount, nil
	case "cancel_order_id", "order_id", "cancel":
		return FieldCancelOrderID, nil
	default:
		return 0, fmt.Errorf("unknown field %q", s)
	}
}

func (f Field) apply(in *writereq.Inputs, v string) {
	switch f {
	case FieldSide:
		in.Side = v
	case FieldQuantity:
		in.Quantity = v
	case FieldPrice:
		in.Price = v
	case FieldDepositToken:
		in.DepositToken = v
	case FieldDepositAmount:
		in.DepositAmount = v
	case FieldCancelOrderID:
		in.CancelOrderID = v
	}
}
