package writereq

import (
	"fmt"
	"strings"
)

// Kind enumerates the on-chain writes the client can prepare.
type Kind uint8

const (
	KindApprove Kind = iota + 1
	KindDeposit
	KindAddOrder
	KindCancelOrder
)

// Kinds lists every write kind in dispatch order.
var Kinds = []Kind{KindApprove, KindDeposit, KindAddOrder, KindCancelOrder}

func (k Kind) String() string {
	switch k {
	case KindApprove:
		return "APPROVE"
	case KindDeposit:
		return "DEPOSIT"
	case KindAddOrder:
		return "ADD_ORDER"
	case KindCancelOrder:
		return "CANCEL_ORDER"
	default:
		return "UNKNOWN"
	}
}

// Method is the contract function the kind calls.
func (k Kind) Method() string {
	switch k {
	case KindApprove:
		return "approve"
	case KindDeposit:
		return "erc20Deposit"
	case KindAddOrder, KindCancelOrder:
		return "addInput"
	default:
		return ""
	}
}

// ParseKind accepts "approve", "deposit", "order"/"add_order", "cancel"/"cancel_order".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve":
		return KindApprove, nil
	case "deposit":
		return KindDeposit, nil
	case "order", "add_order", "add-order":
		return KindAddOrder, nil
	case "cancel", "cancel_order", "cancel-order":
		return KindCancelOrder, nil
	default:
		return 0, fmt.Errorf("unknown write kind %q", s)
	}
}
