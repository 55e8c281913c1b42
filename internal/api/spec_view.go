package api

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"rollup_book/internal/writereq"
)

// SpecView is the JSON form of a write spec.
type SpecView struct {
	Kind    string   `json:"kind"`
	Target  string   `json:"target"`
	Method  string   `json:"method"`
	Ready   bool     `json:"ready"`
	Reason  string   `json:"reason,omitempty"`
	Args    []string `json:"args,omitempty"`
	Payload string   `json:"payload,omitempty"` // rollup input text
}

func NewSpecView(spec writereq.WriteSpec) SpecView {
	v := SpecView{
		Kind:   spec.Kind.String(),
		Target: spec.Target.Hex(),
		Method: spec.Method,
		Ready:  spec.Ready,
		Reason: spec.Reason,
	}
	for _, arg := range spec.Args {
		switch a := arg.(type) {
		case common.Address:
			v.Args = append(v.Args, a.Hex())
		case *big.Int:
			v.Args = append(v.Args, a.String())
		case []byte:
			if spec.Kind == writereq.KindAddOrder || spec.Kind == writereq.KindCancelOrder {
				v.Payload = string(a)
			}
			v.Args = append(v.Args, "0x"+common.Bytes2Hex(a))
		}
	}
	return v
}
