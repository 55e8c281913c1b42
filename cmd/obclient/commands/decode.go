package commands

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"rollup_book/internal/action"
	"rollup_book/internal/infra/chain"
	"rollup_book/internal/writereq"
)

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <payload|0xcalldata>",
		Short: "Decode a rollup input as the matching service reads it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := inputPayload(args[0])
			if err != nil {
				return err
			}
			p, err := action.Decode(payload)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch v := p.(type) {
			case action.AddOrder:
				fmt.Fprintf(out, "action=%s side=%s quantity=%s price=%s\n", v.Kind(), v.Side, v.Quantity, v.Price)
			case action.CancelOrder:
				fmt.Fprintf(out, "action=%s order_id=%s\n", v.Kind(), v.OrderID)
			}
			return nil
		},
	}
}

// inputPayload accepts payload text or addInput calldata.
func inputPayload(arg string) ([]byte, error) {
	arg = strings.TrimSpace(arg)
	if !strings.HasPrefix(arg, "0x") {
		return []byte(arg), nil
	}
	data, err := hexutil.Decode(arg)
	if err != nil {
		return nil, fmt.Errorf("calldata: %w", err)
	}
	a, _ := chain.ABI(writereq.KindAddOrder)
	method := a.Methods["addInput"]
	if len(data) < 4 || !bytes.Equal(data[:4], method.ID) {
		return nil, fmt.Errorf("calldata is not an addInput call")
	}
	vals, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("calldata: %w", err)
	}
	return vals[0].([]byte), nil
}
