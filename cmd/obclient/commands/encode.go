package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"rollup_book/internal/action"
	"rollup_book/internal/infra/chain"
	"rollup_book/internal/writereq"
)

const flagCalldata = "calldata"

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Print the rollup input for an order or a cancel",
	}
	cmd.PersistentFlags().Bool(flagCalldata, false, "print addInput calldata instead of the payload text")

	orderCmd := &cobra.Command{
		Use:   "order <side> <quantity> <price>",
		Short: "Encode ADD_ORDER",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := writereq.OrderPayload(writereq.Inputs{Side: args[0], Quantity: args[1], Price: args[2]})
			if err != nil {
				return err
			}
			return printPayload(cmd, action.Encode(p))
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Encode CANCEL_ORDER",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return errors.New("order id: empty")
			}
			return printPayload(cmd, action.Encode(action.CancelOrder{OrderID: id}))
		},
	}

	cmd.AddCommand(orderCmd, cancelCmd)
	return cmd
}

func printPayload(cmd *cobra.Command, payload []byte) error {
	asCalldata, _ := cmd.Flags().GetBool(flagCalldata)
	if !asCalldata {
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}
	a, _ := chain.ABI(writereq.KindAddOrder)
	data, err := a.Pack("addInput", payload)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(data))
	return nil
}
