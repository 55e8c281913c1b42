// Package chain submits prepared write specs as signed transactions through
// an Ethereum JSON-RPC endpoint.
package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"rollup_book/internal/writereq"
)

// Minimal ABIs: only the functions the client calls.
const (
	erc20ABI = `[{"type":"function","name":"approve","stateMutability":"nonpayable",
		"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
		"outputs":[{"name":"","type":"bool"}]}]`

	portalABI = `[{"type":"function","name":"erc20Deposit","stateMutability":"nonpayable",
		"inputs":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"},{"name":"execLayerData","type":"bytes"}],
		"outputs":[]}]`

	rollupABI = `[{"type":"function","name":"addInput","stateMutability":"nonpayable",
		"inputs":[{"name":"_input","type":"bytes"}],
		"outputs":[{"name":"","type":"bytes32"}]}]`
)

var abis = map[writereq.Kind]abi.ABI{
	writereq.KindApprove:     mustParse(erc20ABI),
	writereq.KindDeposit:     mustParse(portalABI),
	writereq.KindAddOrder:    mustParse(rollupABI),
	writereq.KindCancelOrder: mustParse(rollupABI),
}

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("chain: bad ABI: %v", err))
	}
	return parsed
}

// ABI returns the contract ABI used for kind k.
func ABI(k writereq.Kind) (abi.ABI, bool) {
	a, ok := abis[k]
	return a, ok
}

// Pack encodes the calldata of spec.
func Pack(spec writereq.WriteSpec) ([]byte, error) {
	a, ok := abis[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("no ABI for %s", spec.Kind)
	}
	data, err := a.Pack(spec.Method, spec.Args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", spec.Kind, err)
	}
	return data, nil
}
