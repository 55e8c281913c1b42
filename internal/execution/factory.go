// Package execution selects the signing surface for the configured chain mode.
package execution

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"rollup_book/internal/dispatch"
	"rollup_book/internal/infra"
	"rollup_book/internal/infra/chain"
)

// dialAttempts bounds start-up retries against the RPC endpoint.
const dialAttempts = 5

// Signer is a dispatch.Signer plus whatever must be released at shutdown.
type Signer struct {
	dispatch.Signer
	// Account is the signing address; zero in dry-run mode.
	Account common.Address
	close   func()
}

func (s *Signer) Close() {
	if s.close != nil {
		s.close()
	}
}

// NewSigner returns the signer for cfg.Chain.Mode.
func NewSigner(ctx context.Context, cfg *infra.Config) (*Signer, error) {
	slog.Info("Initializing signing surface", slog.String("mode", cfg.Chain.Mode))

	switch cfg.Chain.Mode {
	case infra.ModeDryRun:
		return &Signer{Signer: NewDryRunSigner()}, nil

	case infra.ModeLive:
		client, err := chain.Dial(ctx, cfg.Chain.RPCURL, cfg.Chain.ChainID, infra.DefaultBackoff, dialAttempts)
		if err != nil {
			return nil, err
		}
		s, err := chain.NewSigner(client, cfg.Chain.PrivateKey, cfg.Chain.ChainID, cfg.Chain.GasLimit)
		if err != nil {
			client.Close()
			return nil, err
		}
		slog.Info("Connected to chain",
			slog.Int64("chain_id", cfg.Chain.ChainID),
			slog.String("account", s.From().Hex()))
		return &Signer{Signer: s, Account: s.From(), close: client.Close}, nil

	default:
		return nil, fmt.Errorf("unknown chain mode: %s", cfg.Chain.Mode)
	}
}
