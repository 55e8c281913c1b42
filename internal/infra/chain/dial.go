package chain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"rollup_book/internal/infra"
)

// Dial connects to the RPC endpoint and checks it serves chainID.
// Unreachable endpoints are retried with backoff up to attempts times.
func Dial(ctx context.Context, rawURL string, chainID int64, b infra.Backoff, attempts int) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}

	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			delay := b.Delay(i - 1)
			slog.Info("Retrying RPC connection", slog.Int("attempt", i), slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				client.Close()
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		id, err := client.ChainID(ctx)
		if err != nil {
			lastErr = err
			slog.Warn("RPC chain id query failed", slog.String("url", rawURL), slog.Any("error", err))
			continue
		}
		if id.Int64() != chainID {
			client.Close()
			return nil, fmt.Errorf("rpc %s serves chain %s, want %d", rawURL, id, chainID)
		}
		return client, nil
	}
	client.Close()
	return nil, fmt.Errorf("rpc %s unreachable: %w", rawURL, lastErr)
}
