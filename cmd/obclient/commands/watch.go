package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rollup_book/internal/domain"
	"rollup_book/internal/infra"
	"rollup_book/internal/state"
)

func newWatchCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a running client's state API stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				cfg, err := infra.LoadConfig(configPath(cmd))
				if err != nil {
					return err
				}
				if cfg.Server.Addr == "" {
					return fmt.Errorf("server.addr is empty; pass --url")
				}
				url = "ws://" + cfg.Server.Addr + "/stream"
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := infra.NewStreamClient(url, infra.UserAgent(Version), snapshotPrinter(cmd.OutOrStdout()))
			client.Start(ctx)
			<-ctx.Done()
			client.Stop()
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "stream URL (default: ws://<server.addr>/stream from config)")
	return cmd
}

func snapshotPrinter(out io.Writer) infra.StreamHandlerFunc {
	return func(ctx context.Context, msg []byte) {
		var snap state.Snapshot
		if err := json.Unmarshal(msg, &snap); err != nil {
			slog.Warn("Unreadable snapshot", slog.Any("error", err))
			return
		}
		fmt.Fprintln(out, summarize(snap))
	}
}

func summarize(snap state.Snapshot) string {
	line := fmt.Sprintf("v%d bid=%s ask=%s", snap.Version, top(snap.PublicBids), top(snap.PublicAsks))
	if snap.Address != nil {
		line += fmt.Sprintf(" | %s orders=%d balances=%d",
			snap.Address.Hex(), len(snap.UserAsks)+len(snap.UserBids), len(snap.UserBalances))
	}
	return line
}

// top formats the first level as returned by the read API.
func top(levels []domain.Level) string {
	if len(levels) == 0 {
		return "-"
	}
	return levels[0].Quantity.String() + "@" + levels[0].Price.String()
}
