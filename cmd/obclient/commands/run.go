package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rollup_book/internal/app"
	"rollup_book/internal/infra"
)

func newRunCmd() *cobra.Command {
	var noShell bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sync the book and accept order entry from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			b := app.NewBootstrap()
			b.Version = Version
			if err := b.Initialize(ctx, configPath(cmd)); err != nil {
				slog.Error("Bootstrapping failed", slog.Any("error", err))
				return err
			}
			defer b.Close()

			infra.PrintBanner(cmd.OutOrStdout(), b.Config)

			g, ctx := errgroup.WithContext(ctx)
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			g.Go(func() error { return b.Run(ctx) })
			if !noShell {
				g.Go(func() error {
					// Leaving the shell ends the session.
					defer cancel()
					return app.NewShell(b.Session, cmd.OutOrStdout()).Loop(ctx, cmd.InOrStdin())
				})
			}

			err := g.Wait()
			slog.Info("Shutting down")
			return err
		},
	}
	cmd.Flags().BoolVar(&noShell, "no-shell", false, "sync and serve the state API only; ignore stdin")
	return cmd
}
