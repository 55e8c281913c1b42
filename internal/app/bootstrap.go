package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"rollup_book/internal/api"
	"rollup_book/internal/dispatch"
	"rollup_book/internal/execution"
	"rollup_book/internal/infra"
	"rollup_book/internal/infra/readapi"
	"rollup_book/internal/poller"
	"rollup_book/internal/storage"
	"rollup_book/internal/writereq"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config  *infra.Config
	Journal *storage.Journal
	Signer  *execution.Signer
	Session *Session
	Server  *api.Server // nil when server.addr is empty

	// Version replaces app.version when set. It must be set before Initialize.
	Version string
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration from configPath and builds every component.
// Nothing runs until Run.
func (b *Bootstrap) Initialize(ctx context.Context, configPath string) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if b.Version != "" {
		cfg.App.Version = b.Version
	}
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("Bootstrapping order book client",
		slog.String("config", configPath),
		slog.String("mode", cfg.Chain.Mode))

	// 3. Dispatch journal (process lifetime only)
	journal, err := storage.OpenJournal(storage.MemoryDSN)
	if err != nil {
		return err
	}
	b.Journal = journal

	// 4. Signing surface
	signer, err := execution.NewSigner(ctx, cfg)
	if err != nil {
		b.Close()
		return err
	}
	b.Signer = signer

	// 5. Session
	dispatchMetrics := dispatch.NopMetrics()
	pollMetrics := poller.NopMetrics()
	if cfg.Metrics.Enabled {
		dispatchMetrics = dispatch.PrometheusMetrics(cfg.Metrics.Namespace)
		pollMetrics = poller.PrometheusMetrics(cfg.Metrics.Namespace)
	}

	b.Session = NewSession(Deps{
		Builder: writereq.NewBuilder(Addresses(cfg)),
		Signer:  signer,
		Journal: journal,
		Fetcher: readapi.NewClient(cfg),
		Window:  time.Duration(cfg.Input.DebounceMS) * time.Millisecond,
		Poll: poller.Options{
			Intervals: poller.Intervals{
				Book:     time.Duration(cfg.API.BookPollMS) * time.Millisecond,
				Orders:   time.Duration(cfg.API.OrdersPollMS) * time.Millisecond,
				Balances: time.Duration(cfg.API.BalancesPollMS) * time.Millisecond,
			},
			Breaker: infra.CircuitBreakerConfig{
				FailureThreshold: cfg.API.Breaker.FailureThreshold,
				SuccessThreshold: cfg.API.Breaker.SuccessThreshold,
				Timeout:          time.Duration(cfg.API.Breaker.TimeoutSec) * time.Second,
			},
			Metrics: pollMetrics,
		},
		DispatchMetrics: dispatchMetrics,
	})

	// 6. Initial account: configured address first, then the signing key.
	switch {
	case cfg.Session.Address != "":
		addr := common.HexToAddress(cfg.Session.Address)
		b.Session.SetAddress(&addr)
	case signer.Account != (common.Address{}):
		addr := signer.Account
		b.Session.SetAddress(&addr)
	}

	// 7. State API
	if cfg.Server.Addr != "" {
		b.Server = api.NewServer(b.Session.Store(), journal, b.Session, api.Options{
			Addr:    cfg.Server.Addr,
			Metrics: cfg.Metrics.Enabled,
		})
	}

	slog.Info("Bootstrap complete",
		slog.String("api", cfg.API.BaseURL),
		slog.String("rollup", cfg.Chain.Rollup),
		slog.Bool("state_api", b.Server != nil))
	return nil
}

// Addresses reads the deployment contracts from cfg. Unset addresses are zero.
func Addresses(cfg *infra.Config) writereq.Addresses {
	return writereq.Addresses{
		Rollup:   common.HexToAddress(cfg.Chain.Rollup),
		Portal:   common.HexToAddress(cfg.Chain.Portal),
		BidToken: common.HexToAddress(cfg.Chain.BidToken),
		AskToken: common.HexToAddress(cfg.Chain.AskToken),
	}
}

// Run drives the session and the state API until ctx is done or either fails.
func (b *Bootstrap) Run(ctx context.Context) error {
	if b.Session == nil {
		return fmt.Errorf("bootstrap not initialized")
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.Session.Run(ctx) })
	if b.Server != nil {
		g.Go(func() error { return b.Server.Run(ctx) })
	}
	return g.Wait()
}

// Close releases the signer and the journal.
func (b *Bootstrap) Close() {
	if b.Signer != nil {
		b.Signer.Close()
	}
	if b.Journal != nil {
		if err := b.Journal.Close(); err != nil {
			slog.Warn("Journal close failed", slog.Any("error", err))
		}
	}
}
