package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cometbft/cometbft/abci/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"onchainlottery/internal/app"
	"onchainlottery/internal/config"
	"onchainlottery/internal/metrics"
	"onchainlottery/internal/state"
)

func newStartCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the ABCI server until SIGINT or SIGTERM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return runStart(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.String("abci.addr", "tcp://127.0.0.1:26658", "ABCI listen address")
	f.String("abci.transport", "socket", "ABCI transport (socket|grpc)")
	f.String("db.backend", "goleveldb", "state database backend (goleveldb|pebbledb|memdb)")
	f.String("db.dir", "", "state database directory (default <home>/data)")
	f.String("log.level", "info", "log level (trace|debug|info|warn|error)")
	f.String("log.format", "plain", "log format (plain|json)")
	f.String("metrics.addr", "", "Prometheus listen address; empty disables metrics")
	_ = v.BindPFlags(f)

	return cmd
}

func runStart(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	db, err := state.OpenDB(cfg.DB.Backend, cfg.DB.Dir)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	store := state.NewStore(db)
	defer func() { _ = store.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := app.New(store, logger, metrics.New(reg))
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	srv, err := server.NewServer(cfg.ABCI.Addr, cfg.ABCI.Transport, a)
	if err != nil {
		return fmt.Errorf("create abci server: %w", err)
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("abci server start: %w", err)
	}
	defer func() { _ = srv.Stop() }()
	logger.Info("abci server started", "addr", cfg.ABCI.Addr, "transport", cfg.ABCI.Transport, "home", cfg.Home)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, reg, logger); err != nil {
				logger.Error("metrics server stopped", "err", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
