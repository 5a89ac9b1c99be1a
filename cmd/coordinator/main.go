// Package main implements the torua coordinator, the cluster manager that
// knows which data server holds each logical path.
//
// Data servers register through POST /register, advertising their address
// and capacity. Paths hash onto a fixed number of shards which are spread
// round-robin over registered servers. Redirectors ask GET /locate for the
// owner of a path and GET /space for cluster capacity.
//
// Endpoints:
//
//	POST /register         data server registration
//	GET  /nodes            registered servers with shards and health
//	POST /broadcast        fan a payload out to every server
//	GET  /locate           path → target host:port + capability
//	GET  /space            capacity over healthy servers
//	GET  /shards           shard assignments, or one with ?id=N
//	POST /shards/assign    manual assignment (admin)
//	POST /shards/unassign  leave a shard without owner (admin)
//	GET  /health           liveness
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dreamware/redirlocal/internal/config"
	"github.com/dreamware/redirlocal/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		listen     string
		numShards  int
	)
	cmd := &cobra.Command{
		Use:          "coordinator",
		Short:        "Cluster manager answering locate and space queries",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Coordinator.ListenAddress = listen
			}
			if numShards > 0 {
				cfg.Coordinator.NumShards = numShards
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the YAML configuration file")
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides coordinator.listen_address)")
	cmd.Flags().IntVar(&numShards, "shards", 0, "number of namespace shards")
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cc := cfg.Coordinator
	reg := prometheus.NewRegistry()
	srv := newServer(cc.NumShards, cc.HealthInterval, logger, reg)

	mux := srv.routes()
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	httpSrv := &http.Server{
		Addr:              cc.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		srv.monitor.Start(gctx, srv.nodes.List)
		return nil
	})
	g.Go(func() error {
		logger.Info("coordinator listening", zap.String("addr", cc.ListenAddress), zap.Int("shards", cc.NumShards))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		srv.monitor.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cc.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("coordinator stopped")
	return err
}
