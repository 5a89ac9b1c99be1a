// Package main implements the torua redirector, the locate front-end that
// clients ask "where is file X".
//
// Every locate is forwarded to the coordinator. When the client and the
// chosen data server are both on private networks the answer is rewritten
// into a local physical path instead of a redirect to the server.
//
//	┌────────┐  GET /locate   ┌────────────┐  GET /locate  ┌─────────────┐
//	│ client │ ─────────────▶ │ redirector │ ────────────▶ │ coordinator │
//	└────────┘ ◀───────────── └────────────┘ ◀──────────── └─────────────┘
//	            redirect or                   target + cap
//	            redirect_local
//
// Configuration comes from a YAML file (--config), TORUA_* environment
// variables and flags, in increasing order of precedence. The read-only
// policy is read once from the directive file at startup.
//
// Example:
//
//	redirector --coordinator http://10.0.0.1:8080 --local-root /mnt/torua \
//	  --directive-file /etc/torua/redirector.cf
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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dreamware/redirlocal/internal/config"
	"github.com/dreamware/redirlocal/internal/locator"
	"github.com/dreamware/redirlocal/internal/logging"
	"github.com/dreamware/redirlocal/internal/namespace"
	"github.com/dreamware/redirlocal/internal/policy"
	"github.com/dreamware/redirlocal/internal/redirect"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath    string
	listen        string
	coordinator   string
	localRoot     string
	directiveFile string
	logLevel      string
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "redirector",
		Short:         "Locality-aware locate front-end for the torua cluster",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "path to the YAML configuration file")
	f.StringVar(&opts.listen, "listen", "", "listen address (overrides redirector.listen_address)")
	f.StringVar(&opts.coordinator, "coordinator", "", "coordinator base URL")
	f.StringVar(&opts.localRoot, "local-root", "", "local mount point of the cluster namespace")
	f.StringVar(&opts.directiveFile, "directive-file", "", "file holding <product>.readonlyredirect")
	f.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	return cmd
}

func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	r := &cfg.Redirector
	setIf(&r.ListenAddress, opts.listen)
	setIf(&r.CoordinatorURL, opts.coordinator)
	setIf(&r.LocalRoot, opts.localRoot)
	setIf(&r.DirectiveFile, opts.directiveFile)
	setIf(&cfg.Logging.Level, opts.logLevel)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// run serves until ctx is cancelled and then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	rc := cfg.Redirector
	pol, loaded := policy.LoadFile(rc.DirectiveFile, rc.Product)
	logger.Info("redirect policy loaded",
		zap.String("directive_file", rc.DirectiveFile),
		zap.Bool("from_file", loaded),
		zap.Bool("read_only_redirect_only", pol.ReadOnlyRedirectOnly))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine := redirect.NewEngine(redirect.PrivateClassifier, namespace.NewLocalRoot(rc.LocalRoot))
	finder := redirect.NewFinder(locator.NewClient(rc.CoordinatorURL), engine, pol,
		redirect.WithLogger(logger.Named("finder")),
		redirect.WithMetrics(redirect.NewMetrics(reg)),
	)

	srv := newServer(finder, logger, rc)
	mux := srv.routes()
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	httpSrv := &http.Server{
		Addr:              rc.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("redirector listening",
			zap.String("addr", rc.ListenAddress),
			zap.String("coordinator", rc.CoordinatorURL),
			zap.String("local_root", rc.LocalRoot))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), rc.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("redirector stopped")
	return err
}
