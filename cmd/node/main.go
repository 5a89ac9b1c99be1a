// Package main implements a torua data server.
//
// A data server exports a directory over HTTP under /files/ and registers
// itself with the coordinator together with the capacity of that
// directory's filesystem. Clients that receive an ordinary redirect read
// from here; clients that receive a local redirect open the same file
// through their own mount of the directory.
//
// Example:
//
//	node --id node-1 --root /mnt/torua --addr http://10.0.0.9:1095 \
//	  --coordinator http://10.0.0.1:8080
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/dreamware/redirlocal/internal/cluster"
	"github.com/dreamware/redirlocal/internal/logging"
)

type nodeOptions struct {
	id          string
	listen      string
	addr        string
	root        string
	coordinator string
	logLevel    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := nodeOptions{
		id:          os.Getenv("NODE_ID"),
		listen:      getenv("NODE_LISTEN", ":1095"),
		addr:        getenv("NODE_ADDR", "http://127.0.0.1:1095"),
		root:        getenv("NODE_ROOT", "."),
		coordinator: os.Getenv("COORDINATOR_ADDR"),
		logLevel:    getenv("NODE_LOG_LEVEL", "info"),
	}
	cmd := &cobra.Command{
		Use:          "node",
		Short:        "Data server exporting a directory to the torua cluster",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.id == "" || opts.coordinator == "" {
				return errors.New("--id and --coordinator are required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runNode(ctx, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.id, "id", opts.id, "node identifier (NODE_ID)")
	f.StringVar(&opts.listen, "listen", opts.listen, "listen address (NODE_LISTEN)")
	f.StringVar(&opts.addr, "addr", opts.addr, "address advertised to the coordinator (NODE_ADDR)")
	f.StringVar(&opts.root, "root", opts.root, "directory to export (NODE_ROOT)")
	f.StringVar(&opts.coordinator, "coordinator", opts.coordinator, "coordinator URL (COORDINATOR_ADDR)")
	f.StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level")
	return cmd
}

func runNode(ctx context.Context, opts nodeOptions) error {
	logger, err := logging.New(opts.logLevel, "json")
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger = logger.With(zap.String("node", opts.id))

	mux := newMux(opts.root)
	s := &http.Server{
		Addr:              opts.listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("node listening", zap.String("listen", opts.listen), zap.String("public", opts.addr), zap.String("root", opts.root))
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		total, free, err := capacity(opts.root)
		if err != nil {
			logger.Warn("capacity unavailable", zap.Error(err))
		}
		info := cluster.NodeInfo{ID: opts.id, Addr: opts.addr, TotalBytes: total, FreeBytes: free}
		return register(gctx, logger, opts.coordinator, info, 10, 400*time.Millisecond)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("node stopped")
	return err
}

func newMux(root string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/files/", http.StripPrefix("/files", http.FileServer(http.Dir(root))))
	return mux
}

// register announces info to the coordinator, retrying attempts times with
// a fixed delay to ride out coordinator startup.
func register(ctx context.Context, logger *zap.Logger, coord string, info cluster.NodeInfo, attempts int, delay time.Duration) error {
	body := cluster.RegisterRequest{Node: info}
	var lastErr error
	for i := 0; i < attempts; i++ {
		lastErr = cluster.PostJSON(ctx, coord+"/register", body, nil)
		if lastErr == nil {
			logger.Info("registered with coordinator", zap.String("coordinator", coord))
			return nil
		}
		logger.Warn("register retry", zap.Int("attempt", i+1), zap.Error(lastErr))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("failed to register with coordinator: %w", lastErr)
}

// capacity reports the size and free space of the filesystem holding root.
func capacity(root string) (total, free uint64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(root, &st); err != nil {
		return 0, 0, fmt.Errorf("statfs %s: %w", root, err)
	}
	bsize := uint64(st.Bsize)
	return uint64(st.Blocks) * bsize, uint64(st.Bavail) * bsize, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
