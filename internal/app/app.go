// Package app wires the durable store, configuration, and observability
// servers together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/funkiben/raftstore/internal/kv"
	"github.com/funkiben/raftstore/internal/raftstore"
)

// App owns a configured store and its observability side servers.
type App struct {
	config Config
	logger *slog.Logger
	store  raftstore.Store[kv.State]
}

// New validates dependencies and constructs a runnable application.
func New(cfg Config, logger *slog.Logger, store raftstore.Store[kv.State]) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		return nil, fmt.Errorf("app: nil logger")
	}
	if store == nil {
		return nil, fmt.Errorf("app: nil store")
	}
	return &App{config: cfg, logger: logger, store: store}, nil
}

// Store returns the wired store.
func (a *App) Store() raftstore.Store[kv.State] { return a.store }

// OpenStore constructs the store backend selected by cfg.
func OpenStore(cfg Config, logger *slog.Logger, m raftstore.Metrics) (raftstore.Store[kv.State], error) {
	switch cfg.Backend {
	case BackendMemory:
		return raftstore.NewMemoryStore[kv.State](kv.Codec{}, kv.State{})
	case BackendFile:
		return raftstore.NewFileStore[kv.State](cfg.DataDir, kv.Codec{}, kv.State{}, logger, m)
	case BackendSQLite:
		return raftstore.NewSQLiteStore[kv.State](filepath.Join(cfg.DataDir, "store.db"), kv.Codec{}, kv.State{}, logger, m)
	default:
		return nil, fmt.Errorf("app: unsupported backend %q", cfg.Backend)
	}
}

// Run starts the configured observability servers and blocks until ctx is
// canceled or one of them fails. The caller owns the store's lifecycle:
// Run never touches it, so workloads may keep driving the store while the
// servers run and close it once Run has returned.
func (a *App) Run(ctx context.Context) error {
	shutdownTracing, err := a.initTracing(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			a.logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	metricsSrv, metricsLis, err := a.metricsServer()
	if err != nil {
		return err
	}
	pprofSrv, pprofLis, err := a.pprofServer()
	if err != nil {
		if metricsLis != nil {
			_ = metricsLis.Close()
		}
		return err
	}

	a.logger.Info(
		"store opened",
		"node_id", a.config.NodeID,
		"backend", a.config.Backend,
		"data_dir", a.config.DataDir,
		"metrics_addr", a.config.MetricsAddr,
	)

	errCh := make(chan error, 2)

	if metricsSrv != nil {
		go func() {
			if err := metricsSrv.Serve(metricsLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics serve: %w", err)
			}
		}()
	}
	if pprofSrv != nil {
		go func() {
			if err := pprofSrv.Serve(pprofLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("pprof serve: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		shutdownHTTPServer(metricsSrv, a.logger, "metrics server")
		shutdownHTTPServer(pprofSrv, a.logger, "pprof server")
		return nil
	case err := <-errCh:
		shutdownHTTPServer(metricsSrv, a.logger, "metrics server")
		shutdownHTTPServer(pprofSrv, a.logger, "pprof server")
		return err
	}
}
