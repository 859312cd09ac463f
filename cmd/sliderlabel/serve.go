package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sliderlabel/internal/api"
	"sliderlabel/pkg/config"
	"sliderlabel/pkg/db"
	"sliderlabel/pkg/db/maintenance"
	"sliderlabel/pkg/map/labels"
	"sliderlabel/pkg/probe"
	"sliderlabel/pkg/store"
	"sliderlabel/pkg/version"
)

func newServeCmd(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath())
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, cleanup, err := setup(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	slog.Info("SliderLabel Started", "version", version.Version)

	d, err := db.Init(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to init db: %w", err)
	}
	st := store.NewSQLiteStore(d)
	defer st.Close()

	maintenance.Run(ctx, d, cfg.DB.Retention.Std())

	results := probe.Run(ctx, []probe.Probe{
		{Name: "Database", Check: probe.Ping(d), Critical: true},
		{Name: "Output Directory", Check: probe.WritableDir(cfg.Output.Dir)},
	})
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	return runServer(ctx, cfg, labels.NewManager(st, cfg))
}

func runServer(ctx context.Context, cfg *config.Config, mgr *labels.Manager) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	shutdownFunc := requestShutdown(quit)

	srv := api.NewServer(cfg.Server.Address,
		api.NewPlaceHandler(mgr),
		api.NewStreamHandler(mgr),
		cfg.Anneal.MaxRuntime.Std(),
		shutdownFunc,
	)
	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit)
}

// requestShutdown returns a trigger that queues one stop signal. Further calls
// while a signal is pending are dropped.
func requestShutdown(quit chan<- os.Signal) func() {
	return func() {
		select {
		case quit <- syscall.SIGTERM:
		default:
		}
	}
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
