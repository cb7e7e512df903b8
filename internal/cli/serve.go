package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/spf13/cobra"

	"github.com/sky-flux/cadence/internal/api"
	"github.com/sky-flux/cadence/internal/config"
	"github.com/sky-flux/cadence/internal/logger"
	"github.com/sky-flux/cadence/internal/metrics"
	"github.com/sky-flux/cadence/internal/study"
	"github.com/sky-flux/cadence/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		Long: `Serve the REST API until interrupted. Changes to the log level in
the config file are applied without a restart.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("host", "", "Listen host (default from config)")
	cmd.Flags().Int("port", 0, "Listen port (default from config)")

	RootCmd.AddCommand(cmd)
}

func serveOverrides(cmd *cobra.Command) map[string]any {
	o := overrides()
	if cmd.Flags().Changed("host") {
		v, _ := cmd.Flags().GetString("host")
		o["server.host"] = v
	}
	if cmd.Flags().Changed("port") {
		v, _ := cmd.Flags().GetInt("port")
		o["server.port"] = v
	}
	return o
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	o := serveOverrides(cmd)
	if len(o) > 0 {
		var err error
		if cfg, err = loader.Load(cfgFile, o); err != nil {
			return err
		}
	}

	shutdownTracing, err := telemetry.Init(ctx, cfg.Tracing.TelemetryConfig(), appLog, cfg.App.Name, cfg.App.Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			appLog.Error("Tracing shutdown failed", "error", err)
		}
	}()

	m := metrics.NewManager(cfg.Metrics.ManagerConfig())
	svc, closeFn, err := openService(cmd, study.WithMetrics(m))
	if err != nil {
		return err
	}
	defer closeFn()

	if path := loader.File(); path != "" {
		if err := watchConfig(ctx, path, maps.Clone(o)); err != nil {
			appLog.Warn("Config watcher disabled", "path", path, "error", err)
		}
	}

	srv := api.NewHTTPServer(cfg, appLog, api.NewHandlers(svc, appLog, m, cfg.App.Version))
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	fmt.Fprintf(cmd.ErrOrStderr(), "cadence listening on http://%s\n", srv.Addr())

	select {
	case <-ctx.Done():
		appLog.Info("Received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return err
		}
		return errors.New("HTTP server stopped unexpectedly")
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

// watchConfig applies log level changes from the config file until ctx ends.
func watchConfig(ctx context.Context, path string, o map[string]any) error {
	w, err := config.NewWatcher(path, config.NewLoader(),
		config.WithWatcherLogger(appLog),
		config.WithOverrides(o),
	)
	if err != nil {
		return err
	}

	current := config.ExtractHotReloadable(cfg)
	w.OnChange(func(next *config.Config) {
		hot := config.ExtractHotReloadable(next)
		if !hot.Changed(current) {
			return
		}
		appLog.SetLevel(logger.ParseLevel(hot.LogLevel))
		appLog.Info("Log level changed", "from", current.LogLevel, "to", hot.LogLevel)
		current = hot
	})

	go func() {
		defer w.Stop()
		if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLog.Error("Config watcher stopped", "error", err)
		}
	}()
	return nil
}
