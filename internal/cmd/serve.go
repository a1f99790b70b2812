package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/bucketagent/internal/observability"
	"github.com/3leaps/bucketagent/internal/server"
	"github.com/3leaps/bucketagent/internal/server/handlers"
	"github.com/3leaps/bucketagent/pkg/provider"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	Long: `Serve the storage agent over HTTP.

Routes:
  GET    /health, /health/live, /health/ready, /health/startup
  GET    /version
  GET    /metrics
  GET    /buckets/{bucket}?prefix=&marker=&delimiter=&max-keys=
  GET    /buckets/{bucket}/objects/{key}
  HEAD   /buckets/{bucket}/objects/{key}
  PUT    /buckets/{bucket}/objects/{key}
  DELETE /buckets/{bucket}/objects/{key}

With --health-bucket, readiness lists one key of that bucket.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveHost         string
	servePort         int
	serveHealthBucket string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config)")
	serveCmd.Flags().StringVar(&serveHealthBucket, "health-bucket", "", "Bucket probed by readiness checks")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig.Server
	if cmd.Flags().Changed("host") {
		cfg.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storeFromConfig(ctx)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to create storage agent", err)
	}

	metrics := observability.NewMetrics()

	handlers.SetVersionInfo(versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)
	handlers.InitHealthManager(versionInfo.Version)
	health := handlers.GetHealthManager()
	health.RegisterChecker("signal", signalHealthChecker{})
	health.RegisterChecker("telemetry", telemetryHealthChecker{metrics: metrics})
	health.RegisterChecker("storage", storageHealthChecker{store: store, bucket: serveHealthBucket})

	srv := server.New(cfg.Host, cfg.Port,
		server.WithStore(store),
		server.WithMetrics(metrics),
		server.WithLogger(observability.CLILogger),
		server.WithTimeouts(cfg.ReadTimeout, cfg.WriteTimeout, cfg.IdleTimeout),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return exitError(foundry.ExitExternalServiceUnavailable, "Gateway failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	observability.CLILogger.Info("Shutting down gateway", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return exitError(foundry.ExitSignalInt, "Gateway shutdown incomplete", err)
	}
	return <-errCh
}

// signalHealthChecker reports healthy while the process is serving.
type signalHealthChecker struct{}

func (signalHealthChecker) CheckHealth(ctx context.Context) error {
	return nil
}

// telemetryHealthChecker fails when metrics are not wired.
type telemetryHealthChecker struct {
	metrics *observability.Metrics
}

func (c telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if c.metrics == nil {
		return errors.New("telemetry system not initialized")
	}
	return nil
}

// storageHealthChecker fails when no store is configured and, when bucket
// is set, when a one-key listing of it fails.
type storageHealthChecker struct {
	store  provider.ObjectLister
	bucket string
}

func (c storageHealthChecker) CheckHealth(ctx context.Context) error {
	if c.store == nil {
		return errors.New("storage agent not configured")
	}
	if c.bucket == "" {
		return nil
	}
	_, err := c.store.List(ctx, c.bucket, provider.ListOptions{MaxKeys: 1})
	return err
}
