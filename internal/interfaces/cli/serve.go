package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zsx0855/cosco-comprehensive-query/internal/config"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/prometheus"
	httpiface "github.com/zsx0855/cosco-comprehensive-query/internal/interfaces/http"
	"github.com/zsx0855/cosco-comprehensive-query/internal/interfaces/http/handlers"
	"github.com/zsx0855/cosco-comprehensive-query/internal/interfaces/http/middleware"
)

func newServeCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the screening HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLoggerFromConfig(cfg)
			if err != nil {
				return err
			}
			return RunServe(cmd.Context(), cfg, logger)
		},
	}
}

// RunServe wires the platform and serves HTTP until the context is cancelled
// or a termination signal arrives.
func RunServe(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	a, err := newApp(cfg, logger, appOptions{withKafka: true})
	if err != nil {
		return err
	}
	defer a.Close()

	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            "screening",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return err
	}
	metrics := prometheus.NewAppMetrics(collector)

	health := handlers.NewHealthHandler(Version,
		handlers.CheckerFunc{ID: "postgres", Fn: a.pg.HealthCheck},
		handlers.CheckerFunc{ID: "redis", Fn: a.redis.Ping},
	)

	corsCfg := middleware.DefaultCORSConfig()
	rateCfg := middleware.DefaultRateLimitConfig()
	limiter := middleware.NewTokenBucketLimiter(rateCfg.RequestsPerSecond, rateCfg.BurstSize, rateCfg.CleanupInterval)
	defer limiter.Stop()

	router := httpiface.NewRouter(httpiface.RouterConfig{
		ScreeningHandler: handlers.NewScreeningHandler(a.screeningSvc, logger),
		STSHandler:       handlers.NewSTSHandler(a.stsSvc, logger),
		ResolverHandler:  handlers.NewResolverHandler(a.producer, a.resolver, logger),
		CatalogHandler:   handlers.NewCatalogHandler(a.probeConfigs, logger),
		HealthHandler:    health,
		Logger:           logger,
		CORSConfig:       &corsCfg,
		RateLimiter:      limiter,
		RateLimitCfg:     rateCfg,
		Metrics:          metrics,
		MetricsCollector: collector,
	})

	srv := httpiface.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	if err := srv.Stop(context.Background()); err != nil {
		return err
	}
	return <-errCh
}
