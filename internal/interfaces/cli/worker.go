package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zsx0855/cosco-comprehensive-query/internal/config"
	redisdb "github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/database/redis"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/messaging/kafka"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

// resolverLockName serializes bulk resolver runs across worker replicas.
const resolverLockName = "resolver-run"

func newWorkerCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background job worker",
		Long:  "Consumes screening and resolver jobs from the job topic and executes them.\nResolver runs are serialized through a distributed lock so only one replica\nrebuilds the verdict table at a time.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLoggerFromConfig(cfg)
			if err != nil {
				return err
			}
			return RunWorker(cmd.Context(), cfg, logger)
		},
	}
}

// RunWorker consumes jobs until the context is cancelled or a termination
// signal arrives.
func RunWorker(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	a, err := newApp(cfg, logger, appOptions{withKafka: true})
	if err != nil {
		return err
	}
	defer a.Close()

	handler := newJobHandler(a, logger)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Worker, handler, logger)
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Warn("consumer close failed", logging.Err(err))
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- consumer.Run(runCtx) }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	case <-runCtx.Done():
	}

	cancel()
	return <-errCh
}

// newJobHandler dispatches consumed jobs to the owning service.
func newJobHandler(a *app, logger logging.Logger) kafka.JobHandler {
	return func(ctx context.Context, job kafka.Job) error {
		switch job.Type {
		case kafka.JobTypeScreening:
			_, err := a.screeningSvc.Screen(ctx, *job.Screening)
			return err

		case kafka.JobTypeResolve:
			return runResolveJob(ctx, a, logger)

		default:
			return errors.Newf(errors.ErrCodeValidation, "unsupported job type %q", job.Type)
		}
	}
}

// runResolveJob runs one bulk resolution under the distributed lock. A held
// lock means another replica is already resolving; the job is dropped rather
// than queued behind it, since a fresh run supersedes the pending one.
func runResolveJob(ctx context.Context, a *app, logger logging.Logger) error {
	mutex := redisdb.NewMutex(a.redis, resolverLockName, logger)

	acquired, err := mutex.TryLock(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		logger.Info("resolver run already in progress, skipping")
		return nil
	}
	defer func() {
		if err := mutex.Unlock(context.Background()); err != nil {
			logger.Warn("resolver lock release failed", logging.Err(err))
		}
	}()

	verdicts, err := a.resolver.Run(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	logger.Info("resolver run finished", logging.Int("entities", len(verdicts)))
	return nil
}
