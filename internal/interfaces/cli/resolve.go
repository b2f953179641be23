package cli

import (
	"time"

	"github.com/spf13/cobra"

	redisdb "github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/database/redis"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
)

func newResolveCmd(opts *RootOptions) *cobra.Command {
	var skipLock bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Run one bulk entity risk resolution",
		Long:  "Loads the signal table, reduces every entity to a verdict, and writes the\nresult back. Takes the same distributed lock as the background worker unless\n--skip-lock is set.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLoggerFromConfig(cfg)
			if err != nil {
				return err
			}

			a, err := newApp(cfg, logger, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if !skipLock {
				mutex := redisdb.NewMutex(a.redis, resolverLockName, logger)
				if err := mutex.Lock(ctx); err != nil {
					return err
				}
				defer func() {
					if err := mutex.Unlock(ctx); err != nil {
						logger.Warn("resolver lock release failed", logging.Err(err))
					}
				}()
			}

			started := time.Now()
			verdicts, err := a.resolver.Run(ctx, time.Now().UTC())
			if err != nil {
				return err
			}

			summary := struct {
				Entities int    `json:"entities"`
				Duration string `json:"duration"`
			}{
				Entities: len(verdicts),
				Duration: time.Since(started).Truncate(time.Millisecond).String(),
			}
			return printJSON(cmd, summary)
		},
	}

	cmd.Flags().BoolVar(&skipLock, "skip-lock", false, "run without taking the distributed lock")
	return cmd
}
