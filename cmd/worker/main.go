// Command worker runs the background job consumer as a standalone process,
// equivalent to "screenctl worker".
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/zsx0855/cosco-comprehensive-query/internal/config"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/internal/interfaces/cli"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := cli.RunWorker(context.Background(), cfg, logger); err != nil {
		logger.Error("worker exited", logging.Err(err))
		os.Exit(1)
	}
}
