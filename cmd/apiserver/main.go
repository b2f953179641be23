// Command apiserver runs the screening HTTP API as a standalone process,
// equivalent to "screenctl serve".
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

	if err := cli.RunServe(context.Background(), cfg, logger); err != nil {
		logger.Error("api server exited", logging.Err(err))
		os.Exit(1)
	}
}
