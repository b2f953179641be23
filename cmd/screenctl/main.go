// Command screenctl is the platform CLI: API server, background worker,
// one-shot resolver runs, and schema migrations.
package main

import (
	"os"

	"github.com/zsx0855/cosco-comprehensive-query/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
