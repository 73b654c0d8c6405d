// The autoreconcile command sweeps a user's unreconciled transactions
// and links every one with an unambiguous exact match.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"ledgerlink/internal/cli"
	"ledgerlink/internal/infrastructure/config"
)

func main() {
	_ = godotenv.Load()

	flags := cli.ParseSweepFlags()
	cfg := config.LoadOrEnvWithPath(flags.Config)

	cli.PrintHeader("auto-reconcile sweep")

	result, err := cli.RunSweep(cfg, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cli.PrintSweepSummary(result)

	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}
