// The ingest command imports a CSV bank statement into a bank account.
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

	flags := cli.ParseIngestFlags()
	cfg := config.LoadOrEnvWithPath(flags.Config)

	cli.PrintHeader("ingest")

	result, err := cli.RunIngest(cfg, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cli.PrintIngestSummary(result)
}
