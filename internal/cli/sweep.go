package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/uuid"

	"ledgerlink/internal/infrastructure/config"
	"ledgerlink/internal/infrastructure/logging"
	"ledgerlink/internal/infrastructure/storage"
)

// SweepFlags holds the CLI flags for the auto-reconcile sweep.
type SweepFlags struct {
	User    string
	Limit   int
	Config  string
	Verbose bool
}

// ParseSweepFlags parses command line flags for the sweep command.
func ParseSweepFlags() *SweepFlags {
	flags := &SweepFlags{}
	flag.StringVar(&flags.User, "user", "", "User ID to sweep")
	flag.IntVar(&flags.Limit, "limit", 500, "Maximum transactions to inspect")
	flag.StringVar(&flags.Config, "config", "config.yaml", "Configuration file path")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// SweepResult summarizes an auto-reconcile sweep.
type SweepResult struct {
	Inspected  int
	Reconciled int
	Errors     []error
}

// RunSweep walks the user's unreconciled transactions and applies
// auto-reconciliation to each. Per-transaction failures are collected,
// not fatal: one bad record must not stop the sweep.
func RunSweep(cfg *config.Config, flags *SweepFlags) (*SweepResult, error) {
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "sweep")

	userID, err := uuid.Parse(flags.User)
	if err != nil {
		return nil, fmt.Errorf("invalid -user: %w", err)
	}

	app, err := NewApp(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = app.Close() }()

	ctx := context.Background()

	transactions, err := app.Store.ListTransactions(ctx, userID, storage.TransactionFilters{
		OnlyUnreconciled: true,
		Limit:            flags.Limit,
	})
	if err != nil {
		return nil, err
	}

	result := &SweepResult{}
	for _, tx := range transactions {
		result.Inspected++
		rec, err := app.Reconciler.TryAutoReconcile(ctx, userID, tx.ID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("transaction %s: %w", tx.ID, err))
			continue
		}
		if rec != nil {
			result.Reconciled++
		}
	}

	logger.Info("sweep finished",
		"inspected", result.Inspected,
		"reconciled", result.Reconciled,
		"errors", len(result.Errors))
	return result, nil
}
