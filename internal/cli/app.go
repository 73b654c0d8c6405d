// Package cli holds the command plumbing shared by the entrypoints
// under cmd/: flag parsing, service wiring, and console output.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"ledgerlink/internal/aimatcher"
	"ledgerlink/internal/domain/match"
	"ledgerlink/internal/infrastructure/config"
	"ledgerlink/internal/infrastructure/storage"
	"ledgerlink/internal/invoicing"
	"ledgerlink/internal/reconcile"
)

// App bundles the wired services behind a command.
type App struct {
	Store      *storage.Storage
	Reconciler *reconcile.Service
	Invoicer   *invoicing.Service
}

// NewApp wires storage and the services from configuration. The
// semantic matcher is only attached when an Anthropic API key is
// configured; without it the engine runs exact and reference matching
// only.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var matcher match.SemanticMatcher
	if apiKey := cfg.GetAPIKey(cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY"); apiKey != "" {
		matcher = aimatcher.NewClient(apiKey, cfg.Anthropic.Model, cfg.Anthropic.RequestTimeout(), logger)
	} else {
		logger.Warn("no Anthropic API key configured, semantic matching disabled")
	}

	threshold, err := decimal.NewFromString(cfg.Matching.AutoReconcileThreshold)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("invalid auto_reconcile_threshold %q: %w", cfg.Matching.AutoReconcileThreshold, err)
	}

	engineCfg := reconcile.Config{
		AutoThreshold:  threshold,
		CandidateLimit: cfg.Matching.CandidateLimit,
		MatcherTimeout: cfg.Anthropic.RequestTimeout(),
	}

	return &App{
		Store:      store,
		Reconciler: reconcile.NewService(store, matcher, engineCfg, logger),
		Invoicer:   invoicing.NewService(store, logger),
	}, nil
}

// Close releases the app's resources.
func (a *App) Close() error {
	return a.Store.Close()
}
