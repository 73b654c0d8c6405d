package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_lookup_indexes",
		Up:      migration002AddLookupIndexes,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue
		}

		slog.Info("running migration", "version", migration.Version, "name", migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version, migration.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

func (s *Storage) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func migration001InitialSchema(tx *sql.Tx) error {
	// The UNIQUE constraints on reconciliations.transaction_id and
	// reconciliations.invoice_id are load-bearing: the writer's
	// read-then-check is racy on its own, and these make the race lose
	// with a constraint violation instead of a double link.
	schema := `
	CREATE TABLE bank_accounts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		bank_name TEXT NOT NULL,
		iban TEXT,
		currency TEXT NOT NULL DEFAULT 'EUR',
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE transactions (
		id TEXT PRIMARY KEY,
		bank_account_id TEXT NOT NULL REFERENCES bank_accounts(id) ON DELETE CASCADE,
		date TIMESTAMP NOT NULL,
		description TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'EUR',
		is_reconciled INTEGER NOT NULL DEFAULT 0,
		reconciliation_id TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE invoices (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		invoice_number TEXT NOT NULL,
		client_name TEXT NOT NULL,
		client_email TEXT,
		amount TEXT NOT NULL,
		tax_amount TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'EUR',
		issue_date TIMESTAMP NOT NULL,
		due_date TIMESTAMP NOT NULL,
		payment_date TIMESTAMP,
		status TEXT NOT NULL DEFAULT 'pending',
		is_reconciled INTEGER NOT NULL DEFAULT 0,
		reconciliation_id TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, invoice_number)
	);

	CREATE TABLE reconciliations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		transaction_id TEXT NOT NULL UNIQUE REFERENCES transactions(id) ON DELETE CASCADE,
		invoice_id TEXT NOT NULL UNIQUE REFERENCES invoices(id) ON DELETE CASCADE,
		match_score TEXT NOT NULL,
		match_method TEXT NOT NULL,
		validated_by TEXT NOT NULL,
		reasoning TEXT,
		validated_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	`
	_, err := tx.Exec(schema)
	return err
}

func migration002AddLookupIndexes(tx *sql.Tx) error {
	indexes := `
	CREATE INDEX idx_bank_accounts_user ON bank_accounts(user_id);
	CREATE INDEX idx_transactions_account ON transactions(bank_account_id);
	CREATE INDEX idx_transactions_unreconciled ON transactions(is_reconciled);
	CREATE INDEX idx_invoices_user_status ON invoices(user_id, status);
	CREATE INDEX idx_invoices_due_date ON invoices(due_date);
	CREATE INDEX idx_reconciliations_user ON reconciliations(user_id);
	`
	_, err := tx.Exec(indexes)
	return err
}
