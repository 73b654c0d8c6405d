package cli

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledgerlink/internal/domain/ledger"
	"ledgerlink/internal/infrastructure/config"
	"ledgerlink/internal/infrastructure/logging"
)

// IngestFlags holds the CLI flags for the ingest command.
type IngestFlags struct {
	File     string
	User     string
	Account  string
	BankName string
	Currency string
	Config   string
	Verbose  bool
}

// ParseIngestFlags parses command line flags for the ingest command.
func ParseIngestFlags() *IngestFlags {
	flags := &IngestFlags{}
	flag.StringVar(&flags.File, "file", "", "CSV statement file to ingest")
	flag.StringVar(&flags.User, "user", "", "User ID owning the bank account")
	flag.StringVar(&flags.Account, "account", "", "Existing bank account ID (empty = create one)")
	flag.StringVar(&flags.BankName, "bank", "Imported", "Bank name when creating an account")
	flag.StringVar(&flags.Currency, "currency", "EUR", "Default currency for rows without one")
	flag.StringVar(&flags.Config, "config", "config.yaml", "Configuration file path")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// IngestResult summarizes a statement ingest run.
type IngestResult struct {
	AccountID uuid.UUID
	Imported  int
	Skipped   int
}

// RunIngest imports a CSV bank statement into a bank account.
func RunIngest(cfg *config.Config, flags *IngestFlags) (*IngestResult, error) {
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "ingest")

	if flags.File == "" {
		return nil, fmt.Errorf("missing -file")
	}
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

	// Resolve or create the bank account.
	var account *ledger.BankAccount
	if flags.Account != "" {
		accountID, err := uuid.Parse(flags.Account)
		if err != nil {
			return nil, fmt.Errorf("invalid -account: %w", err)
		}
		account, err = app.Store.GetBankAccount(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, fmt.Errorf("bank account %s not found", accountID)
		}
		if account.UserID != userID {
			return nil, ledger.ErrForbidden
		}
	} else {
		account = &ledger.BankAccount{
			ID:        uuid.New(),
			UserID:    userID,
			BankName:  flags.BankName,
			Currency:  strings.ToUpper(flags.Currency),
			CreatedAt: time.Now().UTC(),
		}
		if err := app.Store.SaveBankAccount(ctx, account); err != nil {
			return nil, err
		}
		logger.Info("created bank account", "account_id", account.ID, "bank", account.BankName)
	}

	f, err := os.Open(flags.File)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	transactions, skipped, err := ParseStatement(f, account.ID, account.Currency)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{AccountID: account.ID, Skipped: skipped}
	for _, tx := range transactions {
		if err := app.Store.SaveTransaction(ctx, tx); err != nil {
			return result, fmt.Errorf("failed to save transaction from %s: %w", tx.Date.Format("2006-01-02"), err)
		}
		result.Imported++
	}

	logger.Info("statement ingested",
		"file", flags.File, "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}

// statement date formats accepted, tried in order.
var statementDateLayouts = []string{"2006-01-02", "02/01/2006"}

// ParseStatement reads a CSV bank statement. The expected columns are
// date, description, amount, and optionally currency; a header row is
// detected and skipped. Rows with an unparseable date or amount are
// skipped, not fatal: exported statements routinely carry balance and
// summary lines.
func ParseStatement(r io.Reader, accountID uuid.UUID, defaultCurrency string) ([]*ledger.Transaction, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var transactions []*ledger.Transaction
	skipped := 0
	now := time.Now().UTC()

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read statement: %w", err)
		}
		if len(record) < 3 {
			skipped++
			continue
		}

		date, ok := parseStatementDate(record[0])
		if !ok {
			skipped++ // header or summary row
			continue
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(record[2]))
		if err != nil {
			skipped++
			continue
		}

		currency := defaultCurrency
		if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
			currency = strings.ToUpper(strings.TrimSpace(record[3]))
		}

		transactions = append(transactions, &ledger.Transaction{
			ID:            uuid.New(),
			BankAccountID: accountID,
			Date:          date,
			Description:   strings.TrimSpace(record[1]),
			Amount:        amount,
			Currency:      currency,
			CreatedAt:     now,
		})
	}

	return transactions, skipped, nil
}

func parseStatementDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range statementDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
