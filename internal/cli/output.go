package cli

import (
	"fmt"
	"strings"
)

// PrintHeader prints the command header
func PrintHeader(command string) {
	fmt.Printf("ledgerlink: %s\n", command)
}

// PrintIngestSummary prints the statement ingest result
func PrintIngestSummary(result *IngestResult) {
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Account: %s\n", result.AccountID)
	fmt.Printf("Summary: Imported=%d Skipped=%d\n", result.Imported, result.Skipped)
}

// PrintSweepSummary prints the auto-reconcile sweep result
func PrintSweepSummary(result *SweepResult) {
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Summary: Inspected=%d Reconciled=%d Errors=%d\n",
		result.Inspected, result.Reconciled, len(result.Errors))

	if len(result.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, err := range result.Errors {
			fmt.Printf("  - %v\n", err)
		}
	}
}
