// Package domain defines the monthly report batch surface.
package domain

import (
	"context"

	ledgerdomain "github.com/smallbiznis/referral/internal/ledger/domain"
)

// RunSummary describes one completed batch run.
type RunSummary struct {
	RunID         string
	Period        int
	Year          int
	UsageRows     int
	ProfileRows   int
	RowsPublished int
	Sync          ledgerdomain.SyncReport

	// Skipped is set when the run stopped early without publishing,
	// with the reason logged. Not an error.
	Skipped bool
}

// Service runs the monthly reconciliation batch.
type Service interface {
	// Run executes one full batch: infer the latest closed period from the
	// warehouse, reconcile usage against referral profiles, publish the
	// period's rows to the report sheet and re-resolve pending rows.
	Run(ctx context.Context) (RunSummary, error)

	// SyncYear re-resolves pending payment rows for one year without
	// republishing. Backs the standalone payment check.
	SyncYear(ctx context.Context, year int) (ledgerdomain.SyncReport, error)
}
