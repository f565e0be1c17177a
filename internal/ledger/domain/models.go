// Package domain defines the pending-payment ledger over published rows.
package domain

import (
	"context"

	invoicingdomain "github.com/smallbiznis/referral/internal/invoicing/domain"
)

// Row is one persisted ledger row, addressed by its 1-based sheet row.
// A row is pending while its status cell equals the waiting state.
type Row struct {
	Index       int
	Period      string
	AccountName string
	Status      invoicingdomain.Status
}

// ShouldUpdate decides whether a re-resolved status is a legitimate
// transition for a pending row. Still-waiting means nothing changed, and
// a sentinel must not clobber a pending row on a transient lookup
// failure; any other concrete status resolves the row.
func ShouldUpdate(newStatus invoicingdomain.Status) bool {
	if newStatus == invoicingdomain.StatusWaiting {
		return false
	}
	if newStatus.IsSentinel() {
		return false
	}
	return newStatus != ""
}

// SyncReport aggregates one sync pass per-item outcomes.
type SyncReport struct {
	Waiting        int // pending rows found
	Periods        int // periods holding pending rows
	Lookups        int // external lookups performed (unique names)
	Updated        int // rows patched to a resolved status
	LookupFailures int // lookups that came back as a sentinel
	SkippedPeriods int // period groups skipped (unparseable month cell)
}

// Service maintains the persisted report table.
type Service interface {
	// PublishPeriod idempotently replaces a period's rows: existing rows
	// for the period are deleted highest-index-first, then the new batch
	// is appended. Returns the number of rows written.
	PublishPeriod(ctx context.Context, year, period int, values [][]any) (int, error)

	// Sync re-resolves every pending row for a year and patches rows
	// whose status legitimately transitioned, as one batched write.
	Sync(ctx context.Context, year int) (SyncReport, error)
}
