// Package domain defines the invoicing lookup surface and the normalized
// payment status vocabulary.
package domain

import "context"

// Status is a normalized payment status. Besides the two real states it
// carries the taxonomy sentinels, so a lookup result is always a defined
// value and callers can tell "unknown" apart from "unpaid".
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusClear   Status = "Clear"

	// Sentinels. The literal wording is what historical sheet rows carry,
	// so it must stay stable.
	StatusAPIError        Status = "API Error"
	StatusInvoiceNotFound Status = "Invoice Not Found"
)

// IsSentinel reports whether s marks a failed or unresolved lookup rather
// than a real payment state.
func (s Status) IsSentinel() bool {
	return s == StatusAPIError || s == StatusInvoiceNotFound
}

// StatusMap maps billing account ids to their resolved payment status.
type StatusMap map[string]Status

// Service is the invoicing lookup surface. Both lookups are total: a
// failed or unreachable backend degrades to sentinel statuses instead of
// returning an error, so one bad lookup cannot abort a batch.
type Service interface {
	// PaymentStatus resolves the status of every requested account id for
	// the given period. Every requested id is present in the result.
	PaymentStatus(ctx context.Context, period int, accountIDs []string) StatusMap

	// StatusByName resolves a single account by its display name, used by
	// the pending-ledger sync where only the name survives in the sheet.
	StatusByName(ctx context.Context, period int, accountName string) Status
}
