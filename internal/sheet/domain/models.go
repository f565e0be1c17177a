// Package domain defines the spreadsheet-backed table surface the report
// and the pending ledger write through.
package domain

import (
	"context"
	"errors"
)

// Handle identifies one worksheet inside the backing spreadsheet.
type Handle struct {
	SheetID int64
	Title   string
}

// Patch overwrites a single cell. Row and Col are 1-based, matching the
// spreadsheet addressing the row handles were read with.
type Patch struct {
	Row   int
	Col   int
	Value string
}

// Table is the append/patch contract over the persisted report table.
// Implementations serialize each call; the batch operations are applied
// as one backend request.
type Table interface {
	// EnsureSheet returns the worksheet for a year, creating it with the
	// header row when absent. Idempotent.
	EnsureSheet(ctx context.Context, year int) (Handle, error)

	// ReadAllRows returns every row including the header, as strings.
	ReadAllRows(ctx context.Context, h Handle) ([][]string, error)

	// WriteRows writes values starting at the given 1-based row.
	WriteRows(ctx context.Context, h Handle, startRow int, values [][]any) error

	// PatchCells applies all patches in one batched request.
	PatchCells(ctx context.Context, h Handle, patches []Patch) error

	// DeleteRows removes the given 1-based row indices. Indices must be
	// sorted in descending order so deletion does not shift pending ones.
	DeleteRows(ctx context.Context, h Handle, rowIndices []int) error

	// SetTitle renames the whole spreadsheet.
	SetTitle(ctx context.Context, title string) error
}

var (
	ErrIndicesNotDescending = errors.New("row_indices_not_descending")
)
