// Package sheettest provides an in-memory Table implementation for tests.
package sheettest

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/smallbiznis/referral/internal/config"
	sheetdomain "github.com/smallbiznis/referral/internal/sheet/domain"
)

type worksheet struct {
	id   int64
	rows [][]string
}

// FakeTable is an in-memory spreadsheet. Cells are stored as strings the
// same way the real values API returns them.
type FakeTable struct {
	cfg    config.ReportConfig
	sheets map[string]*worksheet
	nextID int64

	Title        string
	PatchBatches [][]sheetdomain.Patch
	DeleteCalls  [][]int
}

func New(cfg config.ReportConfig) *FakeTable {
	return &FakeTable{
		cfg:    cfg,
		sheets: map[string]*worksheet{},
		nextID: 100,
	}
}

func (f *FakeTable) EnsureSheet(ctx context.Context, year int) (sheetdomain.Handle, error) {
	_ = ctx
	title := f.cfg.SheetName + strconv.Itoa(year)
	if ws, ok := f.sheets[title]; ok {
		return sheetdomain.Handle{SheetID: ws.id, Title: title}, nil
	}

	ws := &worksheet{id: f.nextID, rows: [][]string{append([]string{}, f.cfg.Columns...)}}
	f.nextID++
	f.sheets[title] = ws
	return sheetdomain.Handle{SheetID: ws.id, Title: title}, nil
}

func (f *FakeTable) ReadAllRows(ctx context.Context, h sheetdomain.Handle) ([][]string, error) {
	_ = ctx
	ws, err := f.sheet(h)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(ws.rows))
	for i, row := range ws.rows {
		out[i] = append([]string{}, row...)
	}
	return out, nil
}

func (f *FakeTable) WriteRows(ctx context.Context, h sheetdomain.Handle, startRow int, values [][]any) error {
	_ = ctx
	ws, err := f.sheet(h)
	if err != nil {
		return err
	}
	for i, row := range values {
		idx := startRow - 1 + i
		for len(ws.rows) <= idx {
			ws.rows = append(ws.rows, make([]string, len(f.cfg.Columns)))
		}
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = fmt.Sprint(cell)
		}
		ws.rows[idx] = cells
	}
	return nil
}

func (f *FakeTable) PatchCells(ctx context.Context, h sheetdomain.Handle, patches []sheetdomain.Patch) error {
	_ = ctx
	ws, err := f.sheet(h)
	if err != nil {
		return err
	}
	f.PatchBatches = append(f.PatchBatches, append([]sheetdomain.Patch{}, patches...))
	for _, patch := range patches {
		if patch.Row < 1 || patch.Row > len(ws.rows) {
			return fmt.Errorf("patch row %d out of range", patch.Row)
		}
		row := ws.rows[patch.Row-1]
		for len(row) < patch.Col {
			row = append(row, "")
		}
		row[patch.Col-1] = patch.Value
		ws.rows[patch.Row-1] = row
	}
	return nil
}

func (f *FakeTable) DeleteRows(ctx context.Context, h sheetdomain.Handle, rowIndices []int) error {
	_ = ctx
	ws, err := f.sheet(h)
	if err != nil {
		return err
	}
	if !sort.SliceIsSorted(rowIndices, func(i, j int) bool { return rowIndices[i] > rowIndices[j] }) {
		return sheetdomain.ErrIndicesNotDescending
	}
	f.DeleteCalls = append(f.DeleteCalls, append([]int{}, rowIndices...))
	for _, row := range rowIndices {
		if row < 1 || row > len(ws.rows) {
			return fmt.Errorf("delete row %d out of range", row)
		}
		ws.rows = append(ws.rows[:row-1], ws.rows[row:]...)
	}
	return nil
}

func (f *FakeTable) SetTitle(ctx context.Context, title string) error {
	_ = ctx
	f.Title = title
	return nil
}

// Rows returns the current contents of a year's worksheet.
func (f *FakeTable) Rows(year int) [][]string {
	title := f.cfg.SheetName + strconv.Itoa(year)
	ws, ok := f.sheets[title]
	if !ok {
		return nil
	}
	return ws.rows
}

func (f *FakeTable) sheet(h sheetdomain.Handle) (*worksheet, error) {
	ws, ok := f.sheets[h.Title]
	if !ok {
		return nil, fmt.Errorf("unknown sheet %q", h.Title)
	}
	return ws, nil
}
