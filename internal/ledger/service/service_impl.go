package service

import (
	"context"
	"sort"
	"strconv"

	"github.com/smallbiznis/referral/internal/config"
	invoicingdomain "github.com/smallbiznis/referral/internal/invoicing/domain"
	ledgerdomain "github.com/smallbiznis/referral/internal/ledger/domain"
	sheetdomain "github.com/smallbiznis/referral/internal/sheet/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log          *zap.Logger
	Table        sheetdomain.Table
	InvoicingSvc invoicingdomain.Service
	ReportConfig config.ReportConfig
}

type Service struct {
	log          *zap.Logger
	table        sheetdomain.Table
	invoicingSvc invoicingdomain.Service
	cfg          config.ReportConfig
}

func NewService(p ServiceParam) ledgerdomain.Service {
	return &Service{
		log:          p.Log.Named("ledger.service"),
		table:        p.Table,
		invoicingSvc: p.InvoicingSvc,
		cfg:          p.ReportConfig,
	}
}

func (s *Service) PublishPeriod(ctx context.Context, year, period int, values [][]any) (int, error) {
	handle, err := s.table.EnsureSheet(ctx, year)
	if err != nil {
		return 0, err
	}

	rows, err := s.table.ReadAllRows(ctx, handle)
	if err != nil {
		return 0, err
	}

	monthCol := s.cfg.ColumnIndex(config.ColumnMonth)
	periodCell := strconv.Itoa(period)

	// Highest index first so earlier deletes do not shift later ones.
	var stale []int
	for i := len(rows) - 1; i >= 1; i-- {
		row := rows[i]
		if len(row) > monthCol && row[monthCol] == periodCell {
			stale = append(stale, i+1)
		}
	}
	if len(stale) > 0 {
		if err := s.table.DeleteRows(ctx, handle, stale); err != nil {
			return 0, err
		}
		s.log.Info("removed existing period rows",
			zap.Int("period", period),
			zap.Int("rows", len(stale)),
		)
	}

	if len(values) == 0 {
		return 0, nil
	}

	startRow := len(rows) - len(stale) + 1
	if err := s.table.WriteRows(ctx, handle, startRow, values); err != nil {
		return 0, err
	}

	s.log.Info("published period batch",
		zap.Int("period", period),
		zap.Int("rows", len(values)),
		zap.Int("start_row", startRow),
	)
	return len(values), nil
}

func (s *Service) Sync(ctx context.Context, year int) (ledgerdomain.SyncReport, error) {
	report := ledgerdomain.SyncReport{}

	handle, err := s.table.EnsureSheet(ctx, year)
	if err != nil {
		return report, err
	}
	rows, err := s.table.ReadAllRows(ctx, handle)
	if err != nil {
		return report, err
	}

	waiting := s.waitingRows(rows)
	report.Waiting = len(waiting)
	if len(waiting) == 0 {
		s.log.Info("no pending rows", zap.Int("year", year))
		return report, nil
	}

	byPeriod := map[string][]ledgerdomain.Row{}
	for _, row := range waiting {
		byPeriod[row.Period] = append(byPeriod[row.Period], row)
	}

	periods := make([]string, 0, len(byPeriod))
	for period := range byPeriod {
		periods = append(periods, period)
	}
	sort.Strings(periods)

	statusCol := s.cfg.ColumnIndex(config.ColumnStatus) + 1
	var patches []sheetdomain.Patch

	for _, periodCell := range periods {
		group := byPeriod[periodCell]
		period, err := strconv.Atoi(periodCell)
		if err != nil {
			// One bad month cell must not abort the other periods.
			s.log.Warn("skipping rows with unparseable month",
				zap.String("month", periodCell),
				zap.Int("rows", len(group)),
			)
			report.SkippedPeriods++
			continue
		}
		report.Periods++

		// N pending rows collapse to M unique names, one lookup each.
		names := uniqueNames(group)
		report.Lookups += len(names)

		for _, name := range names {
			newStatus := s.invoicingSvc.StatusByName(ctx, period, name)
			if newStatus.IsSentinel() {
				report.LookupFailures++
			}
			if !ledgerdomain.ShouldUpdate(newStatus) {
				continue
			}
			for _, row := range group {
				if row.AccountName != name {
					continue
				}
				patches = append(patches, sheetdomain.Patch{
					Row:   row.Index,
					Col:   statusCol,
					Value: string(newStatus),
				})
				s.log.Info("payment status resolved",
					zap.String("account", name),
					zap.Int("period", period),
					zap.String("status", string(newStatus)),
				)
			}
		}
	}

	if len(patches) > 0 {
		if err := s.table.PatchCells(ctx, handle, patches); err != nil {
			return report, err
		}
	}
	report.Updated = len(patches)

	s.log.Info("ledger sync finished",
		zap.Int("year", year),
		zap.Int("waiting", report.Waiting),
		zap.Int("lookups", report.Lookups),
		zap.Int("updated", report.Updated),
		zap.Int("lookup_failures", report.LookupFailures),
	)
	return report, nil
}

func (s *Service) waitingRows(rows [][]string) []ledgerdomain.Row {
	monthCol := s.cfg.ColumnIndex(config.ColumnMonth)
	nameCol := s.cfg.ColumnIndex(config.ColumnAccountName)
	statusCol := s.cfg.ColumnIndex(config.ColumnStatus)

	var waiting []ledgerdomain.Row
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) <= statusCol || row[statusCol] != string(invoicingdomain.StatusWaiting) {
			continue
		}
		entry := ledgerdomain.Row{
			Index:  i + 1,
			Status: invoicingdomain.StatusWaiting,
		}
		if len(row) > monthCol {
			entry.Period = row[monthCol]
		}
		if len(row) > nameCol {
			entry.AccountName = row[nameCol]
		}
		waiting = append(waiting, entry)
	}
	return waiting
}

func uniqueNames(rows []ledgerdomain.Row) []string {
	seen := map[string]struct{}{}
	var names []string
	for _, row := range rows {
		if _, ok := seen[row.AccountName]; ok {
			continue
		}
		seen[row.AccountName] = struct{}{}
		names = append(names, row.AccountName)
	}
	return names
}
