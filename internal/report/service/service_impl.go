package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/referral/internal/clock"
	"github.com/smallbiznis/referral/internal/config"
	invoicingdomain "github.com/smallbiznis/referral/internal/invoicing/domain"
	ledgerdomain "github.com/smallbiznis/referral/internal/ledger/domain"
	"github.com/smallbiznis/referral/internal/observability/metrics"
	"github.com/smallbiznis/referral/internal/reconcile"
	"github.com/smallbiznis/referral/internal/report/domain"
	sheetdomain "github.com/smallbiznis/referral/internal/sheet/domain"
	warehousedomain "github.com/smallbiznis/referral/internal/warehouse/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log          *zap.Logger
	ReportConfig config.ReportConfig
	Clock        clock.Clock
	Node         *snowflake.Node
	Metrics      *metrics.JobMetrics

	Warehouse warehousedomain.Service
	Invoicing invoicingdomain.Service
	Ledger    ledgerdomain.Service
	Table     sheetdomain.Table
}

type Service struct {
	log       *zap.Logger
	cfg       config.ReportConfig
	clock     clock.Clock
	node      *snowflake.Node
	metrics   *metrics.JobMetrics
	projector *reconcile.Projector

	warehouse warehousedomain.Service
	invoicing invoicingdomain.Service
	ledger    ledgerdomain.Service
	table     sheetdomain.Table
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log:       p.Log.Named("report.service"),
		cfg:       p.ReportConfig,
		clock:     p.Clock,
		node:      p.Node,
		metrics:   p.Metrics,
		projector: reconcile.NewProjector(p.ReportConfig),
		warehouse: p.Warehouse,
		invoicing: p.Invoicing,
		ledger:    p.Ledger,
		table:     p.Table,
	}
}

const (
	jobReport       = "report"
	jobPaymentCheck = "paymentcheck"
)

func (s *Service) Run(ctx context.Context) (domain.RunSummary, error) {
	summary := domain.RunSummary{RunID: s.node.Generate().String()}
	log := s.log.With(zap.String("run_id", summary.RunID))

	start := time.Now()
	s.metrics.IncJobRun(jobReport)
	defer func() {
		s.metrics.ObserveJobDuration(jobReport, time.Since(start))
		s.metrics.Push(ctx, log)
	}()

	if err := s.warehouse.Ping(ctx); err != nil {
		s.metrics.IncJobError(jobReport, err)
		return summary, fmt.Errorf("warehouse ping: %w", err)
	}

	period, err := s.warehouse.LatestPeriod(ctx)
	if err != nil {
		s.metrics.IncJobError(jobReport, err)
		return summary, fmt.Errorf("latest period: %w", err)
	}
	if period == 0 {
		log.Warn("no closed period in warehouse, nothing to report")
		s.metrics.IncSkipped(metrics.SkipReasonEmptyPeriod)
		summary.Skipped = true
		return summary, nil
	}
	summary.Period = period
	summary.Year = period / 100

	now := s.clock.Now()
	apiPeriod := now.Year()*100 + int(now.Month())

	log = log.With(zap.Int("period", period), zap.Int("year", summary.Year))
	log.Info("starting report run", zap.Int("api_period", apiPeriod))

	s.logRowCounts(ctx, log, period)

	usage, err := s.warehouse.AggregatedUsage(ctx, period)
	if err != nil {
		s.metrics.IncJobError(jobReport, err)
		return summary, fmt.Errorf("aggregated usage: %w", err)
	}
	profiles, err := s.warehouse.Profiles(ctx, period)
	if err != nil {
		s.metrics.IncJobError(jobReport, err)
		return summary, fmt.Errorf("profiles: %w", err)
	}
	summary.UsageRows = len(usage)
	summary.ProfileRows = len(profiles)

	if len(usage) == 0 && len(profiles) == 0 {
		log.Warn("period has no usage and no profiles, nothing to publish")
		s.metrics.IncSkipped(metrics.SkipReasonEmptyPeriod)
		summary.Skipped = true
		return summary, nil
	}

	statuses := s.invoicing.PaymentStatus(ctx, apiPeriod, profileAccountIDs(profiles))

	rows := reconcile.Merge(profiles, usage)
	reconcile.AttachStatus(rows, statuses)
	reconcile.DeriveProfit(rows)
	values := s.projector.Project(rows)

	published, err := s.ledger.PublishPeriod(ctx, summary.Year, period, values)
	if err != nil {
		s.metrics.IncJobError(jobReport, err)
		return summary, fmt.Errorf("publish period %d: %w", period, err)
	}
	summary.RowsPublished = published
	s.metrics.AddRowsPublished(published)
	log.Info("published period rows", zap.Int("rows", published))

	// The spreadsheet title tracks the last published period. Cosmetic,
	// so a failure does not abort the run.
	title := s.cfg.TitlePrefix + strconv.Itoa(period)
	if err := s.table.SetTitle(ctx, title); err != nil {
		log.Warn("rename spreadsheet failed", zap.String("title", title), zap.Error(err))
	}

	syncReport, err := s.ledger.Sync(ctx, summary.Year)
	if err != nil {
		s.metrics.IncJobError(jobReport, err)
		return summary, fmt.Errorf("sync year %d: %w", summary.Year, err)
	}
	summary.Sync = syncReport
	s.recordSync(syncReport)

	log.Info("report run complete",
		zap.Int("usage_rows", summary.UsageRows),
		zap.Int("profile_rows", summary.ProfileRows),
		zap.Int("rows_published", published),
		zap.Int("pending_rows", syncReport.Waiting),
		zap.Int("rows_patched", syncReport.Updated),
		zap.Duration("elapsed", time.Since(start)),
	)
	return summary, nil
}

func (s *Service) SyncYear(ctx context.Context, year int) (ledgerdomain.SyncReport, error) {
	runID := s.node.Generate().String()
	log := s.log.With(zap.String("run_id", runID), zap.Int("year", year))

	start := time.Now()
	s.metrics.IncJobRun(jobPaymentCheck)
	defer func() {
		s.metrics.ObserveJobDuration(jobPaymentCheck, time.Since(start))
		s.metrics.Push(ctx, log)
	}()

	log.Info("starting payment check")
	report, err := s.ledger.Sync(ctx, year)
	if err != nil {
		s.metrics.IncJobError(jobPaymentCheck, err)
		return report, fmt.Errorf("sync year %d: %w", year, err)
	}
	s.recordSync(report)

	log.Info("payment check complete",
		zap.Int("pending_rows", report.Waiting),
		zap.Int("lookups", report.Lookups),
		zap.Int("rows_patched", report.Updated),
		zap.Int("lookup_failures", report.LookupFailures),
	)
	return report, nil
}

func (s *Service) recordSync(report ledgerdomain.SyncReport) {
	s.metrics.AddPatchesApplied(report.Updated)
	s.metrics.AddSkipped(metrics.SkipReasonLookupFailure, report.LookupFailures)
	s.metrics.AddSkipped(metrics.SkipReasonBadPeriod, report.SkippedPeriods)
	if still := report.Waiting - report.Updated; still > 0 {
		s.metrics.AddSkipped(metrics.SkipReasonStillWaiting, still)
	}
}

// logRowCounts is diagnostic only; a count failure never aborts the run.
func (s *Service) logRowCounts(ctx context.Context, log *zap.Logger, period int) {
	for _, table := range []string{warehousedomain.TableBillingData, warehousedomain.TableCustomerProfile} {
		count, err := s.warehouse.RowCount(ctx, table, period)
		if err != nil {
			log.Warn("row count failed", zap.String("table", table), zap.Error(err))
			continue
		}
		log.Info("warehouse rows for period", zap.String("table", table), zap.Int64("rows", count))
	}
}

func profileAccountIDs(profiles []warehousedomain.ProfileRecord) []string {
	seen := make(map[string]struct{}, len(profiles))
	ids := make([]string, 0, len(profiles))
	for _, profile := range profiles {
		if _, dup := seen[profile.BillingAccountID]; dup {
			continue
		}
		seen[profile.BillingAccountID] = struct{}{}
		ids = append(ids, profile.BillingAccountID)
	}
	return ids
}
