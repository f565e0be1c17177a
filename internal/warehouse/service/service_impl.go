package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/smallbiznis/referral/internal/config"
	warehousedomain "github.com/smallbiznis/referral/internal/warehouse/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Config config.Config
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	timeout time.Duration
}

func NewService(p ServiceParam) warehousedomain.Service {
	timeout := p.Config.DBQueryTimeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("warehouse.service"),
		timeout: timeout,
	}
}

func (s *Service) LatestPeriod(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// An empty table is skipped rather than zeroing the run, so one lagging
	// table cannot turn the batch into a no-op. With both tables populated
	// the earlier of the two maxima wins, the last month both sides cover.
	latest := 0
	for _, table := range []string{warehousedomain.TableBillingData, warehousedomain.TableCustomerProfile} {
		row := s.db.WithContext(ctx).
			Table(table).
			Select("MAX(month)").
			Row()
		var max sql.NullInt64
		if err := row.Scan(&max); err != nil {
			return 0, err
		}
		if !max.Valid {
			s.log.Warn("table has no months", zap.String("table", table))
			continue
		}
		if latest == 0 || int(max.Int64) < latest {
			latest = int(max.Int64)
		}
	}
	return latest, nil
}

func (s *Service) AggregatedUsage(ctx context.Context, period int) ([]warehousedomain.UsageRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	var records []warehousedomain.UsageRecord
	err := s.db.WithContext(ctx).
		Table(warehousedomain.TableBillingData).
		Select("billing_account_id, currency, month, SUM(cost) AS total_cost, SUM(credits_amount) AS total_credits, COUNT(*) AS record_count").
		Where("month = ?", period).
		Group("billing_account_id, currency, month").
		Order("billing_account_id, currency").
		Scan(&records).Error
	if err != nil {
		return nil, err
	}

	s.log.Info("aggregated billing data",
		zap.Int("period", period),
		zap.Int("accounts", len(records)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return records, nil
}

func (s *Service) Profiles(ctx context.Context, period int) ([]warehousedomain.ProfileRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var records []warehousedomain.ProfileRecord
	err := s.db.WithContext(ctx).
		Table(warehousedomain.TableCustomerProfile).
		Select("customer, service_set, salesrep, commission, billing_account_id, billing_account_name, referral_company, referral_share_rate, month, edp_type").
		Where("month = ?", period).
		Order("billing_account_id").
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) RowCount(ctx context.Context, table string, period int) (int64, error) {
	// Table names are interpolated, so only the two known tables are allowed.
	switch table {
	case warehousedomain.TableBillingData, warehousedomain.TableCustomerProfile:
	default:
		return 0, warehousedomain.ErrUnknownTable
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var count int64
	err := s.db.WithContext(ctx).
		Table(table).
		Where("month = ?", period).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var count int64
	err := s.db.WithContext(ctx).
		Table(warehousedomain.TableBillingData).
		Count(&count).Error
	if err != nil {
		return err
	}
	s.log.Info("warehouse connection ok", zap.Int64("billing_rows", count))
	return nil
}
