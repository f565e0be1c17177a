// Package domain contains read-only models for the billing warehouse.
package domain

import (
	"context"
	"errors"
)

// BillingRow is one raw metered line in the warehouse. Credits are signed
// adjustments, already flattened to a numeric amount warehouse-side.
type BillingRow struct {
	BillingAccountID string  `gorm:"column:billing_account_id"`
	Currency         string  `gorm:"column:currency"`
	Cost             float64 `gorm:"column:cost"`
	CreditsAmount    float64 `gorm:"column:credits_amount"`
	Month            int     `gorm:"column:month"`
}

func (BillingRow) TableName() string { return "billing_data" }

// UsageRecord is one aggregated usage row per (account, currency, period).
type UsageRecord struct {
	BillingAccountID string  `gorm:"column:billing_account_id"`
	Currency         string  `gorm:"column:currency"`
	TotalCost        float64 `gorm:"column:total_cost"`
	TotalCredits     float64 `gorm:"column:total_credits"`
	Period           int     `gorm:"column:month"`
	RecordCount      int     `gorm:"column:record_count"`
}

// Spending is the derived monetary field: cost plus signed credits.
func (u UsageRecord) Spending() float64 {
	return u.TotalCost + u.TotalCredits
}

// ProfileRecord is one CRM referral profile row per (account, period).
type ProfileRecord struct {
	Customer          string   `gorm:"column:customer"`
	ServiceSet        string   `gorm:"column:service_set"`
	SalesRep          string   `gorm:"column:salesrep"`
	Commission        *float64 `gorm:"column:commission"`
	BillingAccountID  string   `gorm:"column:billing_account_id"`
	BillingAccountName string  `gorm:"column:billing_account_name"`
	ReferralCompany   string   `gorm:"column:referral_company"`
	ReferralShareRate *float64 `gorm:"column:referral_share_rate"`
	Period            int      `gorm:"column:month"`
	EDPType           string   `gorm:"column:edp_type"`
}

func (ProfileRecord) TableName() string { return "customer_profile" }

const (
	TableBillingData     = "billing_data"
	TableCustomerProfile = "customer_profile"
)

// Service is the warehouse query surface. All reads are snapshots scoped
// to a single period.
type Service interface {
	// LatestPeriod returns the most recent period covered by both tables.
	// An empty table is skipped and the other table's maximum is used;
	// 0 only when neither table has data.
	LatestPeriod(ctx context.Context) (int, error)
	AggregatedUsage(ctx context.Context, period int) ([]UsageRecord, error)
	Profiles(ctx context.Context, period int) ([]ProfileRecord, error)
	// RowCount is diagnostic only.
	RowCount(ctx context.Context, table string, period int) (int64, error)
	Ping(ctx context.Context) error
}

var (
	ErrUnknownTable = errors.New("unknown_table")
)
