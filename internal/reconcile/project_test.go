package reconcile

import (
	"testing"

	"github.com/smallbiznis/referral/internal/config"
	invoicingdomain "github.com/smallbiznis/referral/internal/invoicing/domain"
	warehousedomain "github.com/smallbiznis/referral/internal/warehouse/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectMatchedRow(t *testing.T) {
	// UsageRecord{A, cost=100, credits=-10, USD} + ProfileRecord{A, Acme, 0.2}
	// + payment "Paid In Full" normalized to Clear.
	profiles := []warehousedomain.ProfileRecord{
		{BillingAccountID: "A", BillingAccountName: "Acme", ReferralCompany: "Partner Co",
			SalesRep: "jdoe", EDPType: "EDP", ReferralShareRate: rate(0.2), Period: 202501},
	}
	usage := []warehousedomain.UsageRecord{
		{BillingAccountID: "A", Currency: "USD", TotalCost: 100, TotalCredits: -10, Period: 202501},
	}

	rows := Merge(profiles, usage)
	AttachStatus(rows, invoicingdomain.StatusMap{"A": invoicingdomain.StatusClear})
	DeriveProfit(rows)

	projector := NewProjector(config.DefaultReportConfig())
	cells := projector.Project(rows)
	require.Len(t, cells, 1)

	assert.Equal(t, []any{
		"202501",
		"Acme",
		"USD",
		90.0,
		0.2,
		18.0,
		"Partner Co",
		"Clear",
		"jdoe",
		"EDP",
	}, cells[0])
}

func TestProjectProfileOnlyRow(t *testing.T) {
	// ProfileRecord{B, Beta, 0.1} with no usage: spending carries the
	// billing not-found sentinel and profit is 0.00.
	profiles := []warehousedomain.ProfileRecord{
		{BillingAccountID: "B", BillingAccountName: "Beta", ReferralShareRate: rate(0.1), Period: 202501},
	}

	rows := Merge(profiles, nil)
	AttachStatus(rows, invoicingdomain.StatusMap{"B": invoicingdomain.StatusWaiting})
	DeriveProfit(rows)

	projector := NewProjector(config.DefaultReportConfig())
	cells := projector.Project(rows)
	require.Len(t, cells, 1)

	assert.Equal(t, "not found in billing_data", cells[0][2]) // Currency
	assert.Equal(t, "not found in billing_data", cells[0][3]) // Spending $$
	assert.Equal(t, 0.1, cells[0][4])
	assert.Equal(t, 0.0, cells[0][5]) // Profit $$
	assert.Equal(t, "waiting", cells[0][7])
	// Null text fields fall back to the generic sentinel.
	assert.Equal(t, "not found", cells[0][6])
	assert.Equal(t, "not found", cells[0][8])
	// EDP status is optional metadata, it stays empty instead.
	assert.Equal(t, "", cells[0][9])
}

func TestProjectUsageOnlyRow(t *testing.T) {
	usage := []warehousedomain.UsageRecord{
		{BillingAccountID: "C", Currency: "EUR", TotalCost: 40, Period: 202501},
	}

	rows := Merge(nil, usage)
	AttachStatus(rows, invoicingdomain.StatusMap{})
	DeriveProfit(rows)

	projector := NewProjector(config.DefaultReportConfig())
	cells := projector.Project(rows)
	require.Len(t, cells, 1)

	assert.Equal(t, "not found in customer_profile", cells[0][1])
	assert.Equal(t, "not found in customer_profile", cells[0][4]) // rate sentinel passes through
	assert.Equal(t, 40.0, cells[0][3])
	assert.Equal(t, 0.0, cells[0][5])
	assert.Equal(t, "Invoice Not Found", cells[0][7])
	// The missing-profile sentinel also reaches EDP status, unlike a
	// merely empty EDP type.
	assert.Equal(t, "not found in customer_profile", cells[0][9])
}

func TestProjectorHeaderMatchesColumns(t *testing.T) {
	cfg := config.DefaultReportConfig()
	projector := NewProjector(cfg)
	assert.Equal(t, cfg.Columns, projector.Header())
}

func TestValueRender(t *testing.T) {
	sentinels := config.DefaultReportConfig().Sentinels

	assert.Equal(t, 1.5, Number(1.5).Render(sentinels, "x"))
	assert.Equal(t, "USD", Text("USD").Render(sentinels, "x"))
	assert.Equal(t, "API Error", Tagged(TagAPIError).Render(sentinels, "x"))
	assert.Equal(t, "Invoice Not Found", Tagged(TagInvoiceNotFound).Render(sentinels, "x"))
	assert.Equal(t, "x", Value{}.Render(sentinels, "x"))
}
