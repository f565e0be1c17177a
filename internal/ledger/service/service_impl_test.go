package service

import (
	"context"
	"testing"

	"github.com/smallbiznis/referral/internal/config"
	invoicingdomain "github.com/smallbiznis/referral/internal/invoicing/domain"
	"github.com/smallbiznis/referral/internal/sheet/sheettest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// -- Mocks --

type invoicingMock struct {
	mock.Mock
}

func (m *invoicingMock) PaymentStatus(ctx context.Context, period int, accountIDs []string) invoicingdomain.StatusMap {
	args := m.Called(ctx, period, accountIDs)
	statuses, _ := args.Get(0).(invoicingdomain.StatusMap)
	return statuses
}

func (m *invoicingMock) StatusByName(ctx context.Context, period int, accountName string) invoicingdomain.Status {
	args := m.Called(ctx, period, accountName)
	return args.Get(0).(invoicingdomain.Status)
}

func newTestService(invoicingSvc invoicingdomain.Service) (*Service, *sheettest.FakeTable) {
	cfg := config.DefaultReportConfig()
	table := sheettest.New(cfg)
	svc := &Service{
		log:          zap.NewNop(),
		table:        table,
		invoicingSvc: invoicingSvc,
		cfg:          cfg,
	}
	return svc, table
}

func reportRow(period, name, status string) []any {
	return []any{period, name, "USD", 100.0, 0.2, 20.0, "Partner", status, "jdoe", ""}
}

// -- Tests --

func TestPublishPeriodAppendsAfterHeader(t *testing.T) {
	svc, table := newTestService(nil)

	written, err := svc.PublishPeriod(context.Background(), 2025, 202501, [][]any{
		reportRow("202501", "Acme", "waiting"),
		reportRow("202501", "Beta", "Clear"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	rows := table.Rows(2025)
	require.Len(t, rows, 3)
	assert.Equal(t, config.DefaultReportConfig().Columns, rows[0])
	assert.Equal(t, "Acme", rows[1][1])
	assert.Equal(t, "Beta", rows[2][1])
}

func TestPublishPeriodIdempotentRerun(t *testing.T) {
	svc, table := newTestService(nil)

	batch := [][]any{
		reportRow("202501", "Acme", "waiting"),
		reportRow("202501", "Beta", "Clear"),
	}

	_, err := svc.PublishPeriod(context.Background(), 2025, 202501, batch)
	require.NoError(t, err)
	first := append([][]string{}, table.Rows(2025)...)

	_, err = svc.PublishPeriod(context.Background(), 2025, 202501, batch)
	require.NoError(t, err)

	assert.Equal(t, first, table.Rows(2025))
	assert.Len(t, table.Rows(2025), 3)
}

func TestPublishPeriodKeepsOtherPeriods(t *testing.T) {
	svc, table := newTestService(nil)

	_, err := svc.PublishPeriod(context.Background(), 2025, 202501, [][]any{
		reportRow("202501", "Acme", "Clear"),
	})
	require.NoError(t, err)
	_, err = svc.PublishPeriod(context.Background(), 2025, 202502, [][]any{
		reportRow("202502", "Acme", "waiting"),
	})
	require.NoError(t, err)

	// Re-publishing January must not disturb February.
	_, err = svc.PublishPeriod(context.Background(), 2025, 202501, [][]any{
		reportRow("202501", "Acme Renamed", "Clear"),
	})
	require.NoError(t, err)

	rows := table.Rows(2025)
	require.Len(t, rows, 3)
	assert.Equal(t, "202502", rows[1][0])
	assert.Equal(t, "Acme Renamed", rows[2][1])

	// Deletes were requested in descending order.
	require.NotEmpty(t, table.DeleteCalls)
	last := table.DeleteCalls[len(table.DeleteCalls)-1]
	for i := 1; i < len(last); i++ {
		assert.Greater(t, last[i-1], last[i])
	}
}

func TestSyncPatchesResolvedRowsInOneBatch(t *testing.T) {
	invoicingSvc := &invoicingMock{}
	svc, table := newTestService(invoicingSvc)

	_, err := svc.PublishPeriod(context.Background(), 2025, 202501, [][]any{
		reportRow("202501", "Acme", "waiting"),
		reportRow("202501", "Acme", "waiting"), // same name, second currency
		reportRow("202501", "Beta", "waiting"),
		reportRow("202501", "Gamma", "Clear"),
	})
	require.NoError(t, err)

	// Two unique waiting names -> exactly two lookups.
	invoicingSvc.On("StatusByName", mock.Anything, 202501, "Acme").Return(invoicingdomain.StatusClear).Once()
	invoicingSvc.On("StatusByName", mock.Anything, 202501, "Beta").Return(invoicingdomain.StatusWaiting).Once()

	report, err := svc.Sync(context.Background(), 2025)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Waiting)
	assert.Equal(t, 1, report.Periods)
	assert.Equal(t, 2, report.Lookups)
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 0, report.LookupFailures)

	rows := table.Rows(2025)
	assert.Equal(t, "Clear", rows[1][7])
	assert.Equal(t, "Clear", rows[2][7])
	assert.Equal(t, "waiting", rows[3][7])

	// All patches were applied through a single batched write.
	assert.Len(t, table.PatchBatches, 1)
	invoicingSvc.AssertExpectations(t)
}

func TestSyncLeavesWaitingOnSentinel(t *testing.T) {
	invoicingSvc := &invoicingMock{}
	svc, table := newTestService(invoicingSvc)

	_, err := svc.PublishPeriod(context.Background(), 2025, 202501, [][]any{
		reportRow("202501", "Acme", "waiting"),
	})
	require.NoError(t, err)

	invoicingSvc.On("StatusByName", mock.Anything, 202501, "Acme").
		Return(invoicingdomain.StatusInvoiceNotFound).Once()

	report, err := svc.Sync(context.Background(), 2025)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 1, report.LookupFailures)
	assert.Empty(t, table.PatchBatches)
	assert.Equal(t, "waiting", table.Rows(2025)[1][7])
}

func TestSyncSkipsBadPeriodAndProcessesOthers(t *testing.T) {
	invoicingSvc := &invoicingMock{}
	svc, table := newTestService(invoicingSvc)

	_, err := svc.PublishPeriod(context.Background(), 2025, 202501, [][]any{
		reportRow("202501", "Acme", "waiting"),
	})
	require.NoError(t, err)
	_, err = svc.PublishPeriod(context.Background(), 2025, 202502, [][]any{
		reportRow("not-a-month", "Beta", "waiting"),
	})
	require.NoError(t, err)

	invoicingSvc.On("StatusByName", mock.Anything, 202501, "Acme").
		Return(invoicingdomain.Status("Deposited")).Once()

	report, err := svc.Sync(context.Background(), 2025)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Waiting)
	assert.Equal(t, 1, report.SkippedPeriods)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, "Deposited", table.Rows(2025)[1][7])
	assert.Equal(t, "waiting", table.Rows(2025)[2][7])
	invoicingSvc.AssertExpectations(t)
}

func TestSyncNoWaitingRows(t *testing.T) {
	invoicingSvc := &invoicingMock{}
	svc, _ := newTestService(invoicingSvc)

	_, err := svc.PublishPeriod(context.Background(), 2025, 202501, [][]any{
		reportRow("202501", "Acme", "Clear"),
	})
	require.NoError(t, err)

	report, err := svc.Sync(context.Background(), 2025)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Waiting)
	invoicingSvc.AssertNotCalled(t, "StatusByName")
}
