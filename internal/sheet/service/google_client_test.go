package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smallbiznis/referral/internal/config"
	sheetdomain "github.com/smallbiznis/referral/internal/sheet/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, handler http.HandlerFunc) sheetdomain.Table {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewService(ServiceParam{
		Log: zap.NewNop(),
		Config: config.Config{
			SheetsBaseURL: srv.URL,
			SpreadsheetID: "sheet-1",
			SheetsToken:   "test-token",
		},
		ReportConfig: config.DefaultReportConfig(),
	})
}

func TestEnsureSheetReturnsExistingWorksheet(t *testing.T) {
	headerWrites := 0
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NotEmpty(t, r.Header.Get("X-Request-Id"))

		switch {
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"values": [][]any{{"Month", "Billing Account Name"}},
			})
		case r.Method == http.MethodGet:
			require.Equal(t, "/v4/spreadsheets/sheet-1", r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"sheets": []map[string]any{
					{"properties": map[string]any{"sheetId": 42, "title": "Report_2025"}},
					{"properties": map[string]any{"sheetId": 7, "title": "Report_2024"}},
				},
			})
		case r.Method == http.MethodPut:
			headerWrites++
			_ = json.NewEncoder(w).Encode(map[string]any{})
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	handle, err := svc.EnsureSheet(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, sheetdomain.Handle{SheetID: 42, Title: "Report_2025"}, handle)
	assert.Zero(t, headerWrites)
}

func TestEnsureSheetRestoresClearedHeader(t *testing.T) {
	var headerBody struct {
		Range  string  `json:"range"`
		Values [][]any `json:"values"`
	}
	headerWrites := 0
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
			// A manually cleared header row comes back with no values.
			_ = json.NewEncoder(w).Encode(map[string]any{})
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"sheets": []map[string]any{
					{"properties": map[string]any{"sheetId": 42, "title": "Report_2025"}},
				},
			})
		case r.Method == http.MethodPut:
			headerWrites++
			require.NoError(t, json.NewDecoder(r.Body).Decode(&headerBody))
			_ = json.NewEncoder(w).Encode(map[string]any{})
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	handle, err := svc.EnsureSheet(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(42), handle.SheetID)

	require.Equal(t, 1, headerWrites)
	assert.Contains(t, headerBody.Range, "A1")
	require.Len(t, headerBody.Values, 1)
	assert.Equal(t, "Month", headerBody.Values[0][0])
}

func TestEnsureSheetCreatesWorksheetWithHeader(t *testing.T) {
	var headerBody struct {
		Values [][]any `json:"values"`
	}
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{"sheets": []map[string]any{}})
		case r.Method == http.MethodPost:
			require.True(t, strings.HasSuffix(r.URL.Path, ":batchUpdate"))
			var body struct {
				Requests []struct {
					AddSheet struct {
						Properties map[string]any `json:"properties"`
					} `json:"addSheet"`
				} `json:"requests"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body.Requests, 1)
			assert.Equal(t, "Report_2025", body.Requests[0].AddSheet.Properties["title"])

			_ = json.NewEncoder(w).Encode(map[string]any{
				"replies": []map[string]any{
					{"addSheet": map[string]any{"properties": map[string]any{"sheetId": 99, "title": "Report_2025"}}},
				},
			})
		case r.Method == http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&headerBody))
			_ = json.NewEncoder(w).Encode(map[string]any{})
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	handle, err := svc.EnsureSheet(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, int64(99), handle.SheetID)

	require.Len(t, headerBody.Values, 1)
	header := make([]string, len(headerBody.Values[0]))
	for i, cell := range headerBody.Values[0] {
		header[i] = cell.(string)
	}
	assert.Equal(t, config.DefaultReportConfig().Columns, header)
}

func TestReadAllRowsCoercesCellsToStrings(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Contains(t, r.URL.Path, "/values/")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"values": [][]any{
				{"Month", "Profit $"},
				{"202501", 18.5},
			},
		})
	})

	rows, err := svc.ReadAllRows(context.Background(), sheetdomain.Handle{SheetID: 42, Title: "Report_2025"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Month", "Profit $"},
		{"202501", "18.5"},
	}, rows)
}

func TestDeleteRowsRejectsAscendingWithoutCalling(t *testing.T) {
	calls := 0
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})

	err := svc.DeleteRows(context.Background(), sheetdomain.Handle{SheetID: 42, Title: "Report_2025"}, []int{3, 5, 7})
	assert.ErrorIs(t, err, sheetdomain.ErrIndicesNotDescending)
	assert.Zero(t, calls)
}

func TestDeleteRowsSendsDescendingDimensionRanges(t *testing.T) {
	var starts []float64
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body struct {
			Requests []struct {
				DeleteDimension struct {
					Range map[string]any `json:"range"`
				} `json:"deleteDimension"`
			} `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		for _, req := range body.Requests {
			assert.Equal(t, "ROWS", req.DeleteDimension.Range["dimension"])
			starts = append(starts, req.DeleteDimension.Range["startIndex"].(float64))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})

	err := svc.DeleteRows(context.Background(), sheetdomain.Handle{SheetID: 42, Title: "Report_2025"}, []int{7, 5, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 4, 2}, starts)
}

func TestPatchCellsBatchesSingleRequest(t *testing.T) {
	calls := 0
	var ranges []string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.True(t, strings.HasSuffix(r.URL.Path, "/values:batchUpdate"))
		var body struct {
			Data []struct {
				Range string `json:"range"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		for _, d := range body.Data {
			ranges = append(ranges, d.Range)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})

	err := svc.PatchCells(context.Background(), sheetdomain.Handle{SheetID: 42, Title: "Report_2025"}, []sheetdomain.Patch{
		{Row: 2, Col: 8, Value: "Clear"},
		{Row: 5, Col: 8, Value: "Clear"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"Report_2025!H2", "Report_2025!H5"}, ranges)
}

func TestCallFailsOnNonOKStatus(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := svc.SetTitle(context.Background(), "referral auto report_202501")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheets_request_failed_status_403")
}

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", columnLetter(1))
	assert.Equal(t, "J", columnLetter(10))
	assert.Equal(t, "Z", columnLetter(26))
	assert.Equal(t, "AA", columnLetter(27))
}
