package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/referral/internal/config"
	sheetdomain "github.com/smallbiznis/referral/internal/sheet/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log          *zap.Logger
	Config       config.Config
	ReportConfig config.ReportConfig
}

// Service talks to the Google Sheets REST API. Only value-level semantics
// are implemented; visual formatting is out of scope.
type Service struct {
	log           *zap.Logger
	client        *http.Client
	baseURL       string
	spreadsheetID string
	token         string
	sheetPrefix   string
	columns       []string
}

func NewService(p ServiceParam) sheetdomain.Table {
	timeout := p.Config.SheetsTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		log:           p.Log.Named("sheet.service"),
		client:        &http.Client{Timeout: timeout},
		baseURL:       p.Config.SheetsBaseURL,
		spreadsheetID: p.Config.SpreadsheetID,
		token:         p.Config.SheetsToken,
		sheetPrefix:   p.ReportConfig.SheetName,
		columns:       p.ReportConfig.Columns,
	}
}

type sheetProperties struct {
	SheetID int64  `json:"sheetId"`
	Title   string `json:"title"`
}

type spreadsheetMeta struct {
	Sheets []struct {
		Properties sheetProperties `json:"properties"`
	} `json:"sheets"`
}

func (s *Service) EnsureSheet(ctx context.Context, year int) (sheetdomain.Handle, error) {
	title := s.sheetPrefix + strconv.Itoa(year)

	var meta spreadsheetMeta
	err := s.call(ctx, http.MethodGet, s.spreadsheetURL()+"?fields=sheets.properties", nil, &meta)
	if err != nil {
		return sheetdomain.Handle{}, fmt.Errorf("list sheets: %w", err)
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties.Title == title {
			handle := sheetdomain.Handle{SheetID: sheet.Properties.SheetID, Title: title}
			if err := s.ensureHeader(ctx, handle); err != nil {
				return sheetdomain.Handle{}, err
			}
			return handle, nil
		}
	}

	var created struct {
		Replies []struct {
			AddSheet struct {
				Properties sheetProperties `json:"properties"`
			} `json:"addSheet"`
		} `json:"replies"`
	}
	body := map[string]any{
		"requests": []map[string]any{{
			"addSheet": map[string]any{
				"properties": map[string]any{
					"title": title,
					"gridProperties": map[string]any{
						"rowCount":    1000,
						"columnCount": len(s.columns),
					},
				},
			},
		}},
	}
	if err := s.call(ctx, http.MethodPost, s.spreadsheetURL()+":batchUpdate", body, &created); err != nil {
		return sheetdomain.Handle{}, fmt.Errorf("add sheet: %w", err)
	}
	if len(created.Replies) == 0 {
		return sheetdomain.Handle{}, fmt.Errorf("add sheet: empty reply")
	}
	handle := sheetdomain.Handle{
		SheetID: created.Replies[0].AddSheet.Properties.SheetID,
		Title:   title,
	}

	header := make([]any, len(s.columns))
	for i, col := range s.columns {
		header[i] = col
	}
	if err := s.WriteRows(ctx, handle, 1, [][]any{header}); err != nil {
		return sheetdomain.Handle{}, fmt.Errorf("write header: %w", err)
	}

	s.log.Info("created worksheet", zap.String("title", title))
	return handle, nil
}

// ensureHeader restores a cleared header row on an existing worksheet.
// Row-position arithmetic in the publish path assumes row 1 is the header,
// so a missing one is rewritten; existing content is left alone.
func (s *Service) ensureHeader(ctx context.Context, h sheetdomain.Handle) error {
	rangeRef := fmt.Sprintf("%s!A1:%s1", h.Title, columnLetter(len(s.columns)))
	var payload struct {
		Values [][]any `json:"values"`
	}
	if err := s.call(ctx, http.MethodGet, s.valuesURL(rangeRef), nil, &payload); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(payload.Values) > 0 && len(payload.Values[0]) > 0 {
		return nil
	}

	header := make([]any, len(s.columns))
	for i, col := range s.columns {
		header[i] = col
	}
	if err := s.WriteRows(ctx, h, 1, [][]any{header}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	s.log.Info("restored missing header row", zap.String("title", h.Title))
	return nil
}

func (s *Service) ReadAllRows(ctx context.Context, h sheetdomain.Handle) ([][]string, error) {
	rangeRef := fmt.Sprintf("%s!A:%s", h.Title, columnLetter(len(s.columns)))
	var payload struct {
		Values [][]any `json:"values"`
	}
	err := s.call(ctx, http.MethodGet, s.valuesURL(rangeRef), nil, &payload)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	rows := make([][]string, len(payload.Values))
	for i, raw := range payload.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			row[j] = fmt.Sprint(cell)
		}
		rows[i] = row
	}
	return rows, nil
}

func (s *Service) WriteRows(ctx context.Context, h sheetdomain.Handle, startRow int, values [][]any) error {
	if len(values) == 0 {
		return nil
	}
	endRow := startRow + len(values) - 1
	rangeRef := fmt.Sprintf("%s!A%d:%s%d", h.Title, startRow, columnLetter(len(s.columns)), endRow)
	body := map[string]any{
		"range":          rangeRef,
		"majorDimension": "ROWS",
		"values":         values,
	}
	err := s.call(ctx, http.MethodPut, s.valuesURL(rangeRef)+"?valueInputOption=RAW", body, nil)
	if err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

func (s *Service) PatchCells(ctx context.Context, h sheetdomain.Handle, patches []sheetdomain.Patch) error {
	if len(patches) == 0 {
		return nil
	}
	data := make([]map[string]any, 0, len(patches))
	for _, patch := range patches {
		cellRef := fmt.Sprintf("%s!%s%d", h.Title, columnLetter(patch.Col), patch.Row)
		data = append(data, map[string]any{
			"range":  cellRef,
			"values": [][]any{{patch.Value}},
		})
	}
	body := map[string]any{
		"valueInputOption": "RAW",
		"data":             data,
	}
	err := s.call(ctx, http.MethodPost, s.spreadsheetURL()+"/values:batchUpdate", body, nil)
	if err != nil {
		return fmt.Errorf("patch cells: %w", err)
	}
	return nil
}

func (s *Service) DeleteRows(ctx context.Context, h sheetdomain.Handle, rowIndices []int) error {
	if len(rowIndices) == 0 {
		return nil
	}
	if !sort.SliceIsSorted(rowIndices, func(i, j int) bool { return rowIndices[i] > rowIndices[j] }) {
		return sheetdomain.ErrIndicesNotDescending
	}

	requests := make([]map[string]any, 0, len(rowIndices))
	for _, row := range rowIndices {
		requests = append(requests, map[string]any{
			"deleteDimension": map[string]any{
				"range": map[string]any{
					"sheetId":    h.SheetID,
					"dimension":  "ROWS",
					"startIndex": row - 1,
					"endIndex":   row,
				},
			},
		})
	}
	body := map[string]any{"requests": requests}
	if err := s.call(ctx, http.MethodPost, s.spreadsheetURL()+":batchUpdate", body, nil); err != nil {
		return fmt.Errorf("delete rows: %w", err)
	}
	return nil
}

func (s *Service) SetTitle(ctx context.Context, title string) error {
	body := map[string]any{
		"requests": []map[string]any{{
			"updateSpreadsheetProperties": map[string]any{
				"properties": map[string]any{"title": title},
				"fields":     "title",
			},
		}},
	}
	if err := s.call(ctx, http.MethodPost, s.spreadsheetURL()+":batchUpdate", body, nil); err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	return nil
}

func (s *Service) spreadsheetURL() string {
	return fmt.Sprintf("%s/v4/spreadsheets/%s", s.baseURL, s.spreadsheetID)
}

func (s *Service) valuesURL(rangeRef string) string {
	return fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s", s.baseURL, s.spreadsheetID, url.PathEscape(rangeRef))
}

func (s *Service) call(ctx context.Context, method, rawURL string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sheets_request_failed_status_%d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// columnLetter converts a 1-based column number to its A1 letter.
func columnLetter(col int) string {
	letters := ""
	for col > 0 {
		col--
		letters = string(rune('A'+col%26)) + letters
		col /= 26
	}
	return letters
}
