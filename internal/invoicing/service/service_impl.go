package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/referral/internal/config"
	invoicingdomain "github.com/smallbiznis/referral/internal/invoicing/domain"
	warehousedomain "github.com/smallbiznis/referral/internal/warehouse/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log          *zap.Logger
	Config       config.Config
	ReportConfig config.ReportConfig
	WarehouseSvc warehousedomain.Service
}

type Service struct {
	log          *zap.Logger
	client       *http.Client
	baseURL      string
	scriptID     string
	deployID     string
	token        string
	mapping      map[string]string
	warehouseSvc warehousedomain.Service
}

func NewService(p ServiceParam) invoicingdomain.Service {
	timeout := p.Config.InvoicingTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		log:          p.Log.Named("invoicing.service"),
		client:       &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(p.Config.InvoicingBaseURL, "/"),
		scriptID:     p.Config.InvoicingScriptID,
		deployID:     p.Config.InvoicingDeployID,
		token:        p.Config.InvoicingToken,
		mapping:      p.ReportConfig.StatusMapping,
		warehouseSvc: p.WarehouseSvc,
	}
}

// restletResponse is the minimal contract with the invoicing restlet: one
// entry per invoice, each covering a set of billing account ids.
type restletResponse struct {
	Data []struct {
		PaymentStatus string   `json:"payment_status"`
		Items         []string `json:"items"`
	} `json:"data"`
}

func (s *Service) PaymentStatus(ctx context.Context, period int, accountIDs []string) invoicingdomain.StatusMap {
	if len(accountIDs) == 0 {
		return invoicingdomain.StatusMap{}
	}

	payload, err := s.query(ctx, period, accountIDs)
	if err != nil {
		s.log.Warn("invoicing lookup failed, degrading to API error sentinel",
			zap.Int("period", period),
			zap.Int("accounts", len(accountIDs)),
			zap.Error(err),
		)
		return fill(accountIDs, invoicingdomain.StatusAPIError)
	}

	byID := map[string]invoicingdomain.Status{}
	for _, invoice := range payload.Data {
		status := s.normalize(invoice.PaymentStatus)
		for _, id := range invoice.Items {
			byID[id] = status
		}
	}

	result := make(invoicingdomain.StatusMap, len(accountIDs))
	for _, id := range accountIDs {
		if status, ok := byID[id]; ok {
			result[id] = status
		} else {
			result[id] = invoicingdomain.StatusInvoiceNotFound
		}
	}
	return result
}

func (s *Service) StatusByName(ctx context.Context, period int, accountName string) invoicingdomain.Status {
	profiles, err := s.warehouseSvc.Profiles(ctx, period)
	if err != nil {
		s.log.Warn("profile lookup for name resolution failed",
			zap.Int("period", period),
			zap.Error(err),
		)
		return invoicingdomain.StatusAPIError
	}
	if len(profiles) == 0 {
		return invoicingdomain.StatusAPIError
	}

	accountID := ""
	for _, profile := range profiles {
		if profile.BillingAccountName == accountName {
			accountID = profile.BillingAccountID
			break
		}
	}
	if accountID == "" {
		return invoicingdomain.StatusInvoiceNotFound
	}

	statuses := s.PaymentStatus(ctx, period, []string{accountID})
	if status, ok := statuses[accountID]; ok {
		return status
	}
	return invoicingdomain.StatusInvoiceNotFound
}

func (s *Service) query(ctx context.Context, period int, accountIDs []string) (*restletResponse, error) {
	params := url.Values{}
	params.Set("script", s.scriptID)
	params.Set("deploy", s.deployID)
	params.Set("month", strconv.Itoa(period))
	params.Set("billing_account_ids", strings.Join(accountIDs, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("invoicing_request_failed_status_%d", resp.StatusCode)
	}

	var payload restletResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// normalize maps vendor payment statuses onto the internal vocabulary.
// Unknown vendor statuses pass through verbatim.
func (s *Service) normalize(vendor string) invoicingdomain.Status {
	if mapped, ok := s.mapping[vendor]; ok {
		return invoicingdomain.Status(mapped)
	}
	return invoicingdomain.Status(vendor)
}

func fill(accountIDs []string, status invoicingdomain.Status) invoicingdomain.StatusMap {
	result := make(invoicingdomain.StatusMap, len(accountIDs))
	for _, id := range accountIDs {
		result[id] = status
	}
	return result
}
