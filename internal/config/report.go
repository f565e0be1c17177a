package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Sentinels are the fixed strings written in place of missing or failed
// values. Downstream consumers of the published sheet rely on the exact
// wording, so these default to the legacy values.
type Sentinels struct {
	APIError         string `mapstructure:"apiError"`
	InvoiceNotFound  string `mapstructure:"invoiceNotFound"`
	NotFoundBilling  string `mapstructure:"notFoundBilling"`
	NotFoundCustomer string `mapstructure:"notFoundCustomer"`
	NullValue        string `mapstructure:"nullValue"`
}

// ReportConfig is the embedded constant table driving the report shape:
// output columns, sentinel strings, vendor status normalization and
// sheet naming. Overridable through an optional report.yml.
type ReportConfig struct {
	Columns       []string          `mapstructure:"columns"`
	Sentinels     Sentinels         `mapstructure:"sentinels"`
	StatusMapping map[string]string `mapstructure:"statusMapping"`
	SheetName     string            `mapstructure:"sheetName"` // "Report_" + year
	TitlePrefix   string            `mapstructure:"titlePrefix"`
}

const (
	ColumnMonth       = "Month"
	ColumnAccountName = "Billing Account Name"
	ColumnStatus      = "Customer<>CM"
)

func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Columns: []string{
			ColumnMonth,
			ColumnAccountName,
			"Currency",
			"Spending $$",
			"Referral share rate",
			"Profit $$",
			"Referral Company",
			ColumnStatus,
			"Sales",
			"EDP status",
		},
		Sentinels: Sentinels{
			APIError:         "API Error",
			InvoiceNotFound:  "Invoice Not Found",
			NotFoundBilling:  "not found in billing_data",
			NotFoundCustomer: "not found in customer_profile",
			NullValue:        "not found",
		},
		StatusMapping: map[string]string{
			"Open":         "waiting",
			"Paid In Full": "Clear",
		},
		SheetName:   "Report_",
		TitlePrefix: "referral auto report_",
	}
}

// NewReportConfig loads the report constant table, falling back to the
// embedded defaults when no report.yml is present.
func NewReportConfig() (ReportConfig, error) {
	v := viper.New()

	v.SetConfigName("report")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/referral")
	v.AddConfigPath(".")

	v.SetEnvPrefix("REFERRAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultReportConfig()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return ReportConfig{}, err
		}
		return defaults, nil
	}

	cfg := defaults
	if err := v.UnmarshalKey("report", &cfg); err != nil {
		return ReportConfig{}, err
	}
	if err := validateReportConfig(cfg); err != nil {
		return ReportConfig{}, err
	}
	return cfg, nil
}

func validateReportConfig(cfg ReportConfig) error {
	if len(cfg.Columns) == 0 {
		return errors.New("report.columns cannot be empty")
	}
	for _, required := range []string{ColumnMonth, ColumnAccountName, ColumnStatus} {
		if cfg.ColumnIndex(required) < 0 {
			return errors.New("report.columns missing required column " + required)
		}
	}
	return nil
}

// ColumnIndex returns the zero-based position of a column, -1 when absent.
func (c ReportConfig) ColumnIndex(name string) int {
	for i, col := range c.Columns {
		if col == name {
			return i
		}
	}
	return -1
}
