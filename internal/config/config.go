package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	LogLevel  string
	LogFormat string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBQueryTimeout    time.Duration

	InvoicingBaseURL  string
	InvoicingScriptID string
	InvoicingDeployID string
	InvoicingToken    string
	InvoicingTimeout  time.Duration

	SheetsBaseURL string
	SpreadsheetID string
	SheetsToken   string
	SheetsTimeout time.Duration

	PushgatewayURL string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "referral-reporter"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getenv("LOG_FORMAT", "json")),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "referral_service"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 5),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBQueryTimeout:    getenvDuration("DATABASE_QUERY_TIMEOUT", 3*time.Minute),

		InvoicingBaseURL:  getenv("INVOICING_BASE_URL", ""),
		InvoicingScriptID: getenv("INVOICING_SCRIPT_ID", ""),
		InvoicingDeployID: getenv("INVOICING_DEPLOY_ID", ""),
		InvoicingToken:    strings.TrimSpace(getenv("INVOICING_TOKEN", "")),
		InvoicingTimeout:  getenvDuration("INVOICING_TIMEOUT", 30*time.Second),

		SheetsBaseURL: getenv("SHEETS_BASE_URL", "https://sheets.googleapis.com"),
		SpreadsheetID: getenv("SHEETS_SPREADSHEET_ID", ""),
		SheetsToken:   strings.TrimSpace(getenv("SHEETS_TOKEN", "")),
		SheetsTimeout: getenvDuration("SHEETS_TIMEOUT", 30*time.Second),

		PushgatewayURL: strings.TrimSpace(getenv("PUSHGATEWAY_URL", "")),
	}
}

func getenv(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
