package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"arstatements/internal/logger"
)

// Source kinds
const (
	SourceSQL    = "sql"
	SourceXLSX   = "xlsx"
	SourceSheets = "sheets"
)

// Archive backends
const (
	ArchiveNone = "none"
	ArchiveS3   = "s3"
	ArchiveGCS  = "gcs"
)

type Config struct {
	// Invoice source
	SourceKind       string
	DatabaseURL      string
	InvoiceQuery     string
	SourceXLSXPath   string
	SourceSheetURL   string
	SourceSheetRange string

	// Statement output
	OutputDir            string
	LocalCurrencyCode    string
	LocalCurrencyAliases []string
	PageBreakPolicy      string
	StatementProfile     string

	// SMTP delivery
	SMTPHost      string
	SMTPPort      string
	SMTPUser      string
	SMTPPass      string
	SMTPFrom      string
	SMTPTimeout   time.Duration
	LogRecipients []string

	// Archival
	ArchiveBackend string
	ArchiveBucket  string
	ArchivePrefix  string
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	// Run reporting
	GoogleSheetURL       string
	GoogleSheetWorksheet string
	WebhookURL           string
	MetricsTextfile      string
	RunSource            string

	// Scheduling
	ScheduleAt   string
	ScheduleDays string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		SourceKind:           strings.ToLower(getEnv("SOURCE_KIND", SourceSQL)),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		InvoiceQuery:         getEnv("INVOICE_QUERY", ""),
		SourceXLSXPath:       getEnv("SOURCE_XLSX_PATH", ""),
		SourceSheetURL:       getEnv("SOURCE_SHEET_URL", ""),
		SourceSheetRange:     getEnv("SOURCE_SHEET_RANGE", "Facturas!A:L"),
		OutputDir:            getEnv("OUTPUT_DIR", "statements"),
		LocalCurrencyCode:    strings.ToUpper(getEnv("LOCAL_CURRENCY_CODE", "CRC")),
		LocalCurrencyAliases: splitList(getEnv("LOCAL_CURRENCY_ALIASES", "CRC,COL")),
		PageBreakPolicy:      strings.ToLower(getEnv("PAGE_BREAK_POLICY", "space")),
		StatementProfile:     getEnv("STATEMENT_PROFILE", ""),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             getEnv("SMTP_PORT", "587"),
		SMTPUser:             getEnv("SMTP_USER", ""),
		SMTPPass:             getEnv("SMTP_PASS", ""),
		SMTPFrom:             getEnv("SMTP_FROM", ""),
		SMTPTimeout:          getDuration("SMTP_TIMEOUT", 60*time.Second),
		LogRecipients:        splitList(getEnv("LOG_RECIPIENTS", "")),
		ArchiveBackend:       strings.ToLower(getEnv("ARCHIVE_BACKEND", ArchiveNone)),
		ArchiveBucket:        getEnv("ARCHIVE_BUCKET", ""),
		ArchivePrefix:        getEnv("ARCHIVE_PREFIX", "estados-de-cuenta"),
		S3Endpoint:           getEnv("S3_ENDPOINT", ""),
		S3Region:             getEnv("S3_REGION", "us-east-1"),
		S3AccessKey:          getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:          getEnv("S3_SECRET_KEY", ""),
		S3UsePathStyle:       getBool("S3_USE_PATH_STYLE", true),
		GoogleSheetURL:       getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet: getEnv("GOOGLE_SHEET_WORKSHEET", "Ejecuciones"),
		WebhookURL:           getEnv("WEBHOOK_URL", ""),
		MetricsTextfile:      getEnv("METRICS_TEXTFILE", ""),
		RunSource:            getEnv("RUN_SOURCE", "arstatements"),
		ScheduleAt:           getEnv("SCHEDULE_AT", "06:00"),
		ScheduleDays:         getEnv("SCHEDULE_DAYS", "L-K-M-J-V"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:        getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:            getEnv("LOG_OUTPUT", "stdout"),
	}

	if config.SMTPFrom == "" {
		config.SMTPFrom = config.SMTPUser
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.SourceKind {
	case SourceSQL:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SOURCE_KIND=sql")
		}
	case SourceXLSX:
		if c.SourceXLSXPath == "" {
			return fmt.Errorf("SOURCE_XLSX_PATH is required when SOURCE_KIND=xlsx")
		}
	case SourceSheets:
		if c.SourceSheetURL == "" {
			return fmt.Errorf("SOURCE_SHEET_URL is required when SOURCE_KIND=sheets")
		}
	default:
		return fmt.Errorf("SOURCE_KIND must be one of sql, xlsx, sheets (got %q)", c.SourceKind)
	}

	if c.PageBreakPolicy != "space" && c.PageBreakPolicy != "legacy" {
		return fmt.Errorf("PAGE_BREAK_POLICY must be space or legacy (got %q)", c.PageBreakPolicy)
	}

	switch c.ArchiveBackend {
	case ArchiveNone:
	case ArchiveS3:
		if c.ArchiveBucket == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			return fmt.Errorf("ARCHIVE_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY are required when ARCHIVE_BACKEND=s3")
		}
	case ArchiveGCS:
		if c.ArchiveBucket == "" {
			return fmt.Errorf("ARCHIVE_BUCKET is required when ARCHIVE_BACKEND=gcs")
		}
	default:
		return fmt.Errorf("ARCHIVE_BACKEND must be one of none, s3, gcs (got %q)", c.ArchiveBackend)
	}
	return nil
}

// ValidateDelivery checks the settings needed to send email.
// Dry runs skip it.
func (c *Config) ValidateDelivery() error {
	if c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST is required")
	}
	if c.SMTPUser == "" || c.SMTPPass == "" {
		return fmt.Errorf("SMTP_USER and SMTP_PASS are required")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// splitList splits comma or semicolon separated values, dropping blanks
func splitList(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
