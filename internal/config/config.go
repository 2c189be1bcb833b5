package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"bookrecon/internal/logger"
	"bookrecon/internal/ocr"
	"bookrecon/internal/reconciliation"
	"bookrecon/internal/sheets"
)

type Config struct {
	// Logging Configuration
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat     string `envconfig:"LOG_FORMAT" default:"console"`
	LogTimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02T15:04:05Z07:00"`
	LogOutput     string `envconfig:"LOG_OUTPUT" default:"stderr"`

	// Reconciliation Configuration
	OrderPrefix       string   `envconfig:"ORDER_PREFIX"`
	Blocklist         []string `envconfig:"BLOCKLIST"`
	GatewayWindowDays int      `envconfig:"GATEWAY_WINDOW_DAYS" default:"14"`
	InvoiceWindowDays int      `envconfig:"INVOICE_WINDOW_DAYS" default:"60"`
	WindowDirection   string   `envconfig:"WINDOW_DIRECTION" default:"after"`

	// Reporting Configuration
	ContactsBlocklist []string `envconfig:"CONTACTS_BLOCKLIST"`

	// Google Sheets Configuration
	GoogleSheetURL string `envconfig:"GOOGLE_SHEET_URL"`

	// Google Cloud Configuration
	GoogleCredentials     string        `envconfig:"GOOGLE_CREDENTIALS"`
	GoogleCredentialsFile string        `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	GoogleCloudProject    string        `envconfig:"GOOGLE_CLOUD_PROJECT"`
	GoogleCloudLocation   string        `envconfig:"GOOGLE_CLOUD_LOCATION" default:"eu"`
	DocumentAIProcessorID string        `envconfig:"DOCUMENT_AI_PROCESSOR_ID"`
	OCREngine             string        `envconfig:"OCR_ENGINE" default:"vision"`
	OCRTimeout            time.Duration `envconfig:"OCR_TIMEOUT" default:"60s"`

	// Batch Configuration
	BatchWorkers int `envconfig:"BATCH_WORKERS" default:"12"`
}

func Load() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("config: failed to read environment: %w", err)
	}

	config.Blocklist = trimAll(config.Blocklist)
	config.ContactsBlocklist = trimAll(config.ContactsBlocklist)

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) validate() error {
	if _, err := reconciliation.ParseDirection(c.WindowDirection); err != nil {
		return fmt.Errorf("WINDOW_DIRECTION: %w", err)
	}
	if c.GatewayWindowDays < 0 {
		return fmt.Errorf("GATEWAY_WINDOW_DAYS must not be negative")
	}
	if c.InvoiceWindowDays < 0 {
		return fmt.Errorf("INVOICE_WINDOW_DAYS must not be negative")
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be at least 1")
	}
	switch c.OCREngine {
	case ocr.EngineVision, ocr.EngineDocumentAI:
	default:
		return fmt.Errorf("OCR_ENGINE must be %q or %q", ocr.EngineVision, ocr.EngineDocumentAI)
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

// GetReconciliationConfig returns the matching configuration of the engine
func (c *Config) GetReconciliationConfig() reconciliation.Config {
	direction, _ := reconciliation.ParseDirection(c.WindowDirection)

	return reconciliation.Config{
		OrderPrefix:       strings.TrimSpace(c.OrderPrefix),
		Blocklist:         c.Blocklist,
		GatewayWindowDays: c.GatewayWindowDays,
		InvoiceWindowDays: c.InvoiceWindowDays,
		Direction:         direction,
	}
}

// GetOCRConfig returns the text extraction configuration
func (c *Config) GetOCRConfig() ocr.Config {
	return ocr.Config{
		Engine:          c.OCREngine,
		CredentialsJSON: c.GoogleCredentials,
		CredentialsFile: c.GoogleCredentialsFile,
		ProjectID:       c.GoogleCloudProject,
		Location:        c.GoogleCloudLocation,
		ProcessorID:     c.DocumentAIProcessorID,
		Timeout:         c.OCRTimeout,
	}
}

// GetSheetsCredentials returns the service account key location for Google Sheets
func (c *Config) GetSheetsCredentials() sheets.Credentials {
	return sheets.Credentials{
		JSON: c.GoogleCredentials,
		File: c.GoogleCredentialsFile,
	}
}

func trimAll(values []string) []string {
	var trimmed []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			trimmed = append(trimmed, v)
		}
	}
	return trimmed
}
