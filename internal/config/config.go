// Package config loads apflow settings from defaults, an optional config file
// and APFLOW_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"apflow/internal/logger"
)

// EnvPrefix is prepended to every environment key (APFLOW_LOG_LEVEL, ...).
const EnvPrefix = "APFLOW"

// Defaults used when neither a config file nor the environment sets a key.
const (
	DefaultPaymentTermsDays  = 14
	DefaultRequiredStatus    = "matched"
	DefaultVarianceThreshold = 0.0
	DefaultExportFormat      = "json"
	DefaultBatchWorkers      = 4
)

type Config struct {
	// Approval policy defaults, applied when a request leaves them out
	PaymentTermsDays  int
	RequiredStatus    string
	VarianceThreshold float64

	// Export
	ExportFormat string

	// Batch runner
	BatchWorkers int

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads configuration. configFile may be empty; a missing explicit file is an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("payment_terms_days", DefaultPaymentTermsDays)
	v.SetDefault("required_status", DefaultRequiredStatus)
	v.SetDefault("variance_threshold", DefaultVarianceThreshold)
	v.SetDefault("export_format", DefaultExportFormat)
	v.SetDefault("batch_workers", DefaultBatchWorkers)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_time_format", "2006-01-02T15:04:05Z07:00")
	v.SetDefault("log_output", "stderr")

	if configFile == "" {
		configFile = v.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{
		PaymentTermsDays:  v.GetInt("payment_terms_days"),
		RequiredStatus:    strings.ToLower(strings.TrimSpace(v.GetString("required_status"))),
		VarianceThreshold: v.GetFloat64("variance_threshold"),
		ExportFormat:      v.GetString("export_format"),
		BatchWorkers:      v.GetInt("batch_workers"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
		LogTimeFormat:     v.GetString("log_time_format"),
		LogOutput:         v.GetString("log_output"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		PaymentTermsDays:  DefaultPaymentTermsDays,
		RequiredStatus:    DefaultRequiredStatus,
		VarianceThreshold: DefaultVarianceThreshold,
		ExportFormat:      DefaultExportFormat,
		BatchWorkers:      DefaultBatchWorkers,
		LogLevel:          "info",
		LogFormat:         "console",
		LogTimeFormat:     "2006-01-02T15:04:05Z07:00",
		LogOutput:         "stderr",
	}
}

func (c *Config) validate() error {
	if c.PaymentTermsDays < 0 {
		return errors.New("APFLOW_PAYMENT_TERMS_DAYS must not be negative")
	}
	switch c.RequiredStatus {
	case "matched", "partial", "unmatched":
	default:
		return fmt.Errorf("APFLOW_REQUIRED_STATUS must be matched, partial or unmatched, got %q", c.RequiredStatus)
	}
	if c.VarianceThreshold < 0 {
		return errors.New("APFLOW_VARIANCE_THRESHOLD must not be negative")
	}
	if strings.TrimSpace(c.ExportFormat) == "" {
		return errors.New("APFLOW_EXPORT_FORMAT must not be empty")
	}
	if c.BatchWorkers < 1 {
		return errors.New("APFLOW_BATCH_WORKERS must be at least 1")
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
