// Package config loads application configuration from file, environment
// and defaults, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser" mapstructure:"browser"`
	Captcha CaptchaConfig `yaml:"captcha" mapstructure:"captcha"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Report  ReportConfig  `yaml:"report" mapstructure:"report"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// BrowserConfig configures the browser session driving the portal.
type BrowserConfig struct {
	Engine          string `yaml:"engine" mapstructure:"engine"` // chromium, firefox or webkit
	Headless        bool   `yaml:"headless" mapstructure:"headless"`
	TrackingURL     string `yaml:"tracking_url" mapstructure:"tracking_url"`
	PageTimeoutSecs int    `yaml:"page_timeout_secs" mapstructure:"page_timeout_secs"`
}

// CaptchaConfig configures the challenge resolution cascade.
type CaptchaConfig struct {
	// TwoCaptchaKey enables the remote solving service when non-empty.
	TwoCaptchaKey string `yaml:"two_captcha_key" mapstructure:"two_captcha_key"`
	// ManualEnabled keeps the operator prompt as the final fallback.
	ManualEnabled bool `yaml:"manual_enabled" mapstructure:"manual_enabled"`
	// ManualOnly skips the remote service and the OCR ensemble entirely.
	ManualOnly bool `yaml:"manual_only" mapstructure:"manual_only"`
	// TesseractPath overrides the tesseract binary location.
	TesseractPath string `yaml:"tesseract_path" mapstructure:"tesseract_path"`
	// DiagnosticsDir receives challenge images, processed variants and
	// recognition logs for offline tuning.
	DiagnosticsDir string `yaml:"diagnostics_dir" mapstructure:"diagnostics_dir"`
}

// BatchConfig configures per-record retries and inter-record pacing.
type BatchConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	RequestDelaySecs float64 `yaml:"request_delay_secs" mapstructure:"request_delay_secs"`
}

// ReportConfig configures spreadsheet input/output defaults.
type ReportConfig struct {
	InputSheet int `yaml:"input_sheet" mapstructure:"input_sheet"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STATUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("browser.engine", "chromium")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.tracking_url", "https://russia-edu.minobrnauki.gov.ru/")
	v.SetDefault("browser.page_timeout_secs", 60)
	v.SetDefault("captcha.manual_enabled", true)
	v.SetDefault("captcha.manual_only", false)
	v.SetDefault("captcha.diagnostics_dir", "captchas")
	v.SetDefault("batch.max_attempts", 3)
	v.SetDefault("batch.request_delay_secs", 1.5)
	v.SetDefault("report.input_sheet", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
