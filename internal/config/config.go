package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Network() NetworkConfig
	Executor() ExecutorConfig
	History() HistoryConfig

	// Browser setters, driven by CLI flags.
	SetBrowserHeadless(bool)
	SetBrowserIgnoreTLSErrors(bool)

	// History setters.
	SetHistoryPath(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	BrowserCfg  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	NetworkCfg  NetworkConfig  `mapstructure:"network" yaml:"network"`
	ExecutorCfg ExecutorConfig `mapstructure:"executor" yaml:"executor"`
	HistoryCfg  HistoryConfig  `mapstructure:"history" yaml:"history"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig   { return c.BrowserCfg }
func (c *Config) Network() NetworkConfig   { return c.NetworkCfg }
func (c *Config) Executor() ExecutorConfig { return c.ExecutorCfg }
func (c *Config) History() HistoryConfig   { return c.HistoryCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)        { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserIgnoreTLSErrors(b bool) { c.BrowserCfg.IgnoreTLSErrors = b }
func (c *Config) SetHistoryPath(p string)          { c.HistoryCfg.FilePath = p }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser session.
type BrowserConfig struct {
	Headless        bool           `mapstructure:"headless" yaml:"headless"`
	DisableCache    bool           `mapstructure:"disable_cache" yaml:"disable_cache"`
	IgnoreTLSErrors bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Debug           bool           `mapstructure:"debug" yaml:"debug"`
	Args            []string       `mapstructure:"args" yaml:"args"`
	Viewport        map[string]int `mapstructure:"viewport" yaml:"viewport"`
}

// NetworkConfig tunes navigation and page settling behavior.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
}

// ExecutorConfig tunes the action execution coordinator.
type ExecutorConfig struct {
	// AttachTimeout bounds the wait for a target element to appear in the
	// DOM before an action is declared unexecutable.
	AttachTimeout time.Duration `mapstructure:"attach_timeout" yaml:"attach_timeout"`
	// VisibilityTimeout bounds the best-effort wait for the target to
	// become visible after scrolling it into view.
	VisibilityTimeout time.Duration `mapstructure:"visibility_timeout" yaml:"visibility_timeout"`
	// DragTimeout bounds the structured drag gesture before the scripted
	// fallback takes over.
	DragTimeout time.Duration `mapstructure:"drag_timeout" yaml:"drag_timeout"`
	// SettleDelay is how long the coordinator keeps listening for DOM
	// mutations after an action completes.
	SettleDelay time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	// RateLimit caps actions per second; zero disables the limiter.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// HistoryConfig selects and tunes the action history store.
type HistoryConfig struct {
	// Backend is "file" or "postgres".
	Backend  string         `mapstructure:"backend" yaml:"backend"`
	FilePath string         `mapstructure:"file_path" yaml:"file_path"`
	MaxSize  int            `mapstructure:"max_size" yaml:"max_size"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// PostgresConfig holds the database connection details.
type PostgresConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// SetDefaults registers the default value for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "webhand")
	v.SetDefault("logger.log_file", "webhand.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_cache", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.debug", false)

	// -- Network --
	v.SetDefault("network.navigation_timeout", "90s")
	v.SetDefault("network.post_load_wait", "2s")

	// -- Executor --
	v.SetDefault("executor.attach_timeout", "2s")
	v.SetDefault("executor.visibility_timeout", "200ms")
	v.SetDefault("executor.drag_timeout", "800ms")
	v.SetDefault("executor.settle_delay", "100ms")
	v.SetDefault("executor.rate_limit", 0.0)

	// -- History --
	v.SetDefault("history.backend", "file")
	v.SetDefault("history.file_path", "webhand_history.json")
	v.SetDefault("history.max_size", 2000)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The database URL carries credentials, keep it out of config files.
	v.BindEnv("history.postgres.url", "WEBHAND_HISTORY_PG_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.ExecutorCfg.AttachTimeout <= 0 {
		return fmt.Errorf("executor.attach_timeout must be a positive duration")
	}
	if c.ExecutorCfg.SettleDelay < 0 {
		return fmt.Errorf("executor.settle_delay must not be negative")
	}
	if c.ExecutorCfg.RateLimit < 0 {
		return fmt.Errorf("executor.rate_limit must not be negative")
	}
	switch c.HistoryCfg.Backend {
	case "file":
		if c.HistoryCfg.FilePath == "" {
			return fmt.Errorf("history.file_path is required for the file backend")
		}
	case "postgres":
		if c.HistoryCfg.Postgres.URL == "" {
			return fmt.Errorf("history.postgres.url is required for the postgres backend. Set WEBHAND_HISTORY_PG_URL")
		}
	default:
		return fmt.Errorf("history.backend must be \"file\" or \"postgres\", got %q", c.HistoryCfg.Backend)
	}
	if c.HistoryCfg.MaxSize <= 0 {
		return fmt.Errorf("history.max_size must be a positive integer")
	}
	return nil
}
