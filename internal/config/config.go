package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "covidvax/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// SourceConfig describes where the case dataset is read from and how hard
// to try.
type SourceConfig struct {
	URL            string        `yaml:"url" envconfig:"URL"`
	Format         string        `yaml:"format" envconfig:"FORMAT"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	MaxAttempts    int           `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS"`
	InitialBackoff time.Duration `yaml:"initial_backoff" envconfig:"INITIAL_BACKOFF"`
	MaxBackoff     time.Duration `yaml:"max_backoff" envconfig:"MAX_BACKOFF"`
	UserAgent      string        `yaml:"user_agent" envconfig:"USER_AGENT"`
}

// DashboardConfig contains presentation settings
type DashboardConfig struct {
	Title     string `yaml:"title" envconfig:"TITLE"`
	ChartKind string `yaml:"chart_kind" envconfig:"CHART_KIND"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// TelemetryConfig selects the OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName     string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment     string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TracingExporter string  `yaml:"tracing_exporter" envconfig:"TRACING_EXPORTER"`
	MetricsExporter string  `yaml:"metrics_exporter" envconfig:"METRICS_EXPORTER"`
	SampleRatio     float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Load resolves configuration from defaults, the config file named by
// COVIDVAX_CONFIG_FILE and the environment.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(ConfigFileEnv))
}

// LoadFile is Load with an explicit config file path. An empty path falls
// back to config.yaml in the working directory when it exists.
func LoadFile(path string) (*Config, error) {
	if err := loadDotEnv(DefaultEnvFile); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", DefaultEnvFile, err)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := cfg.mergeFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Only variables that are set override; envconfig leaves the rest alone
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadDotEnv applies a .env file without overriding variables already set
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// mergeFile decodes a YAML file over the current values; keys absent from
// the file keep what is already there.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// validate validates and normalizes the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if strings.TrimSpace(c.Source.URL) == "" {
		return fmt.Errorf("source url must be set")
	}
	if u, err := url.Parse(c.Source.URL); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		switch u.Scheme {
		case "http", "https", "file":
		default:
			return fmt.Errorf("unsupported source scheme %q", u.Scheme)
		}
	}
	c.Source.Format = strings.ToLower(c.Source.Format)
	switch c.Source.Format {
	case FormatAuto, FormatParquet, FormatCSV:
	case "":
		c.Source.Format = FormatAuto
	default:
		return fmt.Errorf("invalid source format %q: want auto, parquet or csv", c.Source.Format)
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source timeout must be positive")
	}
	if c.Source.MaxAttempts < 1 {
		return fmt.Errorf("source max attempts must be at least 1, got %d", c.Source.MaxAttempts)
	}
	if c.Source.InitialBackoff <= 0 || c.Source.MaxBackoff < c.Source.InitialBackoff {
		return fmt.Errorf("source backoff must satisfy 0 < initial (%s) <= max (%s)",
			c.Source.InitialBackoff, c.Source.MaxBackoff)
	}

	c.Dashboard.ChartKind = strings.ToLower(c.Dashboard.ChartKind)
	if c.Dashboard.ChartKind != ChartBar && c.Dashboard.ChartKind != ChartLine {
		return fmt.Errorf("invalid chart kind %q: want bar or line", c.Dashboard.ChartKind)
	}
	if c.Dashboard.Title == "" {
		c.Dashboard.Title = AppTitle
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}
	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}
	if c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/covidvax.log"
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be within [0, 1], got %v", c.Telemetry.SampleRatio)
	}

	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    DefaultRequestTimeout + 15*time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  DefaultRequestTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxHeaderBytes:  1 << 20,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/covidvax.log",
		},
		Source: SourceConfig{
			URL:            DefaultSourceURL,
			Format:         FormatAuto,
			Timeout:        DefaultSourceTimeout,
			MaxAttempts:    DefaultMaxAttempts,
			InitialBackoff: DefaultInitialBackoff,
			MaxBackoff:     DefaultMaxBackoff,
			UserAgent:      AppName + "/" + AppVersion,
		},
		Dashboard: DashboardConfig{
			Title:     AppTitle,
			ChartKind: ChartBar,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName:     AppName,
			Environment:     "development",
			TracingExporter: "none",
			MetricsExporter: "prometheus",
			SampleRatio:     1.0,
		},
	}
}
