package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// Server
	ServerPort string `yaml:"server_port"`

	// Database
	DatabaseURL string `yaml:"database_url"`

	// AWS
	AWSRegion string `yaml:"aws_region"`

	// Content store: "http" reads public object URLs, "s3" uses the S3 API
	StoreBackend   string `yaml:"store_backend"`
	ReportsBucket  string `yaml:"reports_bucket"`
	ReportsBaseURL string `yaml:"reports_base_url"`

	// Analysis API that triggers report production
	APIBaseURL string `yaml:"api_base_url"`

	// Polling
	MaxAttempts       int           `yaml:"max_attempts"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	RequireWellFormed bool          `yaml:"require_well_formed"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		ServerPort:   "8080",
		DatabaseURL:  "",
		AWSRegion:    "us-east-1",
		StoreBackend: "http",
		MaxAttempts:  30,
		PollInterval: 5 * time.Second,
		LogLevel:     "info",
		LogFormat:    "json",
	}
}

// Load loads configuration from an optional YAML file named by CONFIG_FILE,
// then from environment variables, which take precedence
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.AWSRegion = getEnv("AWS_REGION", cfg.AWSRegion)
	cfg.StoreBackend = getEnv("STORE_BACKEND", cfg.StoreBackend)
	cfg.ReportsBucket = getEnv("REPORTS_BUCKET", cfg.ReportsBucket)
	cfg.ReportsBaseURL = getEnv("REPORTS_BUCKET_URL_BASE", cfg.ReportsBaseURL)
	cfg.APIBaseURL = getEnv("API_BASE_URL", cfg.APIBaseURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	var err error
	if cfg.MaxAttempts, err = getEnvInt("POLL_MAX_ATTEMPTS", cfg.MaxAttempts); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getEnvDuration("POLL_INTERVAL", cfg.PollInterval); err != nil {
		return nil, err
	}
	if cfg.RequireWellFormed, err = getEnvBool("REQUIRE_WELL_FORMED", cfg.RequireWellFormed); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "http", "s3":
	default:
		return fmt.Errorf("invalid store backend %q: must be http or s3", c.StoreBackend)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", c.MaxAttempts)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval must not be negative, got %s", c.PollInterval)
	}
	return nil
}

// StoreLocation returns the base location passively loaded reports are read from
func (c *Config) StoreLocation() string {
	if c.StoreBackend == "s3" {
		return c.ReportsBucket
	}
	if c.ReportsBaseURL != "" {
		return c.ReportsBaseURL
	}
	if c.ReportsBucket != "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com", c.ReportsBucket)
	}
	return ""
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
