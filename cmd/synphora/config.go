package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config holds the process configuration. Values come from, in order of
// precedence: environment variables (a .env file is loaded first), the
// YAML file passed with --config, and the defaults below.
type Config struct {
	// Model provider
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`

	// Server
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`

	// Artifact storage
	Store    string   `yaml:"store"`
	StoreDir string   `yaml:"store_dir"`
	S3       S3Config `yaml:"s3"`

	// Executor
	MaxIterations int           `yaml:"max_iterations"`
	ReasonTimeout time.Duration `yaml:"-"`
	ActTimeout    time.Duration `yaml:"-"`
	ModelRetries  int           `yaml:"model_retries"`

	// Logging
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json
}

// S3Config configures the s3 artifact store.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// fileConfig is the YAML shape; durations are written as strings like "2m".
type fileConfig struct {
	Config        `yaml:",inline"`
	ReasonTimeout string `yaml:"reason_timeout"`
	ActTimeout    string `yaml:"act_timeout"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Provider:      "openai",
		Addr:          ":8000",
		CORSOrigins:   []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		Store:         "file",
		StoreDir:      "data/store",
		MaxIterations: 10,
		ReasonTimeout: 2 * time.Minute,
		ActTimeout:    5 * time.Minute,
		ModelRetries:  3,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// LoadConfig loads configuration from path (optional) and the environment.
// It loads a .env file if present (silent fail if not found).
func LoadConfig(path string) (*Config, error) {
	godotenv.Load() // Load .env file if present

	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	fc := fileConfig{Config: *c}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if fc.ReasonTimeout != "" {
		if fc.Config.ReasonTimeout, err = time.ParseDuration(fc.ReasonTimeout); err != nil {
			return fmt.Errorf("parse %s: reason_timeout: %w", path, err)
		}
	}
	if fc.ActTimeout != "" {
		if fc.Config.ActTimeout, err = time.ParseDuration(fc.ActTimeout); err != nil {
			return fmt.Errorf("parse %s: act_timeout: %w", path, err)
		}
	}
	*c = fc.Config
	return nil
}

func (c *Config) applyEnv() {
	c.Provider = getEnvOrDefault("LLM_PROVIDER", c.Provider)
	c.BaseURL = getEnvOrDefault("LLM_BASE_URL", c.BaseURL)
	c.APIKey = getEnvOrDefault("LLM_API_KEY", c.APIKey)
	c.Model = getEnvOrDefault("LLM_MODEL", c.Model)

	c.Addr = getEnvOrDefault("SYNPHORA_ADDR", c.Addr)
	if origins := os.Getenv("SYNPHORA_CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitList(origins)
	}

	c.Store = getEnvOrDefault("SYNPHORA_STORE", c.Store)
	c.StoreDir = getEnvOrDefault("SYNPHORA_STORE_DIR", c.StoreDir)
	c.S3.Bucket = getEnvOrDefault("SYNPHORA_S3_BUCKET", c.S3.Bucket)
	c.S3.Prefix = getEnvOrDefault("SYNPHORA_S3_PREFIX", c.S3.Prefix)
	c.S3.Region = getEnvOrDefault("SYNPHORA_S3_REGION", c.S3.Region)
	c.S3.Endpoint = getEnvOrDefault("SYNPHORA_S3_ENDPOINT", c.S3.Endpoint)
	c.S3.AccessKeyID = getEnvOrDefault("AWS_ACCESS_KEY_ID", c.S3.AccessKeyID)
	c.S3.SecretAccessKey = getEnvOrDefault("AWS_SECRET_ACCESS_KEY", c.S3.SecretAccessKey)

	c.MaxIterations = getEnvIntOrDefault("SYNPHORA_MAX_ITERATIONS", c.MaxIterations)
	c.ReasonTimeout = getEnvDurationOrDefault("SYNPHORA_REASON_TIMEOUT", c.ReasonTimeout)
	c.ActTimeout = getEnvDurationOrDefault("SYNPHORA_ACT_TIMEOUT", c.ActTimeout)
	c.ModelRetries = getEnvIntOrDefault("SYNPHORA_MODEL_RETRIES", c.ModelRetries)

	c.LogLevel = getEnvOrDefault("SYNPHORA_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvOrDefault("SYNPHORA_LOG_FORMAT", c.LogFormat)
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	var errs []error
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format: %s (must be text or json)", c.LogFormat))
	}

	switch c.Store {
	case "memory":
	case "file", "badger":
		if c.StoreDir == "" {
			errs = append(errs, fmt.Errorf("SYNPHORA_STORE_DIR is required for the %s store", c.Store))
		}
	case "s3":
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("SYNPHORA_S3_BUCKET is required for the s3 store"))
		}
		if c.S3.Region == "" {
			errs = append(errs, errors.New("SYNPHORA_S3_REGION is required for the s3 store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store: %s (must be memory, file, badger, or s3)", c.Store))
	}

	if c.MaxIterations < 1 {
		errs = append(errs, errors.New("SYNPHORA_MAX_ITERATIONS must be at least 1"))
	}
	if c.ModelRetries < 1 {
		errs = append(errs, errors.New("SYNPHORA_MODEL_RETRIES must be at least 1"))
	}
	if c.ReasonTimeout <= 0 || c.ActTimeout <= 0 {
		errs = append(errs, errors.New("node timeouts must be positive"))
	}
	return errors.Join(errs...)
}

// ValidateModel checks the settings needed to call the model.
func (c *Config) ValidateModel() error {
	switch c.Provider {
	case "openai", "anthropic", "google":
	default:
		return fmt.Errorf("unknown provider: %s (must be openai, anthropic, or google)", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required for the %s provider", c.Provider)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level: %s", s)
	}
	return level, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
