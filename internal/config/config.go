package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported MODEL_PROVIDER values
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

type Config struct {
	Host               string        `yaml:"host" env:"HOST"`
	Port               string        `yaml:"port" env:"PORT"`
	RequestTimeout     time.Duration `yaml:"requestTimeout" env:"REQUEST_TIMEOUT"`
	AnalysisTimeout    time.Duration `yaml:"analysisTimeout" env:"ANALYSIS_TIMEOUT"`
	MaxRequestBodySize int64         `yaml:"maxRequestBodySize" env:"MAX_REQUEST_BODY_SIZE"`

	ReportsDir     string        `yaml:"reportsDir" env:"REPORTS_DIR"`
	CleanupDelay   time.Duration `yaml:"cleanupDelay" env:"CLEANUP_DELAY"`
	StaleReportAge time.Duration `yaml:"staleReportAge" env:"STALE_REPORT_AGE"`

	ModelProvider   string `yaml:"modelProvider" env:"MODEL_PROVIDER"`
	ModelName       string `yaml:"modelName" env:"MODEL_NAME"`
	GeminiAPIKey    string `yaml:"geminiApiKey" env:"GEMINI_API_KEY"`
	OpenAIAPIKey    string `yaml:"openaiApiKey" env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `yaml:"openaiBaseUrl" env:"OPENAI_BASE_URL"`
	AnthropicAPIKey string `yaml:"anthropicApiKey" env:"ANTHROPIC_API_KEY"`

	CORSAllowedOrigins []string `yaml:"corsAllowedOrigins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	LogLevel           string   `yaml:"logLevel" env:"LOG_LEVEL"`
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// APIKey returns the credential for the selected model provider
func (c *Config) APIKey() string {
	switch c.ModelProvider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Host:               "0.0.0.0",
		Port:               "5000",
		RequestTimeout:     120 * time.Second,
		AnalysisTimeout:    60 * time.Second,
		MaxRequestBodySize: 20 * 1024 * 1024, // 20MB, base64 images are large
		ReportsDir:         "reports",
		CleanupDelay:       0,
		StaleReportAge:     time.Hour,
		ModelProvider:      ProviderGemini,
		CORSAllowedOrigins: []string{"*"},
		LogLevel:           "info",
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment (a local .env file is loaded first when present). An empty
// path falls back to CONFIG_PATH; no file at all is fine.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.ModelProvider = strings.ToLower(strings.TrimSpace(cfg.ModelProvider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks ranges and the provider selection. Credentials are checked
// separately by RequireAPIKey since offline commands do not need them.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, analysis=%s)",
			c.RequestTimeout, c.AnalysisTimeout)
	}
	if c.CleanupDelay < 0 || c.StaleReportAge < 0 {
		return fmt.Errorf("CLEANUP_DELAY and STALE_REPORT_AGE must not be negative")
	}
	if strings.TrimSpace(c.ReportsDir) == "" {
		return errors.New("REPORTS_DIR must not be empty")
	}
	switch c.ModelProvider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported MODEL_PROVIDER: %q", c.ModelProvider)
	}
	return nil
}

// RequireAPIKey fails when the selected provider has no credential
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey()) == "" {
		return fmt.Errorf("missing API key for model provider %q", c.ModelProvider)
	}
	return nil
}
