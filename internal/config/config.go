// Package config loads the service configuration from config/{ENV}.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the glycomeal API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Predictor   PredictorConfig   `yaml:"predictor"`
	Search      SearchConfig      `yaml:"search"`
	LLM         LLMConfig         `yaml:"llm"`
	FeedbackLog FeedbackLogConfig `yaml:"feedback_log"`
	Auth        AuthConfig        `yaml:"auth"`
	Storage     StorageConfig     `yaml:"storage"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds recipe store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey (same wire protocol)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Predictor kinds.
const (
	PredictorLinear = "linear"
	PredictorHTTP   = "http"
)

// PredictorConfig selects the glucose predictor.
type PredictorConfig struct {
	Type             string `yaml:"type"`              // linear (default) | http
	URL              string `yaml:"url"`               // sidecar base URL for http
	TimeoutMS        int    `yaml:"timeout_ms"`        // per prediction
	CoefficientsPath string `yaml:"coefficients_path"` // optional YAML for linear
}

// SearchConfig tunes the recommendation search.
type SearchConfig struct {
	MaxAttempts int    `yaml:"max_attempts"`
	TopK        int    `yaml:"top_k"`
	TimeoutSec  int    `yaml:"timeout_sec"`
	Seed        uint64 `yaml:"seed"` // 0 = random per process
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// LLMConfig configures cooking instructions. An empty APIKey disables them.
type LLMConfig struct {
	APIKey      string       `yaml:"api_key"`
	BaseURL     string       `yaml:"base_url"`
	Model       string       `yaml:"model"`
	MaxTokens   int          `yaml:"max_tokens"`
	Temperature float32      `yaml:"temperature"`
	CacheTTLH   int          `yaml:"cache_ttl_hours"`
	Budget      BudgetConfig `yaml:"budget"`
}

// Enabled reports whether an API key is configured.
func (c LLMConfig) Enabled() bool { return c.APIKey != "" }

// FeedbackLogConfig points at the SQLite glucose log. An empty Path disables it.
type FeedbackLogConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig holds catalog settings.
type StorageConfig struct {
	SeedCatalog  string `yaml:"seed_catalog"` // YAML catalog imported at startup when set
	MaxBatchSize int    `yaml:"max_batch_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Predictor.Type == "" {
		c.Predictor.Type = PredictorLinear
	}
	if c.Predictor.TimeoutMS <= 0 {
		c.Predictor.TimeoutMS = 2000
	}
	if c.Search.MaxAttempts <= 0 {
		c.Search.MaxAttempts = 100
	}
	if c.Search.TopK <= 0 {
		c.Search.TopK = 10
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 20
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 800
	}
	if c.LLM.CacheTTLH <= 0 {
		c.LLM.CacheTTLH = 24 * 7
	}
	if c.Storage.MaxBatchSize <= 0 {
		c.Storage.MaxBatchSize = 500
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Database.Driver {
	case "redis", "valkey":
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"valkey\", got %q", c.Database.Driver)
	}
	switch c.Predictor.Type {
	case PredictorLinear:
	case PredictorHTTP:
		if c.Predictor.URL == "" {
			return fmt.Errorf("predictor.url is required for the http predictor")
		}
	default:
		return fmt.Errorf("predictor.type must be %q or %q, got %q", PredictorLinear, PredictorHTTP, c.Predictor.Type)
	}
	if c.Search.TimeoutSec >= c.HTTP.WriteTimeoutSec {
		return fmt.Errorf("search.timeout_sec (%d) must be below http.write_timeout_sec (%d)",
			c.Search.TimeoutSec, c.HTTP.WriteTimeoutSec)
	}
	switch c.LLM.Budget.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf("llm.budget.action must be \"warn\" or \"reject\", got %q", c.LLM.Budget.Action)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %g", c.LLM.Temperature)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests run from package directories.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
