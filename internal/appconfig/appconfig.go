// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is the path checked when the default path does not exist.
	legacyConfigPath = "config.json"
	// defaultRequestTimeout is the default timeout for HTTP requests.
	defaultRequestTimeout = 600 * time.Second

	DefaultLogFile      = "nutrieval.log"
	DefaultDataset      = "data/calorie_king_data.csv"
	DefaultReport       = "nutrition_evaluation_report.md"
	DefaultResultsDir   = "nutrievalData/results"
	DefaultPauseMs      = 1000
	DefaultSystemPrompt = "You are a nutrition expert. Provide detailed, accurate responses with clear reasoning."
	DefaultTemperature  = 0.1
	DefaultMaxTokens    = 800
	DefaultModel        = "gpt-4"

	DefaultScraperBaseURL     = "https://foodapi.calorieking.com/v1"
	DefaultScraperPageSize    = 10
	DefaultScraperMaxItems    = 10
	DefaultScraperDelayMs     = 500
	DefaultScraperBackupEvery = 25
	DefaultScraperRetries     = 3

	// OpenAIKeyEnv is consulted when an openai host sets neither apiKey nor apiKeyEnv.
	OpenAIKeyEnv = "OPENAI_API_KEY"
	// ScraperTokenEnv supplies the nutrition API token when the config omits it.
	ScraperTokenEnv = "NUTRIEVAL_SCRAPER_TOKEN"
)

// Host types.
const (
	HostTypeOpenAI           = "openai"
	HostTypeOpenAICompatible = "openai-compatible"
)

// Store drivers. The empty driver disables run history.
const (
	StoreDriverNone     = ""
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// Config represents the top-level application configuration.
type Config struct {
	Hosts          []Host        `json:"hosts" mapstructure:"hosts"`
	Debug          bool          `json:"debug" mapstructure:"debug"`
	JSONMode       bool          `json:"jsonMode" mapstructure:"jsonMode"`
	TimeoutSeconds int           `json:"timeout,omitempty" mapstructure:"timeout"`
	LogFile        string        `json:"logFile,omitempty" mapstructure:"logFile"`
	Dataset        string        `json:"dataset,omitempty" mapstructure:"dataset"`
	Report         string        `json:"report,omitempty" mapstructure:"report"`
	ExportJSON     string        `json:"exportJson,omitempty" mapstructure:"exportJson"`
	ResultsDir     string        `json:"resultsDir,omitempty" mapstructure:"resultsDir"`
	PauseMs        int           `json:"pauseMs,omitempty" mapstructure:"pauseMs"`
	SystemPrompt   string        `json:"systemPrompt,omitempty" mapstructure:"systemPrompt"`
	Selection      string        `json:"selection,omitempty" mapstructure:"selection"`
	Scraper        ScraperConfig `json:"scraper" mapstructure:"scraper"`
	Store          StoreConfig   `json:"store" mapstructure:"store"`
	ConfigPath     string        `json:"-" mapstructure:"-"`
}

// Host represents a single completion endpoint and the models to evaluate on it.
type Host struct {
	Name       string     `json:"name" mapstructure:"name"`
	URL        string     `json:"url" mapstructure:"url"`
	Type       string     `json:"type" mapstructure:"type"`
	Models     []string   `json:"models" mapstructure:"models"`
	APIKey     string     `json:"apiKey,omitempty" mapstructure:"apiKey"`
	APIKeyEnv  string     `json:"apiKeyEnv,omitempty" mapstructure:"apiKeyEnv"`
	Parameters Parameters `json:"parameters" mapstructure:"parameters"`
}

// Parameters controls sampling for completion requests.
type Parameters struct {
	Temperature *float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	TopP        *float64 `json:"top_p,omitempty" mapstructure:"top_p"`
	MaxTokens   *int     `json:"max_tokens,omitempty" mapstructure:"max_tokens"`
}

// ScraperConfig configures the nutrition API collection run.
type ScraperConfig struct {
	BaseURL        string `json:"baseUrl,omitempty" mapstructure:"baseUrl"`
	Token          string `json:"token,omitempty" mapstructure:"token"`
	PageSize       int    `json:"pageSize,omitempty" mapstructure:"pageSize"`
	MaxItems       int    `json:"maxItems,omitempty" mapstructure:"maxItems"`
	RequestDelayMs int    `json:"requestDelayMs,omitempty" mapstructure:"requestDelayMs"`
	BackupEvery    int    `json:"backupEvery,omitempty" mapstructure:"backupEvery"`
	Output         string `json:"output,omitempty" mapstructure:"output"`
	ErrorOutput    string `json:"errorOutput,omitempty" mapstructure:"errorOutput"`
	BackupDir      string `json:"backupDir,omitempty" mapstructure:"backupDir"`
	Retries        int    `json:"retries,omitempty" mapstructure:"retries"`
}

// StoreConfig selects the run-history database.
type StoreConfig struct {
	Driver string `json:"driver,omitempty" mapstructure:"driver"`
	DSN    string `json:"dsn,omitempty" mapstructure:"dsn"`
}

// RequestTimeout returns the timeout duration for HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Pause is the wait between consecutive completion requests.
func (c Config) Pause() time.Duration {
	if c.PauseMs < 0 {
		return 0
	}
	if c.PauseMs == 0 {
		return DefaultPauseMs * time.Millisecond
	}
	return time.Duration(c.PauseMs) * time.Millisecond
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return DefaultLogFile
}

// DatasetPath returns the food dataset location.
func (c Config) DatasetPath() string {
	return firstNonEmpty(c.Dataset, DefaultDataset)
}

// ReportPath returns the markdown report location.
func (c Config) ReportPath() string {
	return firstNonEmpty(c.Report, DefaultReport)
}

// ResultsPath returns the directory holding per-model JSONL results.
func (c Config) ResultsPath() string {
	return firstNonEmpty(c.ResultsDir, DefaultResultsDir)
}

// SystemPromptText returns the system prompt sent with every request.
func (c Config) SystemPromptText() string {
	return firstNonEmpty(c.SystemPrompt, DefaultSystemPrompt)
}

// ResolveAPIKey returns the key for host: apiKey, then the apiKeyEnv variable,
// then OPENAI_API_KEY for openai hosts.
func (h Host) ResolveAPIKey() string {
	if key := strings.TrimSpace(h.APIKey); key != "" {
		return key
	}
	if env := strings.TrimSpace(h.APIKeyEnv); env != "" {
		return strings.TrimSpace(os.Getenv(env))
	}
	if h.Type == HostTypeOpenAI {
		return strings.TrimSpace(os.Getenv(OpenAIKeyEnv))
	}
	return ""
}

// Identifier prefers the host name over its URL.
func (h Host) Identifier() string {
	if name := strings.TrimSpace(h.Name); name != "" {
		return name
	}
	if url := strings.TrimSpace(h.URL); url != "" {
		return url
	}
	return h.Type
}

// TemperatureOrDefault returns the configured temperature or 0.1.
func (p Parameters) TemperatureOrDefault() float64 {
	if p.Temperature != nil {
		return *p.Temperature
	}
	return DefaultTemperature
}

// MaxTokensOrDefault returns the configured completion limit or 800.
func (p Parameters) MaxTokensOrDefault() int {
	if p.MaxTokens != nil && *p.MaxTokens > 0 {
		return *p.MaxTokens
	}
	return DefaultMaxTokens
}

// WithDefaults returns a copy of s with unset fields defaulted. The token
// falls back to NUTRIEVAL_SCRAPER_TOKEN.
func (s ScraperConfig) WithDefaults() ScraperConfig {
	out := s
	out.BaseURL = strings.TrimRight(firstNonEmpty(s.BaseURL, DefaultScraperBaseURL), "/")
	if strings.TrimSpace(out.Token) == "" {
		out.Token = strings.TrimSpace(os.Getenv(ScraperTokenEnv))
	}
	if out.PageSize <= 0 {
		out.PageSize = DefaultScraperPageSize
	}
	if out.MaxItems <= 0 {
		out.MaxItems = DefaultScraperMaxItems
	}
	if out.RequestDelayMs < 0 {
		out.RequestDelayMs = 0
	} else if out.RequestDelayMs == 0 {
		out.RequestDelayMs = DefaultScraperDelayMs
	}
	if out.BackupEvery <= 0 {
		out.BackupEvery = DefaultScraperBackupEvery
	}
	if out.Retries <= 0 {
		out.Retries = DefaultScraperRetries
	}
	out.Output = firstNonEmpty(s.Output, DefaultDataset)
	out.ErrorOutput = firstNonEmpty(s.ErrorOutput, strings.TrimSuffix(out.Output, ".csv")+"_error.csv")
	out.BackupDir = firstNonEmpty(s.BackupDir, "backups")
	return out
}

// RequestDelay is the minimum spacing between nutrition API calls.
func (s ScraperConfig) RequestDelay() time.Duration {
	return time.Duration(s.RequestDelayMs) * time.Millisecond
}

// Validate rejects configurations that cannot be run.
func (c Config) Validate() error {
	var problems []string
	for i, h := range c.Hosts {
		switch h.Type {
		case HostTypeOpenAI:
		case HostTypeOpenAICompatible:
			if strings.TrimSpace(h.URL) == "" {
				problems = append(problems, fmt.Sprintf("hosts[%d] (%s): url is required for type %q", i, h.Identifier(), h.Type))
			}
		default:
			problems = append(problems, fmt.Sprintf("hosts[%d] (%s): unknown type %q (want %q or %q)", i, h.Identifier(), h.Type, HostTypeOpenAI, HostTypeOpenAICompatible))
		}
	}
	switch c.Store.Driver {
	case StoreDriverNone, StoreDriverSQLite, StoreDriverPostgres:
	default:
		problems = append(problems, fmt.Sprintf("store: unknown driver %q", c.Store.Driver))
	}
	if c.Store.Driver != StoreDriverNone && strings.TrimSpace(c.Store.DSN) == "" {
		problems = append(problems, "store: dsn is required when a driver is set")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Load reads the application configuration from the specified path, with fallback to a legacy path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		config.ConfigPath = path
		return config, config.Validate()
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, legacyErr := loadFromPath(legacyConfigPath)
			if legacyErr == nil {
				config.ConfigPath = legacyConfigPath
				return config, config.Validate()
			}
			if errors.Is(legacyErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q)", DefaultConfigPath, legacyConfigPath)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q", path)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}

	return config, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
