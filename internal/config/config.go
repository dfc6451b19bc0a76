package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"
)

const envPrefix = "MOVIEMATE_"

// Config represents the main application configuration
type Config struct {
	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Metadata provider
	TMDb TMDbConfig `yaml:"tmdb"`

	// Catalog tuning: result counts, ranking floor and cache lifetimes
	Catalog CatalogConfig `yaml:"catalog"`

	// Frontends
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`

	// Application settings
	App AppConfig `yaml:"app"`
}

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	Provider  string `yaml:"provider"` // "gemini", "claude"
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Narration string `yaml:"narration,omitempty"` // "direct", "roundtrip"
}

// TMDbConfig holds TMDb API configuration. An empty APIKey is allowed:
// every catalog operation then answers with a configuration notice.
type TMDbConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url,omitempty"`
	Language string `yaml:"language,omitempty"`
}

// CatalogConfig tunes list sizes, the top-rated vote floor and cache TTLs.
type CatalogConfig struct {
	TopN         int           `yaml:"top_n"`
	MinVoteCount int           `yaml:"min_vote_count"`
	DetailsTTL   time.Duration `yaml:"details_ttl"`
	ListTTL      time.Duration `yaml:"list_ttl"`
	GenreTTL     time.Duration `yaml:"genre_ttl"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids,omitempty"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	LogLevel string `yaml:"log_level"` // "debug", "info", "warn", "error"
}

// Load loads configuration from a YAML file with environment variable overrides.
// A .env file next to the config file (or in the working directory) is loaded
// first; variables already set in the environment win. An empty path builds
// the configuration from the environment alone.
func Load(path string) (*Config, error) {
	return load(path, (*Config).Validate)
}

// LoadCatalog loads the configuration for commands that only serve the movie
// tools and never talk to a model: the llm section is not validated.
func LoadCatalog(path string) (*Config, error) {
	return load(path, (*Config).ValidateCatalog)
}

func load(path string, validate func(*Config) error) (*Config, error) {
	loadDotEnv(path)

	var cfg Config
	if path != "" {
		if err := validateConfigPath(path); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	cfg.setDefaults()
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func validateConfigPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("failed to access config file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	return nil
}

func loadDotEnv(configPath string) {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append([]string{filepath.Join(filepath.Dir(configPath), ".env")}, candidates...)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// applyEnvOverrides overrides config values with environment variables
func (c *Config) applyEnvOverrides() error {
	// LLM
	setFromEnv(&c.LLM.Provider, "LLM_PROVIDER")
	setFromEnv(&c.LLM.APIKey, "LLM_API_KEY")
	setFromEnv(&c.LLM.Model, "LLM_MODEL")
	setFromEnv(&c.LLM.BaseURL, "LLM_BASE_URL")
	setFromEnv(&c.LLM.Narration, "LLM_NARRATION")

	// TMDb
	setFromEnv(&c.TMDb.APIKey, "TMDB_API_KEY")
	setFromEnv(&c.TMDb.BaseURL, "TMDB_BASE_URL")
	setFromEnv(&c.TMDb.Language, "TMDB_LANGUAGE")
	if c.TMDb.APIKey == "" {
		c.TMDb.APIKey = os.Getenv("TMDB_API_KEY")
	}

	// Catalog
	if v := os.Getenv(envPrefix + "CATALOG_TOP_N"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCATALOG_TOP_N: %w", envPrefix, err)
		}
		c.Catalog.TopN = n
	}
	if v := os.Getenv(envPrefix + "CATALOG_MIN_VOTE_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCATALOG_MIN_VOTE_COUNT: %w", envPrefix, err)
		}
		c.Catalog.MinVoteCount = n
	}

	// Telegram
	if v := os.Getenv(envPrefix + "TELEGRAM_BOT_TOKEN"); v != "" {
		if c.Telegram == nil {
			c.Telegram = &TelegramConfig{}
		}
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(envPrefix + "TELEGRAM_ALLOWED_USER_IDS"); v != "" && c.Telegram != nil {
		ids, err := parseIDs(v)
		if err != nil {
			return fmt.Errorf("%sTELEGRAM_ALLOWED_USER_IDS: %w", envPrefix, err)
		}
		c.Telegram.AllowedUserIDs = ids
	}

	// App
	setFromEnv(&c.App.LogLevel, "LOG_LEVEL")
	return nil
}

func setFromEnv(dst *string, name string) {
	if v := os.Getenv(envPrefix + name); v != "" {
		*dst = v
	}
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// setDefaults fills unset fields. Provider-specific API keys
// (GEMINI_API_KEY, ANTHROPIC_API_KEY) are used when llm.api_key is empty.
func (c *Config) setDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "gemini"
	}
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "gemini":
			c.LLM.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
		case "claude":
			c.LLM.APIKey = firstEnv("ANTHROPIC_API_KEY")
		}
	}
	if c.LLM.Narration == "" {
		c.LLM.Narration = "direct"
	}

	if c.Catalog.TopN == 0 {
		c.Catalog.TopN = 5
	}
	if c.Catalog.MinVoteCount == 0 {
		c.Catalog.MinVoteCount = 500
	}
	if c.Catalog.DetailsTTL == 0 {
		c.Catalog.DetailsTTL = 12 * time.Hour
	}
	if c.Catalog.ListTTL == 0 {
		c.Catalog.ListTTL = 6 * time.Hour
	}
	if c.Catalog.GenreTTL == 0 {
		c.Catalog.GenreTTL = 24 * time.Hour
	}

	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// LLM
	switch c.LLM.Provider {
	case "":
		return fmt.Errorf("llm.provider is required")
	case "gemini", "claude":
	default:
		return fmt.Errorf("llm.provider must be 'gemini' or 'claude', got %q", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required for provider '%s'", c.LLM.Provider)
	}
	if c.LLM.BaseURL != "" {
		if err := validateURL("llm.base_url", c.LLM.BaseURL); err != nil {
			return err
		}
	}
	switch strings.ToLower(c.LLM.Narration) {
	case "", "direct", "roundtrip":
	default:
		return fmt.Errorf("llm.narration must be 'direct' or 'roundtrip', got %q", c.LLM.Narration)
	}
	return c.ValidateCatalog()
}

// ValidateCatalog validates every section except llm.
func (c *Config) ValidateCatalog() error {
	// TMDb
	if c.TMDb.BaseURL != "" {
		if err := validateURL("tmdb.base_url", c.TMDb.BaseURL); err != nil {
			return err
		}
	}

	// Catalog
	if c.Catalog.TopN < 0 || c.Catalog.TopN > 20 {
		return fmt.Errorf("catalog.top_n must be between 1 and 20, got %d", c.Catalog.TopN)
	}
	if c.Catalog.MinVoteCount < 0 {
		return fmt.Errorf("catalog.min_vote_count must not be negative")
	}
	for name, ttl := range map[string]time.Duration{
		"catalog.details_ttl": c.Catalog.DetailsTTL,
		"catalog.list_ttl":    c.Catalog.ListTTL,
		"catalog.genre_ttl":   c.Catalog.GenreTTL,
	} {
		if ttl < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	// Telegram
	if c.Telegram != nil && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required when telegram is configured")
	}

	// App
	switch strings.ToLower(c.App.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug, info, warn, error; got %q", c.App.LogLevel)
	}

	return nil
}

// validateURL checks that raw is an absolute http(s) URL.
func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: missing host", field)
	}
	return nil
}
