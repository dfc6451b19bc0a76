package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/MovieMate/internal/agent"
	"github.com/vadimtrunov/MovieMate/internal/cache"
	"github.com/vadimtrunov/MovieMate/internal/config"
	"github.com/vadimtrunov/MovieMate/internal/core"
	"github.com/vadimtrunov/MovieMate/internal/llm/claude"
	"github.com/vadimtrunov/MovieMate/internal/llm/gemini"
	"github.com/vadimtrunov/MovieMate/internal/metadata/tmdb"
)

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	styleRating  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow

	styleUser      = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true) // cyan bold
	styleAssistant = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))            // white
	styleMovie     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")) // magenta bold

	styleCard = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			PaddingLeft(1).
			PaddingRight(1)

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5")).
			MarginBottom(1)
)

// services bundles everything a frontend needs.
type services struct {
	agent   *agent.Agent
	catalog *tmdb.Client
	cache   *cache.Cache
	logger  *slog.Logger
}

// Close logs cache usage and releases the LLM provider.
func (s *services) Close() error {
	st := s.cache.Stats()
	s.logger.Debug("result cache usage",
		slog.Int("entries", st.Entries),
		slog.Int("hits", st.Hits),
		slog.Int("misses", st.Misses),
	)
	return s.agent.Close()
}

// loadConfig loads and validates the configuration file. When the default
// path does not exist the configuration is built from the environment alone.
func loadConfig(path string) (*config.Config, error) {
	return loadConfigWith(config.Load, path)
}

// loadCatalogConfig is loadConfig without the llm requirements.
func loadCatalogConfig(path string) (*config.Config, error) {
	return loadConfigWith(config.LoadCatalog, path)
}

func loadConfigWith(load func(string) (*config.Config, error), path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// initServices creates the cache, catalog, LLM provider and agent.
func initServices(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*services, error) {
	catalog, resultCache := initCatalog(cfg, logger)

	registry, err := agent.NewCatalogRegistry(catalog, logger)
	if err != nil {
		return nil, fmt.Errorf("build tool registry: %w", err)
	}

	narration, err := agent.ParseNarration(cfg.LLM.Narration)
	if err != nil {
		return nil, err
	}

	llmClient, err := initLLM(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &services{
		agent:   agent.New(llmClient, registry, narration, logger),
		catalog: catalog,
		cache:   resultCache,
		logger:  logger,
	}, nil
}

// initCatalog creates the shared result cache and the TMDb client on top of it.
func initCatalog(cfg *config.Config, logger *slog.Logger) (*tmdb.Client, *cache.Cache) {
	resultCache := cache.New()
	catalog := tmdb.New(cfg.TMDb.APIKey, resultCache, tmdbOptions(cfg), logger)
	if !catalog.Configured() {
		logger.Warn("TMDb API key is not configured; movie lookups will return a notice instead of results")
	} else if cfg.TMDb.BaseURL != "" {
		logger.Info("TMDb base URL overridden", slog.String("url", sanitizeURL(cfg.TMDb.BaseURL)))
	}
	return catalog, resultCache
}

func tmdbOptions(cfg *config.Config) tmdb.Options {
	return tmdb.Options{
		BaseURL:      cfg.TMDb.BaseURL,
		Language:     cfg.TMDb.Language,
		TopN:         cfg.Catalog.TopN,
		MinVoteCount: cfg.Catalog.MinVoteCount,
		DetailsTTL:   cfg.Catalog.DetailsTTL,
		ListTTL:      cfg.Catalog.ListTTL,
		GenreTTL:     cfg.Catalog.GenreTTL,
	}
}

// initLLM creates an LLM provider client based on the configured provider name.
func initLLM(ctx context.Context, cfg *config.Config, logger *slog.Logger) (core.LLMProvider, error) {
	if cfg.LLM.BaseURL != "" {
		logger.Info("LLM base URL overridden", slog.String("url", sanitizeURL(cfg.LLM.BaseURL)))
	}
	switch cfg.LLM.Provider {
	case "gemini":
		client, err := gemini.New(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return client, nil
	case "claude":
		return claude.New(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL, logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLM.Provider)
	}
}

// sanitizeURL strips credentials, query params, and fragment from a URL for safe logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return "<redacted>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
