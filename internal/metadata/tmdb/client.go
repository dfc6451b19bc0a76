package tmdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vadimtrunov/MovieMate/internal/cache"
	"github.com/vadimtrunov/MovieMate/internal/httpclient"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	imageBaseURL   = "https://image.tmdb.org/t/p/"
)

// ErrNoAPIKey is returned by every endpoint when no TMDb API key is configured.
var ErrNoAPIKey = errors.New("TMDb API key is not configured")

// Options tunes catalog behavior. Zero fields fall back to DefaultOptions.
type Options struct {
	BaseURL      string
	Language     string
	TopN         int           // results returned by list operations
	MinVoteCount int           // vote floor for the top_rated sort
	DetailsTTL   time.Duration // movie detail lookups
	ListTTL      time.Duration // search, similar, trending, by-person, by-genre
	GenreTTL     time.Duration // genre name -> id directory
}

// DefaultOptions returns the catalog defaults.
func DefaultOptions() Options {
	return Options{
		BaseURL:      defaultBaseURL,
		TopN:         5,
		MinVoteCount: 500,
		DetailsTTL:   12 * time.Hour,
		ListTTL:      6 * time.Hour,
		GenreTTL:     24 * time.Hour,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BaseURL == "" {
		o.BaseURL = d.BaseURL
	}
	if o.TopN <= 0 {
		o.TopN = d.TopN
	}
	if o.MinVoteCount <= 0 {
		o.MinVoteCount = d.MinVoteCount
	}
	if o.DetailsTTL <= 0 {
		o.DetailsTTL = d.DetailsTTL
	}
	if o.ListTTL <= 0 {
		o.ListTTL = d.ListTTL
	}
	if o.GenreTTL <= 0 {
		o.GenreTTL = d.GenreTTL
	}
	return o
}

// Client is a TMDb API v3 client. The raw endpoint methods return errors;
// the catalog operations in catalog.go never do.
type Client struct {
	baseURL string
	apiKey  string
	opts    Options
	http    *httpclient.Client
	cache   *cache.Cache
	logger  *slog.Logger
}

// New creates a TMDb client backed by the shared result cache.
// An empty apiKey is allowed: every operation then degrades to its empty result.
func New(apiKey string, resultCache *cache.Cache, opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if resultCache == nil {
		resultCache = cache.New()
	}
	opts = opts.withDefaults()
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		opts:    opts,
		http:    httpclient.New(httpclient.DefaultConfig(), logger),
		cache:   resultCache,
		logger:  logger,
	}
}

// NewForTest creates a TMDb client with a custom base URL for testing.
// Exported because it is used by cross-package tests (e.g. internal/agent).
func NewForTest(baseURL string, resultCache *cache.Cache, logger *slog.Logger) *Client {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 1
	c := New("test-key", resultCache, Options{BaseURL: baseURL}, logger)
	c.http = httpclient.New(cfg, logger)
	return c
}

// Cache returns the result cache this client memoizes into.
func (c *Client) Cache() *cache.Cache { return c.cache }

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

// SearchMovies searches movies by title.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]MovieSummary, error) {
	var resp pagedResponse[MovieSummary]
	if err := c.get(ctx, "/search/movie", url.Values{"query": {query}}, &resp); err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	return resp.Results, nil
}

// DiscoverByGenres lists movies tagged with all of the given genre IDs, most popular first.
func (c *Client) DiscoverByGenres(ctx context.Context, genreIDs []int) ([]MovieSummary, error) {
	ids := make([]string, len(genreIDs))
	for i, id := range genreIDs {
		ids[i] = strconv.Itoa(id)
	}
	params := url.Values{
		"with_genres": {strings.Join(ids, ",")},
		"sort_by":     {"popularity.desc"},
	}
	var resp pagedResponse[MovieSummary]
	if err := c.get(ctx, "/discover/movie", params, &resp); err != nil {
		return nil, fmt.Errorf("discover movies: %w", err)
	}
	return resp.Results, nil
}

// Genres returns the provider's movie genre list.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	var resp genreListResponse
	if err := c.get(ctx, "/genre/movie/list", nil, &resp); err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return resp.Genres, nil
}

// Similar returns movies similar to the given movie ID.
func (c *Client) Similar(ctx context.Context, movieID int) ([]MovieSummary, error) {
	var resp pagedResponse[MovieSummary]
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/similar", movieID), nil, &resp); err != nil {
		return nil, fmt.Errorf("similar to %d: %w", movieID, err)
	}
	return resp.Results, nil
}

// Trending returns trending movies for the window ("day" or "week").
func (c *Client) Trending(ctx context.Context, window string) ([]MovieSummary, error) {
	var resp pagedResponse[MovieSummary]
	if err := c.get(ctx, "/trending/movie/"+window, nil, &resp); err != nil {
		return nil, fmt.Errorf("trending %s: %w", window, err)
	}
	return resp.Results, nil
}

// TopRated returns the global top rated listing.
func (c *Client) TopRated(ctx context.Context) ([]MovieSummary, error) {
	var resp pagedResponse[MovieSummary]
	if err := c.get(ctx, "/movie/top_rated", nil, &resp); err != nil {
		return nil, fmt.Errorf("top rated: %w", err)
	}
	return resp.Results, nil
}

// GetMovie retrieves full details for a movie, with credits embedded.
func (c *Client) GetMovie(ctx context.Context, id int) (*MovieDetails, error) {
	var details MovieDetails
	params := url.Values{"append_to_response": {"credits"}}
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), params, &details); err != nil {
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}
	return &details, nil
}

// SearchPeople searches people by name.
func (c *Client) SearchPeople(ctx context.Context, name string) ([]Person, error) {
	var resp pagedResponse[Person]
	if err := c.get(ctx, "/search/person", url.Values{"query": {name}}, &resp); err != nil {
		return nil, fmt.Errorf("search people: %w", err)
	}
	return resp.Results, nil
}

// GetPersonCredits returns a person's movie cast and crew credits.
func (c *Client) GetPersonCredits(ctx context.Context, personID int) (*PersonCredits, error) {
	var credits PersonCredits
	if err := c.get(ctx, fmt.Sprintf("/person/%d/movie_credits", personID), nil, &credits); err != nil {
		return nil, fmt.Errorf("person %d credits: %w", personID, err)
	}
	return &credits, nil
}

// PosterURL returns the full URL for a poster path.
func PosterURL(posterPath, size string) string {
	if posterPath == "" {
		return ""
	}
	return imageBaseURL + size + posterPath
}

// get performs an authenticated GET request to the TMDb API and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	q := u.Query()
	q.Set("api_key", c.apiKey)
	if c.opts.Language != "" {
		q.Set("language", c.opts.Language)
	}
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	if err := c.http.GetJSON(ctx, u.String(), result); err != nil {
		return fmt.Errorf("tmdb %s: %w", path, err)
	}
	return nil
}
