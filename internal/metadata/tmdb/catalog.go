package tmdb

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vadimtrunov/MovieMate/internal/cache"
	"github.com/vadimtrunov/MovieMate/internal/core"
)

// Catalog operations. Each is memoized in the shared cache and never returns
// an error: transport and configuration failures become a core.Result
// diagnostic, unresolved titles/people/genres become an empty result.

const (
	opSearchMovie      = "search_movie"
	opRecommendByGenre = "recommend_by_genre"
	opSimilarMovies    = "similar_movies"
	opTrendingMovies   = "trending_movies"
	opTopRatedMovies   = "top_rated_movies"
	opMoviesByActor    = "movies_by_actor"
	opMoviesByDirector = "movies_by_director"
	opMovieDetails     = "movie_details"
	opGenreDirectory   = "genre_directory"

	// candidatePool is how many leading search hits are considered when picking
	// the best title or person match.
	candidatePool = 5
	maxCast       = 5
)

// genreAliases maps common spellings to TMDb genre names (lower-cased).
var genreAliases = map[string]string{
	"sci-fi":    "science fiction",
	"scifi":     "science fiction",
	"sf":        "science fiction",
	"romcom":    "romance",
	"rom-com":   "romance",
	"animated":  "animation",
	"doc":       "documentary",
	"thrillers": "thriller",
	"comedies":  "comedy",
	"dramas":    "drama",
}

// SearchMovie finds the most popular of the top title matches and returns its
// full details as a single-movie result.
func (c *Client) SearchMovie(ctx context.Context, query string) core.Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return core.Empty()
	}
	return c.memo(cache.Key(opSearchMovie, query), c.opts.ListTTL, func() core.Result {
		id, err := c.resolveMovieID(ctx, query)
		if err != nil {
			return c.failure(opSearchMovie, err)
		}
		if id == 0 {
			return core.Empty()
		}
		movie, err := c.fetchDetails(ctx, id)
		if err != nil {
			return c.failure(opSearchMovie, err)
		}
		return core.Single(movie)
	})
}

// RecommendByGenre discovers the most popular movies matching all resolvable genres.
// Genre names are canonicalized, so order and case do not affect the result or its cache entry.
func (c *Client) RecommendByGenre(ctx context.Context, genres []string) core.Result {
	names := cache.NormalizeGenres(genres)
	if len(names) == 0 {
		return core.Empty()
	}
	return c.memo(cache.Key(opRecommendByGenre, names), c.opts.ListTTL, func() core.Result {
		directory, err := c.genreDirectory(ctx)
		if err != nil {
			return c.failure(opRecommendByGenre, err)
		}

		var ids []int
		for _, n := range names {
			if alias, ok := genreAliases[n]; ok {
				n = alias
			}
			if id, ok := directory[n]; ok && !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			c.logger.Debug("no genre resolved", slog.Any("genres", names))
			return core.Empty()
		}

		movies, err := c.DiscoverByGenres(ctx, ids)
		if err != nil {
			return c.failure(opRecommendByGenre, err)
		}
		slices.SortStableFunc(movies, byPopularity)
		return c.detailed(ctx, opRecommendByGenre, summaries(movies, c.opts.TopN))
	})
}

// SimilarMovies resolves title like SearchMovie, then lists similar titles.
func (c *Client) SimilarMovies(ctx context.Context, title string) core.Result {
	title = strings.TrimSpace(title)
	if title == "" {
		return core.Empty()
	}
	return c.memo(cache.Key(opSimilarMovies, title), c.opts.ListTTL, func() core.Result {
		id, err := c.resolveMovieID(ctx, title)
		if err != nil {
			return c.failure(opSimilarMovies, err)
		}
		if id == 0 {
			return core.Empty()
		}
		movies, err := c.Similar(ctx, id)
		if err != nil {
			return c.failure(opSimilarMovies, err)
		}
		return c.detailed(ctx, opSimilarMovies, summaries(movies, c.opts.TopN))
	})
}

// TrendingMovies lists trending movies for "day" or "week"; other windows are coerced to "day".
func (c *Client) TrendingMovies(ctx context.Context, window string) core.Result {
	window = ParseWindow(window)
	return c.memo(cache.Key(opTrendingMovies, window), c.opts.ListTTL, func() core.Result {
		movies, err := c.Trending(ctx, window)
		if err != nil {
			return c.failure(opTrendingMovies, err)
		}
		return c.detailed(ctx, opTrendingMovies, summaries(movies, c.opts.TopN))
	})
}

// TopRatedMovies lists the global top rated movies.
func (c *Client) TopRatedMovies(ctx context.Context) core.Result {
	return c.memo(cache.Key(opTopRatedMovies), c.opts.ListTTL, func() core.Result {
		movies, err := c.TopRated(ctx)
		if err != nil {
			return c.failure(opTopRatedMovies, err)
		}
		return c.detailed(ctx, opTopRatedMovies, summaries(movies, c.opts.TopN))
	})
}

// MoviesByActor lists movies from a person's cast credits.
func (c *Client) MoviesByActor(ctx context.Context, name string, mode SortMode) core.Result {
	return c.moviesByPerson(ctx, opMoviesByActor, name, mode, func(pc *PersonCredits) []PersonCredit {
		return pc.Cast
	})
}

// MoviesByDirector lists movies a person directed. Only crew credits whose job
// is "director" (any case) are considered.
func (c *Client) MoviesByDirector(ctx context.Context, name string, mode SortMode) core.Result {
	return c.moviesByPerson(ctx, opMoviesByDirector, name, mode, func(pc *PersonCredits) []PersonCredit {
		return directorCredits(pc.Crew)
	})
}

func (c *Client) moviesByPerson(
	ctx context.Context, op, name string, mode SortMode, pick func(*PersonCredits) []PersonCredit,
) core.Result {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Empty()
	}
	if mode == "" {
		mode = SortPopularity
	}
	return c.memo(cache.Key(op, name, string(mode)), c.opts.ListTTL, func() core.Result {
		people, err := c.SearchPeople(ctx, name)
		if err != nil {
			return c.failure(op, err)
		}
		person, ok := bestByPopularity(people, candidatePool, func(p Person) float64 { return p.Popularity })
		if !ok {
			return core.Empty()
		}

		credits, err := c.GetPersonCredits(ctx, person.ID)
		if err != nil {
			return c.failure(op, err)
		}

		picked := dedupeCredits(pick(credits))
		sortCredits(picked, mode, c.opts.MinVoteCount)
		if len(picked) > c.opts.TopN {
			picked = picked[:c.opts.TopN]
		}

		list := make([]listEntry, len(picked))
		for i, cr := range picked {
			list[i] = listEntry{summary: cr.MovieSummary, job: cr.Job}
		}
		return c.detailed(ctx, op, list)
	})
}

// MovieDetails fetches one movie with its top-billed cast and first credited director.
// It reports false when the movie cannot be fetched; it never fails otherwise.
func (c *Client) MovieDetails(ctx context.Context, id int) (core.Movie, bool) {
	m, err := c.fetchDetails(ctx, id)
	if err != nil {
		c.logFailure(opMovieDetails, err, slog.Int("movie_id", id))
		return core.Movie{}, false
	}
	return m, true
}

func (c *Client) fetchDetails(ctx context.Context, id int) (core.Movie, error) {
	key := cache.Key(opMovieDetails, id)
	if v, ok := c.cache.Get(key); ok {
		if m, ok := v.(core.Movie); ok {
			return m, nil
		}
	}

	details, err := c.GetMovie(ctx, id)
	if err != nil {
		return core.Movie{}, err
	}

	movie := toMovie(details)
	c.cache.Put(key, movie, c.opts.DetailsTTL)
	return movie, nil
}

// resolveMovieID returns the most popular of the leading title matches, or 0 if none.
func (c *Client) resolveMovieID(ctx context.Context, title string) (int, error) {
	results, err := c.SearchMovies(ctx, title)
	if err != nil {
		return 0, err
	}
	best, ok := bestByPopularity(results, candidatePool, func(m MovieSummary) float64 { return m.Popularity })
	if !ok {
		return 0, nil
	}
	return best.ID, nil
}

// genreDirectory returns the lower-cased genre name -> ID mapping.
func (c *Client) genreDirectory(ctx context.Context) (map[string]int, error) {
	key := cache.Key(opGenreDirectory)
	if v, ok := c.cache.Get(key); ok {
		if dir, ok := v.(map[string]int); ok {
			return dir, nil
		}
	}

	genres, err := c.Genres(ctx)
	if err != nil {
		return nil, err
	}
	dir := make(map[string]int, len(genres))
	for _, g := range genres {
		dir[strings.ToLower(g.Name)] = g.ID
	}
	c.cache.Put(key, dir, c.opts.GenreTTL)
	return dir, nil
}

// listEntry is a list-endpoint row plus the crew job when it came from credits.
type listEntry struct {
	summary MovieSummary
	job     string
}

func summaries(movies []MovieSummary, n int) []listEntry {
	movies = movies[:min(n, len(movies))]
	out := make([]listEntry, len(movies))
	for i, m := range movies {
		out[i] = listEntry{summary: m}
	}
	return out
}

// detailed fetches details for each entry concurrently, preserving order.
// Entries whose details cannot be fetched are dropped; if every fetch fails the
// operation reports the failure instead of an empty list.
func (c *Client) detailed(ctx context.Context, op string, entries []listEntry) core.Result {
	found := make([]core.Movie, len(entries))
	errs := make([]error, len(entries))

	var g errgroup.Group
	for i, e := range entries {
		g.Go(func() error {
			m, err := c.fetchDetails(ctx, e.summary.ID)
			if err != nil {
				errs[i] = err
				return nil
			}
			found[i] = withListFields(m, e)
			return nil
		})
	}
	_ = g.Wait()

	movies := make([]core.Movie, 0, len(entries))
	for i, e := range entries {
		if errs[i] != nil {
			c.logger.Warn("dropping movie without details",
				slog.String("op", op),
				slog.Int("movie_id", e.summary.ID),
				slog.String("error", errs[i].Error()),
			)
			continue
		}
		movies = append(movies, found[i])
	}
	if len(movies) == 0 && len(entries) > 0 {
		return c.failure(op, errs[0])
	}
	return core.Movies(movies)
}

// withListFields overlays the transient list fields onto a detailed movie.
func withListFields(m core.Movie, e listEntry) core.Movie {
	s := e.summary
	if s.Popularity != 0 {
		m.Popularity = s.Popularity
	}
	if s.VoteCount != 0 {
		m.VoteCount = s.VoteCount
		m.VoteAverage = s.VoteAverage
	}
	if m.ReleaseDate == "" {
		m.ReleaseDate = s.ReleaseDate
	}
	m.Job = e.job
	return m
}

func toMovie(d *MovieDetails) core.Movie {
	cast := slices.Clone(d.Credits.Cast)
	slices.SortStableFunc(cast, func(a, b CastMember) int { return cmp.Compare(a.Order, b.Order) })
	names := make([]string, 0, maxCast)
	for _, member := range cast[:min(maxCast, len(cast))] {
		names = append(names, member.Name)
	}

	director := core.UnknownDirector
	for _, crew := range d.Credits.Crew {
		if strings.EqualFold(crew.Job, "director") {
			director = crew.Name
			break
		}
	}

	return core.Movie{
		ID:          d.ID,
		Title:       d.Title,
		Overview:    d.Overview,
		PosterPath:  d.PosterPath,
		Cast:        names,
		Director:    director,
		Popularity:  d.Popularity,
		VoteCount:   d.VoteCount,
		VoteAverage: d.VoteAverage,
		ReleaseDate: d.ReleaseDate,
	}
}

// memo memoizes an operation. Diagnostic results are not cached so a
// transient failure or a key added later is retried on the next call.
func (c *Client) memo(key string, ttl time.Duration, fn func() core.Result) core.Result {
	v := c.cache.Do(key, ttl, func() (any, bool) {
		r := fn()
		return r, r.Kind != core.ResultMessage
	})
	r, _ := v.(core.Result)
	r.Movies = slices.Clone(r.Movies)
	return r
}

// failure converts an endpoint error into the operation's diagnostic result.
func (c *Client) failure(op string, err error) core.Result {
	c.logFailure(op, err)
	if errors.Is(err, ErrNoAPIKey) {
		return core.Diagnostic(ErrNoAPIKey.Error() + ". Please add it to your configuration.")
	}
	return core.Diagnostic(fmt.Sprintf("The movie database request failed (%s). Please try again later.", strings.ReplaceAll(op, "_", " ")))
}

func (c *Client) logFailure(op string, err error, attrs ...any) {
	attrs = append([]any{slog.String("op", op), slog.String("error", err.Error())}, attrs...)
	if errors.Is(err, ErrNoAPIKey) {
		c.logger.Warn("tmdb not configured", attrs...)
		return
	}
	c.logger.Error("tmdb request failed", attrs...)
}
