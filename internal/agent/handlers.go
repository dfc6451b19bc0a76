package agent

import (
	"context"

	"github.com/vadimtrunov/MovieMate/internal/core"
	"github.com/vadimtrunov/MovieMate/internal/metadata/tmdb"
)

// Handlers unpack the model's argument map into typed catalog calls. Missing
// or mistyped arguments are coerced to zero values; the catalog then reports
// an empty result instead of failing.

func searchMovieHandler(c Catalog) Handler {
	return func(ctx context.Context, args map[string]any) core.Result {
		return c.SearchMovie(ctx, stringArg(args, "query", "title"))
	}
}

func recommendByGenreHandler(c Catalog) Handler {
	return func(ctx context.Context, args map[string]any) core.Result {
		return c.RecommendByGenre(ctx, stringListArg(args, "genres", "genre"))
	}
}

func similarMoviesHandler(c Catalog) Handler {
	return func(ctx context.Context, args map[string]any) core.Result {
		return c.SimilarMovies(ctx, stringArg(args, "title", "query"))
	}
}

func trendingMoviesHandler(c Catalog) Handler {
	return func(ctx context.Context, args map[string]any) core.Result {
		return c.TrendingMovies(ctx, stringArg(args, "time_window", "window"))
	}
}

func topRatedMoviesHandler(c Catalog) Handler {
	return func(ctx context.Context, _ map[string]any) core.Result {
		return c.TopRatedMovies(ctx)
	}
}

func moviesByActorHandler(c Catalog) Handler {
	return func(ctx context.Context, args map[string]any) core.Result {
		name := stringArg(args, "actor_name", "name", "actor")
		return c.MoviesByActor(ctx, name, tmdb.ParseSortMode(stringArg(args, "sort_by", "sort")))
	}
}

func moviesByDirectorHandler(c Catalog) Handler {
	return func(ctx context.Context, args map[string]any) core.Result {
		name := stringArg(args, "director_name", "name", "director")
		return c.MoviesByDirector(ctx, name, tmdb.ParseSortMode(stringArg(args, "sort_by", "sort")))
	}
}
