package agent

import "github.com/vadimtrunov/MovieMate/internal/core"

// catalogTools pairs each tool definition with its handler.
func catalogTools(c Catalog) []registeredTool {
	return []registeredTool{
		{ToolSearchMovie, toolDefSearchMovie(), searchMovieHandler(c)},
		{ToolRecommendByGenre, toolDefRecommendByGenre(), recommendByGenreHandler(c)},
		{ToolSimilarMovies, toolDefSimilarMovies(), similarMoviesHandler(c)},
		{ToolTrendingMovies, toolDefTrendingMovies(), trendingMoviesHandler(c)},
		{ToolTopRatedMovies, toolDefTopRatedMovies(), topRatedMoviesHandler(c)},
		{ToolMoviesByActor, toolDefMoviesByActor(), moviesByActorHandler(c)},
		{ToolMoviesByDirector, toolDefMoviesByDirector(), moviesByDirectorHandler(c)},
	}
}

// objectParams returns a JSON Schema object with the given properties.
func objectParams(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(desc string, enum ...string) map[string]any {
	p := map[string]any{
		"type":        "string",
		"description": desc,
	}
	if len(enum) > 0 {
		p["enum"] = enum
	}
	return p
}

func sortProp() map[string]any {
	return stringProp(
		"How to order the filmography: popularity (default), top_rated (well-reviewed, at least 500 votes first) or trending (newest first)",
		"popularity", "top_rated", "trending",
	)
}

func toolDefSearchMovie() core.Tool {
	return core.Tool{
		Name: ToolSearchMovie.String(),
		Description: "Search for a movie by its title. Finds the most popular match" +
			" and returns its full details (synopsis, cast, director).",
		Parameters: objectParams(map[string]any{
			"query": stringProp("The movie title to search for"),
		}, "query"),
	}
}

func toolDefRecommendByGenre() core.Tool {
	return core.Tool{
		Name:        ToolRecommendByGenre.String(),
		Description: "Recommend popular movies matching all of the given genres, e.g. comedy, horror, science fiction.",
		Parameters: objectParams(map[string]any{
			"genres": map[string]any{
				"type":        "array",
				"description": "Genre names",
				"items":       map[string]any{"type": "string"},
			},
		}, "genres"),
	}
}

func toolDefSimilarMovies() core.Tool {
	return core.Tool{
		Name:        ToolSimilarMovies.String(),
		Description: "Find up to 5 movies similar to the given movie title.",
		Parameters: objectParams(map[string]any{
			"title": stringProp("The title of the movie to find similar movies for"),
		}, "title"),
	}
}

func toolDefTrendingMovies() core.Tool {
	return core.Tool{
		Name:        ToolTrendingMovies.String(),
		Description: "List the movies trending today or this week.",
		Parameters: objectParams(map[string]any{
			"time_window": stringProp("Trending window: day (default) or week", "day", "week"),
		}),
	}
}

func toolDefTopRatedMovies() core.Tool {
	return core.Tool{
		Name:        ToolTopRatedMovies.String(),
		Description: "List the highest rated movies of all time.",
		Parameters:  objectParams(map[string]any{}),
	}
}

func toolDefMoviesByActor() core.Tool {
	return core.Tool{
		Name:        ToolMoviesByActor.String(),
		Description: "List movies featuring an actor or actress.",
		Parameters: objectParams(map[string]any{
			"actor_name": stringProp("The actor's full name"),
			"sort_by":    sortProp(),
		}, "actor_name"),
	}
}

func toolDefMoviesByDirector() core.Tool {
	return core.Tool{
		Name:        ToolMoviesByDirector.String(),
		Description: "List movies directed by a filmmaker.",
		Parameters: objectParams(map[string]any{
			"director_name": stringProp("The director's full name"),
			"sort_by":       sortProp(),
		}, "director_name"),
	}
}
