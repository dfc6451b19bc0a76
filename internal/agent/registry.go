package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vadimtrunov/MovieMate/internal/core"
	"github.com/vadimtrunov/MovieMate/internal/metadata/tmdb"
)

// ErrDuplicateTool is returned when a tool kind or name is registered twice.
var ErrDuplicateTool = errors.New("tool already registered")

// UnknownToolError reports a model-requested tool that is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// ToolKind enumerates the query tools the model can call.
type ToolKind int

const (
	ToolSearchMovie ToolKind = iota + 1
	ToolRecommendByGenre
	ToolSimilarMovies
	ToolTrendingMovies
	ToolTopRatedMovies
	ToolMoviesByActor
	ToolMoviesByDirector
)

var toolNames = map[ToolKind]string{
	ToolSearchMovie:      "search_movie",
	ToolRecommendByGenre: "get_recommendations_by_genre",
	ToolSimilarMovies:    "get_similar_movies",
	ToolTrendingMovies:   "get_trending_movies",
	ToolTopRatedMovies:   "get_top_rated_movies",
	ToolMoviesByActor:    "get_movies_by_actor",
	ToolMoviesByDirector: "get_movies_by_director",
}

// String returns the tool name the model uses for this kind.
func (k ToolKind) String() string {
	if name, ok := toolNames[k]; ok {
		return name
	}
	return fmt.Sprintf("tool(%d)", int(k))
}

// Catalog is the movie data source the tools query. *tmdb.Client implements it.
type Catalog interface {
	SearchMovie(ctx context.Context, query string) core.Result
	RecommendByGenre(ctx context.Context, genres []string) core.Result
	SimilarMovies(ctx context.Context, title string) core.Result
	TrendingMovies(ctx context.Context, window string) core.Result
	TopRatedMovies(ctx context.Context) core.Result
	MoviesByActor(ctx context.Context, name string, mode tmdb.SortMode) core.Result
	MoviesByDirector(ctx context.Context, name string, mode tmdb.SortMode) core.Result
}

// Handler executes a tool with the model's loosely typed arguments.
type Handler func(ctx context.Context, args map[string]any) core.Result

type registeredTool struct {
	kind    ToolKind
	def     core.Tool
	handler Handler
}

// Registry maps tool names to handlers. It is built once and read-only afterwards.
type Registry struct {
	tools  []registeredTool
	byName map[string]int
	kinds  map[ToolKind]bool
	logger *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		byName: make(map[string]int),
		kinds:  make(map[ToolKind]bool),
		logger: logger,
	}
}

// NewCatalogRegistry registers the seven catalog tools backed by catalog.
func NewCatalogRegistry(catalog Catalog, logger *slog.Logger) (*Registry, error) {
	r := NewRegistry(logger)
	for _, t := range catalogTools(catalog) {
		if err := r.Register(t.kind, t.def, t.handler); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. The definition name must match the kind's name.
func (r *Registry) Register(kind ToolKind, def core.Tool, h Handler) error {
	if h == nil {
		return fmt.Errorf("register %s: nil handler", def.Name)
	}
	if def.Name == "" || def.Name != kind.String() {
		return fmt.Errorf("register %s: name does not match tool kind %s", def.Name, kind)
	}
	if _, ok := r.byName[def.Name]; ok || r.kinds[kind] {
		return fmt.Errorf("register %s: %w", def.Name, ErrDuplicateTool)
	}
	r.byName[def.Name] = len(r.tools)
	r.kinds[kind] = true
	r.tools = append(r.tools, registeredTool{kind: kind, def: def, handler: h})
	return nil
}

// Lookup resolves a tool name by exact match.
func (r *Registry) Lookup(name string) (ToolKind, error) {
	i, ok := r.byName[name]
	if !ok {
		return 0, &UnknownToolError{Name: name}
	}
	return r.tools[i].kind, nil
}

// Definitions returns the tool schemas in registration order.
func (r *Registry) Definitions() []core.Tool {
	defs := make([]core.Tool, len(r.tools))
	for i, t := range r.tools {
		defs[i] = t.def
	}
	return defs
}

// Dispatch runs the named tool. The only error is *UnknownToolError.
func (r *Registry) Dispatch(ctx context.Context, call core.ToolCall) (ToolKind, core.Result, error) {
	i, ok := r.byName[call.Name]
	if !ok {
		return 0, core.Result{}, &UnknownToolError{Name: call.Name}
	}
	t := r.tools[i]
	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	r.logger.Debug("executing tool", slog.String("tool", call.Name), slog.Any("args", args))
	return t.kind, t.handler(ctx, args), nil
}
