package core

// UnknownDirector is the director sentinel used when no crew member is credited as director.
const UnknownDirector = "unknown"

// Movie is the normalized movie record handed to the orchestrator and frontends.
// It is built fresh from provider responses and never mutated afterwards.
type Movie struct {
	ID         int      `json:"id"`
	Title      string   `json:"title"`
	Overview   string   `json:"overview,omitempty"`
	PosterPath string   `json:"poster_path,omitempty"`
	Cast       []string `json:"cast"`
	Director   string   `json:"director"`

	// Carried over from list endpoints when present.
	Popularity  float64 `json:"popularity,omitempty"`
	VoteCount   int     `json:"vote_count,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	Job         string  `json:"job,omitempty"`
}

// ResultKind discriminates the variants of Result.
type ResultKind int

const (
	// ResultEmpty means the operation found nothing (or the entity did not resolve).
	ResultEmpty ResultKind = iota
	// ResultMovies carries one or more movies.
	ResultMovies
	// ResultMessage carries a human-readable diagnostic instead of data.
	ResultMessage
)

// String returns the variant name.
func (k ResultKind) String() string {
	switch k {
	case ResultMovies:
		return "movies"
	case ResultMessage:
		return "message"
	default:
		return "empty"
	}
}

// Result is the outcome of a catalog operation or tool dispatch.
type Result struct {
	Kind    ResultKind
	Movies  []Movie
	Message string
}

// Movies builds a Result from a movie list. An empty list yields an Empty result.
func Movies(movies []Movie) Result {
	if len(movies) == 0 {
		return Empty()
	}
	return Result{Kind: ResultMovies, Movies: movies}
}

// Single wraps one movie as a one-element Movies result.
func Single(m Movie) Result {
	return Movies([]Movie{m})
}

// Empty returns the "nothing found" result.
func Empty() Result {
	return Result{Kind: ResultEmpty}
}

// Diagnostic returns a Message result carrying a human-readable explanation.
func Diagnostic(msg string) Result {
	return Result{Kind: ResultMessage, Message: msg}
}

// IsEmpty reports whether the result should take the "nothing found" path.
func (r Result) IsEmpty() bool {
	return r.Kind == ResultEmpty || (r.Kind == ResultMovies && len(r.Movies) == 0)
}

// Titles returns the titles of the carried movies, in order.
func (r Result) Titles() []string {
	titles := make([]string, 0, len(r.Movies))
	for _, m := range r.Movies {
		titles = append(titles, m.Title)
	}
	return titles
}
