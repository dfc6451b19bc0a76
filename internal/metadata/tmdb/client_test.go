package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/vadimtrunov/MovieMate/internal/cache"
	"github.com/vadimtrunov/MovieMate/internal/core"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTMDb serves canned TMDb responses and counts requests per path.
type fakeTMDb struct {
	mu     sync.Mutex
	calls  map[string]int
	routes map[string]any
	fail   map[string]int // path -> status code to return
}

func newFakeTMDb() *fakeTMDb {
	return &fakeTMDb{
		calls:  make(map[string]int),
		routes: make(map[string]any),
		fail:   make(map[string]int),
	}
}

func (f *fakeTMDb) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.URL.Path]++
	body, ok := f.routes[r.URL.Path]
	status := f.fail[r.URL.Path]
	f.mu.Unlock()

	if r.URL.Query().Get("api_key") != "test-key" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status_message":"not found"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func (f *fakeTMDb) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeTMDb) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// addMovie registers a /movie/{id} detail response.
func (f *fakeTMDb) addMovie(id int, title string, director string) {
	crew := []CrewMember{{Name: "Some Writer", Job: "Screenplay"}}
	if director != "" {
		crew = append(crew, CrewMember{Name: director, Job: "Director"})
	}
	f.routes[fmt.Sprintf("/movie/%d", id)] = MovieDetails{
		ID:         id,
		Title:      title,
		Overview:   title + " overview",
		PosterPath: fmt.Sprintf("/%d.jpg", id),
		Popularity: float64(id),
		Credits: Credits{
			Cast: []CastMember{
				{Name: "Actor F", Order: 5},
				{Name: "Actor A", Order: 0},
				{Name: "Actor B", Order: 1},
				{Name: "Actor C", Order: 2},
				{Name: "Actor D", Order: 3},
				{Name: "Actor E", Order: 4},
			},
			Crew: crew,
		},
	}
}

func page(movies ...MovieSummary) pagedResponse[MovieSummary] {
	return pagedResponse[MovieSummary]{Page: 1, Results: movies, TotalResults: len(movies)}
}

func newTestClient(t *testing.T, f *fakeTMDb) *Client {
	t.Helper()
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	return NewForTest(server.URL, cache.New(), discardLogger())
}

func requireMovies(t *testing.T, r core.Result, n int) {
	t.Helper()
	if r.Kind != core.ResultMovies {
		t.Fatalf("expected movies result, got %s (%q)", r.Kind, r.Message)
	}
	if len(r.Movies) != n {
		t.Fatalf("expected %d movies, got %d", n, len(r.Movies))
	}
}

func TestSearchMovie_PicksMostPopularOfTopFive(t *testing.T) {
	f := newFakeTMDb()
	f.routes["/search/movie"] = page(
		MovieSummary{ID: 1, Title: "Inception: The Cobol Job", Popularity: 3},
		MovieSummary{ID: 27205, Title: "Inception", Popularity: 90},
		MovieSummary{ID: 3, Title: "Inception Making Of", Popularity: 1},
		MovieSummary{ID: 4, Popularity: 2},
		MovieSummary{ID: 5, Popularity: 4},
		MovieSummary{ID: 6, Title: "Sixth", Popularity: 1000}, // outside the candidate pool
	)
	f.addMovie(27205, "Inception", "Christopher Nolan")
	client := newTestClient(t, f)

	r := client.SearchMovie(context.Background(), "Inception")

	requireMovies(t, r, 1)
	m := r.Movies[0]
	if m.ID != 27205 || m.Title != "Inception" {
		t.Errorf("expected Inception (27205), got %s (%d)", m.Title, m.ID)
	}
	if m.Director != "Christopher Nolan" {
		t.Errorf("expected director Christopher Nolan, got %q", m.Director)
	}
	wantCast := []string{"Actor A", "Actor B", "Actor C", "Actor D", "Actor E"}
	if strings.Join(m.Cast, ",") != strings.Join(wantCast, ",") {
		t.Errorf("expected top-5 billed cast %v, got %v", wantCast, m.Cast)
	}
}

func TestSearchMovie_NoResults(t *testing.T) {
	f := newFakeTMDb()
	f.routes["/search/movie"] = page()
	client := newTestClient(t, f)

	r := client.SearchMovie(context.Background(), "asdfgh")
	if r.Kind != core.ResultEmpty {
		t.Errorf("expected empty result, got %s", r.Kind)
	}
}

func TestSearchMovie_CachedAfterClear(t *testing.T) {
	f := newFakeTMDb()
	f.routes["/search/movie"] = page(MovieSummary{ID: 438631, Title: "Dune", Popularity: 50})
	f.addMovie(438631, "Dune", "Denis Villeneuve")
	client := newTestClient(t, f)

	client.Cache().Clear()
	first := client.SearchMovie(context.Background(), "Dune")
	callsAfterFirst := f.total()
	second := client.SearchMovie(context.Background(), "Dune")

	requireMovies(t, first, 1)
	requireMovies(t, second, 1)
	if first.Movies[0].ID != second.Movies[0].ID || first.Movies[0].Title != second.Movies[0].Title {
		t.Errorf("expected equal results, got %+v and %+v", first.Movies[0], second.Movies[0])
	}
	if f.total() != callsAfterFirst {
		t.Errorf("second call should be served from cache: %d upstream calls before, %d after", callsAfterFirst, f.total())
	}
}

func TestMovieDetails_UnknownDirector(t *testing.T) {
	f := newFakeTMDb()
	f.addMovie(10, "No Director", "")
	client := newTestClient(t, f)

	m, ok := client.MovieDetails(context.Background(), 10)
	if !ok {
		t.Fatal("expected details")
	}
	if m.Director != core.UnknownDirector {
		t.Errorf("expected %q, got %q", core.UnknownDirector, m.Director)
	}
}

func TestMovieDetails_Failure(t *testing.T) {
	f := newFakeTMDb()
	client := newTestClient(t, f)

	if _, ok := client.MovieDetails(context.Background(), 999); ok {
		t.Error("expected failure for unknown movie")
	}
}

func TestRecommendByGenre(t *testing.T) {
	f := newFakeTMDb()
	f.routes["/genre/movie/list"] = genreListResponse{Genres: []Genre{
		{ID: 35, Name: "Comedy"}, {ID: 18, Name: "Drama"}, {ID: 878, Name: "Science Fiction"},
	}}
	var movies []MovieSummary
	for id := 1; id <= 8; id++ {
		movies = append(movies, MovieSummary{ID: id, Title: fmt.Sprintf("Movie %d", id), Popularity: float64(id)})
		f.addMovie(id, fmt.Sprintf("Movie %d", id), "Director")
	}
	f.routes["/discover/movie"] = page(movies...)

	var gotGenres string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/discover/movie" {
			gotGenres = r.URL.Query().Get("with_genres")
			if r.URL.Query().Get("sort_by") != "popularity.desc" {
				t.Errorf("expected sort_by=popularity.desc, got %q", r.URL.Query().Get("sort_by"))
			}
		}
		f.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	client := NewForTest(server.URL, cache.New(), discardLogger())

	r := client.RecommendByGenre(context.Background(), []string{"Sci-Fi", "comedy", "western"})

	requireMovies(t, r, 5)
	if gotGenres != "35,878" && gotGenres != "878,35" {
		t.Errorf("expected with_genres to carry 35 and 878, got %q", gotGenres)
	}
	if r.Movies[0].ID != 8 {
		t.Errorf("expected most popular first, got %d", r.Movies[0].ID)
	}
}

func TestRecommendByGenre_PermutationsShareCache(t *testing.T) {
	f := newFakeTMDb()
	f.routes["/genre/movie/list"] = genreListResponse{Genres: []Genre{{ID: 35, Name: "Comedy"}, {ID: 18, Name: "Drama"}}}
	f.routes["/discover/movie"] = page(MovieSummary{ID: 1, Title: "Funny Drama"})
	f.addMovie(1, "Funny Drama", "X")
	client := newTestClient(t, f)

	a := client.RecommendByGenre(context.Background(), []string{"comedy", "drama"})
	b := client.RecommendByGenre(context.Background(), []string{"Drama", " COMEDY "})

	requireMovies(t, a, 1)
	requireMovies(t, b, 1)
	if f.count("/discover/movie") != 1 {
		t.Errorf("expected one discover call, got %d", f.count("/discover/movie"))
	}
	if f.count("/genre/movie/list") != 1 {
		t.Errorf("expected one genre list call, got %d", f.count("/genre/movie/list"))
	}
}

func TestRecommendByGenre_NoResolvableGenre(t *testing.T) {
	f := newFakeTMDb()
	f.routes["/genre/movie/list"] = genreListResponse{Genres: []Genre{{ID: 35, Name: "Comedy"}}}
	client := newTestClient(t, f)

	r := client.RecommendByGenre(context.Background(), []string{"telenovela"})
	if r.Kind != core.ResultEmpty {
		t.Errorf("expected empty result, got %s", r.Kind)
	}
	if f.count("/discover/movie") != 0 {
		t.Error("discover should not be called without genre IDs")
	}
}

func TestSimilarMovies(t *testing.T) {
	f := newFakeTMDb()
	f.routes["/search/movie"] = page(MovieSummary{ID: 27205, Title: "Inception", Popularity: 10})
	f.routes["/movie/27205/similar"] = page(
		MovieSummary{ID: 1, Title: "Interstellar"},
		MovieSummary{ID: 2, Title: "Tenet"},
	)
	f.addMovie(1, "Interstellar", "Christopher Nolan")
	f.addMovie(2, "Tenet", "Christopher Nolan")
	client := newTestClient(t, f)

	r := client.SimilarMovies(context.Background(), "Inception")

	requireMovies(t, r, 2)
	if r.Movies[0].Title != "Interstellar" || r.Movies[1].Title != "Tenet" {
		t.Errorf("unexpected order: %v", r.Titles())
	}
}

func TestSimilarMovies_UnresolvedTitle(t *testing.T) {
	f := newFakeTMDb()
	f.routes["/search/movie"] = page()
	client := newTestClient(t, f)

	if r := client.SimilarMovies(context.Background(), "zzzz"); r.Kind != core.ResultEmpty {
		t.Errorf("expected empty, got %s", r.Kind)
	}
}

func TestTrendingMovies_InvalidWindowCoercedToDay(t *testing.T) {
	f := newFakeTMDb()
	f.routes["/trending/movie/day"] = page(MovieSummary{ID: 1, Title: "Hot"})
	f.addMovie(1, "Hot", "D")
	client := newTestClient(t, f)

	r := client.TrendingMovies(context.Background(), "month")

	requireMovies(t, r, 1)
	if f.count("/trending/movie/day") != 1 {
		t.Error("expected the day window to be queried")
	}

	// An empty window normalizes to the same cache entry.
	client.TrendingMovies(context.Background(), "")
	if f.count("/trending/movie/day") != 1 {
		t.Error("expected cache hit for normalized window")
	}
}

func TestTopRatedMovies(t *testing.T) {
	f := newFakeTMDb()
	var movies []MovieSummary
	for id := 1; id <= 20; id++ {
		movies = append(movies, MovieSummary{ID: id, Title: fmt.Sprintf("Top %d", id)})
		f.addMovie(id, fmt.Sprintf("Top %d", id), "D")
	}
	f.routes["/movie/top_rated"] = page(movies...)
	client := newTestClient(t, f)

	r := client.TopRatedMovies(context.Background())

	requireMovies(t, r, 5)
	if r.Movies[0].ID != 1 || r.Movies[4].ID != 5 {
		t.Errorf("expected provider order preserved, got %v", r.Titles())
	}
}

func personFixture(f *fakeTMDb) {
	f.routes["/search/person"] = pagedResponse[Person]{Results: []Person{
		{ID: 1, Name: "Steven Spielberg Jr", Popularity: 1},
		{ID: 488, Name: "Steven Spielberg", Popularity: 20},
	}}
	credit := func(id int, title string, votes int, avg float64, pop float64, date, job string) PersonCredit {
		f.addMovie(id, title, "Steven Spielberg")
		return PersonCredit{
			MovieSummary: MovieSummary{
				ID: id, Title: title, VoteCount: votes, VoteAverage: avg, Popularity: pop, ReleaseDate: date,
			},
			Job: job,
		}
	}
	f.routes["/person/488/movie_credits"] = PersonCredits{
		ID: 488,
		Cast: []PersonCredit{
			credit(100, "Cameo", 50, 6.0, 5, "1990-01-01", ""),
			credit(100, "Cameo", 50, 6.0, 5, "1990-01-01", ""),
		},
		Crew: []PersonCredit{
			credit(1, "Jaws", 9000, 7.7, 40, "1975-06-20", "Director"),
			credit(1, "Jaws", 9000, 7.7, 40, "1975-06-20", "Director"),
			credit(2, "Obscure Gem", 12, 9.8, 2, "1969-01-01", "director"),
			credit(3, "Produced Thing", 20000, 9.9, 99, "2000-01-01", "Producer"),
			credit(4, "E.T.", 10000, 7.5, 30, "1982-06-11", "Director"),
			credit(5, "The Fabelmans", 3000, 7.6, 25, "2022-11-11", "Director"),
			credit(6, "Jurassic Park", 15000, 7.9, 60, "1993-06-11", "DIRECTOR"),
			credit(7, "1941", 600, 5.9, 10, "", "Director"),
			credit(8, "Ready Player One", 14000, 7.2, 35, "2018-03-28", "Director"),
		},
	}
}

func TestMoviesByDirector_FiltersJobAndDedupes(t *testing.T) {
	f := newFakeTMDb()
	personFixture(f)
	client := newTestClient(t, f)

	r := client.MoviesByDirector(context.Background(), "Steven Spielberg", SortPopularity)

	requireMovies(t, r, 5)
	seen := map[int]bool{}
	for _, m := range r.Movies {
		if !strings.EqualFold(m.Job, "director") {
			t.Errorf("non-director credit %q (job %q) returned", m.Title, m.Job)
		}
		if seen[m.ID] {
			t.Errorf("duplicate movie %d", m.ID)
		}
		seen[m.ID] = true
	}
	want := []string{"Jurassic Park", "Jaws", "Ready Player One", "E.T.", "The Fabelmans"}
	if strings.Join(r.Titles(), "|") != strings.Join(want, "|") {
		t.Errorf("expected %v, got %v", want, r.Titles())
	}
}

func TestMoviesByDirector_TopRatedRespectsVoteFloor(t *testing.T) {
	f := newFakeTMDb()
	personFixture(f)
	client := newTestClient(t, f)

	r := client.MoviesByDirector(context.Background(), "Steven Spielberg", SortTopRated)

	requireMovies(t, r, 5)
	for _, m := range r.Movies {
		if m.Title == "Obscure Gem" {
			t.Error("movie below the vote floor ranked into the top 5 ahead of qualified movies")
		}
	}
	if r.Movies[0].Title != "Jurassic Park" {
		t.Errorf("expected Jurassic Park first, got %s", r.Movies[0].Title)
	}
}

func TestMoviesByDirector_Trending(t *testing.T) {
	f := newFakeTMDb()
	personFixture(f)
	client := newTestClient(t, f)

	r := client.MoviesByDirector(context.Background(), "Steven Spielberg", SortTrending)

	requireMovies(t, r, 5)
	if r.Movies[0].Title != "The Fabelmans" {
		t.Errorf("expected newest first, got %v", r.Titles())
	}
}

func TestMoviesByActor(t *testing.T) {
	f := newFakeTMDb()
	personFixture(f)
	client := newTestClient(t, f)

	r := client.MoviesByActor(context.Background(), "Steven Spielberg", SortPopularity)

	requireMovies(t, r, 1)
	if r.Movies[0].Title != "Cameo" {
		t.Errorf("expected cast credit, got %s", r.Movies[0].Title)
	}
}

func TestMoviesByActor_UnknownPerson(t *testing.T) {
	f := newFakeTMDb()
	f.routes["/search/person"] = pagedResponse[Person]{}
	client := newTestClient(t, f)

	if r := client.MoviesByActor(context.Background(), "Nobody", SortPopularity); r.Kind != core.ResultEmpty {
		t.Errorf("expected empty, got %s", r.Kind)
	}
}

func TestMissingAPIKey_EveryOperationDegrades(t *testing.T) {
	f := newFakeTMDb()
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	client := New("", cache.New(), Options{BaseURL: server.URL}, discardLogger())
	ctx := context.Background()

	results := map[string]core.Result{
		"search":   client.SearchMovie(ctx, "Dune"),
		"genre":    client.RecommendByGenre(ctx, []string{"comedy"}),
		"similar":  client.SimilarMovies(ctx, "Dune"),
		"trending": client.TrendingMovies(ctx, "day"),
		"top":      client.TopRatedMovies(ctx),
		"actor":    client.MoviesByActor(ctx, "Zendaya", SortPopularity),
		"director": client.MoviesByDirector(ctx, "Denis Villeneuve", SortTopRated),
	}
	for name, r := range results {
		if r.Kind != core.ResultMessage || len(r.Movies) != 0 {
			t.Errorf("%s: expected diagnostic without movies, got %s with %d movies", name, r.Kind, len(r.Movies))
		}
		if !strings.Contains(r.Message, "API key") {
			t.Errorf("%s: expected API key notice, got %q", name, r.Message)
		}
	}
	if _, ok := client.MovieDetails(ctx, 1); ok {
		t.Error("details should report failure without an API key")
	}
	if f.total() != 0 {
		t.Errorf("no request should reach the provider, got %d", f.total())
	}
}

func TestTransportError_NotCached(t *testing.T) {
	f := newFakeTMDb()
	f.fail["/movie/top_rated"] = http.StatusBadRequest
	client := newTestClient(t, f)

	r := client.TopRatedMovies(context.Background())
	if r.Kind != core.ResultMessage {
		t.Fatalf("expected diagnostic, got %s", r.Kind)
	}

	f.mu.Lock()
	delete(f.fail, "/movie/top_rated")
	f.routes["/movie/top_rated"] = page(MovieSummary{ID: 1, Title: "Recovered"})
	f.addMovie(1, "Recovered", "D")
	f.mu.Unlock()

	r = client.TopRatedMovies(context.Background())
	requireMovies(t, r, 1)
}

func TestPosterURL(t *testing.T) {
	tests := []struct {
		path   string
		size   string
		expect string
	}{
		{"/abc123.jpg", "w500", "https://image.tmdb.org/t/p/w500/abc123.jpg"},
		{"", "w500", ""},
		{"/poster.jpg", "w200", "https://image.tmdb.org/t/p/w200/poster.jpg"},
	}
	for _, tt := range tests {
		if got := PosterURL(tt.path, tt.size); got != tt.expect {
			t.Errorf("PosterURL(%q, %q) = %q, want %q", tt.path, tt.size, got, tt.expect)
		}
	}
}
