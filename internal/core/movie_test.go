package core

import "testing"

func TestSingleIsOneElementList(t *testing.T) {
	r := Single(Movie{ID: 27205, Title: "Inception"})
	if r.Kind != ResultMovies || len(r.Movies) != 1 {
		t.Fatalf("expected one-movie list, got %s with %d", r.Kind, len(r.Movies))
	}
	if r.IsEmpty() {
		t.Error("single result should not be empty")
	}
}

func TestMoviesEmptyListIsEmpty(t *testing.T) {
	if r := Movies(nil); r.Kind != ResultEmpty || !r.IsEmpty() {
		t.Errorf("expected empty result, got %s", r.Kind)
	}
}

func TestDiagnosticIsNotEmpty(t *testing.T) {
	r := Diagnostic("TMDb API key is not configured")
	if r.IsEmpty() {
		t.Error("diagnostic should not take the empty path")
	}
	if r.Kind.String() != "message" {
		t.Errorf("unexpected kind %q", r.Kind)
	}
}

func TestTitles(t *testing.T) {
	r := Movies([]Movie{{Title: "Dune"}, {Title: "Arrival"}})
	got := r.Titles()
	if len(got) != 2 || got[0] != "Dune" || got[1] != "Arrival" {
		t.Errorf("unexpected titles %v", got)
	}
}
