package tmdb

import (
	"cmp"
	"slices"
	"strings"
)

// SortMode orders a person's filmography.
type SortMode string

const (
	SortPopularity SortMode = "popularity"
	SortTopRated   SortMode = "top_rated"
	SortTrending   SortMode = "trending"
)

// ParseSortMode maps a loosely typed model argument to a SortMode.
// Unknown or empty values fall back to SortPopularity.
func ParseSortMode(s string) SortMode {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case SortTopRated, "toprated", "rating", "rated":
		return SortTopRated
	case SortTrending, "recent", "newest":
		return SortTrending
	default:
		return SortPopularity
	}
}

// ParseWindow normalizes a trending window. Anything but "week" becomes "day".
func ParseWindow(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), "week") {
		return "week"
	}
	return "day"
}

// byPopularity orders most popular first.
func byPopularity(a, b MovieSummary) int {
	return cmp.Compare(b.Popularity, a.Popularity)
}

// sortCredits orders credits in place according to mode.
//
// top_rated ranks movies with at least minVotes votes above every movie below
// the floor, then by average descending, so a handful of votes cannot produce a
// deceptively high rank. trending puts the newest releases first (undated last).
func sortCredits(credits []PersonCredit, mode SortMode, minVotes int) {
	switch mode {
	case SortTopRated:
		slices.SortStableFunc(credits, func(a, b PersonCredit) int {
			aq, bq := a.VoteCount >= minVotes, b.VoteCount >= minVotes
			if aq != bq {
				if aq {
					return -1
				}
				return 1
			}
			if c := cmp.Compare(b.VoteAverage, a.VoteAverage); c != 0 {
				return c
			}
			return cmp.Compare(b.VoteCount, a.VoteCount)
		})
	case SortTrending:
		slices.SortStableFunc(credits, func(a, b PersonCredit) int {
			if (a.ReleaseDate == "") != (b.ReleaseDate == "") {
				if a.ReleaseDate == "" {
					return 1
				}
				return -1
			}
			if c := strings.Compare(b.ReleaseDate, a.ReleaseDate); c != 0 {
				return c
			}
			return byPopularity(a.MovieSummary, b.MovieSummary)
		})
	default:
		slices.SortStableFunc(credits, func(a, b PersonCredit) int {
			return byPopularity(a.MovieSummary, b.MovieSummary)
		})
	}
}

// dedupeCredits keeps the first credit per movie ID, preserving order.
func dedupeCredits(credits []PersonCredit) []PersonCredit {
	seen := make(map[int]bool, len(credits))
	out := make([]PersonCredit, 0, len(credits))
	for _, cr := range credits {
		if seen[cr.ID] {
			continue
		}
		seen[cr.ID] = true
		out = append(out, cr)
	}
	return out
}

// directorCredits keeps crew credits whose job is "director", case-insensitively.
func directorCredits(crew []PersonCredit) []PersonCredit {
	out := make([]PersonCredit, 0, len(crew))
	for _, cr := range crew {
		if strings.EqualFold(strings.TrimSpace(cr.Job), "director") {
			out = append(out, cr)
		}
	}
	return out
}

// bestByPopularity returns the most popular of the first n items.
func bestByPopularity[T any](items []T, n int, popularity func(T) float64) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	head := slices.Clone(items[:min(n, len(items))])
	slices.SortStableFunc(head, func(a, b T) int {
		return cmp.Compare(popularity(b), popularity(a))
	})
	return head[0], true
}
