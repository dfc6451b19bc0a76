package cache

import (
	"fmt"
	"slices"
	"strings"
)

// Key builds a canonical cache key from an operation name and its arguments.
// Strings are trimmed and lower-cased so that "Dune" and " dune " share an entry.
// String slices are treated as unordered sets (see NormalizeGenres).
func Key(op string, args ...any) string {
	var sb strings.Builder
	sb.WriteString(op)
	for _, a := range args {
		sb.WriteByte('|')
		switch v := a.(type) {
		case string:
			sb.WriteString(normalize(v))
		case []string:
			sb.WriteByte('(')
			sb.WriteString(strings.Join(NormalizeGenres(v), ","))
			sb.WriteByte(')')
		case []int:
			ids := slices.Clone(v)
			slices.Sort(ids)
			sb.WriteString(fmt.Sprint(ids))
		default:
			fmt.Fprint(&sb, v)
		}
	}
	return sb.String()
}

// NormalizeGenres trims, lower-cases, drops blanks and sorts a list of names,
// so permutations and case variants of the same set compare equal.
// Duplicates are collapsed.
func NormalizeGenres(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = normalize(n); n != "" {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
