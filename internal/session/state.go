// Package session holds the per-conversation state the orchestrator steps over:
// the append-only turn history and the movie currently selected for detail view.
package session

import (
	"slices"

	"github.com/google/uuid"

	"github.com/vadimtrunov/MovieMate/internal/core"
)

// Greeting seeds every new conversation.
const Greeting = "Hello! I'm your movie-buff assistant. Ask me to find a movie by title or recommend something by genre!"

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the conversation. Results is set on assistant turns
// that carry movies to render.
type Turn struct {
	Role    Role         `json:"role"`
	Content string       `json:"content"`
	Results []core.Movie `json:"results,omitempty"`
}

// HasResults reports whether the turn carries movies.
func (t Turn) HasResults() bool { return len(t.Results) > 0 }

func (t Turn) clone() Turn {
	t.Results = slices.Clone(t.Results)
	return t
}

// State is an immutable snapshot of a conversation. Every mutation returns a
// new State; earlier snapshots and the turns they hold are never changed.
type State struct {
	id       string
	turns    []Turn
	selected *core.Movie
}

// New starts a conversation seeded with the assistant greeting.
func New() State {
	return State{
		id:    uuid.NewString(),
		turns: []Turn{{Role: RoleAssistant, Content: Greeting}},
	}
}

// ID identifies the conversation in logs. It is shared by every snapshot
// derived from the same New call.
func (s State) ID() string { return s.id }

// Append returns a state with turn added to the end of the history.
func (s State) Append(turn Turn) State {
	turn = turn.clone()
	next := s
	next.turns = append(slices.Clip(s.turns), turn)
	return next
}

// Turns returns a copy of the history in order.
func (s State) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	for i, t := range s.turns {
		out[i] = t.clone()
	}
	return out
}

// Len is the number of turns.
func (s State) Len() int { return len(s.turns) }

// Turn returns the i-th turn.
func (s State) Turn(i int) (Turn, bool) {
	if i < 0 || i >= len(s.turns) {
		return Turn{}, false
	}
	return s.turns[i].clone(), true
}

// Last returns the most recent turn.
func (s State) Last() Turn {
	if len(s.turns) == 0 {
		return Turn{}
	}
	return s.turns[len(s.turns)-1].clone()
}

// LatestResults returns the index and movies of the most recent turn that
// carries results, or -1 when none does.
func (s State) LatestResults() (int, []core.Movie) {
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].HasResults() {
			return i, slices.Clone(s.turns[i].Results)
		}
	}
	return -1, nil
}

// Select returns a state with m as the detail-view item.
func (s State) Select(m core.Movie) State {
	s.selected = &m
	return s
}

// Selected returns the detail-view item, if any.
func (s State) Selected() (core.Movie, bool) {
	if s.selected == nil {
		return core.Movie{}, false
	}
	return *s.selected, true
}

// ClearSelection returns a state without a detail-view item.
func (s State) ClearSelection() State {
	s.selected = nil
	return s
}
