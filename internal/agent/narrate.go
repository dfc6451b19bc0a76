package agent

import (
	"encoding/json"
	"fmt"

	"github.com/vadimtrunov/MovieMate/internal/core"
	"github.com/vadimtrunov/MovieMate/internal/session"
)

const (
	// MsgNotFound answers an empty tool result.
	MsgNotFound = "Sorry, I couldn't find anything matching your request."
	// MsgModelError answers a model reply that could not be used.
	MsgModelError = "An API or safety error occurred. Please try again."

	defaultLeadIn = "Of course! Here are some recommendations I found for you:"
)

var leadIns = map[ToolKind]string{
	ToolRecommendByGenre: "Of course! Here are some recommendations by genre:",
	ToolSimilarMovies:    "Got it! Here are movies similar to your request:",
	ToolTrendingMovies:   "Here are the trending movies right now:",
	ToolTopRatedMovies:   "Here are top rated movies:",
	ToolMoviesByActor:    "Here are movies featuring that actor:",
	ToolMoviesByDirector: "Here are movies directed by that person:",
}

// UnknownToolMessage is the visible reply to a call for an unregistered tool.
func UnknownToolMessage(name string) string {
	return fmt.Sprintf("Error: Could not find the tool '%s'.", name)
}

// narrate builds the templated assistant turn for a tool result.
func narrate(kind ToolKind, r core.Result) session.Turn {
	switch {
	case r.Kind == core.ResultMessage:
		return assistantTurn(r.Message)
	case r.IsEmpty():
		return assistantTurn(MsgNotFound)
	case kind == ToolSearchMovie:
		return session.Turn{
			Role:    session.RoleAssistant,
			Content: fmt.Sprintf("You got it. Here is the result for '%s':", r.Movies[0].Title),
			Results: r.Movies,
		}
	}
	lead, ok := leadIns[kind]
	if !ok {
		lead = defaultLeadIn
	}
	return session.Turn{Role: session.RoleAssistant, Content: lead, Results: r.Movies}
}

// withResults attaches a tool result's movies to a model-narrated turn.
func withResults(content string, r core.Result) session.Turn {
	turn := assistantTurn(content)
	if r.Kind == core.ResultMovies {
		turn.Results = r.Movies
	}
	return turn
}

func assistantTurn(content string) session.Turn {
	return session.Turn{Role: session.RoleAssistant, Content: content}
}

// functionResponse is the payload sent back to the model in round-trip
// narration: the result titles, "not found", or the diagnostic text.
func functionResponse(r core.Result) string {
	var content any
	switch {
	case r.Kind == core.ResultMessage:
		content = r.Message
	case r.IsEmpty():
		content = "not found"
	default:
		content = r.Titles()
	}
	data, err := json.Marshal(map[string]any{"content": content})
	if err != nil {
		return `{"content":"not found"}`
	}
	return string(data)
}
