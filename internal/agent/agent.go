package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/vadimtrunov/MovieMate/internal/core"
	"github.com/vadimtrunov/MovieMate/internal/session"
)

const systemPrompt = `You are MovieMate, a friendly movie-buff assistant.
You help users discover movies using The Movie Database.

When a user names a specific movie, use search_movie.
When they ask for a genre, use get_recommendations_by_genre with a list of genre names.
When they want movies like another movie, use get_similar_movies.
When they ask what is popular right now, use get_trending_movies.
When they ask for the best movies of all time, use get_top_rated_movies.
When they ask about an actor or a director, use get_movies_by_actor or get_movies_by_director.

Call at most one tool per message. If the request is not about movies, answer briefly in plain text.`

// Narration selects how tool results are turned into the assistant's reply.
type Narration string

const (
	// NarrationDirect uses a canned, tool-specific lead-in.
	NarrationDirect Narration = "direct"
	// NarrationRoundTrip sends the result titles back to the model and uses its reply.
	NarrationRoundTrip Narration = "roundtrip"
)

// ParseNarration validates a narration mode. Empty selects NarrationDirect.
func ParseNarration(s string) (Narration, error) {
	switch n := Narration(strings.ToLower(strings.TrimSpace(s))); n {
	case "":
		return NarrationDirect, nil
	case NarrationDirect, NarrationRoundTrip:
		return n, nil
	default:
		return "", fmt.Errorf("unknown narration mode %q (want direct or roundtrip)", s)
	}
}

// Agent runs one conversation step per user message: ask the model, dispatch
// the tool it picks, and narrate the result.
type Agent struct {
	llm       core.LLMProvider
	registry  *Registry
	narration Narration
	logger    *slog.Logger
}

// New creates a new Agent.
func New(llm core.LLMProvider, registry *Registry, narration Narration, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	if narration == "" {
		narration = NarrationDirect
	}
	return &Agent{
		llm:       llm,
		registry:  registry,
		narration: narration,
		logger:    logger,
	}
}

// Registry returns the tool registry the agent dispatches to.
func (a *Agent) Registry() *Registry { return a.registry }

// Narration returns the configured narration mode.
func (a *Agent) Narration() Narration { return a.narration }

// Step appends the user's message and exactly one assistant reply to state.
// It never fails: model and tool errors become visible assistant turns.
func (a *Agent) Step(ctx context.Context, state session.State, text string) (session.State, session.Turn) {
	state = state.Append(session.Turn{Role: session.RoleUser, Content: text})
	turn := a.respond(ctx, a.logger.With(slog.String("session_id", state.ID())), state)
	return state.Append(turn), turn
}

func (a *Agent) respond(ctx context.Context, logger *slog.Logger, state session.State) session.Turn {
	messages := historyMessages(state)
	tools := a.registry.Definitions()

	resp, err := a.llm.Chat(ctx, messages, tools)
	if err != nil {
		return a.modelFailure(logger, err)
	}

	if len(resp.ToolCalls) == 0 {
		if strings.TrimSpace(resp.Content) == "" {
			logger.Warn("model returned neither text nor a tool call", slog.String("stop_reason", resp.StopReason))
			return assistantTurn(MsgModelError)
		}
		return assistantTurn(resp.Content)
	}

	call := resp.ToolCalls[0]
	if len(resp.ToolCalls) > 1 {
		logger.Debug("ignoring extra tool calls", slog.Int("count", len(resp.ToolCalls)-1))
	}

	kind, result, err := a.registry.Dispatch(ctx, call)
	if err != nil {
		var unknown *UnknownToolError
		if errors.As(err, &unknown) {
			logger.Warn("model requested unknown tool", slog.String("tool", unknown.Name))
			return assistantTurn(UnknownToolMessage(unknown.Name))
		}
		logger.Error("tool dispatch failed", slog.String("tool", call.Name), slog.String("error", err.Error()))
		return assistantTurn(MsgModelError)
	}

	if a.narration == NarrationRoundTrip {
		return a.roundTrip(ctx, logger, messages, tools, resp, call, kind, result)
	}
	return narrate(kind, result)
}

// roundTrip sends the tool result back to the model as a function response and
// pairs the model's narration with the full result. If the second call fails the
// templated narration is used instead.
func (a *Agent) roundTrip(
	ctx context.Context,
	logger *slog.Logger,
	messages []core.Message,
	tools []core.Tool,
	resp *core.Response,
	call core.ToolCall,
	kind ToolKind,
	result core.Result,
) session.Turn {
	followUp := append(slices.Clip(messages),
		core.Message{Role: "assistant", Content: resp.Content, ToolCalls: []core.ToolCall{call}},
		core.Message{
			Role:         "user",
			Content:      functionResponse(result),
			ToolResultID: call.ID,
			ToolName:     call.Name,
			IsError:      result.Kind == core.ResultMessage,
		},
	)

	second, err := a.llm.Chat(ctx, followUp, tools)
	if err != nil {
		logger.Warn("narration round-trip failed, using template",
			slog.String("tool", call.Name),
			slog.String("error", err.Error()),
		)
		return narrate(kind, result)
	}
	if strings.TrimSpace(second.Content) == "" {
		logger.Warn("narration round-trip returned no text, using template", slog.String("tool", call.Name))
		return narrate(kind, result)
	}
	return withResults(second.Content, result)
}

// modelFailure maps a failed model call to the visible reply, preferring any
// partial text the model produced.
func (a *Agent) modelFailure(logger *slog.Logger, err error) session.Turn {
	var incomplete *core.IncompleteError
	if errors.As(err, &incomplete) {
		logger.Warn("incomplete model response", slog.String("reason", incomplete.Reason))
		if strings.TrimSpace(incomplete.Partial) != "" {
			return assistantTurn(incomplete.Partial)
		}
		return assistantTurn(MsgModelError)
	}
	logger.Error("llm chat failed", slog.String("error", err.Error()))
	return assistantTurn(MsgModelError)
}

// historyMessages converts the conversation into model messages. Turns before
// the first user turn are skipped; result titles are appended to assistant
// turns so follow-up questions can refer to them.
func historyMessages(state session.State) []core.Message {
	turns := state.Turns()
	messages := make([]core.Message, 0, len(turns)+1)
	messages = append(messages, core.Message{Role: "system", Content: systemPrompt})

	started := false
	for _, t := range turns {
		if !started && t.Role != session.RoleUser {
			continue
		}
		started = true

		content := t.Content
		if t.HasResults() {
			titles := core.Movies(t.Results).Titles()
			content += "\n\n[Results shown: " + strings.Join(titles, "; ") + "]"
		}
		messages = append(messages, core.Message{Role: string(t.Role), Content: content})
	}
	return messages
}

// Close releases resources held by the agent's LLM provider.
func (a *Agent) Close() error {
	return a.llm.Close()
}
