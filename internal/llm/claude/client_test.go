package claude

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vadimtrunov/MovieMate/internal/core"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient points a client at handler and records every request body.
func newTestClient(t *testing.T, handler func(w http.ResponseWriter, body messagesRequest)) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		handler(w, body)
	}))
	t.Cleanup(server.Close)
	return New("test-key", "test-model", server.URL+"/", discardLogger())
}

func reply(w http.ResponseWriter, stop string, blocks ...block) {
	json.NewEncoder(w).Encode(messagesResponse{ID: "msg_1", Model: "test-model", Content: blocks, StopReason: stop})
}

var searchTool = core.Tool{
	Name:        "search_movie",
	Description: "Find a movie by title",
	Parameters: map[string]any{
		"type":       "object",
		"properties": map[string]any{"query": map[string]any{"type": "string"}},
		"required":   []string{"query"},
	},
}

func TestChat_Text(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, body messagesRequest) {
		if body.Model != "test-model" {
			t.Errorf("model = %q", body.Model)
		}
		if body.MaxTokens != defaultMaxTokens {
			t.Errorf("max_tokens = %d", body.MaxTokens)
		}
		if body.System != "be brief" {
			t.Errorf("system = %q", body.System)
		}
		if body.Tools != nil || body.ToolChoice != nil {
			t.Error("expected no tools without declarations")
		}
		reply(w, "end_turn", block{Type: "text", Text: "Hello!"})
	})

	resp, err := client.Chat(context.Background(), []core.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "Hi"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "Hello!" {
		t.Errorf("content = %q", resp.Content)
	}
	if !resp.Done {
		t.Error("expected Done for end_turn")
	}
}

func TestChat_ToolCall(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, body messagesRequest) {
		if len(body.Tools) != 1 || body.Tools[0].Name != "search_movie" {
			t.Fatalf("tools = %+v", body.Tools)
		}
		if body.ToolChoice == nil || body.ToolChoice.Type != "auto" || !body.ToolChoice.DisableParallelToolUse {
			t.Errorf("tool_choice = %+v", body.ToolChoice)
		}
		reply(w, "tool_use",
			block{Type: "text", Text: "Searching."},
			block{Type: "tool_use", ID: "toolu_1", Name: "search_movie", Input: map[string]any{"query": "inception"}},
		)
	})

	resp, err := client.Chat(context.Background(), []core.Message{{Role: "user", Content: "find inception"}}, []core.Tool{searchTool})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(resp.ToolCalls))
	}
	tc := resp.ToolCalls[0]
	if tc.ID != "toolu_1" || tc.Name != "search_movie" || tc.Arguments["query"] != "inception" {
		t.Errorf("tool call = %+v", tc)
	}
	if resp.Done {
		t.Error("tool_use is not a finished turn")
	}
}

func TestChat_Headers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != apiVersion {
			t.Errorf("anthropic-version = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("content-type = %q", got)
		}
		reply(w, "end_turn", block{Type: "text", Text: "ok"})
	}))
	defer server.Close()

	client := New("test-key", "", server.URL, discardLogger())
	if _, err := client.Chat(context.Background(), []core.Message{{Role: "user", Content: "hi"}}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestChat_APIError(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantType string
		wantMsg  string
	}{
		{"structured", `{"type":"error","error":{"type":"invalid_request_error","message":"bad tools"}}`, "invalid_request_error", "bad tools"},
		{"raw", "  gateway exploded \n", "", "gateway exploded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := New("k", "", server.URL, discardLogger())
			_, err := client.Chat(context.Background(), []core.Message{{Role: "user", Content: "hi"}}, nil)

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != http.StatusBadRequest || apiErr.Type != tt.wantType || apiErr.Message != tt.wantMsg {
				t.Errorf("APIError = %+v", apiErr)
			}
		})
	}
}

func TestChat_NoUserMessage(t *testing.T) {
	client := New("k", "", "http://127.0.0.1:1", discardLogger())
	_, err := client.Chat(context.Background(), []core.Message{{Role: "system", Content: "only system"}}, nil)
	if err == nil {
		t.Fatal("expected error without a user message")
	}
}

func TestChat_Refusal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ messagesRequest) {
		reply(w, "refusal")
	})
	_, err := client.Chat(context.Background(), []core.Message{{Role: "user", Content: "hi"}}, nil)
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected *BlockedError, got %v", err)
	}
}

func TestChat_Truncated(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ messagesRequest) {
		reply(w, "max_tokens", block{Type: "text", Text: "Inception is a film about"})
	})
	_, err := client.Chat(context.Background(), []core.Message{{Role: "user", Content: "hi"}}, nil)
	var incomplete *core.IncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected *core.IncompleteError, got %v", err)
	}
	if incomplete.Partial != "Inception is a film about" {
		t.Errorf("partial = %q", incomplete.Partial)
	}
}

func TestChat_RoundTripSendsToolResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, body messagesRequest) {
		if len(body.Messages) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(body.Messages))
		}
		last := body.Messages[2]
		if last.Role != "user" || last.Content[0].Type != "tool_result" || last.Content[0].ToolUseID != "toolu_1" {
			t.Errorf("last message = %+v", last)
		}
		reply(w, "end_turn", block{Type: "text", Text: "Here is Inception."})
	})

	resp, err := client.Chat(context.Background(), []core.Message{
		{Role: "user", Content: "find inception"},
		{Role: "assistant", ToolCalls: []core.ToolCall{{ID: "toolu_1", Name: "search_movie", Arguments: map[string]any{"query": "inception"}}}},
		{Role: "user", Content: `{"movies":[]}`, ToolResultID: "toolu_1", ToolName: "search_movie"},
	}, []core.Tool{searchTool})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "Here is Inception." {
		t.Errorf("content = %q", resp.Content)
	}
}

func TestChat_RoundTripNoArgumentToolSendsInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if !strings.Contains(string(raw), `"input":{}`) {
			t.Errorf("tool_use block without input: %s", raw)
		}
		reply(w, "end_turn", block{Type: "text", Text: "The best of the best."})
	}))
	defer server.Close()

	client := New("k", "", server.URL, discardLogger())
	_, err := client.Chat(context.Background(), []core.Message{
		{Role: "user", Content: "top rated movies"},
		{Role: "assistant", ToolCalls: []core.ToolCall{{ID: "toolu_1", Name: "get_top_rated_movies", Arguments: map[string]any{}}}},
		{Role: "user", Content: `{"titles":["The Godfather"]}`, ToolResultID: "toolu_1", ToolName: "get_top_rated_movies"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNameAndClose(t *testing.T) {
	c := New("k", "", "", nil)
	if c.Name() != "claude" {
		t.Errorf("Name() = %q", c.Name())
	}
	if c.model != defaultModel {
		t.Errorf("model = %q", c.model)
	}
	if c.endpoint != defaultBaseURL+"/v1/messages" {
		t.Errorf("endpoint = %q", c.endpoint)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
