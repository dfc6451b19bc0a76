package claude

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadimtrunov/MovieMate/internal/core"
)

func TestConvertMessages(t *testing.T) {
	tests := []struct {
		name       string
		in         []core.Message
		wantSystem string
		wantRoles  []string
		wantBlocks []int
	}{
		{
			name:       "plain alternation",
			in:         []core.Message{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}, {Role: "user", Content: "movies?"}},
			wantRoles:  []string{"user", "assistant", "user"},
			wantBlocks: []int{1, 1, 1},
		},
		{
			name:       "system messages joined",
			in:         []core.Message{{Role: "system", Content: "a"}, {Role: "system", Content: "b"}, {Role: "user", Content: "hi"}},
			wantSystem: "a\n\nb",
			wantRoles:  []string{"user"},
			wantBlocks: []int{1},
		},
		{
			name:       "leading assistant dropped",
			in:         []core.Message{{Role: "assistant", Content: "Hi! Ask me about movies."}, {Role: "user", Content: "comedies"}},
			wantRoles:  []string{"user"},
			wantBlocks: []int{1},
		},
		{
			name:       "consecutive users merged",
			in:         []core.Message{{Role: "user", Content: "one"}, {Role: "user", Content: "two"}},
			wantRoles:  []string{"user"},
			wantBlocks: []int{2},
		},
		{
			name:       "empty text skipped",
			in:         []core.Message{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "  "}, {Role: "user", Content: "again"}},
			wantRoles:  []string{"user"},
			wantBlocks: []int{2},
		},
		{
			name: "tool call then result",
			in: []core.Message{
				{Role: "user", Content: "find heat"},
				{Role: "assistant", Content: "Looking.", ToolCalls: []core.ToolCall{{ID: "t1", Name: "search_movie"}}},
				{Role: "user", Content: "[]", ToolResultID: "t1", IsError: true},
			},
			wantRoles:  []string{"user", "assistant", "user"},
			wantBlocks: []int{1, 2, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			system, msgs := convertMessages(tt.in)
			assert.Equal(t, tt.wantSystem, system)
			require.Len(t, msgs, len(tt.wantRoles))
			for i, m := range msgs {
				assert.Equal(t, tt.wantRoles[i], m.Role, "message %d role", i)
				assert.Len(t, m.Content, tt.wantBlocks[i], "message %d blocks", i)
			}
		})
	}
}

func TestConvertMessages_ToolBlocks(t *testing.T) {
	_, msgs := convertMessages([]core.Message{
		{Role: "user", Content: "find heat"},
		{Role: "assistant", ToolCalls: []core.ToolCall{{ID: "t1", Name: "search_movie"}}},
		{Role: "user", Content: "TMDb is not configured.", ToolResultID: "t1", IsError: true},
	})
	require.Len(t, msgs, 3)

	use := msgs[1].Content[0]
	assert.Equal(t, "tool_use", use.Type)
	assert.Equal(t, "t1", use.ID)
	assert.NotNil(t, use.Input, "nil arguments must encode as an empty object")

	res := msgs[2].Content[0]
	assert.Equal(t, "tool_result", res.Type)
	assert.Equal(t, "t1", res.ToolUseID)
	assert.True(t, res.IsError)
	assert.Equal(t, "TMDb is not configured.", res.Content)
}

func TestConvertMessages_NoArgumentToolUseKeepsInput(t *testing.T) {
	for _, args := range []map[string]any{{}, nil} {
		_, msgs := convertMessages([]core.Message{
			{Role: "user", Content: "what's top rated?"},
			{Role: "assistant", ToolCalls: []core.ToolCall{{ID: "toolu_1", Name: "get_top_rated_movies", Arguments: args}}},
			{Role: "user", Content: `{"titles":["The Godfather"]}`, ToolResultID: "toolu_1"},
		})
		require.Len(t, msgs, 3)

		data, err := json.Marshal(msgs[1])
		require.NoError(t, err)
		assert.Contains(t, string(data), `"input":{}`)

		data, err = json.Marshal(msgs[2])
		require.NoError(t, err)
		assert.False(t, strings.Contains(string(data), `"input"`), "tool_result must not carry input: %s", data)
	}
}

func TestBlockMarshal_KeepsArguments(t *testing.T) {
	data, err := json.Marshal(block{Type: "tool_use", ID: "t", Name: "search_movie", Input: map[string]any{"query": "Heat"}})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{"query": "Heat"}, got["input"])
	assert.Equal(t, "search_movie", got["name"])

	data, err = json.Marshal(block{Type: "text", Text: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"text","text":"hi"}`, string(data))
}

func TestConvertTools(t *testing.T) {
	specs := convertTools([]core.Tool{
		searchTool,
		{Name: "noop", Description: "no params"},
	})
	require.Len(t, specs, 2)

	assert.Equal(t, "search_movie", specs[0].Name)
	assert.Equal(t, "object", specs[0].InputSchema["type"])
	assert.Contains(t, specs[0].InputSchema, "properties")

	assert.Equal(t, map[string]any{"type": "object"}, specs[1].InputSchema)
}

func TestConvertTools_DoesNotMutateSchema(t *testing.T) {
	schema := map[string]any{"properties": map[string]any{}}
	convertTools([]core.Tool{{Name: "x", Parameters: schema}})
	assert.NotContains(t, schema, "type")
}

func TestParseResponse(t *testing.T) {
	t.Run("joins text blocks", func(t *testing.T) {
		resp, err := parseResponse(&messagesResponse{
			StopReason: "end_turn",
			Content:    []block{{Type: "text", Text: "a"}, {Type: "text", Text: "b"}},
		})
		require.NoError(t, err)
		assert.Equal(t, "a\nb", resp.Content)
		assert.True(t, resp.Done)
	})

	t.Run("tool call wins over truncation", func(t *testing.T) {
		resp, err := parseResponse(&messagesResponse{
			StopReason: "max_tokens",
			Content:    []block{{Type: "tool_use", ID: "t", Name: "find_similar"}},
		})
		require.NoError(t, err)
		require.Len(t, resp.ToolCalls, 1)
		assert.NotNil(t, resp.ToolCalls[0].Arguments)
	})

	t.Run("empty reply", func(t *testing.T) {
		_, err := parseResponse(&messagesResponse{StopReason: "end_turn"})
		var incomplete *core.IncompleteError
		require.True(t, errors.As(err, &incomplete))
		assert.Empty(t, incomplete.Partial)
	})
}
