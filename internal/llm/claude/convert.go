package claude

import (
	"strings"

	"github.com/vadimtrunov/MovieMate/internal/core"
)

// convertMessages moves system messages into the system prompt and maps the
// rest onto alternating user/assistant messages. Tool results travel as
// tool_result blocks in a user message; consecutive messages with the same
// role are merged and a leading assistant message is dropped, since the API
// requires the conversation to open with the user.
func convertMessages(messages []core.Message) (string, []message) {
	var system []string
	var out []message

	for _, msg := range messages {
		if msg.Role == "system" {
			system = append(system, msg.Content)
			continue
		}

		role := "user"
		var blocks []block
		switch {
		case msg.ToolResultID != "":
			blocks = append(blocks, block{
				Type:      "tool_result",
				ToolUseID: msg.ToolResultID,
				Content:   msg.Content,
				IsError:   msg.IsError,
			})
		case msg.Role == "assistant":
			role = "assistant"
			if strings.TrimSpace(msg.Content) != "" {
				blocks = append(blocks, block{Type: "text", Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				input := tc.Arguments
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, block{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: input})
			}
		default:
			if strings.TrimSpace(msg.Content) != "" {
				blocks = append(blocks, block{Type: "text", Text: msg.Content})
			}
		}

		if len(blocks) == 0 {
			continue
		}
		if len(out) == 0 && role == "assistant" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			continue
		}
		out = append(out, message{Role: role, Content: blocks})
	}

	return strings.Join(system, "\n\n"), out
}

// convertTools declares each tool with its parameter schema as-is. A schema
// without a type is treated as an object.
func convertTools(tools []core.Tool) []toolSpec {
	specs := make([]toolSpec, len(tools))
	for i, t := range tools {
		schema := t.Parameters
		if schema == nil {
			schema = map[string]any{}
		}
		if _, ok := schema["type"]; !ok {
			withType := make(map[string]any, len(schema)+1)
			for k, v := range schema {
				withType[k] = v
			}
			withType["type"] = "object"
			schema = withType
		}
		specs[i] = toolSpec{Name: t.Name, Description: t.Description, InputSchema: schema}
	}
	return specs
}

// parseResponse collects text blocks and tool_use blocks. Refusals become
// *BlockedError; replies without usable content become *core.IncompleteError
// carrying any partial text.
func parseResponse(resp *messagesResponse) (*core.Response, error) {
	if resp.StopReason == "refusal" {
		return nil, &BlockedError{Reason: resp.StopReason}
	}

	result := &core.Response{
		StopReason: resp.StopReason,
		Done:       resp.StopReason == "end_turn",
	}

	var text []string
	for _, b := range resp.Content {
		switch b.Type {
		case "text":
			if b.Text != "" {
				text = append(text, b.Text)
			}
		case "tool_use":
			args := b.Input
			if args == nil {
				args = map[string]any{}
			}
			result.ToolCalls = append(result.ToolCalls, core.ToolCall{ID: b.ID, Name: b.Name, Arguments: args})
		}
	}
	result.Content = strings.Join(text, "\n")

	if len(result.ToolCalls) > 0 {
		return result, nil
	}
	if resp.StopReason == "max_tokens" {
		return nil, &core.IncompleteError{Reason: resp.StopReason, Partial: result.Content}
	}
	if result.Content == "" {
		return nil, &core.IncompleteError{Reason: "empty reply"}
	}
	return result, nil
}
