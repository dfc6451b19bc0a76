package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/vadimtrunov/MovieMate/internal/core"
)

// convertMessages splits off system messages into a system instruction and
// maps the rest to Gemini contents. Consecutive messages with the same role
// are merged and leading model messages are dropped, since Gemini expects
// alternating turns that open with the user.
func convertMessages(messages []core.Message) (*genai.Content, []*genai.Content) {
	var systemParts []string
	var contents []*genai.Content

	for _, msg := range messages {
		if msg.Role == "system" {
			systemParts = append(systemParts, msg.Content)
			continue
		}

		role := genai.RoleUser
		var parts []*genai.Part
		switch {
		case msg.ToolResultID != "" || msg.ToolName != "":
			parts = append(parts, &genai.Part{FunctionResponse: functionResponse(msg)})
		case msg.Role == "assistant":
			role = genai.RoleModel
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					Name: tc.Name,
					Args: tc.Arguments,
				}})
			}
		default:
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
		}

		if len(parts) == 0 {
			continue
		}
		if len(contents) == 0 && role == genai.RoleModel {
			continue
		}
		if n := len(contents); n > 0 && contents[n-1].Role == string(role) {
			contents[n-1].Parts = append(contents[n-1].Parts, parts...)
			continue
		}
		contents = append(contents, &genai.Content{Role: string(role), Parts: parts})
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = &genai.Content{Parts: []*genai.Part{{Text: strings.Join(systemParts, "\n\n")}}}
	}
	return system, contents
}

// functionResponse wraps a tool result. JSON object payloads are passed
// through; anything else is wrapped under "content" (or "error").
func functionResponse(msg core.Message) *genai.FunctionResponse {
	key := "content"
	if msg.IsError {
		key = "error"
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(msg.Content), &payload); err != nil || payload == nil {
		payload = map[string]any{key: msg.Content}
	}
	return &genai.FunctionResponse{Name: msg.ToolName, Response: payload}
}

// convertTools declares every tool as a Gemini function.
func convertTools(tools []core.Tool) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		decls[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertSchema(t.Parameters),
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// convertSchema maps a JSON Schema object onto genai.Schema.
func convertSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}
	out := &genai.Schema{}

	switch schema["type"] {
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
	case "object":
		out.Type = genai.TypeObject
	}
	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}
	out.Enum = stringList(schema["enum"])
	out.Required = stringList(schema["required"])

	if props, ok := schema["properties"].(map[string]any); ok && len(props) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				out.Properties[name] = convertSchema(pm)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		out.Items = convertSchema(items)
	}
	return out
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// parseResponse extracts text and function calls from the first candidate.
// Replies without usable content become *core.IncompleteError carrying any
// partial text.
func parseResponse(resp *genai.GenerateContentResponse) (*core.Response, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}
	}
	if len(resp.Candidates) == 0 {
		return nil, &core.IncompleteError{Reason: "no candidates"}
	}

	cand := resp.Candidates[0]
	finish := string(cand.FinishReason)
	result := &core.Response{StopReason: finish}

	if cand.Content != nil {
		var text strings.Builder
		for i, part := range cand.Content.Parts {
			if part.Text != "" && !part.Thought {
				text.WriteString(part.Text)
			}
			if fc := part.FunctionCall; fc != nil {
				id := fc.ID
				if id == "" {
					id = fmt.Sprintf("call_%d_%s", i, fc.Name)
				}
				args := fc.Args
				if args == nil {
					args = map[string]any{}
				}
				result.ToolCalls = append(result.ToolCalls, core.ToolCall{ID: id, Name: fc.Name, Arguments: args})
			}
		}
		result.Content = text.String()
	}

	if len(result.ToolCalls) > 0 {
		return result, nil
	}
	if cand.FinishReason != "" && cand.FinishReason != genai.FinishReasonStop {
		return nil, &core.IncompleteError{Reason: finish, Partial: result.Content}
	}
	if result.Content == "" {
		return nil, &core.IncompleteError{Reason: "empty candidate"}
	}
	result.Done = true
	return result, nil
}
