package core

import (
	"context"
	"fmt"
)

// LLMProvider defines the interface for Large Language Model providers (Gemini, Claude)
type LLMProvider interface {
	// Chat sends the conversation and tool schema, and receives either text or tool calls
	Chat(ctx context.Context, messages []Message, tools []Tool) (*Response, error)

	// Name returns the provider name (e.g., "gemini", "claude")
	Name() string

	// Close releases any resources held by the provider
	Close() error
}

// Frontend defines the interface for user-facing frontends (TUI, Telegram)
type Frontend interface {
	// Start starts the frontend and blocks until ctx is canceled
	Start(ctx context.Context) error

	// Stop stops the frontend
	Stop(ctx context.Context) error

	// Name returns the frontend name (e.g., "tui", "telegram")
	Name() string
}

// Message represents a chat message
type Message struct {
	Role         string     // "user", "assistant", "system"
	Content      string     // The message content
	ToolCalls    []ToolCall // Tool calls made by the assistant
	ToolResultID string     // If non-empty, this message is a tool result for this call ID
	ToolName     string     // Name of the tool that produced a tool result
	IsError      bool       // Whether the tool result indicates an error
}

// Tool represents a tool that can be called by the LLM
type Tool struct {
	Name        string         // Tool name
	Description string         // What the tool does
	Parameters  map[string]any // JSON schema for parameters
}

// ToolCall represents a tool invocation
type ToolCall struct {
	ID        string         // Unique call ID
	Name      string         // Tool name
	Arguments map[string]any // Tool arguments, loosely typed as emitted by the model
}

// Response represents an LLM response
type Response struct {
	Content    string     // Text response
	ToolCalls  []ToolCall // Any tool calls requested
	StopReason string     // Provider-specific finish reason
	Done       bool       // Whether the model finished its turn normally
}

// IncompleteError reports a model reply that carries neither usable text nor a
// tool call: no candidates, blocked content or truncated generation.
// Partial holds whatever text was produced before generation stopped.
type IncompleteError struct {
	Reason  string
	Partial string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("incomplete model response: %s", e.Reason)
}
