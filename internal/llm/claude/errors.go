package claude

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-200 reply from the Messages API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("claude API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("claude API error %d: %s: %s", e.StatusCode, e.Type, e.Message)
}

// BlockedError reports a reply the model declined to produce.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked: %s", e.Reason)
}

func decodeAPIError(status int, body []byte) *APIError {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		return &APIError{StatusCode: status, Type: env.Error.Type, Message: env.Error.Message}
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}
