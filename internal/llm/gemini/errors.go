package gemini

import (
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// BlockedError reports a prompt rejected by content filtering.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked: %s", e.Reason)
}

// wrapError annotates SDK errors with the API status when there is one.
func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("gemini API error %d: %w", apiErr.Code, err)
	}
	return fmt.Errorf("gemini request: %w", err)
}
