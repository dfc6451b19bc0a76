package gemini

import (
	"context"
	"slices"
	"strings"
)

// ModelInfo describes a model usable for chat.
type ModelInfo struct {
	Name        string
	DisplayName string
	Description string
}

// ListModels returns the models that support generateContent.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var models []ModelInfo
	for m, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, wrapError(err)
		}
		if !slices.Contains(m.SupportedActions, "generateContent") {
			continue
		}
		models = append(models, ModelInfo{
			Name:        strings.TrimPrefix(m.Name, "models/"),
			DisplayName: m.DisplayName,
			Description: m.Description,
		})
	}
	return models, nil
}
