// Package gemini implements core.LLMProvider on the Google GenAI SDK.
package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/vadimtrunov/MovieMate/internal/core"
)

const defaultModel = "gemini-2.5-flash"

// Client implements core.LLMProvider for the Gemini API.
type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

var _ core.LLMProvider = (*Client)(nil)

// New creates a Gemini client. baseURL is optional and overrides the API endpoint.
func New(ctx context.Context, apiKey, model, baseURL string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" {
		model = defaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: client, model: model, logger: logger}, nil
}

// Chat sends the conversation with the tool declarations and returns either
// text or function calls.
func (c *Client) Chat(ctx context.Context, messages []core.Message, tools []core.Tool) (*core.Response, error) {
	system, contents := convertMessages(messages)
	if len(contents) == 0 {
		return nil, fmt.Errorf("gemini: no user message to send")
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: system,
		SafetySettings:    safetySettings(),
	}
	if len(tools) > 0 {
		config.Tools = convertTools(tools)
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}

	if resp.UsageMetadata != nil {
		c.logger.Debug("gemini response",
			slog.String("model", c.model),
			slog.Int("input_tokens", int(resp.UsageMetadata.PromptTokenCount)),
			slog.Int("output_tokens", int(resp.UsageMetadata.CandidatesTokenCount)),
		)
	}

	return parseResponse(resp)
}

// Name returns "gemini".
func (c *Client) Name() string { return "gemini" }

// Close is a no-op; the SDK client holds no resources that need releasing.
func (c *Client) Close() error { return nil }

// safetySettings disables blocking for every configurable harm category.
// Movie synopses routinely mention violence and crime.
func safetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, len(categories))
	for i, category := range categories {
		settings[i] = &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThresholdBlockNone,
		}
	}
	return settings
}
