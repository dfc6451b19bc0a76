// Package claude implements core.LLMProvider over the Anthropic Messages API.
package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vadimtrunov/MovieMate/internal/core"
	"github.com/vadimtrunov/MovieMate/internal/httpclient"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
	apiVersion       = "2023-06-01"
)

// Client implements core.LLMProvider for the Claude Messages API.
type Client struct {
	endpoint  string
	apiKey    string
	model     string
	maxTokens int
	http      *httpclient.Client
	logger    *slog.Logger
}

var _ core.LLMProvider = (*Client)(nil)

// New creates a Claude client. model and baseURL fall back to defaults when empty.
func New(apiKey, model, baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" {
		model = defaultModel
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		endpoint:  strings.TrimRight(baseURL, "/") + "/v1/messages",
		apiKey:    apiKey,
		model:     model,
		maxTokens: defaultMaxTokens,
		http:      httpclient.New(httpclient.DefaultConfig(), logger),
		logger:    logger,
	}
}

// Chat sends the conversation with the tool declarations and returns either
// text or a tool call.
func (c *Client) Chat(ctx context.Context, messages []core.Message, tools []core.Tool) (*core.Response, error) {
	system, msgs := convertMessages(messages)
	if len(msgs) == 0 {
		return nil, fmt.Errorf("claude: no user message to send")
	}

	body := messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  msgs,
	}
	if len(tools) > 0 {
		body.Tools = convertTools(tools)
		body.ToolChoice = &toolChoice{Type: "auto", DisableParallelToolUse: true}
	}

	var resp messagesResponse
	if err := c.post(ctx, body, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug("claude response",
		slog.String("model", resp.Model),
		slog.String("stop_reason", resp.StopReason),
		slog.Int("input_tokens", resp.Usage.InputTokens),
		slog.Int("output_tokens", resp.Usage.OutputTokens),
	)
	return parseResponse(&resp)
}

// Name returns "claude".
func (c *Client) Name() string { return "claude" }

// Close is a no-op; the client holds no resources beyond pooled connections.
func (c *Client) Close() error { return nil }

func (c *Client) post(ctx context.Context, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(payload)), nil
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("claude request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return decodeAPIError(resp.StatusCode, data)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
