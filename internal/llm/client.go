package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"finbot/internal/config"
)

// Client talks to an OpenAI-compatible API over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	chatModel  string
	httpClient *http.Client
	maxRetries int
	logger     *slog.Logger
}

// ClientConfig configures the OpenAI-compatible client.
type ClientConfig struct {
	BaseURL   string
	APIKey    string
	ChatModel string
	Timeout   time.Duration
	Logger    *slog.Logger
}

// NewClient creates a new chat-completions client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing API key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.LLMTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		chatModel:  cfg.ChatModel,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 3,
		logger:     logger,
	}, nil
}

// Model returns the configured chat model identifier.
func (c *Client) Model() string {
	return c.chatModel
}

// Complete sends a chat request and returns the first choice's message.
// If req.Model is empty the client's configured model is used.
func (c *Client) Complete(ctx context.Context, req *ChatRequest) (*Message, error) {
	if req.Model == "" {
		req.Model = c.chatModel
	}

	var resp ChatResponse
	if err := c.post(ctx, "/chat/completions", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	c.logger.Debug("chat completion",
		"model", resp.Model,
		"finish_reason", resp.Choices[0].FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return &resp.Choices[0].Message, nil
}

// post sends a JSON request and decodes the JSON response, retrying on
// 429 and 5xx responses with linear backoff.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("call %s: %w", path, err)
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, truncate(data, 200))
			c.logger.Warn("retryable LLM error", "path", path, "status", resp.StatusCode, "attempt", attempt)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, truncate(data, 200))
		}

		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	return lastErr
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
