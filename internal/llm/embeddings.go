package llm

import (
	"context"
	"fmt"
	"log/slog"

	"finbot/internal/config"
)

// EmbeddingClient produces fixed-dimension embeddings through an
// OpenAI-compatible embeddings endpoint. The dimensionality is a
// corpus-wide constant: a response of any other length is an error, not
// something to pad or truncate.
type EmbeddingClient struct {
	client    *Client
	model     string
	dimension int
}

// EmbeddingConfig configures the embedding client.
type EmbeddingConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
	Logger    *slog.Logger
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage Usage `json:"usage"`
}

// NewEmbeddingClient creates an embeddings client.
func NewEmbeddingClient(cfg EmbeddingConfig) (*EmbeddingClient, error) {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = config.EmbeddingDim
	}

	inner, err := NewClient(ClientConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: config.EmbeddingTimeout,
		Logger:  cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &EmbeddingClient{
		client:    inner,
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}, nil
}

// Dimension returns the fixed embedding dimensionality.
func (e *EmbeddingClient) Dimension() int {
	return e.dimension
}

// Embed returns the embedding vector for the given text.
func (e *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	req := embeddingRequest{Model: e.model, Input: text}

	var resp embeddingResponse
	if err := e.client.post(ctx, "/embeddings", req, &resp); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embed: empty response")
	}

	vec := resp.Data[0].Embedding
	if len(vec) != e.dimension {
		return nil, fmt.Errorf("embed: dimension mismatch: got %d, want %d", len(vec), e.dimension)
	}
	return vec, nil
}
