package tools

import (
	"context"

	"finbot/internal/llm"
)

// Reasoner is the slice of the chat client the capability executors need.
type Reasoner interface {
	Complete(ctx context.Context, req *llm.ChatRequest) (*llm.Message, error)
	Model() string
}

// Embedder produces the vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// PageExtractor turns a raw PDF into per-page text.
type PageExtractor interface {
	ExtractPages(ctx context.Context, pdf []byte) ([]string, error)
}
