package tools

import (
	"context"
	"fmt"
	"log/slog"

	"finbot/internal/config"
	"finbot/internal/domain"
	"finbot/internal/domain/repositories"
)

// SearchExecutor answers content questions by embedding the query and
// running nearest-neighbor retrieval over the chunk index.
type SearchExecutor struct {
	embedder Embedder
	chunks   repositories.ChunkRepository
	logger   *slog.Logger
}

func NewSearchExecutor(embedder Embedder, chunks repositories.ChunkRepository, logger *slog.Logger) *SearchExecutor {
	return &SearchExecutor{embedder: embedder, chunks: chunks, logger: logger}
}

type chunkRow struct {
	Body       string  `json:"content"`
	Similarity float64 `json:"similarity"`
	GrNo       string  `json:"gr_no"`
	Branch     string  `json:"branch"`
	SubjectEn  string  `json:"subject_en"`
	PdfURL     string  `json:"pdf_url"`
}

func (e *SearchExecutor) Execute(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	queryText, ok := input["content"].(string)
	if !ok || queryText == "" {
		return nil, fmt.Errorf("%w: content must be a non-empty string", domain.ErrMalformedArguments)
	}

	embedding, err := e.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := e.chunks.SearchSimilar(ctx, embedding, config.MatchThreshold, config.MatchCount)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	e.logger.Debug("semantic search executed", "matches", len(matches))
	Progress(ctx, fmt.Sprintf("Retrieved %d relevant passages", len(matches)))

	rows := make([]chunkRow, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, chunkRow{
			Body:       m.Body,
			Similarity: m.Similarity,
			GrNo:       m.GrNo,
			Branch:     m.Branch,
			SubjectEn:  m.SubjectEn,
			PdfURL:     m.PdfURL,
		})
	}
	return map[string]interface{}{
		"count":   len(rows),
		"matches": rows,
	}, nil
}
