package repositories

import (
	"context"

	"finbot/internal/domain/models"
)

// DocumentRepository provides structured read and insert access to
// document metadata records.
type DocumentRepository interface {
	// Create inserts a new document record. Returns domain.ErrConflict
	// if a record with the same pdf_url already exists.
	Create(ctx context.Context, doc *models.Document) error

	// GetByPdfURL resolves a document by its source URL. Returns
	// domain.ErrNotFound if absent.
	GetByPdfURL(ctx context.Context, pdfURL string) (*models.Document, error)

	// Search returns documents matching the structured filter, newest
	// first, capped at limit.
	Search(ctx context.Context, filter *models.StructuredFilter, limit int) ([]models.Document, error)

	// Count returns the total number of document records.
	Count(ctx context.Context) (int, error)
}

// ChunkRepository persists embedded chunks and serves nearest-neighbor
// similarity reads.
type ChunkRepository interface {
	// ReplaceForDocument atomically replaces the document's chunk set.
	// Either every chunk row lands or none do, which keeps re-ingestion
	// idempotent per pdf_url.
	ReplaceForDocument(ctx context.Context, docID string, chunks []models.Chunk) error

	// SearchSimilar returns chunks whose cosine similarity to the query
	// embedding is at least threshold, best first, capped at limit.
	SearchSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]models.ChunkMatch, error)
}
