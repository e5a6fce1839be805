package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"finbot/internal/domain"
	"finbot/internal/domain/models"
	"finbot/internal/domain/repositories"
)

// PostgresChunkRepository implements the ChunkRepository interface using
// PostgreSQL with the pgvector extension.
type PostgresChunkRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewChunkRepository creates a new PostgresChunkRepository
func NewChunkRepository(config *RepositoryConfig) repositories.ChunkRepository {
	return &PostgresChunkRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// ReplaceForDocument atomically replaces the document's chunk set. The
// delete and all inserts run on the transaction carried in ctx (or on a
// single executor when none is present), so a failure at any row leaves
// no partial chunk set behind.
func (r *PostgresChunkRepository) ReplaceForDocument(ctx context.Context, docID string, chunks []models.Chunk) error {
	executor := GetExecutor(ctx, r.pool)

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE doc_id = $1`, r.tables.Chunks)
	if _, err := executor.Exec(ctx, deleteQuery, docID); err != nil {
		return fmt.Errorf("delete existing chunks: %w", err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (doc_id, chunk_no, body, embedding)
		VALUES ($1, $2, $3, $4)
	`, r.tables.Chunks)

	for _, chunk := range chunks {
		if _, err := executor.Exec(ctx, insertQuery,
			docID,
			chunk.ChunkNo,
			chunk.Body,
			chunk.Embedding,
		); err != nil {
			if IsPgForeignKeyError(err) {
				return fmt.Errorf("document %s: %w", docID, domain.ErrNotFound)
			}
			return fmt.Errorf("insert chunk %d: %w", chunk.ChunkNo, err)
		}
	}

	r.logger.Debug("chunks replaced", "doc_id", docID, "count", len(chunks))
	return nil
}

// SearchSimilar returns chunks whose cosine similarity to the query
// embedding meets the threshold, joined to document metadata, best first.
func (r *PostgresChunkRepository) SearchSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]models.ChunkMatch, error) {
	query := fmt.Sprintf(`
		SELECT c.doc_id, c.chunk_no, c.body,
		       1 - (c.embedding <=> $1) AS similarity,
		       d.gr_no, d.branch, d.subject_en, d.pdf_url
		FROM %s c
		JOIN %s d ON d.id = c.doc_id
		WHERE 1 - (c.embedding <=> $1) >= $2
		ORDER BY c.embedding <=> $1
		LIMIT $3
	`, r.tables.Chunks, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, pgvector.NewVector(embedding), threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var matches []models.ChunkMatch
	for rows.Next() {
		var m models.ChunkMatch
		if err := rows.Scan(
			&m.DocID,
			&m.ChunkNo,
			&m.Body,
			&m.Similarity,
			&m.GrNo,
			&m.Branch,
			&m.SubjectEn,
			&m.PdfURL,
		); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	return matches, nil
}
