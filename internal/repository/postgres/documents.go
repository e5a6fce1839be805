package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"finbot/internal/domain"
	"finbot/internal/domain/models"
	"finbot/internal/domain/repositories"
)

// PostgresDocumentRepository implements the DocumentRepository interface
// using PostgreSQL.
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new PostgresDocumentRepository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new document metadata record. The id is generated
// client-side so callers hold it even before the row is visible.
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, gr_no, date, branch, subject_en, subject_gu, pdf_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.ID,
		doc.GrNo,
		doc.Date,
		doc.Branch,
		doc.SubjectEn,
		doc.SubjectGu,
		doc.PdfURL,
	).Scan(&doc.CreatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("document for %s: %w", doc.PdfURL, domain.ErrConflict)
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByPdfURL resolves a document by its source URL.
func (r *PostgresDocumentRepository) GetByPdfURL(ctx context.Context, pdfURL string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, gr_no, date, branch, subject_en, subject_gu, pdf_url, created_at
		FROM %s
		WHERE pdf_url = $1
	`, r.tables.Documents)

	var doc models.Document
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, pdfURL).Scan(
		&doc.ID,
		&doc.GrNo,
		&doc.Date,
		&doc.Branch,
		&doc.SubjectEn,
		&doc.SubjectGu,
		&doc.PdfURL,
		&doc.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", pdfURL, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document by url: %w", err)
	}

	return &doc, nil
}

// Search returns documents matching the structured filter, newest first.
// The WHERE clause is assembled only from the filter's fixed predicate
// set with positional parameters; no caller-supplied SQL ever reaches
// the database.
func (r *PostgresDocumentRepository) Search(ctx context.Context, filter *models.StructuredFilter, limit int) ([]models.Document, error) {
	var (
		conditions []string
		args       []interface{}
	)

	addILike := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, "%"+*value+"%")
		conditions = append(conditions, fmt.Sprintf("%s ILIKE $%d", column, len(args)))
	}

	addILike("gr_no", filter.GrNo)
	addILike("branch", filter.Branch)
	addILike("subject_en", filter.SubjectEn)
	addILike("subject_gu", filter.SubjectGu)

	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("date < $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT id, gr_no, date, branch, subject_en, subject_gu, pdf_url, created_at
		FROM %s
		%s
		ORDER BY date DESC NULLS LAST, created_at DESC
		LIMIT $%d
	`, r.tables.Documents, where, len(args))

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(
			&doc.ID,
			&doc.GrNo,
			&doc.Date,
			&doc.Branch,
			&doc.SubjectEn,
			&doc.SubjectGu,
			&doc.PdfURL,
			&doc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}

	return docs, nil
}

// Count returns the total number of document records.
func (r *PostgresDocumentRepository) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.tables.Documents)

	var count int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}
