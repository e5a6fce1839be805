package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pgvector/pgvector-go"

	"finbot/internal/domain"
	"finbot/internal/domain/models"
	"finbot/internal/domain/repositories"
)

// Fetcher downloads a document's raw bytes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PageExtractor turns a raw PDF into per-page text.
type PageExtractor interface {
	ExtractPages(ctx context.Context, pdf []byte) ([]string, error)
}

// Embedder produces the vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Splitter breaks document text into overlapping chunks.
type Splitter interface {
	Split(text string) []string
}

// Report describes a completed ingestion run for one document.
type Report struct {
	DocID      string
	ChunkCount int
	PageCount  int
}

// Pipeline indexes one document end to end: download, OCR, chunk, embed,
// persist. Persistence is all-or-nothing and keyed on pdf_url, so
// re-running a document replaces its chunks instead of duplicating them.
type Pipeline struct {
	fetcher   Fetcher
	extractor PageExtractor
	splitter  Splitter
	embedder  Embedder
	documents repositories.DocumentRepository
	chunks    repositories.ChunkRepository
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

func NewPipeline(
	fetcher Fetcher,
	extractor PageExtractor,
	splitter Splitter,
	embedder Embedder,
	documents repositories.DocumentRepository,
	chunks repositories.ChunkRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		extractor: extractor,
		splitter:  splitter,
		embedder:  embedder,
		documents: documents,
		chunks:    chunks,
		txManager: txManager,
		logger:    logger,
	}
}

// Ingest indexes the document described by doc. The metadata record is
// created if this pdf_url has never been seen; otherwise the existing
// record is reused and its chunk set replaced.
func (p *Pipeline) Ingest(ctx context.Context, doc *models.Document) (*Report, error) {
	p.logger.Info("ingestion started", "pdf_url", doc.PdfURL, "gr_no", doc.GrNo)

	pdf, err := p.fetcher.Fetch(ctx, doc.PdfURL)
	if err != nil {
		return nil, &domain.IngestionAbortError{Stage: "fetch", Err: err}
	}

	pages, err := p.extractor.ExtractPages(ctx, pdf)
	if err != nil {
		return nil, &domain.IngestionAbortError{Stage: "ocr", Err: err}
	}
	text := strings.TrimSpace(strings.Join(pages, "\n"))
	if text == "" {
		return nil, &domain.IngestionAbortError{Stage: "ocr", Err: domain.ErrOcrEmptyResult}
	}
	p.logger.Info("text extracted", "pdf_url", doc.PdfURL, "pages", len(pages))

	pieces := p.splitter.Split(text)
	chunks := make([]models.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		embedding, err := p.embedder.Embed(ctx, piece)
		if err != nil {
			return nil, &domain.IngestionAbortError{Stage: "embed", Err: fmt.Errorf("chunk %d: %w", i, err)}
		}
		chunks = append(chunks, models.Chunk{
			ChunkNo:   i + 1,
			Body:      piece,
			Embedding: pgvector.NewVector(embedding),
		})
	}
	p.logger.Info("chunks embedded", "pdf_url", doc.PdfURL, "chunks", len(chunks))

	docID, err := p.resolveDocument(ctx, doc)
	if err != nil {
		return nil, &domain.IngestionAbortError{Stage: "persist", Err: err}
	}

	err = p.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return p.chunks.ReplaceForDocument(txCtx, docID, chunks)
	})
	if err != nil {
		return nil, &domain.IngestionAbortError{Stage: "persist", Err: err}
	}

	p.logger.Info("ingestion finished", "pdf_url", doc.PdfURL, "doc_id", docID, "chunks", len(chunks))
	return &Report{DocID: docID, ChunkCount: len(chunks), PageCount: len(pages)}, nil
}

// resolveDocument finds or creates the metadata record for doc's
// pdf_url and returns its id.
func (p *Pipeline) resolveDocument(ctx context.Context, doc *models.Document) (string, error) {
	existing, err := p.documents.GetByPdfURL(ctx, doc.PdfURL)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	if err := p.documents.Create(ctx, doc); err != nil {
		// A concurrent run may have created it between lookup and insert.
		if errors.Is(err, domain.ErrConflict) {
			existing, err = p.documents.GetByPdfURL(ctx, doc.PdfURL)
			if err != nil {
				return "", err
			}
			return existing.ID, nil
		}
		return "", err
	}
	return doc.ID, nil
}
