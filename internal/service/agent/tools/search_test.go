package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"finbot/internal/domain"
	"finbot/internal/domain/models"
)

type fakeEmbedder struct {
	embedded string
	err      error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.embedded = text
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.5, 0.5}, nil
}

type fakeChunkRepo struct {
	gotThreshold float64
	gotLimit     int
	matches      []models.ChunkMatch
}

func (f *fakeChunkRepo) ReplaceForDocument(ctx context.Context, docID string, chunks []models.Chunk) error {
	return nil
}

func (f *fakeChunkRepo) SearchSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]models.ChunkMatch, error) {
	f.gotThreshold = threshold
	f.gotLimit = limit
	return f.matches, nil
}

func TestSearchExecutorHappyPath(t *testing.T) {
	embedder := &fakeEmbedder{}
	repo := &fakeChunkRepo{matches: []models.ChunkMatch{
		{Body: "pension revision clause", Similarity: 0.91, GrNo: "GR/2024/9"},
	}}
	exec := NewSearchExecutor(embedder, repo, testLogger())

	out, err := exec.Execute(context.Background(), map[string]interface{}{"content": "pension revision"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if embedder.embedded != "pension revision" {
		t.Errorf("expected query text embedded, got %q", embedder.embedded)
	}
	if repo.gotThreshold != 0.78 || repo.gotLimit != 10 {
		t.Errorf("unexpected search bounds: threshold=%v limit=%d", repo.gotThreshold, repo.gotLimit)
	}
	result := out.(map[string]interface{})
	if result["count"] != 1 {
		t.Errorf("unexpected count: %v", result["count"])
	}
}

func TestSearchExecutorRejectsBadArguments(t *testing.T) {
	exec := NewSearchExecutor(&fakeEmbedder{}, &fakeChunkRepo{}, testLogger())

	for _, input := range []map[string]interface{}{
		{},
		{"content": ""},
		{"content": 42},
	} {
		if _, err := exec.Execute(context.Background(), input); !errors.Is(err, domain.ErrMalformedArguments) {
			t.Errorf("input %v: expected ErrMalformedArguments, got %v", input, err)
		}
	}
}

type fakeDocRepo struct {
	gotFilter *models.StructuredFilter
	gotLimit  int
	docs      []models.Document
}

func (f *fakeDocRepo) Create(ctx context.Context, doc *models.Document) error { return nil }
func (f *fakeDocRepo) GetByPdfURL(ctx context.Context, pdfURL string) (*models.Document, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeDocRepo) Count(ctx context.Context) (int, error) { return len(f.docs), nil }

func (f *fakeDocRepo) Search(ctx context.Context, filter *models.StructuredFilter, limit int) ([]models.Document, error) {
	f.gotFilter = filter
	f.gotLimit = limit
	return f.docs, nil
}

func TestLookupExecutorTranslatesAndSearches(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	repo := &fakeDocRepo{docs: []models.Document{
		{GrNo: "GR/2024/1", Branch: "A Branch", SubjectEn: "Pay revision", PdfURL: "https://example.com/1.pdf", Date: &date},
	}}
	exec := NewLookupExecutor(repo, testLogger())

	out, err := exec.Execute(context.Background(), map[string]interface{}{
		"branch": "A Branch",
		"date":   "2024-03",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.gotFilter == nil || repo.gotFilter.Branch == nil || *repo.gotFilter.Branch != "A Branch" {
		t.Errorf("expected branch predicate, got %+v", repo.gotFilter)
	}
	if repo.gotFilter.DateFrom == nil || !repo.gotFilter.DateFrom.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected month lower bound, got %v", repo.gotFilter.DateFrom)
	}
	if repo.gotLimit != 50 {
		t.Errorf("expected result cap 50, got %d", repo.gotLimit)
	}

	result := out.(map[string]interface{})
	rows := result["documents"].([]documentRow)
	if len(rows) != 1 || rows[0].Date != "2024-03-05" {
		t.Errorf("unexpected rows: %+v", rows)
	}
}

func TestLookupExecutorRejectsUnknownField(t *testing.T) {
	exec := NewLookupExecutor(&fakeDocRepo{}, testLogger())

	_, err := exec.Execute(context.Background(), map[string]interface{}{"salary": "high"})
	var unsupported *domain.UnsupportedIntentError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedIntentError, got %v", err)
	}
	if unsupported.Field != "salary" {
		t.Errorf("expected offending field reported, got %q", unsupported.Field)
	}
}
