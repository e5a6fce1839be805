package tools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finbot/internal/domain"
	"finbot/internal/llm"
)

type stubReasoner struct {
	calls    []llm.ChatRequest
	response string
}

func (s *stubReasoner) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.Message, error) {
	s.calls = append(s.calls, *req)
	return &llm.Message{Role: "assistant", Content: s.response}, nil
}

func (s *stubReasoner) Model() string { return "test-model" }

type stubExtractor struct {
	pages []string
	err   error
}

func (s *stubExtractor) ExtractPages(ctx context.Context, pdf []byte) ([]string, error) {
	return s.pages, s.err
}

func pdfServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4 fake"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSummarizeSmallDocumentSinglePass(t *testing.T) {
	srv := pdfServer(t)
	reasoner := &stubReasoner{response: "final summary"}
	exec := NewSummarizeExecutor(NewFetcher(), &stubExtractor{pages: []string{"page one text", "page two text"}}, reasoner, testLogger())

	out, err := exec.Execute(context.Background(), map[string]interface{}{"pdf_url": srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, ok := out.(map[string]interface{})
	if !ok || result["summary"] != "final summary" {
		t.Errorf("unexpected result: %v", out)
	}
	if len(reasoner.calls) != 1 {
		t.Errorf("expected a single model pass, got %d", len(reasoner.calls))
	}
	prompt := reasoner.calls[0].Messages[1].Content
	if !strings.Contains(prompt, "page one text") || !strings.Contains(prompt, "page two text") {
		t.Error("expected both pages in the summarization prompt")
	}
}

func TestSummarizeLargeDocumentRollsBuffer(t *testing.T) {
	// Three pages large enough that the second cannot join the first
	// inside the token budget, forcing intermediate collapse passes.
	hugePage := strings.Repeat("w ", 120_000)
	srv := pdfServer(t)
	reasoner := &stubReasoner{response: "partial"}
	exec := NewSummarizeExecutor(NewFetcher(), &stubExtractor{pages: []string{hugePage, hugePage, hugePage}}, reasoner, testLogger())

	_, err := exec.Execute(context.Background(), map[string]interface{}{"pdf_url": srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(reasoner.calls) < 3 {
		t.Fatalf("expected intermediate passes plus a final pass, got %d calls", len(reasoner.calls))
	}
	// Every intermediate pass seeds the next buffer with its summary.
	lastPrompt := reasoner.calls[len(reasoner.calls)-1].Messages[1].Content
	if !strings.Contains(lastPrompt, "Summary of the document so far") {
		t.Error("expected final pass to carry the rolled-up summary")
	}
}

func TestSummarizeAllPagesEmpty(t *testing.T) {
	srv := pdfServer(t)
	exec := NewSummarizeExecutor(NewFetcher(), &stubExtractor{pages: []string{"", "  \n "}}, &stubReasoner{}, testLogger())

	_, err := exec.Execute(context.Background(), map[string]interface{}{"pdf_url": srv.URL})
	if !errors.Is(err, domain.ErrOcrEmptyResult) {
		t.Errorf("expected ErrOcrEmptyResult, got %v", err)
	}
}

func TestSummarizeMissingURL(t *testing.T) {
	exec := NewSummarizeExecutor(NewFetcher(), &stubExtractor{}, &stubReasoner{}, testLogger())

	_, err := exec.Execute(context.Background(), map[string]interface{}{})
	if !errors.Is(err, domain.ErrMalformedArguments) {
		t.Errorf("expected ErrMalformedArguments, got %v", err)
	}
}
