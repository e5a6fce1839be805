package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finbot/internal/config"
	"finbot/internal/domain"
	"finbot/internal/domain/models"
	"finbot/internal/llm"
)

// QAExecutor answers a question against one specific document: the PDF
// is fetched, read in full, and handed to the model together with the
// question. Unlike semantic search this sees the whole document, so it
// handles questions about clauses that never made it into the index.
type QAExecutor struct {
	fetcher   *Fetcher
	extractor PageExtractor
	reasoner  Reasoner
	logger    *slog.Logger
}

func NewQAExecutor(fetcher *Fetcher, extractor PageExtractor, reasoner Reasoner, logger *slog.Logger) *QAExecutor {
	return &QAExecutor{fetcher: fetcher, extractor: extractor, reasoner: reasoner, logger: logger}
}

func (e *QAExecutor) Execute(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	pdfURL, ok := input["pdf_url"].(string)
	if !ok || pdfURL == "" {
		return nil, fmt.Errorf("%w: pdf_url must be a non-empty string", domain.ErrMalformedArguments)
	}
	question, ok := input["query"].(string)
	if !ok || question == "" {
		return nil, fmt.Errorf("%w: query must be a non-empty string", domain.ErrMalformedArguments)
	}

	Progress(ctx, "Downloading document...")
	pdf, err := e.fetcher.Fetch(ctx, pdfURL)
	if err != nil {
		return nil, err
	}

	Progress(ctx, "Reading scanned pages...")
	pages, err := e.extractor.ExtractPages(ctx, pdf)
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}

	text := strings.TrimSpace(strings.Join(pages, "\n"))
	if text == "" {
		return nil, domain.ErrOcrEmptyResult
	}

	Progress(ctx, "Answering from document text...")
	msg, err := e.reasoner.Complete(ctx, &llm.ChatRequest{
		Model: e.reasoner.Model(),
		Messages: []llm.Message{
			{Role: models.RoleSystem, Content: "Answer the question using only the provided government resolution text. If the text does not contain the answer, say so."},
			{Role: models.RoleUser, Content: fmt.Sprintf("Document text:\n%s\n\nQuestion: %s", text, question)},
		},
		Temperature: config.AgentTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("answer from document: %w", err)
	}

	e.logger.Info("document question answered", "pdf_url", pdfURL, "pages", len(pages))
	return map[string]interface{}{"answer": msg.Content}, nil
}
