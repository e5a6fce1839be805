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
	"finbot/internal/utils"
)

// SummarizeExecutor produces a whole-document summary. Scanned GRs can
// run to hundreds of pages, so pages are folded into the summarization
// model in token-bounded batches: whenever the rolling buffer would
// exceed the budget, it is collapsed into a partial summary that seeds
// the next batch.
type SummarizeExecutor struct {
	fetcher   *Fetcher
	extractor PageExtractor
	reasoner  Reasoner
	logger    *slog.Logger
}

func NewSummarizeExecutor(fetcher *Fetcher, extractor PageExtractor, reasoner Reasoner, logger *slog.Logger) *SummarizeExecutor {
	return &SummarizeExecutor{fetcher: fetcher, extractor: extractor, reasoner: reasoner, logger: logger}
}

func (e *SummarizeExecutor) Execute(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	pdfURL, ok := input["pdf_url"].(string)
	if !ok || pdfURL == "" {
		return nil, fmt.Errorf("%w: pdf_url must be a non-empty string", domain.ErrMalformedArguments)
	}

	pages, err := e.extractText(ctx, pdfURL)
	if err != nil {
		return nil, err
	}

	summary, passes, err := e.rollingSummarize(ctx, pages)
	if err != nil {
		return nil, err
	}

	e.logger.Info("document summarized", "pdf_url", pdfURL, "pages", len(pages), "passes", passes)
	return map[string]interface{}{"summary": summary}, nil
}

func (e *SummarizeExecutor) extractText(ctx context.Context, pdfURL string) ([]string, error) {
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

	nonEmpty := 0
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return nil, domain.ErrOcrEmptyResult
	}
	Progress(ctx, fmt.Sprintf("Extracted text from %d of %d pages", nonEmpty, len(pages)))
	return pages, nil
}

// rollingSummarize folds pages into the model under the token budget and
// returns the final summary plus the number of model passes taken.
func (e *SummarizeExecutor) rollingSummarize(ctx context.Context, pages []string) (string, int, error) {
	var buffer strings.Builder
	passes := 0

	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}

		if buffer.Len() > 0 && utils.EstimateTokens(buffer.String())+utils.EstimateTokens(page) > config.MaxSummaryTokens {
			Progress(ctx, fmt.Sprintf("Summarizing pages up to %d...", i))
			partial, err := e.summarizeChunk(ctx, buffer.String(), true)
			if err != nil {
				return "", passes, err
			}
			passes++
			buffer.Reset()
			buffer.WriteString("Summary of the document so far:\n")
			buffer.WriteString(partial)
			buffer.WriteString("\n\n")
		}

		fmt.Fprintf(&buffer, "--- Page %d ---\n%s\n\n", i+1, page)
	}

	Progress(ctx, "Producing final summary...")
	summary, err := e.summarizeChunk(ctx, buffer.String(), false)
	if err != nil {
		return "", passes, err
	}
	passes++
	return summary, passes, nil
}

func (e *SummarizeExecutor) summarizeChunk(ctx context.Context, text string, partial bool) (string, error) {
	instruction := "Summarize this government resolution document. Preserve GR numbers, dates, amounts, and the names of schemes and departments."
	if partial {
		instruction = "Summarize this portion of a government resolution document. Preserve every GR number, date, amount, scheme name, and department so later portions can build on it."
	}

	msg, err := e.reasoner.Complete(ctx, &llm.ChatRequest{
		Model: e.reasoner.Model(),
		Messages: []llm.Message{
			{Role: models.RoleSystem, Content: instruction},
			{Role: models.RoleUser, Content: text},
		},
		Temperature: config.AgentTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return msg.Content, nil
}
