package tools

import (
	"context"
	"fmt"
	"log/slog"

	"finbot/internal/config"
	"finbot/internal/domain/models"
	"finbot/internal/domain/repositories"
	"finbot/internal/service/query"
)

// LookupExecutor answers metadata questions (GR number, branch, date
// range, subject keywords) from the structured document index.
type LookupExecutor struct {
	documents repositories.DocumentRepository
	logger    *slog.Logger
}

func NewLookupExecutor(documents repositories.DocumentRepository, logger *slog.Logger) *LookupExecutor {
	return &LookupExecutor{documents: documents, logger: logger}
}

// documentRow is the JSON shape returned per matched document.
type documentRow struct {
	GrNo      string `json:"gr_no"`
	Date      string `json:"date,omitempty"`
	Branch    string `json:"branch"`
	SubjectEn string `json:"subject_en"`
	SubjectGu string `json:"subject_gu,omitempty"`
	PdfURL    string `json:"pdf_url"`
}

func (e *LookupExecutor) Execute(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	filter, err := query.Translate(input)
	if err != nil {
		return nil, err
	}

	docs, err := e.documents.Search(ctx, filter, config.MaxLookupResults)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}

	e.logger.Debug("lookup executed", "matches", len(docs))
	Progress(ctx, fmt.Sprintf("Found %d matching government resolutions", len(docs)))

	rows := make([]documentRow, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, toRow(d))
	}
	return map[string]interface{}{
		"count":     len(rows),
		"documents": rows,
	}, nil
}

func toRow(d models.Document) documentRow {
	row := documentRow{
		GrNo:      d.GrNo,
		Branch:    d.Branch,
		SubjectEn: d.SubjectEn,
		SubjectGu: d.SubjectGu,
		PdfURL:    d.PdfURL,
	}
	if d.Date != nil {
		row.Date = d.Date.Format("2006-01-02")
	}
	return row
}
