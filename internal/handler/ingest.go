package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"finbot/internal/domain/models"
	"finbot/internal/httputil"
	"finbot/internal/service/ingest"
)

// IngestService is the slice of the pipeline the handler uses.
type IngestService interface {
	Ingest(ctx context.Context, doc *models.Document) (*ingest.Report, error)
}

// IngestHandler serves document indexing requests.
type IngestHandler struct {
	pipeline IngestService
	logger   *slog.Logger
}

func NewIngestHandler(pipeline IngestService, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{pipeline: pipeline, logger: logger}
}

type ingestRequest struct {
	GrNo      string `json:"gr_no"`
	Date      string `json:"date"`
	Branch    string `json:"branch"`
	SubjectEn string `json:"subject_en"`
	SubjectGu string `json:"subject_gu"`
	PdfURL    string `json:"pdf_url"`
}

func (r ingestRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.GrNo, validation.Required),
		validation.Field(&r.Branch, validation.Required),
		validation.Field(&r.PdfURL, validation.Required, is.URL),
		validation.Field(&r.Date, validation.Date("2006-01-02")),
	)
}

type ingestResponse struct {
	DocID      string `json:"doc_id"`
	ChunkCount int    `json:"chunk_count"`
	PageCount  int    `json:"page_count"`
}

// Ingest downloads, OCRs, and indexes one document.
// POST /api/documents/ingest
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondWithError(w, err)
		return
	}

	doc := &models.Document{
		GrNo:      req.GrNo,
		Branch:    req.Branch,
		SubjectEn: req.SubjectEn,
		SubjectGu: req.SubjectGu,
		PdfURL:    req.PdfURL,
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		doc.Date = &date
	}

	report, err := h.pipeline.Ingest(r.Context(), doc)
	if err != nil {
		h.logger.Error("ingestion failed", "pdf_url", req.PdfURL, "error", err)
		respondWithError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, ingestResponse{
		DocID:      report.DocID,
		ChunkCount: report.ChunkCount,
		PageCount:  report.PageCount,
	})
}
