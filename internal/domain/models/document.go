package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// Document is the metadata record for one ingested government resolution
// (GR). Immutable after creation except for enrichment.
type Document struct {
	ID        string     `json:"id" db:"id"`
	GrNo      string     `json:"gr_no" db:"gr_no"`
	Date      *time.Time `json:"date,omitempty" db:"date"`
	Branch    string     `json:"branch" db:"branch"`
	SubjectEn string     `json:"subject_en" db:"subject_en"`
	SubjectGu string     `json:"subject_gu" db:"subject_gu"`
	PdfURL    string     `json:"pdf_url" db:"pdf_url"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Chunk is a bounded-length slice of a document's extracted text, embedded
// and stored independently for retrieval. ChunkNo is 1-based and strictly
// increasing within a document.
type Chunk struct {
	DocID     string          `json:"doc_id" db:"doc_id"`
	ChunkNo   int             `json:"chunk_no" db:"chunk_no"`
	Body      string          `json:"body" db:"body"`
	Embedding pgvector.Vector `json:"-" db:"embedding"`
}

// ChunkMatch is a semantic search hit: a chunk plus its similarity score
// and the owning document's metadata.
type ChunkMatch struct {
	DocID      string  `json:"doc_id"`
	ChunkNo    int     `json:"chunk_no"`
	Body       string  `json:"body"`
	Similarity float64 `json:"similarity"`
	GrNo       string  `json:"gr_no"`
	Branch     string  `json:"branch"`
	SubjectEn  string  `json:"subject_en"`
	PdfURL     string  `json:"pdf_url"`
}
