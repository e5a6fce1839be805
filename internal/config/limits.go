package config

import "time"

const (
	// ChunkSize is the target chunk length in characters for ingested
	// documents. Carried over from the corpus that was indexed with
	// 500-character chunks; changing it requires re-ingesting everything.
	ChunkSize = 500

	// ChunkOverlap is the number of characters shared between adjacent
	// chunks so that sentences split at a boundary stay retrievable.
	ChunkOverlap = 50

	// EmbeddingDim is the corpus-wide embedding dimensionality
	// (text-embedding-3-small). Every chunk row must carry a vector of
	// exactly this length; a mismatch is a fatal ingestion error.
	EmbeddingDim = 1536

	// MaxAgentRounds bounds the orchestrator loop. The model normally
	// terminates by answering; this converts a runaway tool loop into a
	// reported failure instead of an infinite conversation.
	MaxAgentRounds = 10

	// AgentTemperature keeps tool selection near-deterministic.
	AgentTemperature = 0.1

	// MatchThreshold is the minimum cosine similarity for semantic
	// search results.
	MatchThreshold = 0.78

	// MatchCount caps the number of semantic search results per query.
	MatchCount = 10

	// MaxLookupResults caps structured lookup result sets handed back
	// to the model.
	MaxLookupResults = 50

	// MaxSummaryTokens bounds the text fed to a single summarization
	// call. Pages beyond the bound are summarized in parts and the
	// partial summaries combined in a final pass.
	MaxSummaryTokens = 100_000

	// MaxMessageLength is the maximum length of a single user message.
	MaxMessageLength = 4000

	// LLMTimeout is the per-call timeout for the reasoning service.
	LLMTimeout = 120 * time.Second

	// EmbeddingTimeout is the per-call timeout for the embedding service.
	EmbeddingTimeout = 30 * time.Second

	// OCRTimeout covers rasterization plus OCR of one page image.
	OCRTimeout = 120 * time.Second

	// FetchTimeout is the timeout for downloading one PDF.
	FetchTimeout = 60 * time.Second
)
