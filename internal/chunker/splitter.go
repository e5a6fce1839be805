// Package chunker splits extracted document text into bounded,
// overlapping chunks for embedding.
package chunker

import "strings"

// RecursiveSplitter splits text into chunks of at most chunkSize runes
// with chunkOverlap runes shared between neighbors. It prefers to break
// at the highest-priority separator that keeps pieces under the limit:
// paragraph breaks first, then line breaks, then sentence ends, and only
// as a last resort a hard cut inside a run of text.
type RecursiveSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewRecursiveSplitter creates a splitter. Overlap must be smaller than
// the chunk size; out-of-range values fall back to sane defaults.
func NewRecursiveSplitter(chunkSize, chunkOverlap int) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 10
	}
	return &RecursiveSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   []string{"\n\n", "\n", "."},
	}
}

// Split returns the chunk bodies for the given text, in document order.
// Whitespace-only pieces are dropped.
func (s *RecursiveSplitter) Split(text string) []string {
	pieces := s.splitRecursive([]rune(text), s.separators)

	var chunks []string
	for _, piece := range pieces {
		trimmed := strings.TrimSpace(piece)
		if trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks
}

// splitRecursive splits text on the first separator whose pieces can be
// merged back under the size limit, recursing with the remaining
// separators for any piece that is still too large.
func (s *RecursiveSplitter) splitRecursive(text []rune, separators []string) []string {
	if len(text) <= s.chunkSize {
		if len(text) == 0 {
			return nil
		}
		return []string{string(text)}
	}

	if len(separators) == 0 {
		return s.hardSplit(text)
	}

	sep := separators[0]
	parts := strings.Split(string(text), sep)
	if len(parts) == 1 {
		// Separator absent, try the next one.
		return s.splitRecursive(text, separators[1:])
	}

	// Re-attach the separator so no text is lost at the joins.
	segments := make([]string, 0, len(parts))
	for i, part := range parts {
		if i < len(parts)-1 {
			part += sep
		}
		if part != "" {
			segments = append(segments, part)
		}
	}

	var final []string
	for _, seg := range segments {
		runes := []rune(seg)
		if len(runes) <= s.chunkSize {
			final = append(final, seg)
		} else {
			final = append(final, s.splitRecursive(runes, separators[1:])...)
		}
	}

	return s.merge(final)
}

// merge greedily packs adjacent small pieces into chunks close to the
// size limit, carrying the configured overlap between chunks.
func (s *RecursiveSplitter) merge(pieces []string) []string {
	var (
		chunks  []string
		current []rune
	)

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, string(current))
			// Seed the next chunk with the tail of this one.
			if s.chunkOverlap > 0 && len(current) > s.chunkOverlap {
				tail := make([]rune, s.chunkOverlap)
				copy(tail, current[len(current)-s.chunkOverlap:])
				current = tail
			} else {
				current = nil
			}
		}
	}

	for _, piece := range pieces {
		runes := []rune(piece)
		if len(current) > 0 && len(current)+len(runes) > s.chunkSize {
			flush()
			if len(current)+len(runes) > s.chunkSize {
				// The overlap tail plus this piece would overflow;
				// start the chunk without the overlap.
				current = nil
			}
		}
		current = append(current, runes...)
	}
	if len(current) > 0 {
		chunks = append(chunks, string(current))
	}

	return chunks
}

// hardSplit cuts text into fixed windows with overlap. Last resort for
// text with none of the preferred separators.
func (s *RecursiveSplitter) hardSplit(text []rune) []string {
	step := s.chunkSize - s.chunkOverlap

	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.chunkSize
		if end >= len(text) {
			chunks = append(chunks, string(text[start:]))
			break
		}
		chunks = append(chunks, string(text[start:end]))
	}
	return chunks
}
