package chunker

import (
	"strings"
	"testing"
)

func TestSplit_TextExactlyChunkSize(t *testing.T) {
	s := NewRecursiveSplitter(100, 10)
	text := strings.Repeat("a", 100)

	chunks := s.Split(text)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("chunk content altered: got %d runes, want %d", len(chunks[0]), len(text))
	}
}

func TestSplit_TwoChunksWithOverlap(t *testing.T) {
	// 2*chunkSize - overlap runes of separator-free text must produce
	// exactly two chunks sharing the overlap region.
	s := NewRecursiveSplitter(100, 10)
	text := strings.Repeat("a", 2*100-10)

	chunks := s.Split(text)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 100 {
		t.Errorf("first chunk length = %d, want 100", len(chunks[0]))
	}
	if len(chunks[1]) != 100 {
		t.Errorf("second chunk length = %d, want 100", len(chunks[1]))
	}
}

func TestSplit_EmptyAndWhitespaceOnly(t *testing.T) {
	s := NewRecursiveSplitter(100, 10)

	if got := s.Split(""); len(got) != 0 {
		t.Errorf("empty text: expected no chunks, got %d", len(got))
	}
	if got := s.Split("  \n\n \n  "); len(got) != 0 {
		t.Errorf("whitespace text: expected no chunks, got %d", len(got))
	}
}

func TestSplit_PrefersParagraphBreaks(t *testing.T) {
	s := NewRecursiveSplitter(50, 0)
	para1 := strings.Repeat("x", 40)
	para2 := strings.Repeat("y", 40)
	text := para1 + "\n\n" + para2

	chunks := s.Split(text)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[0], "x") || strings.Contains(chunks[0], "y") {
		t.Errorf("first chunk crossed the paragraph break: %q", chunks[0])
	}
	if !strings.HasPrefix(chunks[1], "y") {
		t.Errorf("second chunk should start at the second paragraph: %q", chunks[1])
	}
}

func TestSplit_FallsBackToSentenceBreaks(t *testing.T) {
	s := NewRecursiveSplitter(60, 0)
	text := strings.Repeat("p", 50) + "." + strings.Repeat("q", 50) + "."

	chunks := s.Split(text)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	for i, c := range chunks {
		if len([]rune(c)) > 60 {
			t.Errorf("chunk %d exceeds size limit: %d runes", i, len([]rune(c)))
		}
	}
}

func TestSplit_SmallPiecesMergeIntoOneChunk(t *testing.T) {
	s := NewRecursiveSplitter(500, 50)
	text := "First paragraph.\n\nSecond paragraph.\n\nThird paragraph."

	chunks := s.Split(text)

	if len(chunks) != 1 {
		t.Fatalf("expected small paragraphs merged into 1 chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0], "Third paragraph") {
		t.Errorf("merged chunk lost content: %q", chunks[0])
	}
}

func TestSplit_ChunksNeverExceedSize(t *testing.T) {
	s := NewRecursiveSplitter(120, 20)
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString(strings.Repeat("w", 35))
		if i%7 == 0 {
			b.WriteString("\n\n")
		} else if i%3 == 0 {
			b.WriteString("\n")
		} else {
			b.WriteString(". ")
		}
	}

	for i, c := range s.Split(b.String()) {
		if n := len([]rune(c)); n > 120 {
			t.Errorf("chunk %d has %d runes, limit 120", i, n)
		}
	}
}
