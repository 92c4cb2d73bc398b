package chunker

import (
	"strings"
	"testing"
)

func TestChunker_EmptyInput(t *testing.T) {
	c := New(100, 1)

	if got := c.Chunk(""); got != nil {
		t.Errorf("Expected nil for empty input, got %v", got)
	}
	if got := c.Chunk("   \n\t  "); got != nil {
		t.Errorf("Expected nil for whitespace input, got %v", got)
	}
}

func TestChunker_SingleSentence(t *testing.T) {
	c := New(100, 1)

	chunks := c.Chunk("Water boils at 100 degrees Celsius.")
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "Water boils at 100 degrees Celsius." {
		t.Errorf("Unexpected chunk text: %q", chunks[0])
	}
}

func TestChunker_NoTerminatorFallsBackToWholeText(t *testing.T) {
	c := New(100, 0)

	chunks := c.Chunk("a fragment with no sentence terminator")
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "a fragment with no sentence terminator" {
		t.Errorf("Unexpected chunk text: %q", chunks[0])
	}
}

func TestChunker_RespectsSizeBound(t *testing.T) {
	c := New(50, 0)

	text := "First sentence here. Second sentence here. Third sentence here. Fourth sentence here."
	chunks := c.Chunk(text)
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 50 {
			t.Errorf("Chunk %d exceeds bound: %d chars", i, len(chunk))
		}
	}
}

func TestChunker_OversizedSentenceGetsOwnChunk(t *testing.T) {
	c := New(20, 0)

	long := strings.Repeat("word ", 20) + "end."
	chunks := c.Chunk("Short one. " + long)
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if !strings.HasSuffix(chunks[1], "end.") {
		t.Errorf("Expected oversized sentence intact, got %q", chunks[1])
	}
}

func TestChunker_SentenceOverlap(t *testing.T) {
	c := New(45, 1)

	chunks := c.Chunk("Alpha is first. Bravo is second. Charlie is third.")
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}

	// The last sentence of each chunk opens the next one
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		lastSentence := prev[strings.LastIndex(strings.TrimSuffix(prev, "."), ".")+1:]
		lastSentence = strings.TrimSpace(lastSentence)
		if !strings.HasPrefix(chunks[i], lastSentence) {
			t.Errorf("Chunk %d does not start with previous chunk's last sentence:\nprev: %q\nnext: %q", i, prev, chunks[i])
		}
	}
}

func TestChunker_OverlapCannotStall(t *testing.T) {
	// Overlap larger than what fits in a chunk must still make progress
	c := New(25, 5)

	text := "One sentence here. Two sentence here. Three sentence here. Four sentence here."
	chunks := c.Chunk(text)
	if len(chunks) == 0 {
		t.Fatal("Expected chunks")
	}
	if len(chunks) > 20 {
		t.Fatalf("Suspiciously many chunks (%d), overlap likely stalled progress", len(chunks))
	}
	if !strings.Contains(chunks[len(chunks)-1], "Four") {
		t.Errorf("Expected final chunk to reach the end, got %q", chunks[len(chunks)-1])
	}
}
