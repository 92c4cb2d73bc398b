package chunker

import (
	"regexp"
	"strings"
)

// Chunker splits extracted text into bounded-size chunks with controlled
// sentence overlap.
type Chunker struct {
	maxChars         int
	overlapSentences int
	splitter         *regexp.Regexp
}

// New creates a chunker. Non-positive maxChars falls back to 1500; negative
// overlap falls back to 0.
func New(maxChars, overlapSentences int) *Chunker {
	if maxChars <= 0 {
		maxChars = 1500
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	return &Chunker{
		maxChars:         maxChars,
		overlapSentences: overlapSentences,
		splitter:         regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Chunk splits text into chunks. Each chunk holds whole sentences up to the
// size bound, carrying the configured number of trailing sentences into the
// next chunk. A single sentence longer than the bound becomes its own chunk.
func (c *Chunker) Chunk(text string) []string {
	sentences := c.splitter.FindAllString(text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		end := i
		length := 0
		for end < len(sentences) {
			next := len(sentences[end])
			if end > i {
				next++ // joining space
			}
			if length+next > c.maxChars && end > i {
				break
			}
			length += next
			end++
		}

		chunks = append(chunks, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}

		next := end - c.overlapSentences
		if next <= i {
			next = end // overlap must not stall progress
		}
		i = next
	}
	return chunks
}
