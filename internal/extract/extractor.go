package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/veridoc/veridoc/internal/llm"
	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/store"
)

const extractionPromptTemplate = `Extract the factual statements contained in the following text.
Return a JSON list of strings, one atomic factual statement per entry.
Respond with the JSON list only, no extra commentary.

Text:
%s`

// Extractor turns chunks into lists of atomic factual statements, one
// completion call per distinct chunk text.
type Extractor struct {
	completer llm.Completer
	store     store.Store
	model     string
}

// NewExtractor creates a statement extractor
func NewExtractor(completer llm.Completer, st store.Store, model string) *Extractor {
	return &Extractor{completer: completer, store: st, model: model}
}

// Run annotates every chunk of an area that lacks statements. Chunks sharing
// identical text collapse to one extraction call and get the same statement
// list, matched back by chunk id. A chunk whose response cannot be parsed is
// skipped, never fatal. Returns the number of chunks annotated.
func (e *Extractor) Run(ctx context.Context, area model.CorpusArea) (int, error) {
	chunks, err := e.store.Chunks(ctx, area)
	if err != nil {
		return 0, fmt.Errorf("list chunks: %w", err)
	}

	// Collapse duplicates: one call per distinct text, results fan out to
	// every chunk id carrying that text. Chunks already annotated are left
	// untouched.
	byText := make(map[string][]int64)
	var order []string
	for _, c := range chunks {
		if c.Statements != nil {
			continue
		}
		if _, seen := byText[c.Text]; !seen {
			order = append(order, c.Text)
		}
		byText[c.Text] = append(byText[c.Text], c.ID)
	}

	annotated := 0
	for _, text := range order {
		statements, err := e.extractOne(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return annotated, ctx.Err()
			}
			log.Warn().Err(err).Int("chunks", len(byText[text])).Msg("statement extraction failed, skipping chunk")
			continue
		}

		for _, id := range byText[text] {
			if err := e.store.SetStatements(ctx, area, id, statements); err != nil {
				return annotated, fmt.Errorf("store statements for chunk %d: %w", id, err)
			}
			annotated++
		}
	}
	return annotated, nil
}

func (e *Extractor) extractOne(ctx context.Context, text string) ([]string, error) {
	resp, err := e.completer.Complete(ctx, e.model, fmt.Sprintf(extractionPromptTemplate, text))
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}

	statements, err := ParseStatements(resp)
	if err != nil {
		return nil, err
	}
	return statements, nil
}

// ParseStatements parses a completion response as a JSON list of strings,
// tolerating triple-backtick fencing around the payload.
func ParseStatements(raw string) ([]string, error) {
	payload := StripFences(raw)

	var statements []string
	if err := json.Unmarshal([]byte(payload), &statements); err != nil {
		return nil, fmt.Errorf("response is not a JSON list of strings: %w", err)
	}
	return statements, nil
}

// StripFences removes a leading/trailing markdown code fence, with or
// without a language tag.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop the language tag on the opening fence line, if any
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		first := strings.TrimSpace(s[:i])
		if first == "" || !strings.ContainsAny(first, "[{") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
