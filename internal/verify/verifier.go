package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/veridoc/veridoc/internal/llm"
	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/search"
)

// DefaultEvidenceLimit is the fixed number of evidence chunks retrieved per
// statement.
const DefaultEvidenceLimit = 3

const verdictPromptTemplate = `You are fact-checking a single statement against evidence retrieved from a trusted corpus.

Statement:
%s

Evidence:
%s

Classify the statement:
- "verified" if the evidence supports it
- "contradicted" if the evidence contradicts it
- "unverified" if the evidence is insufficient to decide

Answer with exactly one of: verified, contradicted, unverified. No additional words.`

// Verifier classifies one statement at a time against the verified corpus
type Verifier struct {
	completer llm.Completer
	searcher  search.Searcher
	model     string
	limit     int
}

// NewVerifier creates a statement verifier
func NewVerifier(completer llm.Completer, searcher search.Searcher, model string, limit int) *Verifier {
	if limit <= 0 {
		limit = DefaultEvidenceLimit
	}
	return &Verifier{
		completer: completer,
		searcher:  searcher,
		model:     model,
		limit:     limit,
	}
}

// Verify retrieves evidence for a statement and classifies it. Evidence is
// fetched fresh for the exact statement text, never cached across runs. An
// unrecognized completion response collapses to unverified rather than
// erroring.
func (v *Verifier) Verify(ctx context.Context, statement string) (model.Statement, error) {
	result := model.Statement{Text: statement}

	evidence, err := v.searcher.Search(ctx, statement, v.limit)
	if err != nil {
		return result, fmt.Errorf("retrieve evidence: %w", err)
	}
	result.Evidence = evidence

	prompt := fmt.Sprintf(verdictPromptTemplate, statement, formatEvidence(evidence))
	resp, err := v.completer.Complete(ctx, v.model, prompt)
	if err != nil {
		return result, fmt.Errorf("verdict completion: %w", err)
	}

	result.Verdict = model.ParseVerdict(resp)
	return result, nil
}

func formatEvidence(evidence []model.Evidence) string {
	if len(evidence) == 0 {
		return "(no evidence found)"
	}

	var b strings.Builder
	for i, e := range evidence {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, e.SourcePath, e.Text)
	}
	return b.String()
}
