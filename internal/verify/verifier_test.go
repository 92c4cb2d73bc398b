package verify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/veridoc/veridoc/internal/model"
)

type stubSearcher struct {
	evidence []model.Evidence
	err      error
	queries  []string
	limits   []int
}

func (s *stubSearcher) Search(ctx context.Context, query string, limit int) ([]model.Evidence, error) {
	s.queries = append(s.queries, query)
	s.limits = append(s.limits, limit)
	return s.evidence, s.err
}

type stubCompleter struct {
	response string
	err      error
	prompts  []string
}

func (s *stubCompleter) Name() string { return "stub" }

func (s *stubCompleter) IsAvailable(ctx context.Context) bool { return true }

func (s *stubCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func TestVerifier_ClassifiesStatement(t *testing.T) {
	searcher := &stubSearcher{evidence: []model.Evidence{
		{SourcePath: "handbook_page_1-200.txt", Text: "Water boils at 100C at sea level."},
	}}
	completer := &stubCompleter{response: "verified"}
	v := NewVerifier(completer, searcher, "test-model", 3)

	st, err := v.Verify(context.Background(), "Water boils at 100C.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if st.Verdict != model.VerdictVerified {
		t.Errorf("Expected verified, got %q", st.Verdict)
	}
	if st.Text != "Water boils at 100C." {
		t.Errorf("Unexpected statement text: %q", st.Text)
	}
	if len(st.Evidence) != 1 || st.Evidence[0].SourcePath != "handbook_page_1-200.txt" {
		t.Errorf("Expected retrieved evidence attached, got %v", st.Evidence)
	}
}

func TestVerifier_SearchesWithStatementTextAndLimit(t *testing.T) {
	searcher := &stubSearcher{}
	completer := &stubCompleter{response: "unverified"}
	v := NewVerifier(completer, searcher, "test-model", 3)

	if _, err := v.Verify(context.Background(), "The moon is made of rock."); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(searcher.queries) != 1 || searcher.queries[0] != "The moon is made of rock." {
		t.Errorf("Expected search with the exact statement text, got %v", searcher.queries)
	}
	if searcher.limits[0] != 3 {
		t.Errorf("Expected evidence limit 3, got %d", searcher.limits[0])
	}
}

func TestVerifier_NormalizesVerdictResponse(t *testing.T) {
	tests := []struct {
		response string
		expected model.Verdict
	}{
		{"verified", model.VerdictVerified},
		{" Verified \n", model.VerdictVerified},
		{"CONTRADICTED", model.VerdictContradicted},
		{"unverified", model.VerdictUnverified},
		{"I think it's probably true", model.VerdictUnverified},
	}

	for _, tt := range tests {
		v := NewVerifier(&stubCompleter{response: tt.response}, &stubSearcher{}, "test-model", 3)
		st, err := v.Verify(context.Background(), "statement")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if st.Verdict != tt.expected {
			t.Errorf("Response %q: expected %q, got %q", tt.response, tt.expected, st.Verdict)
		}
	}
}

func TestVerifier_EvidenceAppearsInPrompt(t *testing.T) {
	searcher := &stubSearcher{evidence: []model.Evidence{
		{SourcePath: "a.txt", Text: "first evidence"},
		{SourcePath: "b.txt", Text: "second evidence"},
	}}
	completer := &stubCompleter{response: "verified"}
	v := NewVerifier(completer, searcher, "test-model", 3)

	if _, err := v.Verify(context.Background(), "some claim"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	prompt := completer.prompts[0]
	for _, want := range []string{"some claim", "first evidence", "second evidence", "[a.txt]", "[b.txt]"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}

func TestVerifier_NoEvidenceStillClassifies(t *testing.T) {
	completer := &stubCompleter{response: "unverified"}
	v := NewVerifier(completer, &stubSearcher{}, "test-model", 3)

	st, err := v.Verify(context.Background(), "an unknown claim")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if st.Verdict != model.VerdictUnverified {
		t.Errorf("Expected unverified, got %q", st.Verdict)
	}
	if !strings.Contains(completer.prompts[0], "(no evidence found)") {
		t.Error("Expected empty evidence placeholder in prompt")
	}
}

func TestVerifier_SearchErrorPropagates(t *testing.T) {
	failure := errors.New("index unavailable")
	v := NewVerifier(&stubCompleter{}, &stubSearcher{err: failure}, "test-model", 3)

	if _, err := v.Verify(context.Background(), "statement"); !errors.Is(err, failure) {
		t.Errorf("Expected search error, got %v", err)
	}
}

func TestVerifier_CompletionErrorPropagates(t *testing.T) {
	failure := errors.New("rate limited")
	v := NewVerifier(&stubCompleter{err: failure}, &stubSearcher{}, "test-model", 3)

	if _, err := v.Verify(context.Background(), "statement"); !errors.Is(err, failure) {
		t.Errorf("Expected completion error, got %v", err)
	}
}
