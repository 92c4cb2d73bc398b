package model

import "strings"

// Verdict classifies a statement against retrieved evidence
type Verdict string

const (
	VerdictVerified     Verdict = "verified"     // Evidence supports the statement
	VerdictContradicted Verdict = "contradicted" // Evidence contradicts the statement
	VerdictUnverified   Verdict = "unverified"   // Evidence is insufficient either way
)

// ParseVerdict normalizes a raw completion response to one of the three
// verdict labels. Anything unrecognized collapses to unverified rather than
// failing the statement.
func ParseVerdict(raw string) Verdict {
	switch Verdict(strings.ToLower(strings.TrimSpace(raw))) {
	case VerdictVerified:
		return VerdictVerified
	case VerdictContradicted:
		return VerdictContradicted
	default:
		return VerdictUnverified
	}
}

// Evidence is one chunk retrieved by semantic search in support of verifying
// a statement.
type Evidence struct {
	SourcePath string `json:"source_path"`
	Text       string `json:"text"`
}

// Statement is an atomic factual claim extracted from a chunk. It is
// ephemeral: it lives inside a chunk's statement list and in the audit trail,
// never as a persisted row of its own.
type Statement struct {
	Text     string     `json:"text"`
	Verdict  Verdict    `json:"verdict,omitempty"`
	Evidence []Evidence `json:"evidence,omitempty"` // whatever search returned for this exact text
}
