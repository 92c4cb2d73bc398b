package model

import "time"

// Tally accumulates global verdict counts across one scoring pass
type Tally struct {
	Total        int `json:"total"`
	Verified     int `json:"verified"`
	Contradicted int `json:"contradicted"`
	Unverified   int `json:"unverified"`
}

// Add records one verdict in the tally
func (t *Tally) Add(v Verdict) {
	t.Total++
	switch v {
	case VerdictVerified:
		t.Verified++
	case VerdictContradicted:
		t.Contradicted++
	default:
		t.Unverified++
	}
}

// ChunkAudit is the human-reviewable record of one chunk's verification
type ChunkAudit struct {
	ChunkID    int64       `json:"chunk_id"`
	ChunkIndex int         `json:"chunk_index"`
	SourcePath string      `json:"source_path"`
	Score      float64     `json:"score"`
	Statements []Statement `json:"statements"`
	Skipped    bool        `json:"skipped,omitempty"` // chunk errored and contributed nothing
	Error      string      `json:"error,omitempty"`
}

// Report is the document-level aggregate for one verification run. It is
// created at the start of scoring, finalized at decision time, and surfaced
// to the caller; it is not persisted.
type Report struct {
	RunID      string    `json:"run_id"`
	Document   string    `json:"document"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Tally  Tally        `json:"tally"`
	Chunks []ChunkAudit `json:"chunks"`

	TotalChunks    int     `json:"total_chunks"`
	VerifiedChunks int     `json:"verified_chunks"` // chunks scoring at or above the threshold
	Percentage     float64 `json:"percentage"`      // verified_chunks / total_chunks
	Accepted       bool    `json:"accepted"`
}
