package model

// CorpusArea names one of the two parallel chunk collections. Unverified is
// transient staging for a single verification run; Verified is the durable
// trusted store.
type CorpusArea string

const (
	AreaUnverified CorpusArea = "unverified"
	AreaVerified   CorpusArea = "verified"
)

// Chunk is one unit of extracted document text, the unit of statement
// extraction and scoring.
type Chunk struct {
	ID         int64    `json:"id"`
	SourcePath string   `json:"source_path"`         // originating sub-document, relative to its staging area
	Size       int64    `json:"size"`                // byte count of the originating sub-document
	Text       string   `json:"text"`                // chunk body, bounded length
	Statements []string `json:"statements,omitempty"` // nil until the extractor has run
	Score      *float64 `json:"score,omitempty"`      // nil until every statement is classified
}

// HasStatements reports whether the extractor has attached a non-empty
// statement list to the chunk.
func (c *Chunk) HasStatements() bool {
	return len(c.Statements) > 0
}
