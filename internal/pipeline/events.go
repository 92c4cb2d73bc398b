package pipeline

// State names one stage of a verification run
type State string

const (
	StateUploaded            State = "uploaded"
	StateStaged              State = "staged"
	StateChunked             State = "chunked"
	StateStatementsExtracted State = "statements_extracted"
	StateScored              State = "scored"
	StateDecided             State = "decided"
	StatePromoted            State = "promoted"
	StateDiscarded           State = "discarded"
	StateCleaned             State = "cleaned"
)

// Event is one ordered lifecycle signal emitted while a run progresses. The
// presentation layer subscribes to these instead of being interleaved with
// pipeline logic.
type Event struct {
	State   State
	Message string
}
