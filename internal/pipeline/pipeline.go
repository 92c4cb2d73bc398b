package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/veridoc/veridoc/internal/config"
	"github.com/veridoc/veridoc/internal/extract"
	"github.com/veridoc/veridoc/internal/ingest"
	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/score"
	"github.com/veridoc/veridoc/internal/store"
)

// ErrRunInProgress is returned when a second verification run starts while
// one is still active. The unverified staging area is a single shared slot,
// not a queue.
var ErrRunInProgress = errors.New("a verification run is already in progress")

// CorpusIndex receives promoted chunks for semantic search
type CorpusIndex interface {
	Add(ctx context.Context, document string, chunks []model.Chunk) error
	RemoveDocument(ctx context.Context, document string) error
}

// Pipeline drives one document through staging, chunking, statement
// extraction, scoring, the accept/reject decision and promotion. It owns the
// lifecycle of the unverified chunk set: created at staging, deleted
// unconditionally at the end of the run.
type Pipeline struct {
	stage     *ingest.Stage
	chunks    *ingest.ChunkExtractor
	extractor *extract.Extractor
	scorer    *score.Scorer
	store     store.Store
	index     CorpusIndex
	policy    config.VerifyConfig

	runMu sync.Mutex

	eventsMu sync.Mutex
	events   chan Event
}

// New creates a pipeline
func New(stage *ingest.Stage, chunks *ingest.ChunkExtractor, extractor *extract.Extractor, scorer *score.Scorer, st store.Store, index CorpusIndex, policy config.VerifyConfig) *Pipeline {
	return &Pipeline{
		stage:     stage,
		chunks:    chunks,
		extractor: extractor,
		scorer:    scorer,
		store:     st,
		index:     index,
		policy:    policy,
	}
}

// Events is the ordered progress feed of the next (or currently active) run.
// Each run gets its own channel, closed when the run finishes, so consumers
// can range over it. Events are dropped rather than blocking the pipeline
// when nobody drains the channel.
func (p *Pipeline) Events() <-chan Event {
	return p.takeEvents()
}

func (p *Pipeline) takeEvents() chan Event {
	p.eventsMu.Lock()
	defer p.eventsMu.Unlock()
	if p.events == nil {
		p.events = make(chan Event, 64)
	}
	return p.events
}

func (p *Pipeline) closeEvents(ch chan Event) {
	p.eventsMu.Lock()
	p.events = nil
	p.eventsMu.Unlock()
	close(ch)
}

func (p *Pipeline) emit(state State, format string, args ...any) {
	ev := Event{State: state, Message: fmt.Sprintf(format, args...)}
	log.Info().Str("state", string(state)).Msg(ev.Message)

	p.eventsMu.Lock()
	ch := p.events
	p.eventsMu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}

// Run verifies one uploaded document end to end and returns the finalized
// report. On acceptance the document's canonical chunking is promoted into
// the verified corpus; either way the unverified area is cleared before Run
// returns, including on error and cancellation paths.
func (p *Pipeline) Run(ctx context.Context, file string) (*model.Report, error) {
	if !p.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer p.runMu.Unlock()

	// The event channel closes when the run is over, after cleanup has
	// emitted its final event, so subscribers can range to completion.
	defer p.closeEvents(p.takeEvents())

	report := &model.Report{
		RunID:     uuid.NewString(),
		Document:  ingest.DocumentName(file),
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		report.FinishedAt = time.Now().UTC()
	}()

	// Cleanup is a hard invariant: it runs on success, failure and
	// cancellation, and is itself not cancellable.
	defer p.cleanup()

	err := p.run(ctx, file, report)
	return report, err
}

func (p *Pipeline) run(ctx context.Context, file string, report *model.Report) error {
	p.emit(StateUploaded, "verifying %s (run %s)", report.Document, report.RunID)

	// UPLOADED -> STAGED
	staged, err := p.stage.StageDocument(file, model.AreaUnverified)
	if err != nil {
		return fmt.Errorf("stage document: %w", err)
	}
	if len(staged) == 0 {
		return fmt.Errorf("staging produced no sub-documents for %s", report.Document)
	}
	p.emit(StateStaged, "staged %d sub-documents", len(staged))

	// STAGED -> CHUNKED
	if err := p.stage.Refresh(model.AreaUnverified); err != nil {
		return err
	}
	inserted, err := p.chunks.ExtractChunks(ctx, model.AreaUnverified)
	if err != nil {
		return fmt.Errorf("extract chunks: %w", err)
	}
	if inserted == 0 {
		return fmt.Errorf("chunk extraction produced no chunks for %s", report.Document)
	}
	p.emit(StateChunked, "extracted %d chunks", inserted)

	// CHUNKED -> STATEMENTS_EXTRACTED. Best-effort: chunks whose extraction
	// fails proceed without statements and are excluded from scoring.
	annotated, err := p.extractor.Run(ctx, model.AreaUnverified)
	if err != nil {
		return fmt.Errorf("extract statements: %w", err)
	}
	p.emit(StateStatementsExtracted, "extracted statements for %d of %d chunks", annotated, inserted)

	// STATEMENTS_EXTRACTED -> SCORED
	if err := p.scorer.Run(ctx, model.AreaUnverified, report); err != nil {
		return fmt.Errorf("score chunks: %w", err)
	}
	p.emit(StateScored, "verified %d statements: %d verified, %d contradicted, %d unverified",
		report.Tally.Total, report.Tally.Verified, report.Tally.Contradicted, report.Tally.Unverified)

	// SCORED -> DECIDED
	if err := p.decide(ctx, report); err != nil {
		return err
	}
	p.emit(StateDecided, "%d of %d chunks scored >= %.2f (%.0f%%), accepted=%t",
		report.VerifiedChunks, report.TotalChunks, p.policy.ChunkThreshold, report.Percentage*100, report.Accepted)

	// DECIDED -> PROMOTED | DISCARDED
	if !report.Accepted {
		p.emit(StateDiscarded, "document rejected, corpus unchanged")
		return nil
	}

	promoted, err := p.promote(ctx, file, report.Document)
	if err != nil {
		return fmt.Errorf("promote document: %w", err)
	}
	p.emit(StatePromoted, "document accepted, %d chunks added to verified corpus", promoted)
	return nil
}

// decide applies the acceptance policy. The denominator is the full chunk
// set: a chunk that never got statements counts against acceptance.
func (p *Pipeline) decide(ctx context.Context, report *model.Report) error {
	chunks, err := p.store.Chunks(ctx, model.AreaUnverified)
	if err != nil {
		return fmt.Errorf("load scored chunks: %w", err)
	}

	report.TotalChunks = len(chunks)
	for _, c := range chunks {
		if c.Score != nil && *c.Score >= p.policy.ChunkThreshold {
			report.VerifiedChunks++
		}
	}

	if report.TotalChunks == 0 {
		report.Accepted = false
		report.Percentage = 0
		return nil
	}

	report.Percentage = float64(report.VerifiedChunks) / float64(report.TotalChunks)
	report.Accepted = float64(report.VerifiedChunks) >= float64(report.TotalChunks)*p.policy.ChunksPercent
	return nil
}

// promote re-derives chunks from the original uploaded file into the
// verified corpus, so the corpus always holds the canonical chunking rather
// than a copy of already-scored rows. Re-promoting the same document
// replaces its prior chunks instead of appending duplicates.
func (p *Pipeline) promote(ctx context.Context, file, document string) (int, error) {
	staged, err := p.stage.StageDocument(file, model.AreaVerified)
	if err != nil {
		return 0, fmt.Errorf("stage into verified area: %w", err)
	}
	if err := p.stage.Refresh(model.AreaVerified); err != nil {
		return 0, err
	}

	for _, doc := range staged {
		if err := p.store.DeleteBySource(ctx, model.AreaVerified, doc.RelativePath); err != nil {
			return 0, err
		}
	}
	if err := p.index.RemoveDocument(ctx, document); err != nil {
		return 0, err
	}

	// Scope extraction to this document's sub-documents: the verified
	// staging area keeps files from earlier promotions.
	inserted, err := p.chunks.ExtractChunksFor(ctx, model.AreaVerified, staged)
	if err != nil {
		return 0, err
	}

	// Index only the freshly promoted chunks
	stagedPaths := make(map[string]bool, len(staged))
	for _, doc := range staged {
		stagedPaths[doc.RelativePath] = true
	}

	all, err := p.store.Chunks(ctx, model.AreaVerified)
	if err != nil {
		return 0, err
	}
	var promoted []model.Chunk
	for _, c := range all {
		if stagedPaths[c.SourcePath] {
			promoted = append(promoted, c)
		}
	}

	if err := p.index.Add(ctx, document, promoted); err != nil {
		return 0, err
	}
	return inserted, nil
}

// cleanup clears the unverified chunk rows and staged files. It uses a fresh
// context so an aborted run still cleans up.
func (p *Pipeline) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var problems []string
	if err := p.store.DeleteAll(ctx, model.AreaUnverified); err != nil {
		problems = append(problems, err.Error())
	}
	if err := p.stage.Clear(model.AreaUnverified); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		log.Error().Str("problems", strings.Join(problems, "; ")).Msg("cleanup incomplete")
		p.emit(StateCleaned, "cleanup incomplete: %s", strings.Join(problems, "; "))
		return
	}
	p.emit(StateCleaned, "unverified area cleared")
}
