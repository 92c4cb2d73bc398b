package score

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/store"
	"github.com/veridoc/veridoc/internal/worker"
)

// StatementVerifier classifies a single statement, returning the verdict and
// the evidence used.
type StatementVerifier interface {
	Verify(ctx context.Context, statement string) (model.Statement, error)
}

// Scorer verifies every statement of every annotated chunk and writes the
// per-chunk score back to the store.
type Scorer struct {
	store    store.Store
	verifier StatementVerifier
	pool     *worker.Pool
}

// NewScorer creates a chunk scorer with bounded verification concurrency
func NewScorer(st store.Store, verifier StatementVerifier, concurrency int) *Scorer {
	return &Scorer{
		store:    st,
		verifier: verifier,
		pool:     worker.NewPool(concurrency),
	}
}

// Run scores every chunk of an area that carries a non-empty statement list:
// score = verified statements / total statements. Chunks without statements
// are skipped entirely and never scored. Per-chunk failures are logged and
// excluded from the tally; only setup failures (the chunk set being
// unreadable) are returned as errors. Results accumulate into report.
func (s *Scorer) Run(ctx context.Context, area model.CorpusArea, report *model.Report) error {
	chunks, err := s.store.Chunks(ctx, area)
	if err != nil {
		return fmt.Errorf("load chunk set: %w", err)
	}

	for i, chunk := range chunks {
		if !chunk.HasStatements() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		audit := model.ChunkAudit{
			ChunkID:    chunk.ID,
			ChunkIndex: i,
			SourcePath: chunk.SourcePath,
		}

		statements, chunkScore, err := s.scoreChunk(ctx, area, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Per-chunk failures are not pipeline-fatal: the chunk is
			// skipped, contributes no score and no tally entries.
			log.Warn().Err(err).Int64("chunk_id", chunk.ID).Str("source", chunk.SourcePath).Msg("chunk verification failed, skipping")
			audit.Skipped = true
			audit.Error = err.Error()
			report.Chunks = append(report.Chunks, audit)
			continue
		}

		for _, st := range statements {
			report.Tally.Add(st.Verdict)
		}
		audit.Statements = statements
		audit.Score = chunkScore
		report.Chunks = append(report.Chunks, audit)
	}

	return nil
}

// scoreChunk verifies all statements of one chunk, computes the score and
// persists it. Any statement failure fails the whole chunk: a partial
// verdict set would skew the ratio.
func (s *Scorer) scoreChunk(ctx context.Context, area model.CorpusArea, chunk model.Chunk) ([]model.Statement, float64, error) {
	outcomes := s.pool.VerifyAll(ctx, chunk.Statements, s.verifier.Verify)

	statements := make([]model.Statement, len(outcomes))
	verified := 0
	for _, o := range outcomes {
		if o.Err != nil {
			return nil, 0, fmt.Errorf("verify statement %d: %w", o.Index, o.Err)
		}
		statements[o.Index] = o.Statement
		if o.Statement.Verdict == model.VerdictVerified {
			verified++
		}
	}

	score := float64(verified) / float64(len(statements))
	if err := s.store.SetScore(ctx, area, chunk.ID, score); err != nil {
		return nil, 0, fmt.Errorf("persist score: %w", err)
	}
	return statements, score, nil
}
