package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/veridoc/veridoc/internal/chunker"
	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/store"
)

// chunkSleepFunc is the sleep function used between retries (injectable for tests)
var chunkSleepFunc = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// ChunkExtractor turns staged sub-documents into chunk rows. The staging
// area may lag behind an upload, so extraction re-checks it a bounded number
// of times with a fixed delay before giving up.
type ChunkExtractor struct {
	stage   *Stage
	store   store.Store
	chunker *chunker.Chunker
	retries int
	delay   time.Duration
}

// NewChunkExtractor creates a chunk extractor
func NewChunkExtractor(stage *Stage, st store.Store, ck *chunker.Chunker, retries int, delay time.Duration) *ChunkExtractor {
	if retries <= 0 {
		retries = 3
	}
	return &ChunkExtractor{
		stage:   stage,
		store:   st,
		chunker: ck,
		retries: retries,
		delay:   delay,
	}
}

// ExtractChunks reads every staged sub-document of an area, splits it into
// chunks and inserts the rows into the area's chunk table. Returns the number
// of rows inserted.
func (e *ChunkExtractor) ExtractChunks(ctx context.Context, area model.CorpusArea) (int, error) {
	var docs []StagedDoc
	var err error

	for attempt := 1; attempt <= e.retries; attempt++ {
		docs, err = e.stage.List(area)
		if err != nil {
			return 0, err
		}
		if len(docs) > 0 {
			break
		}
		if attempt == e.retries {
			return 0, fmt.Errorf("staging area %s empty after %d attempts", area, e.retries)
		}

		log.Debug().Str("area", string(area)).Int("attempt", attempt).Msg("staging area empty, retrying")
		if err := e.stage.Refresh(area); err != nil {
			return 0, err
		}
		if err := chunkSleepFunc(ctx, e.delay); err != nil {
			return 0, err
		}
	}

	return e.ExtractChunksFor(ctx, area, docs)
}

// ExtractChunksFor chunks and inserts a specific set of staged sub-documents.
// Used when other sub-documents sharing the area must be left alone, e.g.
// promotion into the durable verified area.
func (e *ChunkExtractor) ExtractChunksFor(ctx context.Context, area model.CorpusArea, docs []StagedDoc) (int, error) {
	inserted := 0
	for _, doc := range docs {
		text, err := e.stage.Read(area, doc.RelativePath)
		if err != nil {
			return inserted, err
		}

		var chunks []model.Chunk
		for _, piece := range e.chunker.Chunk(text) {
			chunks = append(chunks, model.Chunk{
				SourcePath: doc.RelativePath,
				Size:       doc.Size,
				Text:       piece,
			})
		}
		if len(chunks) == 0 {
			continue
		}

		n, err := e.store.InsertChunks(ctx, area, chunks)
		if err != nil {
			return inserted, fmt.Errorf("insert chunks for %s: %w", doc.RelativePath, err)
		}
		inserted += n
	}
	return inserted, nil
}
