package store

import (
	"context"
	"errors"

	"github.com/veridoc/veridoc/internal/model"
)

// ErrUnknownChunk is returned when an update targets a chunk id that does
// not exist in the area.
var ErrUnknownChunk = errors.New("unknown chunk id")

// Store is the durable chunk table: (path, size, text, statements, score)
// rows keyed by an auto-generated row id, one table per corpus area.
type Store interface {
	// Init creates the backing tables if they do not exist
	Init(ctx context.Context) error

	// InsertChunks appends chunks to an area, assigning row ids in order.
	// Returns the number of rows inserted.
	InsertChunks(ctx context.Context, area model.CorpusArea, chunks []model.Chunk) (int, error)

	// Chunks lists all chunks of an area ordered by row id
	Chunks(ctx context.Context, area model.CorpusArea) ([]model.Chunk, error)

	// SetStatements attaches the extracted statement list to one chunk,
	// matched by row id
	SetStatements(ctx context.Context, area model.CorpusArea, chunkID int64, statements []string) error

	// SetScore attaches the verification score to one chunk
	SetScore(ctx context.Context, area model.CorpusArea, chunkID int64, score float64) error

	// Count returns the number of chunks in an area
	Count(ctx context.Context, area model.CorpusArea) (int, error)

	// DeleteAll clears an area
	DeleteAll(ctx context.Context, area model.CorpusArea) error

	// DeleteBySource removes all chunks whose source path belongs to the
	// given document (promotion replaces rather than duplicates)
	DeleteBySource(ctx context.Context, area model.CorpusArea, sourcePrefix string) error

	// Close releases the backing connection
	Close() error
}
