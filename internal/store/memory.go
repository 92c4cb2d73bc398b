package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/veridoc/veridoc/internal/model"
)

// MemoryStore is an in-process chunk store. It backs tests and the
// no-Postgres configuration.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	areas  map[model.CorpusArea]map[int64]*model.Chunk
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		areas:  make(map[model.CorpusArea]map[int64]*model.Chunk),
	}
}

// Init is a no-op for the memory backend
func (s *MemoryStore) Init(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) area(a model.CorpusArea) map[int64]*model.Chunk {
	m, ok := s.areas[a]
	if !ok {
		m = make(map[int64]*model.Chunk)
		s.areas[a] = m
	}
	return m
}

// InsertChunks appends chunks, assigning sequential row ids
func (s *MemoryStore) InsertChunks(ctx context.Context, area model.CorpusArea, chunks []model.Chunk) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.area(area)
	for i := range chunks {
		c := chunks[i]
		c.ID = s.nextID
		s.nextID++
		m[c.ID] = &c
	}
	return len(chunks), nil
}

// Chunks lists all chunks ordered by row id
func (s *MemoryStore) Chunks(ctx context.Context, area model.CorpusArea) ([]model.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := s.area(area)
	out := make([]model.Chunk, 0, len(m))
	for _, c := range m {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetStatements attaches a statement list to one chunk by row id
func (s *MemoryStore) SetStatements(ctx context.Context, area model.CorpusArea, chunkID int64, statements []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.area(area)[chunkID]
	if !ok {
		return ErrUnknownChunk
	}
	c.Statements = statements
	return nil
}

// SetScore attaches a score to one chunk by row id
func (s *MemoryStore) SetScore(ctx context.Context, area model.CorpusArea, chunkID int64, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.area(area)[chunkID]
	if !ok {
		return ErrUnknownChunk
	}
	c.Score = &score
	return nil
}

// Count returns the number of chunks in an area
func (s *MemoryStore) Count(ctx context.Context, area model.CorpusArea) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.area(area)), nil
}

// DeleteAll clears an area
func (s *MemoryStore) DeleteAll(ctx context.Context, area model.CorpusArea) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.areas[area] = make(map[int64]*model.Chunk)
	return nil
}

// DeleteBySource removes all chunks of one document from an area
func (s *MemoryStore) DeleteBySource(ctx context.Context, area model.CorpusArea, sourcePrefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.area(area)
	for id, c := range m {
		if strings.HasPrefix(c.SourcePath, sourcePrefix) {
			delete(m, id)
		}
	}
	return nil
}

// Close is a no-op for the memory backend
func (s *MemoryStore) Close() error {
	return nil
}
