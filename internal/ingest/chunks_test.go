package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/veridoc/veridoc/internal/chunker"
	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/store"
)

func newExtractor(t *testing.T, st store.Store) (*ChunkExtractor, *Stage) {
	t.Helper()
	stage := NewStage(t.TempDir(), 200)
	ck := chunker.New(1500, 1)
	return NewChunkExtractor(stage, st, ck, 3, time.Millisecond), stage
}

func TestChunkExtractor_InsertsChunkRows(t *testing.T) {
	st := store.NewMemoryStore()
	e, stage := newExtractor(t, st)

	src := writeSource(t, "doc.txt", "First sentence. Second sentence.")
	if _, err := stage.StageDocument(src, model.AreaUnverified); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	inserted, err := e.ExtractChunks(context.Background(), model.AreaUnverified)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if inserted == 0 {
		t.Fatal("Expected chunks inserted")
	}

	chunks, _ := st.Chunks(context.Background(), model.AreaUnverified)
	if len(chunks) != inserted {
		t.Errorf("Expected %d rows, got %d", inserted, len(chunks))
	}
	for _, c := range chunks {
		if c.SourcePath != "doc.txt" {
			t.Errorf("Unexpected source path: %q", c.SourcePath)
		}
		if c.Size != int64(len("First sentence. Second sentence.")) {
			t.Errorf("Unexpected size: %d", c.Size)
		}
		if !strings.Contains("First sentence. Second sentence.", c.Text) {
			t.Errorf("Chunk text not from source: %q", c.Text)
		}
	}
}

func TestChunkExtractor_RetriesExhaustOnEmptyArea(t *testing.T) {
	st := store.NewMemoryStore()
	stage := NewStage(t.TempDir(), 200)
	e := NewChunkExtractor(stage, st, chunker.New(1500, 1), 3, time.Hour)

	// Make the staging area exist but stay empty, and count the sleeps
	if _, err := stage.StageDocument(writeSource(t, "x.txt", "y"), model.AreaUnverified); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := stage.Clear(model.AreaUnverified); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	sleeps := 0
	orig := chunkSleepFunc
	chunkSleepFunc = func(ctx context.Context, d time.Duration) error {
		sleeps++
		return nil
	}
	defer func() { chunkSleepFunc = orig }()

	if _, err := e.ExtractChunks(context.Background(), model.AreaUnverified); err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
	if sleeps != 2 {
		t.Errorf("Expected 2 sleeps for 3 attempts, got %d", sleeps)
	}
}

func TestChunkExtractor_EmptyDocumentsProduceNoRows(t *testing.T) {
	st := store.NewMemoryStore()
	e, stage := newExtractor(t, st)

	src := writeSource(t, "blank.txt", "   \n  ")
	staged, err := stage.StageDocument(src, model.AreaUnverified)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	inserted, err := e.ExtractChunksFor(context.Background(), model.AreaUnverified, staged)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if inserted != 0 {
		t.Errorf("Expected 0 rows for blank document, got %d", inserted)
	}
}

func TestChunkExtractor_ScopedExtractionLeavesOtherDocsAlone(t *testing.T) {
	st := store.NewMemoryStore()
	e, stage := newExtractor(t, st)

	older := writeSource(t, "older.txt", "Old corpus sentence.")
	if _, err := stage.StageDocument(older, model.AreaVerified); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	fresh := writeSource(t, "fresh.txt", "Newly promoted sentence.")
	staged, err := stage.StageDocument(fresh, model.AreaVerified)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	inserted, err := e.ExtractChunksFor(context.Background(), model.AreaVerified, staged)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if inserted != 1 {
		t.Fatalf("Expected 1 row, got %d", inserted)
	}

	chunks, _ := st.Chunks(context.Background(), model.AreaVerified)
	for _, c := range chunks {
		if c.SourcePath == "older.txt" {
			t.Error("Expected only the listed sub-documents chunked")
		}
	}
}
