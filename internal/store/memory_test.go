package store

import (
	"context"
	"errors"
	"testing"

	"github.com/veridoc/veridoc/internal/model"
)

func TestMemoryStore_InsertAssignsSequentialIDs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	n, err := s.InsertChunks(ctx, model.AreaUnverified, []model.Chunk{
		{SourcePath: "a.txt", Text: "first"},
		{SourcePath: "a.txt", Text: "second"},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 inserted, got %d", n)
	}

	chunks, err := s.Chunks(ctx, model.AreaUnverified)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].ID != 1 || chunks[1].ID != 2 {
		t.Errorf("Expected ids 1,2, got %d,%d", chunks[0].ID, chunks[1].ID)
	}
	if chunks[0].Text != "first" {
		t.Errorf("Expected id order, got %q first", chunks[0].Text)
	}
}

func TestMemoryStore_AreasAreIsolated(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.InsertChunks(ctx, model.AreaUnverified, []model.Chunk{{Text: "u"}}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := s.InsertChunks(ctx, model.AreaVerified, []model.Chunk{{Text: "v1"}, {Text: "v2"}}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if n, _ := s.Count(ctx, model.AreaUnverified); n != 1 {
		t.Errorf("Expected 1 unverified chunk, got %d", n)
	}
	if n, _ := s.Count(ctx, model.AreaVerified); n != 2 {
		t.Errorf("Expected 2 verified chunks, got %d", n)
	}

	if err := s.DeleteAll(ctx, model.AreaUnverified); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n, _ := s.Count(ctx, model.AreaVerified); n != 2 {
		t.Error("Clearing one area must not touch the other")
	}
}

func TestMemoryStore_SetStatementsAndScore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, _ = s.InsertChunks(ctx, model.AreaUnverified, []model.Chunk{{Text: "t"}})

	if err := s.SetStatements(ctx, model.AreaUnverified, 1, []string{"a fact"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := s.SetScore(ctx, model.AreaUnverified, 1, 0.5); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	chunks, _ := s.Chunks(ctx, model.AreaUnverified)
	if len(chunks[0].Statements) != 1 || chunks[0].Statements[0] != "a fact" {
		t.Errorf("Unexpected statements: %v", chunks[0].Statements)
	}
	if chunks[0].Score == nil || *chunks[0].Score != 0.5 {
		t.Errorf("Unexpected score: %v", chunks[0].Score)
	}
}

func TestMemoryStore_UnknownChunkID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.SetStatements(ctx, model.AreaUnverified, 42, nil); !errors.Is(err, ErrUnknownChunk) {
		t.Errorf("Expected ErrUnknownChunk, got %v", err)
	}
	if err := s.SetScore(ctx, model.AreaUnverified, 42, 1.0); !errors.Is(err, ErrUnknownChunk) {
		t.Errorf("Expected ErrUnknownChunk, got %v", err)
	}
}

func TestMemoryStore_DeleteBySourcePrefix(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, _ = s.InsertChunks(ctx, model.AreaVerified, []model.Chunk{
		{SourcePath: "report_page_1-200.txt", Text: "a"},
		{SourcePath: "report_page_201-400.txt", Text: "b"},
		{SourcePath: "manual_page_1-200.txt", Text: "c"},
	})

	if err := s.DeleteBySource(ctx, model.AreaVerified, "report_page_1-200.txt"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	chunks, _ := s.Chunks(ctx, model.AreaVerified)
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks left, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.SourcePath == "report_page_1-200.txt" {
			t.Error("Expected matching chunks removed")
		}
	}
}

func TestMemoryStore_ListedChunksAreCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, _ = s.InsertChunks(ctx, model.AreaUnverified, []model.Chunk{{Text: "original"}})

	chunks, _ := s.Chunks(ctx, model.AreaUnverified)
	chunks[0].Text = "mutated"
	chunks[0].Statements = []string{"x"}

	again, _ := s.Chunks(ctx, model.AreaUnverified)
	if again[0].Text != "original" || again[0].Statements != nil {
		t.Error("Expected store contents unaffected by caller mutation")
	}
}
