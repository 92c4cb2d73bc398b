package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/veridoc/veridoc/internal/model"
)

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return path
}

func TestDocumentName(t *testing.T) {
	tests := []struct {
		file     string
		expected string
	}{
		{"/tmp/report.pdf", "report"},
		{"Quarterly Report 2026.pdf", "Quarterly_Report_2026"},
		{"notes.md", "notes"},
		{"/a/b/plain.txt", "plain"},
	}
	for _, tt := range tests {
		if got := DocumentName(tt.file); got != tt.expected {
			t.Errorf("DocumentName(%q) = %q, expected %q", tt.file, got, tt.expected)
		}
	}
}

func TestStage_TextDocument(t *testing.T) {
	stage := NewStage(t.TempDir(), 200)
	src := writeSource(t, "notes.txt", "Water boils at 100C.")

	staged, err := stage.StageDocument(src, model.AreaUnverified)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(staged) != 1 {
		t.Fatalf("Expected 1 sub-document, got %d", len(staged))
	}
	if staged[0].RelativePath != "notes.txt" {
		t.Errorf("Unexpected staged path: %q", staged[0].RelativePath)
	}
	if staged[0].Size != int64(len("Water boils at 100C.")) {
		t.Errorf("Unexpected size: %d", staged[0].Size)
	}

	text, err := stage.Read(model.AreaUnverified, staged[0].RelativePath)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if text != "Water boils at 100C." {
		t.Errorf("Unexpected staged content: %q", text)
	}
}

func TestStage_UnsupportedFormat(t *testing.T) {
	stage := NewStage(t.TempDir(), 200)
	src := writeSource(t, "image.png", "not text")

	if _, err := stage.StageDocument(src, model.AreaUnverified); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestStage_RestagingOverwrites(t *testing.T) {
	stage := NewStage(t.TempDir(), 200)
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.txt")

	if err := os.WriteFile(src, []byte("version one."), 0o644); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := stage.StageDocument(src, model.AreaVerified); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := os.WriteFile(src, []byte("version two."), 0o644); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := stage.StageDocument(src, model.AreaVerified); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	docs, err := stage.List(model.AreaVerified)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("Expected 1 staged sub-document after restaging, got %d", len(docs))
	}
	text, _ := stage.Read(model.AreaVerified, docs[0].RelativePath)
	if text != "version two." {
		t.Errorf("Expected latest content, got %q", text)
	}
}

func TestStage_AreasAreIsolated(t *testing.T) {
	stage := NewStage(t.TempDir(), 200)
	src := writeSource(t, "doc.txt", "content.")

	if _, err := stage.StageDocument(src, model.AreaUnverified); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	verified, err := stage.List(model.AreaVerified)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(verified) != 0 {
		t.Errorf("Expected empty verified area, got %d docs", len(verified))
	}
}

func TestStage_ClearRemovesDocs(t *testing.T) {
	stage := NewStage(t.TempDir(), 200)
	src := writeSource(t, "doc.txt", "content.")

	if _, err := stage.StageDocument(src, model.AreaUnverified); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := stage.Clear(model.AreaUnverified); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	docs, _ := stage.List(model.AreaUnverified)
	if len(docs) != 0 {
		t.Errorf("Expected empty area after clear, got %d docs", len(docs))
	}
}

func TestStage_ClearMissingAreaIsNotAnError(t *testing.T) {
	stage := NewStage(filepath.Join(t.TempDir(), "never-created"), 200)
	if err := stage.Clear(model.AreaUnverified); err != nil {
		t.Errorf("Expected no error for missing area, got %v", err)
	}
}

func TestStage_RefreshMissingAreaFails(t *testing.T) {
	stage := NewStage(filepath.Join(t.TempDir(), "never-created"), 200)
	if err := stage.Refresh(model.AreaUnverified); err == nil {
		t.Error("Expected error for missing staging area")
	}
}
