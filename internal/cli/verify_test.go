package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/veridoc/veridoc/internal/model"
)

func TestReportError_RejectionIsSentinel(t *testing.T) {
	if err := reportError(&model.Report{Accepted: true}); err != nil {
		t.Errorf("Expected no error for an accepted document, got %v", err)
	}
	if err := reportError(&model.Report{Accepted: false}); !errors.Is(err, ErrDocumentRejected) {
		t.Errorf("Expected ErrDocumentRejected, got %v", err)
	}
}

func TestWriteReportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	report := &model.Report{
		RunID:       "run-1",
		Document:    "handbook",
		TotalChunks: 2,
		Accepted:    true,
	}

	if err := writeReportJSON(path, report); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	var decoded model.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if decoded.Document != "handbook" || decoded.TotalChunks != 2 || !decoded.Accepted {
		t.Errorf("Unexpected report contents: %+v", decoded)
	}
}
