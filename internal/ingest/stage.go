package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"github.com/veridoc/veridoc/internal/model"
)

// StagedDoc is one bounded-size sub-document sitting in a staging area
type StagedDoc struct {
	RelativePath string
	Size         int64
}

// Stage manages the two filesystem staging areas. PDFs are split into
// page-range sub-documents (extracted text) before staging; plain-text files
// are staged whole. Staging is idempotent: re-staging a document overwrites
// its prior sub-documents.
type Stage struct {
	root                string
	pagesPerSubDocument int
}

// NewStage creates a stage rooted at dir
func NewStage(dir string, pagesPerSubDocument int) *Stage {
	if pagesPerSubDocument <= 0 {
		pagesPerSubDocument = 200
	}
	return &Stage{root: dir, pagesPerSubDocument: pagesPerSubDocument}
}

// AreaDir returns the directory backing one staging area
func (s *Stage) AreaDir(area model.CorpusArea) string {
	return filepath.Join(s.root, string(area))
}

// DocumentName derives the staging name prefix for a source file. All
// sub-documents of the file share this prefix.
func DocumentName(file string) string {
	base := filepath.Base(file)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(base, " ", "_")
}

// StageDocument splits a document into sub-documents and writes them into an
// area. Returns the staged sub-documents; an empty result means the document
// produced no stageable content.
func (s *Stage) StageDocument(file string, area model.CorpusArea) ([]StagedDoc, error) {
	dir := s.AreaDir(area)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging area: %w", err)
	}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".pdf":
		return s.stagePDF(file, dir)
	case ".txt", ".md":
		return s.stageText(file, dir)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", filepath.Ext(file))
	}
}

func (s *Stage) stagePDF(file, dir string) ([]StagedDoc, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	name := DocumentName(file)
	numPages := reader.NumPage()

	var staged []StagedDoc
	for start := 1; start <= numPages; start += s.pagesPerSubDocument {
		end := start + s.pagesPerSubDocument - 1
		if end > numPages {
			end = numPages
		}

		var text strings.Builder
		for i := start; i <= end; i++ {
			pageText, err := reader.Page(i).GetPlainText(nil)
			if err != nil {
				log.Warn().Err(err).Int("page", i).Str("document", name).Msg("skipping unreadable page")
				continue
			}
			text.WriteString(pageText)
			text.WriteString("\n")
		}

		relPath := fmt.Sprintf("%s_page_%d-%d.txt", name, start, end)
		doc, err := s.write(dir, relPath, text.String())
		if err != nil {
			return nil, err
		}
		staged = append(staged, doc)
	}
	return staged, nil
}

func (s *Stage) stageText(file, dir string) ([]StagedDoc, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	relPath := DocumentName(file) + ".txt"
	doc, err := s.write(dir, relPath, string(data))
	if err != nil {
		return nil, err
	}
	return []StagedDoc{doc}, nil
}

func (s *Stage) write(dir, relPath, content string) (StagedDoc, error) {
	path := filepath.Join(dir, relPath)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return StagedDoc{}, fmt.Errorf("stage %s: %w", relPath, err)
	}
	return StagedDoc{RelativePath: relPath, Size: int64(len(content))}, nil
}

// Refresh revalidates an area's backing directory
func (s *Stage) Refresh(area model.CorpusArea) error {
	info, err := os.Stat(s.AreaDir(area))
	if err != nil {
		return fmt.Errorf("staging area %s unavailable: %w", area, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("staging area %s is not a directory", area)
	}
	return nil
}

// List returns the sub-documents currently staged in an area
func (s *Stage) List(area model.CorpusArea) ([]StagedDoc, error) {
	entries, err := os.ReadDir(s.AreaDir(area))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list staging area: %w", err)
	}

	var docs []StagedDoc
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		docs = append(docs, StagedDoc{RelativePath: e.Name(), Size: info.Size()})
	}
	return docs, nil
}

// Read returns the text of one staged sub-document
func (s *Stage) Read(area model.CorpusArea, relPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.AreaDir(area), relPath))
	if err != nil {
		return "", fmt.Errorf("read staged %s: %w", relPath, err)
	}
	return string(data), nil
}

// Clear removes every staged sub-document from an area. Missing areas are
// not an error: cleanup must succeed on paths that never staged anything.
func (s *Stage) Clear(area model.CorpusArea) error {
	dir := s.AreaDir(area)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("clear staging area: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("remove staged %s: %w", e.Name(), err)
		}
	}
	return nil
}
