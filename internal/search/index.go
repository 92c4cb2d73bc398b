package search

import (
	"context"
	"fmt"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/veridoc/veridoc/internal/model"
)

const collectionName = "verified_corpus"

// Searcher is the semantic-search collaborator: top-K most relevant chunks
// from the verified corpus for a query string.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]model.Evidence, error)
}

// Index is the chromem-go vector index over the verified corpus. The chunk
// store holds the canonical rows; the index exists only to answer semantic
// queries.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewIndex opens (or creates) the vector index. An empty dir keeps the index
// in memory.
func NewIndex(dir string, embedder Embedder) (*Index, error) {
	var db *chromem.DB
	var err error
	if dir == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dir, false)
		if err != nil {
			return nil, fmt.Errorf("open index: %w", err)
		}
	}

	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("open collection: %w", err)
	}

	return &Index{db: db, collection: collection}, nil
}

// Add indexes verified chunks. The document name goes into metadata so a
// re-promotion can replace the document's vectors.
func (x *Index) Add(ctx context.Context, document string, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, c := range chunks {
		if c.Text == "" {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:      c.SourcePath + "#" + strconv.FormatInt(c.ID, 10),
			Content: c.Text,
			Metadata: map[string]string{
				"source_path": c.SourcePath,
				"document":    document,
			},
		})
	}
	if len(docs) == 0 {
		return nil
	}

	if err := x.collection.AddDocuments(ctx, docs, 4); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}
	return nil
}

// RemoveDocument drops all vectors belonging to one document
func (x *Index) RemoveDocument(ctx context.Context, document string) error {
	err := x.collection.Delete(ctx, map[string]string{"document": document}, nil)
	if err != nil {
		return fmt.Errorf("remove document vectors: %w", err)
	}
	return nil
}

// Search returns the top-K most relevant evidence chunks for a query
func (x *Index) Search(ctx context.Context, query string, limit int) ([]model.Evidence, error) {
	if limit <= 0 {
		return nil, nil
	}

	// chromem rejects a limit above the collection size
	if count := x.collection.Count(); limit > count {
		limit = count
	}
	if limit == 0 {
		return nil, nil
	}

	results, err := x.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	evidence := make([]model.Evidence, len(results))
	for i, r := range results {
		evidence[i] = model.Evidence{
			SourcePath: r.Metadata["source_path"],
			Text:       r.Content,
		}
	}
	return evidence, nil
}
