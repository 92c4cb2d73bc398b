package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridoc/veridoc/internal/ingest"
	"github.com/veridoc/veridoc/internal/model"
)

var seedTimeout time.Duration

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed <dir>",
	Short: "Load trusted documents into the verified corpus",
	Long: `Seed stages every document in a directory directly into the verified
corpus without verification. Use it to bootstrap the corpus with documents
you already trust; everything verified later is checked against them.

Re-seeding a document replaces its existing corpus chunks.

Example:
  veridoc seed ./trusted-docs`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().DurationVar(&seedTimeout, "timeout", 30*time.Minute, "overall seeding timeout")
}

func runSeed(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read seed directory: %w", err)
	}

	var seeded int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file := filepath.Join(dir, entry.Name())
		switch strings.ToLower(filepath.Ext(file)) {
		case ".pdf", ".txt", ".md":
		default:
			continue
		}

		chunks, err := a.seedDocument(ctx, file)
		if err != nil {
			return fmt.Errorf("seed %s: %w", entry.Name(), err)
		}
		fmt.Printf("Seeded %s: %d chunks\n", entry.Name(), chunks)
		seeded++
	}

	if seeded == 0 {
		return fmt.Errorf("no documents found in %s (supported: .pdf, .txt, .md)", dir)
	}
	fmt.Printf("Done: %d documents in the verified corpus\n", seeded)
	return nil
}

// seedDocument stages one file into the verified area, chunks it and indexes
// the result, replacing any prior chunks of the same document.
func (a *app) seedDocument(ctx context.Context, file string) (int, error) {
	document := ingest.DocumentName(file)

	staged, err := a.stage.StageDocument(file, model.AreaVerified)
	if err != nil {
		return 0, err
	}
	if len(staged) == 0 {
		return 0, fmt.Errorf("staging produced no sub-documents")
	}
	if err := a.stage.Refresh(model.AreaVerified); err != nil {
		return 0, err
	}

	for _, doc := range staged {
		if err := a.store.DeleteBySource(ctx, model.AreaVerified, doc.RelativePath); err != nil {
			return 0, err
		}
	}
	if err := a.index.RemoveDocument(ctx, document); err != nil {
		return 0, err
	}

	inserted, err := a.chunks.ExtractChunksFor(ctx, model.AreaVerified, staged)
	if err != nil {
		return 0, err
	}

	stagedPaths := make(map[string]bool, len(staged))
	for _, doc := range staged {
		stagedPaths[doc.RelativePath] = true
	}
	all, err := a.store.Chunks(ctx, model.AreaVerified)
	if err != nil {
		return 0, err
	}
	var fresh []model.Chunk
	for _, c := range all {
		if stagedPaths[c.SourcePath] {
			fresh = append(fresh, c)
		}
	}

	if err := a.index.Add(ctx, document, fresh); err != nil {
		return 0, err
	}
	return inserted, nil
}
