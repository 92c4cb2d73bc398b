package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridoc/veridoc/internal/extract"
	"github.com/veridoc/veridoc/internal/model"
	"github.com/veridoc/veridoc/internal/pipeline"
	"github.com/veridoc/veridoc/internal/score"
	"github.com/veridoc/veridoc/internal/verify"
)

// ErrDocumentRejected signals a clean run that ended in rejection. The entry
// point maps it to a non-zero exit; returning it instead of exiting here
// lets deferred teardown (store close) run.
var ErrDocumentRejected = errors.New("document rejected")

var (
	verifyTimeout     time.Duration
	chunkThreshold    float64
	chunksPercent     float64
	verifyConcurrency int
	outJSON           string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Verify a document against the trusted corpus",
	Long: `Verify runs a document through the full fact-checking pipeline:
- Stage the file and split large PDFs into sub-documents
- Chunk the text and extract factual statements with an LLM
- Retrieve corpus evidence and classify each statement
- Score every chunk and accept or reject the document
- Promote accepted documents into the verified corpus

Example:
  veridoc verify report.pdf
  veridoc verify notes.md --chunk-threshold 0.8 --chunks-percent 0.9
  veridoc verify report.pdf --json report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 15*time.Minute, "overall verification timeout")
	verifyCmd.Flags().Float64Var(&chunkThreshold, "chunk-threshold", 0, "minimum verified ratio for a chunk to pass (0 = use config)")
	verifyCmd.Flags().Float64Var(&chunksPercent, "chunks-percent", 0, "fraction of chunks that must pass (0 = use config)")
	verifyCmd.Flags().IntVar(&verifyConcurrency, "concurrency", 0, "parallel statement verifications (0 = use config)")
	verifyCmd.Flags().StringVar(&outJSON, "json", "", "output JSON report path (optional)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	policy := a.cfg.Verify
	if chunkThreshold > 0 {
		policy.ChunkThreshold = chunkThreshold
	}
	if chunksPercent > 0 {
		policy.ChunksPercent = chunksPercent
	}
	if verifyConcurrency > 0 {
		policy.Concurrency = verifyConcurrency
	}

	extractor := extract.NewExtractor(a.completer, a.store, a.cfg.LLM.Model)
	verifier := verify.NewVerifier(a.completer, a.index, a.cfg.LLM.Model, a.cfg.Search.Limit)
	scorer := score.NewScorer(a.store, verifier, policy.Concurrency)
	p := pipeline.New(a.stage, a.chunks, extractor, scorer, a.store, a.index, policy)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range p.Events() {
			if verbose {
				fmt.Fprintf(os.Stderr, "[%s] %s\n", ev.State, ev.Message)
			}
		}
	}()

	report, runErr := p.Run(ctx, file)
	<-done

	if report != nil {
		printReport(report)
		if outJSON != "" {
			if err := writeReportJSON(outJSON, report); err != nil {
				return err
			}
		}
	}
	if runErr != nil {
		return fmt.Errorf("verification failed: %w", runErr)
	}
	return reportError(report)
}

func reportError(r *model.Report) error {
	if r.Accepted {
		return nil
	}
	return ErrDocumentRejected
}

func writeReportJSON(path string, r *model.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func printReport(r *model.Report) {
	fmt.Printf("Document:   %s\n", r.Document)
	fmt.Printf("Run:        %s\n", r.RunID)
	fmt.Printf("Duration:   %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Printf("Statements: %d total, %d verified, %d contradicted, %d unverified\n",
		r.Tally.Total, r.Tally.Verified, r.Tally.Contradicted, r.Tally.Unverified)
	fmt.Printf("Chunks:     %d/%d passed (%.0f%%)\n", r.VerifiedChunks, r.TotalChunks, r.Percentage*100)
	for _, c := range r.Chunks {
		if c.Skipped {
			fmt.Printf("  chunk %d (%s): skipped: %s\n", c.ChunkIndex, c.SourcePath, c.Error)
		}
	}
	if r.Accepted {
		fmt.Println("Result:     ACCEPTED - document promoted to the verified corpus")
	} else {
		fmt.Println("Result:     REJECTED - document discarded")
	}
}
