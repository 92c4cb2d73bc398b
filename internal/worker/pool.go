package worker

import (
	"context"
	"sync"

	"github.com/veridoc/veridoc/internal/model"
)

// VerifyFunc classifies one statement against the verified corpus
type VerifyFunc func(ctx context.Context, statement string) (model.Statement, error)

// Outcome is the result of verifying one statement. Index is the statement's
// position in the input so callers can restore per-chunk order after
// out-of-order completion.
type Outcome struct {
	Index     int
	Statement model.Statement
	Err       error
}

// Pool bounds the number of in-flight verification calls. Per-statement
// completion round-trips dominate pipeline latency, so they run concurrently,
// but every statement of a chunk is collected before the chunk is scored.
type Pool struct {
	workers int
}

// NewPool creates a verification pool with the specified number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers returns the pool's concurrency bound
func (p *Pool) Workers() int {
	return p.workers
}

// VerifyAll verifies every statement and returns one outcome per input, in
// input order. Statements not started before ctx is cancelled carry the
// context error.
func (p *Pool) VerifyAll(ctx context.Context, statements []string, fn VerifyFunc) []Outcome {
	outcomes := make([]Outcome, len(statements))
	if len(statements) == 0 {
		return outcomes
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := p.workers
	if workers > len(statements) {
		workers = len(statements)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				st, err := fn(ctx, statements[i])
				// Each worker writes a distinct index, no lock needed
				outcomes[i] = Outcome{Index: i, Statement: st, Err: err}
			}
		}()
	}

	for i := range statements {
		select {
		case <-ctx.Done():
			outcomes[i] = Outcome{
				Index:     i,
				Statement: model.Statement{Text: statements[i]},
				Err:       ctx.Err(),
			}
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return outcomes
}
