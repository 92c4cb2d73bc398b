package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttled wraps a Completer with a token-bucket rate limit so a document
// with hundreds of statements cannot flood the provider.
type Throttled struct {
	inner   Completer
	limiter *rate.Limiter
}

// NewThrottled creates a rate-limited completer
func NewThrottled(inner Completer, requestsPerSecond float64, burst int) *Throttled {
	if burst <= 0 {
		burst = 1
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}

	return &Throttled{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Name returns the wrapped provider name
func (t *Throttled) Name() string {
	return t.inner.Name()
}

// IsAvailable delegates to the wrapped provider
func (t *Throttled) IsAvailable(ctx context.Context) bool {
	return t.inner.IsAvailable(ctx)
}

// Complete waits for rate limit clearance, then delegates
func (t *Throttled) Complete(ctx context.Context, model, prompt string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return t.inner.Complete(ctx, model, prompt)
}
