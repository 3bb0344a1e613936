package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"
)

// ErrAllModelsFailed wraps the joined per-model probe errors.
var ErrAllModelsFailed = errors.New("all candidate models failed")

const (
	probePrompt = "Reply with the single word OK."
	// Reasoning models spend part of the output budget before answering.
	resolveMaxTokens = 256
)

// Fallback picks the first candidate model that answers a capability probe.
// Candidates are tried strictly in the configured order.
type Fallback struct {
	candidates []string
	breakers   *cache.Cache
	settings   gobreaker.Settings
}

func NewFallback(candidates []string) *Fallback {
	return &Fallback{
		candidates: append([]string(nil), candidates...),
		breakers:   cache.New(time.Hour, 10*time.Minute),
		settings: gobreaker.Settings{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			IsSuccessful: func(err error) bool {
				// Caller cancellation and bad output say nothing about availability.
				return err == nil || errors.Is(err, context.Canceled) || !Retryable(err)
			},
		},
	}
}

func (f *Fallback) Candidates() []string {
	return append([]string(nil), f.candidates...)
}

// breaker returns the breaker for (scope, model). Scope keeps one user's bad
// credential from opening the circuit for everybody else.
func (f *Fallback) breaker(scope, model string) *gobreaker.CircuitBreaker {
	key := scope + "|" + model
	if cb, ok := f.breakers.Get(key); ok {
		return cb.(*gobreaker.CircuitBreaker)
	}
	s := f.settings
	s.Name = key
	cb := gobreaker.NewCircuitBreaker(s)
	// Add fails if another request created it first; use whichever is stored.
	if err := f.breakers.Add(key, cb, cache.DefaultExpiration); err != nil {
		if existing, ok := f.breakers.Get(key); ok {
			return existing.(*gobreaker.CircuitBreaker)
		}
	}
	return cb
}

// Resolve returns the first model that answers the probe. Streaming callers
// use it because a half-delivered stream cannot be retried on another model.
func (f *Fallback) Resolve(ctx context.Context, provider LLMProvider, scope string) (string, error) {
	return f.Run(ctx, scope, func(model string) error {
		_, err := provider.Generate(ctx, probePrompt, WithModel(model), WithMaxTokens(resolveMaxTokens), WithTemperature(0))
		if errors.Is(err, ErrEmptyResponse) {
			// The model answered; it just ran out of budget before any text.
			return nil
		}
		return err
	})
}

// Run calls fn with each candidate in order until one succeeds, and returns
// that model. Candidates whose breaker is open are skipped without a call.
func (f *Fallback) Run(ctx context.Context, scope string, fn func(model string) error) (string, error) {
	if len(f.candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates configured", ErrAllModelsFailed)
	}

	var errs []error
	for _, model := range f.candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		_, err := f.breaker(scope, model).Execute(func() (interface{}, error) {
			return nil, fn(model)
		})
		if err == nil {
			return model, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !Retryable(err) {
			return "", err
		}
		errs = append(errs, fmt.Errorf("%s: %w", model, err))
	}

	return "", fmt.Errorf("%w: %w", ErrAllModelsFailed, errors.Join(errs...))
}

// Permanent marks an error that another model would not fix, such as a
// response that failed to parse. Run returns it without trying further
// candidates.
type Permanent struct {
	Err error
}

func (e *Permanent) Error() string { return e.Err.Error() }
func (e *Permanent) Unwrap() error { return e.Err }

// Retryable reports whether Run should move on to the next candidate.
func Retryable(err error) bool {
	var p *Permanent
	return !errors.As(err, &p)
}
