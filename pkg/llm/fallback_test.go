package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	mu      sync.Mutex
	failing map[string]error
	probed  []string
	// lastOpts holds the options of the most recent call.
	lastOpts Options
}

func (p *scriptedProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	return p.Generate(ctx, history[len(history)-1].Content, options...)
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	opts := Apply(Options{}, options...)
	p.mu.Lock()
	p.probed = append(p.probed, opts.Model)
	p.lastOpts = opts
	p.mu.Unlock()
	if err, ok := p.failing[opts.Model]; ok {
		return "", err
	}
	return "OK", nil
}

func (p *scriptedProvider) Stream(ctx context.Context, prompt string, onChunk ChunkHandler, options ...Option) error {
	return errors.New("not used")
}

func TestFallbackResolve(t *testing.T) {
	tests := []struct {
		name      string
		failing   map[string]error
		wantModel string
		wantProbe []string
		wantErr   bool
	}{
		{
			name:      "first candidate answers",
			failing:   map[string]error{},
			wantModel: "flash-lite",
			wantProbe: []string{"flash-lite"},
		},
		{
			name:      "falls through in order",
			failing:   map[string]error{"flash-lite": errors.New("quota")},
			wantModel: "flash",
			wantProbe: []string{"flash-lite", "flash"},
		},
		{
			name: "all fail",
			failing: map[string]error{
				"flash-lite": errors.New("quota"),
				"flash":      errors.New("overloaded"),
				"pro":        errors.New("not found"),
			},
			wantProbe: []string{"flash-lite", "flash", "pro"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := NewFallback([]string{"flash-lite", "flash", "pro"})
			p := &scriptedProvider{failing: tt.failing}

			model, err := fb.Resolve(context.Background(), p, "user-1")
			assert.Equal(t, tt.wantProbe, p.probed)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrAllModelsFailed)
				assert.Contains(t, err.Error(), "quota")
				assert.Contains(t, err.Error(), "overloaded")
				assert.Contains(t, err.Error(), "not found")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, model)
		})
	}
}

func TestFallbackResolveAcceptsEmptyAnswer(t *testing.T) {
	fb := NewFallback([]string{"thinking", "plain"})
	p := &scriptedProvider{failing: map[string]error{"thinking": ErrEmptyResponse}}

	model, err := fb.Resolve(context.Background(), p, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "thinking", model)
	assert.Equal(t, []string{"thinking"}, p.probed)
	assert.Equal(t, resolveMaxTokens, p.lastOpts.MaxTokens)
	assert.Zero(t, p.lastOpts.Temperature)
}

func TestFallbackOpenBreakerSkipsModel(t *testing.T) {
	fb := NewFallback([]string{"flaky", "stable"})
	p := &scriptedProvider{failing: map[string]error{"flaky": errors.New("503")}}

	for i := 0; i < 3; i++ {
		model, err := fb.Resolve(context.Background(), p, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "stable", model)
	}

	p.probed = nil
	model, err := fb.Resolve(context.Background(), p, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "stable", model)
	assert.Equal(t, []string{"stable"}, p.probed, "open breaker must not reach the provider")

	// Another scope has its own breaker.
	p.probed = nil
	_, err = fb.Resolve(context.Background(), p, "user-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"flaky", "stable"}, p.probed)
}

func TestFallbackNoCandidates(t *testing.T) {
	_, err := NewFallback(nil).Resolve(context.Background(), &scriptedProvider{}, "s")
	assert.ErrorIs(t, err, ErrAllModelsFailed)
}

func TestFallbackCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFallback([]string{"a"}).Resolve(ctx, &scriptedProvider{}, "s")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFallbackRunUsesRealCall(t *testing.T) {
	fb := NewFallback([]string{"a", "b", "c"})
	var tried []string
	model, err := fb.Run(context.Background(), "s", func(model string) error {
		tried = append(tried, model)
		if model == "a" {
			return errors.New("overloaded")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "b", model)
	assert.Equal(t, []string{"a", "b"}, tried)
}

func TestFallbackRunStopsOnPermanentError(t *testing.T) {
	fb := NewFallback([]string{"a", "b"})
	bad := errors.New("no json")
	var tried []string
	_, err := fb.Run(context.Background(), "s", func(model string) error {
		tried = append(tried, model)
		return &Permanent{Err: bad}
	})
	assert.ErrorIs(t, err, bad)
	assert.NotErrorIs(t, err, ErrAllModelsFailed)
	assert.Equal(t, []string{"a"}, tried)

	// Permanent failures never open the breaker.
	for i := 0; i < 5; i++ {
		_, _ = fb.Run(context.Background(), "s", func(string) error { return &Permanent{Err: bad} })
	}
	model, err := fb.Run(context.Background(), "s", func(string) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "a", model)
}
