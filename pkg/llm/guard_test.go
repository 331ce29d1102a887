package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	answer string
	err    error
	block  bool
	calls  int
}

func (s *stubProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.answer, s.err
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return s.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}

func TestGuard_PassesAnswerThrough(t *testing.T) {
	g := NewGuard(&stubProvider{answer: "Learn SQL first."}, "stub", time.Second)

	out, err := g.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "Where do I start?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Learn SQL first.", out)
}

func TestGuard_Failures(t *testing.T) {
	boom := errors.New("connection reset")

	tests := []struct {
		name      string
		inner     *stubProvider
		history   []Message
		wantErr   error
		wantCalls int
	}{
		{
			name:    "empty history",
			inner:   &stubProvider{answer: "x"},
			history: nil,
			wantErr: ErrEmptyHistory,
		},
		{
			name:    "unknown role never reaches the backend",
			inner:   &stubProvider{answer: "x"},
			history: []Message{{Role: "model", Content: "hi"}},
		},
		{
			name:      "backend error",
			inner:     &stubProvider{err: boom},
			history:   []Message{{Role: RoleUser, Content: "hi"}},
			wantErr:   boom,
			wantCalls: 1,
		},
		{
			name:      "blank answer",
			inner:     &stubProvider{answer: " \n\t"},
			history:   []Message{{Role: RoleUser, Content: "hi"}},
			wantErr:   ErrEmptyResponse,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(tt.inner, "stub", time.Second)
			_, err := g.Chat(context.Background(), tt.history)

			var providerErr *ProviderError
			require.ErrorAs(t, err, &providerErr)
			assert.Equal(t, "stub", providerErr.Provider)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantCalls, tt.inner.calls)
		})
	}
}

func TestGuard_Timeout(t *testing.T) {
	g := NewGuard(&stubProvider{block: true}, "stub", 20*time.Millisecond)

	start := time.Now()
	_, err := g.Generate(context.Background(), "hello")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSplitSystem(t *testing.T) {
	system, rest := SplitSystem([]Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "q"},
		{Role: RoleSystem, Content: "b"},
		{Role: RoleAssistant, Content: "r"},
	})
	assert.Equal(t, "a\n\nb", system)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "q"}, {Role: RoleAssistant, Content: "r"}}, rest)
}
