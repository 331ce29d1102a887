package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Guard wraps a backend with the checks every caller wants: known roles in,
// a deadline on the call, and a non-blank answer out. All failures come
// back as *ProviderError.
type Guard struct {
	inner   LLMProvider
	name    string
	timeout time.Duration
}

var _ LLMProvider = (*Guard)(nil)

func NewGuard(inner LLMProvider, name string, timeout time.Duration) *Guard {
	return &Guard{inner: inner, name: name, timeout: timeout}
}

func (g *Guard) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	if len(history) == 0 {
		return "", g.wrap(ErrEmptyHistory)
	}
	for i, m := range history {
		switch m.Role {
		case RoleUser, RoleAssistant, RoleSystem:
		default:
			return "", g.wrap(fmt.Errorf("message %d has unknown role %q", i, m.Role))
		}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	out, err := g.inner.Chat(ctx, history, options...)
	if err != nil {
		return "", g.wrap(err)
	}
	if strings.TrimSpace(out) == "" {
		return "", g.wrap(ErrEmptyResponse)
	}
	return out, nil
}

func (g *Guard) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return g.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, options...)
}

func (g *Guard) wrap(err error) error {
	return &ProviderError{Provider: g.name, Err: err}
}
