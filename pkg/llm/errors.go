package llm

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyHistory  = errors.New("llm: empty history")
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrUnsupportedInput is returned when a backend cannot take part of a turn, such as audio.
	ErrUnsupportedInput = errors.New("llm: unsupported input")
)

// ProviderError wraps any failure coming out of a backend: transport,
// timeout, refusal or a blank answer.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
