// Package ollama talks to a local Ollama server through its native /api/chat endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"career-chat-be/pkg/llm"
)

// maxErrorBody bounds how much of a failed response ends up in the error.
const maxErrorBody = 512

// OllamaProvider has no client timeout of its own; callers bound each call
// through ctx (llm.Guard does).
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

var _ llm.LLMProvider = (*OllamaProvider)(nil)

type ProviderOption func(*OllamaProvider)

// WithHTTPClient swaps the transport, e.g. for a proxy-aware client.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *OllamaProvider) {
		p.client = c
	}
}

func NewOllamaProvider(baseURL, model string, options ...ProviderOption) *OllamaProvider {
	p := &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  sampling      `json:"options"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type sampling struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Message    chatMessage `json:"message"`
	Done       bool        `json:"done"`
	DoneReason string      `json:"done_reason,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func toChatMessages(history []llm.Message) ([]chatMessage, error) {
	out := make([]chatMessage, 0, len(history))
	for i, m := range history {
		// /api/chat takes text and images only
		if m.Audio != nil {
			return nil, fmt.Errorf("ollama: turn %d carries %s audio: %w", i, m.Audio.MimeType, llm.ErrUnsupportedInput)
		}
		out = append(out, chatMessage{Role: m.Role, Content: m.Content})
	}
	return out, nil
}

func (p *OllamaProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.Apply(llm.Options{Model: p.model, Temperature: 0.7}, options...)

	messages, err := toChatMessages(history)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(chatRequest{
		Model:    opts.Model,
		Messages: messages,
		Options:  sampling{Temperature: opts.Temperature, NumPredict: opts.MaxTokens},
	})
	if err != nil {
		return "", fmt.Errorf("ollama marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ollama build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama decode response: %w", err)
	}
	if out.Error != "" {
		return "", errors.New("ollama: " + out.Error)
	}
	if !out.Done {
		return "", fmt.Errorf("ollama: generation did not finish: %w", llm.ErrEmptyResponse)
	}
	if strings.TrimSpace(out.Message.Content) == "" {
		return "", fmt.Errorf("ollama: blank answer (done_reason=%q): %w", out.DoneReason, llm.ErrEmptyResponse)
	}
	return out.Message.Content, nil
}

func (p *OllamaProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

// statusError prefers Ollama's {"error": "..."} body over the raw text.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var parsed struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
		return fmt.Errorf("ollama: status %d: %s", resp.StatusCode, parsed.Error)
	}
	return fmt.Errorf("ollama: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
