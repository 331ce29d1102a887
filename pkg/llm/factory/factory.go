package factory

import (
	"context"
	"fmt"

	"career-chat-be/pkg/llm"
	"career-chat-be/pkg/llm/anthropic"
	"career-chat-be/pkg/llm/gemini"
	"career-chat-be/pkg/llm/huggingface"
	"career-chat-be/pkg/llm/ollama"
	"career-chat-be/pkg/llm/openai"
)

type Params struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

func NewLLMProvider(ctx context.Context, p Params) (llm.LLMProvider, error) {
	switch p.Provider {
	case "gemini":
		if p.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return gemini.NewGeminiProvider(ctx, p.APIKey, p.Model)
	case "anthropic":
		if p.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return anthropic.NewAnthropicProvider(p.APIKey, p.Model), nil
	case "openai":
		return openai.NewOpenAIProvider(p.APIKey, p.BaseURL, p.Model)
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(p.APIKey, p.BaseURL, p.Model), nil
	case "ollama":
		baseURL := p.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, p.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", p.Provider)
	}
}
