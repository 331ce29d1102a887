package openai

import (
	"context"
	"fmt"

	"career-chat-be/pkg/llm"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// OpenAIProvider covers api.openai.com and any OpenAI-compatible base URL.
type OpenAIProvider struct {
	model llms.Model
}

var _ llm.LLMProvider = (*OpenAIProvider)(nil)

func NewOpenAIProvider(apiKey, baseURL, model string) (*OpenAIProvider, error) {
	opts := []lcopenai.Option{
		lcopenai.WithToken(apiKey),
		lcopenai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(baseURL))
	}
	client, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai new client: %w", err)
	}
	return &OpenAIProvider{model: client}, nil
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.Apply(llm.Options{Temperature: 0.7}, options...)

	content := make([]llms.MessageContent, 0, len(history))
	for _, m := range history {
		content = append(content, llms.TextParts(chatMessageType(m.Role), m.Content))
	}

	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if opts.Model != "" {
		callOpts = append(callOpts, llms.WithModel(opts.Model))
	}

	resp, err := p.model.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", fmt.Errorf("openai generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func chatMessageType(role string) llms.ChatMessageType {
	switch role {
	case llm.RoleSystem:
		return llms.ChatMessageTypeSystem
	case llm.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
