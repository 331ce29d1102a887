package anthropic

import (
	"context"
	"fmt"
	"strings"

	"career-chat-be/pkg/llm"

	"github.com/liushuangls/go-anthropic/v2"
)

const defaultMaxTokens = 1024

type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

var _ llm.LLMProvider = (*AnthropicProvider)(nil)

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(apiKey),
		model:  model,
	}
}

func (p *AnthropicProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.Apply(llm.Options{Model: p.model, Temperature: 0.7, MaxTokens: defaultMaxTokens}, options...)

	var systemParts []anthropic.MessageSystemPart
	var messages []anthropic.Message
	for _, m := range history {
		switch m.Role {
		case llm.RoleSystem:
			systemParts = append(systemParts, anthropic.MessageSystemPart{
				Type: "text",
				Text: m.Content,
			})
		case llm.RoleAssistant:
			messages = append(messages, anthropic.Message{
				Role:    anthropic.RoleAssistant,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(m.Content)},
			})
		default:
			messages = append(messages, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(m.Content)},
			})
		}
	}

	temperature := float32(opts.Temperature)
	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(opts.Model),
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: &temperature,
	}
	if len(systemParts) > 0 {
		req.MultiSystem = systemParts
	}

	resp, err := p.client.CreateMessages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("anthropic create messages: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			sb.WriteString(*block.Text)
		}
	}
	return sb.String(), nil
}

func (p *AnthropicProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}
