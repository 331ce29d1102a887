package gemini

import (
	"context"
	"fmt"

	"career-chat-be/pkg/llm"

	"google.golang.org/genai"
)

type GeminiProvider struct {
	client *genai.Client
	model  string
}

var _ llm.LLMProvider = (*GeminiProvider)(nil)

func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini new client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.Apply(llm.Options{Model: p.model, Temperature: 0.7}, options...)

	system, turns := llm.SplitSystem(history)
	contents := make([]*genai.Content, 0, len(turns))
	for _, m := range turns {
		contents = append(contents, toContent(m))
	}

	temp := float32(opts.Temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	res, err := p.client.Models.GenerateContent(ctx, opts.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return res.Text(), nil
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func toContent(m llm.Message) *genai.Content {
	role := genai.Role(genai.RoleUser)
	if m.Role == llm.RoleAssistant {
		role = genai.RoleModel
	}
	if m.Audio == nil {
		return genai.NewContentFromText(m.Content, role)
	}

	parts := []*genai.Part{genai.NewPartFromBytes(m.Audio.Data, m.Audio.MimeType)}
	if m.Content != "" {
		parts = append(parts, genai.NewPartFromText(m.Content))
	}
	return genai.NewContentFromParts(parts, role)
}
