package title

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"career-chat-be/internal/constant"
	"career-chat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	answer string
	err    error
	calls  [][]llm.Message
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	p.calls = append(p.calls, history)
	return p.answer, p.err
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func TestGenerate_NoConversationKeepsPlaceholder(t *testing.T) {
	p := &scriptedProvider{answer: "unused"}
	g := NewGenerator(p)

	got, err := g.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, constant.ChatSessionDefaultTitle, got)

	got, err = g.Generate(context.Background(), []llm.Message{{Role: llm.RoleSystem, Content: "persona"}})
	require.NoError(t, err)
	assert.Equal(t, constant.ChatSessionDefaultTitle, got)

	assert.Empty(t, p.calls)
}

func TestGenerate_AppendsTitleInstruction(t *testing.T) {
	p := &scriptedProvider{answer: "\"Data Science Career Path\"\n"}
	g := NewGenerator(p)

	history := []llm.Message{
		{Role: llm.RoleSystem, Content: "persona"},
		{Role: llm.RoleUser, Content: "I want to become a data scientist"},
	}
	got, err := g.Generate(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "Data Science Career Path", got)

	require.Len(t, p.calls, 1)
	sent := p.calls[0]
	require.Len(t, sent, 2, "system turns are not sent")
	assert.Equal(t, "I want to become a data scientist", sent[0].Content)
	assert.Equal(t, llm.RoleUser, sent[1].Role)
	assert.Equal(t, constant.ChatTitlePromptV1, sent[1].Content)
}

func TestGenerate_BlankAnswerFallsBackToExcerpt(t *testing.T) {
	p := &scriptedProvider{answer: "  \n "}
	g := NewGenerator(p)

	got, err := g.Generate(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Content: "  How do I   switch into UX design?  "},
		{Role: llm.RoleAssistant, Content: "Great question"},
	})
	require.NoError(t, err)
	assert.Equal(t, "How do I switch into UX design?", got)
}

func TestGenerate_ProviderErrorIsReturned(t *testing.T) {
	boom := errors.New("rate limited")
	g := NewGenerator(&scriptedProvider{err: boom})

	_, err := g.Generate(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, boom)
}

func TestGenerate_CapsLength(t *testing.T) {
	g := NewGenerator(&scriptedProvider{answer: strings.Repeat("long title words ", 10)})

	got, err := g.Generate(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, constant.ChatTitleMaxLength, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestClean(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Career Change Plan", "Career Change Plan"},
		{"Title: **Becoming a Data Scientist**.", "Becoming a Data Scientist"},
		{"# 'Frontend Roadmap'", "Frontend Roadmap"},
		{"\n\n`Cloud Certifications`\nextra line", "Cloud Certifications"},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.raw))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 50))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééé...", Truncate("éééééééé", 6), "counts runes, not bytes")
}
