// Package title derives a short session title from the opening of a conversation.
package title

import (
	"context"
	"strings"
	"unicode/utf8"

	"career-chat-be/internal/constant"
	"career-chat-be/pkg/llm"
)

type Generator struct {
	provider llm.LLMProvider
}

func NewGenerator(provider llm.LLMProvider) *Generator {
	return &Generator{provider: provider}
}

// Generate asks the model for a title. A conversation with no user or
// assistant turn gets the placeholder title without a model call. Provider
// errors are returned as is; the caller decides on a fallback.
func (g *Generator) Generate(ctx context.Context, history []llm.Message) (string, error) {
	turns := make([]llm.Message, 0, len(history)+1)
	firstUser := ""
	for _, m := range history {
		if m.Role == llm.RoleSystem {
			continue
		}
		if firstUser == "" && m.Role == llm.RoleUser {
			firstUser = m.Content
		}
		turns = append(turns, llm.Message{Role: m.Role, Content: m.Content})
	}
	if len(turns) == 0 {
		return constant.ChatSessionDefaultTitle, nil
	}

	turns = append(turns, llm.Message{Role: llm.RoleUser, Content: constant.ChatTitlePromptV1})
	raw, err := g.provider.Chat(ctx, turns, llm.WithTemperature(0.2), llm.WithMaxTokens(32))
	if err != nil {
		return "", err
	}

	if t := Clean(raw); t != "" {
		return t, nil
	}
	return Excerpt(firstUser), nil
}

var titlePrefixes = []string{"title:", "title -"}

// Clean keeps the first non-blank line of a model answer and strips the
// decoration models like to add.
func Clean(raw string) string {
	line := ""
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}

	line = strings.TrimLeft(line, "#>-* ")
	lower := strings.ToLower(line)
	for _, p := range titlePrefixes {
		if strings.HasPrefix(lower, p) {
			line = strings.TrimSpace(line[len(p):])
			break
		}
	}
	line = strings.ReplaceAll(line, "**", "")
	line = strings.Trim(line, "\"'`*_ ")
	line = strings.TrimRight(line, ".!")
	line = strings.Join(strings.Fields(line), " ")

	return Excerpt(line)
}

// Excerpt collapses whitespace and caps text at the title length.
func Excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	return Truncate(text, constant.ChatTitleMaxLength)
}

// Truncate cuts s to at most max runes, ending in "..." when it had to cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-3]) + "..."
}
