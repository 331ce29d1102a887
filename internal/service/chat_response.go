package service

import (
	"unicode/utf8"

	"career-chat-be/internal/constant"
	"career-chat-be/internal/dto"
	"career-chat-be/internal/entity"
	"career-chat-be/pkg/ai/formatter"
)

func toSessionResponse(s *entity.ChatSession) dto.SessionResponse {
	return dto.SessionResponse{
		Id:        s.Id,
		UserId:    s.UserId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// toMessageResponse attaches formatter blocks to assistant replies only.
func toMessageResponse(m *entity.ChatMessage) *dto.MessageResponse {
	if m == nil {
		return nil
	}
	res := &dto.MessageResponse{
		Id:            m.Id,
		ChatSessionId: m.ChatSessionId,
		UserId:        m.UserId,
		Role:          m.Role,
		Content:       m.Content,
		CreatedAt:     m.CreatedAt,
	}
	if m.Role == constant.ChatMessageRoleAssistant {
		res.Blocks = formatter.Format(m.Content)
	}
	return res
}

func toMessageResponses(messages []*entity.ChatMessage) []*dto.MessageResponse {
	out := make([]*dto.MessageResponse, len(messages))
	for i, m := range messages {
		out[i] = toMessageResponse(m)
	}
	return out
}

// snippet keeps the first ChatSnippetMaxLength runes and marks the cut.
func snippet(content string) string {
	if utf8.RuneCountInString(content) <= constant.ChatSnippetMaxLength {
		return content
	}
	return string([]rune(content)[:constant.ChatSnippetMaxLength]) + "..."
}
