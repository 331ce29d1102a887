package service

import (
	"context"
	"strings"
	"time"

	"career-chat-be/internal/constant"
	"career-chat-be/internal/dto"
	"career-chat-be/internal/entity"
	"career-chat-be/internal/pkg/apperror"
	"career-chat-be/internal/pkg/logger"
	"career-chat-be/internal/repository/contract"
	"career-chat-be/internal/repository/specification"
	"career-chat-be/internal/repository/unitofwork"
	"career-chat-be/pkg/events"

	"github.com/google/uuid"
)

const (
	recentSessionsDefault = 10
	recentSessionsMax     = 50
)

type IChatSessionService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	ListByUser(ctx context.Context, userId uuid.UUID) ([]*dto.SessionListItemResponse, error)
	Recent(ctx context.Context, userId uuid.UUID, limit int) ([]*dto.RecentSessionResponse, error)
	Get(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionDetailResponse, error)
	Update(ctx context.Context, userId, sessionId uuid.UUID, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error)
	Delete(ctx context.Context, userId, sessionId uuid.UUID) (*dto.DeleteSessionResponse, error)
	Search(ctx context.Context, userId uuid.UUID, query string) ([]*dto.SessionSearchResult, error)
}

type chatSessionService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  events.Publisher
	logger     logger.ILogger
}

func NewChatSessionService(uowFactory unitofwork.RepositoryFactory, publisher events.Publisher, log logger.ILogger) IChatSessionService {
	return &chatSessionService{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     log,
	}
}

func findOwnedSession(ctx context.Context, repo contract.ChatSessionRepository, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := repo.FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("chat session not found")
	}
	return session, nil
}

func (s *chatSessionService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = constant.ChatSessionDefaultTitle
	}

	now := time.Now().UTC()
	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	res := toSessionResponse(session)
	return &res, nil
}

func (s *chatSessionService) ListByUser(ctx context.Context, userId uuid.UUID) ([]*dto.SessionListItemResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	counts, err := uow.ChatMessageRepository().CountGroupedBySession(ctx, sessionIds(sessions))
	if err != nil {
		return nil, err
	}

	res := make([]*dto.SessionListItemResponse, len(sessions))
	for i, cs := range sessions {
		res[i] = &dto.SessionListItemResponse{
			SessionResponse: toSessionResponse(cs),
			MessageCount:    counts[cs.Id],
		}
	}
	return res, nil
}

// Recent lists the sessions touched last, each with its newest message.
func (s *chatSessionService) Recent(ctx context.Context, userId uuid.UUID, limit int) ([]*dto.RecentSessionResponse, error) {
	if limit <= 0 {
		limit = recentSessionsDefault
	}
	if limit > recentSessionsMax {
		limit = recentSessionsMax
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	counts, err := uow.ChatMessageRepository().CountGroupedBySession(ctx, sessionIds(sessions))
	if err != nil {
		return nil, err
	}

	res := make([]*dto.RecentSessionResponse, 0, len(sessions))
	for _, cs := range sessions {
		last, err := uow.ChatMessageRepository().FindOne(ctx,
			specification.ByChatSessionID{ChatSessionID: cs.Id},
			specification.ExcludeRole{Role: constant.ChatMessageRoleSystem},
			specification.OrderBy{Field: "created_at", Desc: true},
			specification.OrderBy{Field: "seq", Desc: true},
		)
		if err != nil {
			return nil, err
		}
		res = append(res, &dto.RecentSessionResponse{
			SessionResponse: toSessionResponse(cs),
			MessageCount:    counts[cs.Id],
			LastMessage:     toMessageResponse(last),
		})
	}
	return res, nil
}

func (s *chatSessionService) Get(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := findOwnedSession(ctx, uow.ChatSessionRepository(), userId, sessionId)
	if err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: session.Id},
		specification.OrderBy{Field: "created_at"},
		specification.OrderBy{Field: "seq"},
	)
	if err != nil {
		return nil, err
	}

	return &dto.SessionDetailResponse{
		SessionResponse: toSessionResponse(session),
		Messages:        toMessageResponses(messages),
	}, nil
}

func (s *chatSessionService) Update(ctx context.Context, userId, sessionId uuid.UUID, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error) {
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		return nil, apperror.Validation("title is required")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := findOwnedSession(ctx, uow.ChatSessionRepository(), userId, sessionId)
	if err != nil {
		return nil, err
	}

	session.Title = strings.TrimSpace(*req.Title)
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}

	res := toSessionResponse(session)
	return &res, nil
}

// Delete removes the messages first, then the session. If the second step
// fails the messages stay gone; calling Delete again finishes the job.
func (s *chatSessionService) Delete(ctx context.Context, userId, sessionId uuid.UUID) (*dto.DeleteSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := findOwnedSession(ctx, uow.ChatSessionRepository(), userId, sessionId)
	if err != nil {
		return nil, err
	}

	deleted, err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, session.Id)
	if err != nil {
		return nil, err
	}

	if err := uow.ChatSessionRepository().Delete(ctx, session.Id); err != nil {
		s.logger.Error("ChatSessionService", "Session delete failed after its messages were removed", map[string]interface{}{
			"session_id":       session.Id.String(),
			"messages_deleted": deleted,
			"error":            err.Error(),
		})
		return nil, apperror.PartialDelete("chat session messages were deleted but the session was not; retry the delete", err)
	}

	publish(ctx, s.publisher, s.logger, events.NewSessionDeleted(userId, session.Id, deleted))

	return &dto.DeleteSessionResponse{Id: session.Id, MessagesDeleted: deleted}, nil
}

func (s *chatSessionService) Search(ctx context.Context, userId uuid.UUID, query string) ([]*dto.SessionSearchResult, error) {
	results := make([]*dto.SessionSearchResult, 0)
	// blank queries match nothing; anything else is matched as typed
	if strings.TrimSpace(query) == "" {
		return results, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.SessionTitleOrContentContains{Query: query},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	for _, cs := range sessions {
		match, err := uow.ChatMessageRepository().FindOne(ctx,
			specification.ByChatSessionID{ChatSessionID: cs.Id},
			specification.ContentContains{Query: query},
			specification.OrderBy{Field: "created_at", Desc: true},
			specification.OrderBy{Field: "seq", Desc: true},
		)
		if err != nil {
			return nil, err
		}

		result := &dto.SessionSearchResult{
			SessionId: cs.Id,
			Title:     cs.Title,
			UpdatedAt: cs.UpdatedAt,
		}
		if match != nil {
			text := snippet(match.Content)
			result.Snippet = &text
		}
		results = append(results, result)
	}
	return results, nil
}

func sessionIds(sessions []*entity.ChatSession) []uuid.UUID {
	ids := make([]uuid.UUID, len(sessions))
	for i, cs := range sessions {
		ids[i] = cs.Id
	}
	return ids
}
