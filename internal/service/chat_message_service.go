package service

import (
	"context"
	"encoding/base64"
	"slices"
	"strings"
	"time"

	"career-chat-be/internal/constant"
	"career-chat-be/internal/dto"
	"career-chat-be/internal/entity"
	"career-chat-be/internal/pkg/apperror"
	"career-chat-be/internal/pkg/logger"
	"career-chat-be/internal/repository/specification"
	"career-chat-be/internal/repository/unitofwork"
	"career-chat-be/pkg/ai/title"
	"career-chat-be/pkg/events"
	"career-chat-be/pkg/lease"
	"career-chat-be/pkg/llm"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const titleLeaseTTL = 90 * time.Second

var tracer = otel.Tracer("career-chat-be/internal/service")

type IChatMessageService interface {
	Create(ctx context.Context, userId, sessionId uuid.UUID, req *dto.CreateMessageRequest) (*dto.CreateMessageResponse, error)
	List(ctx context.Context, userId, sessionId uuid.UUID) ([]*dto.MessageResponse, error)
	Delete(ctx context.Context, userId, messageId uuid.UUID) (*dto.MessageResponse, error)
	DeleteBySession(ctx context.Context, userId, sessionId uuid.UUID) (*dto.DeleteMessagesResponse, error)
}

type ChatMessageServiceOptions struct {
	HistoryLimit int
	// Now is overridable so tests can pin timestamps.
	Now func() time.Time
}

type chatMessageService struct {
	uowFactory   unitofwork.RepositoryFactory
	provider     llm.LLMProvider
	titles       *title.Generator
	lease        lease.Lease
	publisher    events.Publisher
	logger       logger.ILogger
	historyLimit int
	now          func() time.Time
}

func NewChatMessageService(
	uowFactory unitofwork.RepositoryFactory,
	provider llm.LLMProvider,
	titleLease lease.Lease,
	publisher events.Publisher,
	log logger.ILogger,
	opts ChatMessageServiceOptions,
) IChatMessageService {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = constant.ChatHistoryLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &chatMessageService{
		uowFactory:   uowFactory,
		provider:     provider,
		titles:       title.NewGenerator(provider),
		lease:        titleLease,
		publisher:    publisher,
		logger:       log,
		historyLimit: opts.HistoryLimit,
		now:          opts.Now,
	}
}

// Stored timestamps have microsecond precision in Postgres; truncating here
// keeps in-process ordering checks honest.
func (s *chatMessageService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create persists the inbound user message, then derives the session title
// and asks the model for a reply. Only the first step can fail the call.
func (s *chatMessageService) Create(ctx context.Context, userId, sessionId uuid.UUID, req *dto.CreateMessageRequest) (*dto.CreateMessageResponse, error) {
	ctx, span := tracer.Start(ctx, "chat.message.create")
	defer span.End()
	span.SetAttributes(attribute.String("chat.session_id", sessionId.String()))

	role := req.Role
	if role == "" {
		role = constant.ChatMessageRoleUser
	}
	if role != constant.ChatMessageRoleUser {
		return nil, apperror.Validation("role must be user")
	}

	var audio *llm.Audio
	content := req.Content
	if req.Audio != nil {
		data, err := base64.StdEncoding.DecodeString(req.Audio.Base64)
		if err != nil {
			return nil, apperror.Validation("audio must be base64 encoded")
		}
		audio = &llm.Audio{MimeType: req.Audio.MimeType, Data: data}
		if content == "" {
			content = constant.ChatMessageAudioMarker
		}
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperror.Validation("content is required")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := findOwnedSession(ctx, uow.ChatSessionRepository(), userId, sessionId)
	if err != nil {
		return nil, err
	}

	userMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		UserId:        userId,
		Role:          role,
		Content:       content,
		CreatedAt:     s.timestamp(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMessage); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist message")
		return nil, err
	}
	if err := uow.ChatSessionRepository().Touch(ctx, session.Id, userMessage.CreatedAt); err != nil {
		s.logger.Warn("ChatMessageService", "Failed to bump session updated_at", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}
	publish(ctx, s.publisher, s.logger, events.NewMessageCreated(userId, session.Id, userMessage.Id, role))

	return &dto.CreateMessageResponse{
		UserMessage: toMessageResponse(userMessage),
		Title:       s.deriveTitle(ctx, session, userMessage),
		AiMessage:   toMessageResponse(s.reply(ctx, session, userMessage, audio)),
	}, nil
}

func isPlaceholderTitle(t string) bool {
	t = strings.TrimSpace(t)
	return t == "" || t == constant.ChatSessionDefaultTitle
}

// deriveTitle replaces the placeholder title once per session. It never
// fails: every error path ends in the excerpt of the triggering message.
func (s *chatMessageService) deriveTitle(ctx context.Context, session *entity.ChatSession, trigger *entity.ChatMessage) string {
	if !isPlaceholderTitle(session.Title) {
		return session.Title
	}

	ctx, span := tracer.Start(ctx, "chat.session.title")
	defer span.End()

	logDetails := map[string]interface{}{"session_id": session.Id.String()}

	release, ok, err := s.lease.Acquire(ctx, "chat-title:"+session.Id.String(), titleLeaseTTL)
	switch {
	case err != nil:
		// lease backend down; titling twice beats not titling
		logDetails["error"] = err.Error()
		s.logger.Warn("ChatMessageService", "Title lease unavailable, continuing without it", logDetails)
	case !ok:
		s.logger.Debug("ChatMessageService", "Title derivation already running elsewhere", logDetails)
		return session.Title
	default:
		defer release()
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions := uow.ChatSessionRepository()

	fresh, err := sessions.FindOne(ctx, specification.ByID{ID: session.Id})
	if err != nil {
		logDetails["error"] = err.Error()
		s.logger.Warn("ChatMessageService", "Failed to re-read session before titling", logDetails)
		stale := *session
		fresh = &stale
	}
	if fresh == nil {
		// deleted while the message was being handled
		return session.Title
	}
	if !isPlaceholderTitle(fresh.Title) {
		return fresh.Title
	}

	fallback := title.Excerpt(trigger.Content)
	derived, generated := fallback, false

	history, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: session.Id},
		specification.OrderBy{Field: "created_at"},
		specification.OrderBy{Field: "seq"},
	)
	if err == nil {
		t, genErr := s.titles.Generate(ctx, toLLMMessages(history))
		switch {
		case genErr != nil:
			span.RecordError(genErr)
			s.logger.Warn("ChatMessageService", "Title generation failed, using excerpt", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      genErr.Error(),
			})
		case !isPlaceholderTitle(t):
			derived, generated = t, true
		}
	}
	if derived == "" {
		return fresh.Title
	}

	placeholder := fresh.Title
	fresh.Title = derived
	if err := sessions.Update(ctx, fresh); err != nil {
		s.logger.Warn("ChatMessageService", "Failed to store session title, retrying with excerpt", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		fresh.Title, generated = fallback, false
		if err := sessions.Update(ctx, fresh); err != nil {
			s.logger.Error("ChatMessageService", "Failed to store fallback session title", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      err.Error(),
			})
			return placeholder
		}
	}

	span.SetAttributes(attribute.Bool("chat.title.generated", generated))
	publish(ctx, s.publisher, s.logger, events.NewSessionTitled(fresh.UserId, fresh.Id, fresh.Title, generated))
	return fresh.Title
}

// reply returns nil when the model could not answer or the answer could not be stored.
func (s *chatMessageService) reply(ctx context.Context, session *entity.ChatSession, trigger *entity.ChatMessage, audio *llm.Audio) *entity.ChatMessage {
	ctx, span := tracer.Start(ctx, "chat.message.reply")
	defer span.End()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	recent, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: session.Id},
		specification.ExcludeRole{Role: constant.ChatMessageRoleSystem},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "seq", Desc: true},
		specification.Pagination{Limit: s.historyLimit},
	)
	if err != nil {
		s.logger.Error("ChatMessageService", "Failed to load history for reply", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		return nil
	}
	slices.Reverse(recent)

	history := make([]llm.Message, 0, len(recent)+1)
	history = append(history, llm.Message{Role: llm.RoleSystem, Content: constant.CareerCounselorSystemPromptV1})
	history = append(history, toLLMMessages(recent)...)
	// audio rides along with this turn only; it is never stored
	if audio != nil {
		for i, m := range recent {
			if m.Id == trigger.Id {
				history[i+1].Audio = audio
			}
		}
	}

	answer, err := s.provider.Chat(ctx, history)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider")
		s.logger.Error("ChatMessageService", "AI reply failed", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		return nil
	}

	createdAt := s.timestamp()
	if !createdAt.After(trigger.CreatedAt) {
		createdAt = trigger.CreatedAt.Add(time.Microsecond)
	}
	assistant := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: session.Id,
		UserId:        trigger.UserId,
		Role:          constant.ChatMessageRoleAssistant,
		Content:       answer,
		CreatedAt:     createdAt,
	}
	if err := uow.ChatMessageRepository().Create(ctx, assistant); err != nil {
		s.logger.Error("ChatMessageService", "Failed to store AI reply", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
		return nil
	}
	if err := uow.ChatSessionRepository().Touch(ctx, session.Id, assistant.CreatedAt); err != nil {
		s.logger.Warn("ChatMessageService", "Failed to bump session updated_at", map[string]interface{}{
			"session_id": session.Id.String(),
			"error":      err.Error(),
		})
	}
	publish(ctx, s.publisher, s.logger, events.NewMessageCreated(trigger.UserId, session.Id, assistant.Id, assistant.Role))
	return assistant
}

func (s *chatMessageService) List(ctx context.Context, userId, sessionId uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at"},
		specification.OrderBy{Field: "seq"},
	)
	if err != nil {
		return nil, err
	}
	return toMessageResponses(messages), nil
}

func (s *chatMessageService) Delete(ctx context.Context, userId, messageId uuid.UUID) (*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	message, err := uow.ChatMessageRepository().FindOne(ctx,
		specification.ByID{ID: messageId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, apperror.NotFound("chat message not found")
	}

	if err := uow.ChatMessageRepository().Delete(ctx, message.Id); err != nil {
		return nil, err
	}
	return toMessageResponse(message), nil
}

func (s *chatMessageService) DeleteBySession(ctx context.Context, userId, sessionId uuid.UUID) (*dto.DeleteMessagesResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := findOwnedSession(ctx, uow.ChatSessionRepository(), userId, sessionId)
	if err != nil {
		return nil, err
	}

	deleted, err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, session.Id)
	if err != nil {
		return nil, err
	}
	return &dto.DeleteMessagesResponse{Deleted: deleted}, nil
}

func toLLMMessages(messages []*entity.ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
