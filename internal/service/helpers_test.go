package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"career-chat-be/internal/constant"
	"career-chat-be/internal/dto"
	"career-chat-be/internal/pkg/logger"
	"career-chat-be/internal/repository/memory"
	"career-chat-be/internal/repository/unitofwork"
	"career-chat-be/pkg/events"
	"career-chat-be/pkg/lease"
	"career-chat-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var errModelDown = errors.New("model unavailable")

// scriptedLLM answers title requests and chat turns separately.
type scriptedLLM struct {
	mu         sync.Mutex
	title      string
	titleErr   error
	reply      string
	replyErr   error
	titleCalls int
	replies    [][]llm.Message
}

func isTitleRequest(history []llm.Message) bool {
	return len(history) > 0 && history[len(history)-1].Content == constant.ChatTitlePromptV1
}

func (p *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if isTitleRequest(history) {
		p.titleCalls++
		return p.title, p.titleErr
	}
	p.replies = append(p.replies, history)
	return p.reply, p.replyErr
}

func (p *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// stepClock hands out strictly increasing instants.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type testEnv struct {
	ctx      context.Context
	uowf     unitofwork.RepositoryFactory
	llm      *scriptedLLM
	events   *recordingPublisher
	auth     IAuthService
	sessions IChatSessionService
	messages IChatMessageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, memory.NewRepositoryFactory(memory.NewStore()), constant.ChatHistoryLimit)
}

func newTestEnvWith(t *testing.T, uowf unitofwork.RepositoryFactory, historyLimit int) *testEnv {
	t.Helper()
	log := logger.NewNop()
	provider := &scriptedLLM{title: "Data Science Career Path", reply: "Start with:\n- Python\n- Statistics"}
	pub := &recordingPublisher{}
	clock := &stepClock{now: time.Now().Add(time.Minute)}

	return &testEnv{
		ctx:      context.Background(),
		uowf:     uowf,
		llm:      provider,
		events:   pub,
		auth:     NewAuthService(uowf, pub, log, "test-secret", time.Hour),
		sessions: NewChatSessionService(uowf, pub, log),
		messages: NewChatMessageService(uowf, provider, lease.NewMemoryLease(), pub, log, ChatMessageServiceOptions{HistoryLimit: historyLimit, Now: clock.Now}),
	}
}

// signUp registers a user and returns it with the session created for it.
func (e *testEnv) signUp(t *testing.T, email string) (uuid.UUID, uuid.UUID) {
	t.Helper()
	res, err := e.auth.SignUp(e.ctx, &dto.SignUpRequest{Email: email, Password: "secret123"})
	require.NoError(t, err)

	list, err := e.sessions.ListByUser(e.ctx, res.Id)
	require.NoError(t, err)
	require.Len(t, list, 1)
	return res.Id, list[0].Id
}

func (e *testEnv) send(t *testing.T, userId, sessionId uuid.UUID, content string) *dto.CreateMessageResponse {
	t.Helper()
	res, err := e.messages.Create(e.ctx, userId, sessionId, &dto.CreateMessageRequest{Content: content})
	require.NoError(t, err)
	return res
}
