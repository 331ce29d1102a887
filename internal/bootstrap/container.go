package bootstrap

import (
	"context"
	"fmt"
	"log"

	"career-chat-be/internal/config"
	"career-chat-be/internal/controller"
	"career-chat-be/internal/handler"
	"career-chat-be/internal/pkg/logger"
	"career-chat-be/internal/pkg/mailer"
	"career-chat-be/internal/repository/memory"
	"career-chat-be/internal/repository/unitofwork"
	"career-chat-be/internal/service"
	internalWS "career-chat-be/internal/websocket"
	"career-chat-be/pkg/events"
	"career-chat-be/pkg/lease"
	"career-chat-be/pkg/llm"
	"career-chat-be/pkg/llm/factory"
	pktNats "career-chat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController        controller.IAuthController
	UserController        controller.IUserController
	ChatSessionController controller.IChatSessionController
	ChatMessageController controller.IChatMessageController
	LiveHandler           *handler.LiveHandler

	// Background Services (Exposed for main.go to run)
	Hub                *internalWS.Hub
	ActivityService    service.IActivityService
	LiveUpdateService  service.ILiveUpdateService
	WelcomeMailService service.IWelcomeMailService

	Logger logger.ILogger

	closers []func()
}

// Dependencies are the infrastructure pieces a Container is assembled from.
// Tests fill them with in-memory fakes.
type Dependencies struct {
	UowFactory  unitofwork.RepositoryFactory
	LLM         llm.LLMProvider
	Lease       lease.Lease
	Publisher   events.Publisher
	Subscriber  events.Subscriber
	Logger      logger.ILogger
	ActivityLog logger.ILogger
	// Optional: cross-replica websocket fan-out.
	Redis redis.UniversalClient
	// Optional: welcome mails on signup.
	Mailer mailer.IEmailService
}

// NewContainer wires production infrastructure from config. db may be nil
// when DB_DRIVER=memory.
func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	deps := Dependencies{
		Logger:      sysLogger,
		ActivityLog: logger.NewIsolatedLogger("logs/activity.log"),
	}
	var closers []func()

	// 1. Store
	switch cfg.Database.Driver {
	case "memory":
		deps.UowFactory = memory.NewRepositoryFactory(memory.NewStore())
		sysLogger.Warn("Bootstrap", "Using in-memory store; data is lost on restart", nil)
	default:
		if db == nil {
			return nil, fmt.Errorf("database driver %q needs a connection", cfg.Database.Driver)
		}
		deps.UowFactory = unitofwork.NewRepositoryFactory(db)
	}

	// 2. LLM Provider
	provider, err := factory.NewLLMProvider(context.Background(), factory.Params{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		APIKey:   cfg.APIKeyFor(cfg.Ai.LLMProvider),
		BaseURL:  providerBaseURL(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	deps.LLM = llm.NewGuard(provider, cfg.Ai.LLMProvider, cfg.Ai.Timeout)
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 3. Title lease: Redis when configured so replicas agree, process-local otherwise
	if cfg.App.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		deps.Redis = rdb
		deps.Lease = lease.NewRedisLease(rdb, "career-chat:")
		closers = append(closers, func() { _ = rdb.Close() })
	} else {
		deps.Lease = lease.NewMemoryLease()
	}

	// 4. Event Bus: NATS JetStream when reachable, in-process watermill channel otherwise
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect NATS publisher, falling back to in-process bus", map[string]interface{}{"error": err.Error()})
		}
		natsSub, subErr := pktNats.NewSubscriber(cfg.App.NatsURL)
		if subErr != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect NATS subscriber, falling back to in-process bus", map[string]interface{}{"error": subErr.Error()})
		}
		if err == nil && subErr == nil {
			deps.Publisher, deps.Subscriber = natsPub, natsSub
			closers = append(closers, natsPub.Close, natsSub.Close)
		} else if natsPub != nil {
			natsPub.Close()
		}
	}
	if deps.Publisher == nil {
		bus := events.NewChannelBus(cfg.App.ActivityTopic, watermill.NewStdLogger(false, false))
		deps.Publisher, deps.Subscriber = bus, bus
		closers = append(closers, func() { _ = bus.Close() })
	}

	// 5. Mailer
	if cfg.Mail.Host != "" {
		deps.Mailer = mailer.NewEmailService(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.Sender, cfg.Mail.FrontendURL)
	}

	c := NewContainerFromDeps(cfg, deps)
	c.closers = closers
	return c, nil
}

func providerBaseURL(cfg *config.Config) string {
	switch cfg.Ai.LLMProvider {
	case "ollama":
		return cfg.Ai.OllamaBaseURL
	case "openai":
		return cfg.Ai.OpenAIBaseURL
	default:
		return ""
	}
}

func NewContainerFromDeps(cfg *config.Config, deps Dependencies) *Container {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.ActivityLog == nil {
		deps.ActivityLog = deps.Logger
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if deps.Lease == nil {
		deps.Lease = lease.NewMemoryLease()
	}

	// 6. Services
	authService := service.NewAuthService(deps.UowFactory, deps.Publisher, deps.Logger, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	userService := service.NewUserService(deps.UowFactory)
	chatSessionService := service.NewChatSessionService(deps.UowFactory, deps.Publisher, deps.Logger)
	chatMessageService := service.NewChatMessageService(
		deps.UowFactory,
		deps.LLM,
		deps.Lease,
		deps.Publisher,
		deps.Logger,
		service.ChatMessageServiceOptions{HistoryLimit: cfg.Ai.HistoryLimit},
	)

	hub := internalWS.NewHub(deps.Redis, deps.Logger)

	var (
		activityService    service.IActivityService
		liveUpdateService  service.ILiveUpdateService
		welcomeMailService service.IWelcomeMailService
	)
	if deps.Subscriber != nil {
		activityService = service.NewActivityService(deps.Subscriber, deps.ActivityLog)
		liveUpdateService = service.NewLiveUpdateService(deps.Subscriber, hub, deps.Logger)
		if deps.Mailer != nil {
			welcomeMailService = service.NewWelcomeMailService(deps.Subscriber, deps.Mailer, deps.Logger)
		}
	}

	// 7. Controllers
	return &Container{
		AuthController:        controller.NewAuthController(authService),
		UserController:        controller.NewUserController(userService),
		ChatSessionController: controller.NewChatSessionController(chatSessionService),
		ChatMessageController: controller.NewChatMessageController(chatMessageService),
		LiveHandler:           handler.NewLiveHandler(hub, cfg.Auth.JWTSecret, deps.Logger),
		Hub:                   hub,
		ActivityService:       activityService,
		LiveUpdateService:     liveUpdateService,
		WelcomeMailService:    welcomeMailService,
		Logger:                deps.Logger,
	}
}

// Start runs the websocket hub and every bus consumer until ctx is done.
func (c *Container) Start(ctx context.Context) error {
	go c.Hub.Run(ctx)

	consumers := []interface{ Start(context.Context) error }{}
	if c.ActivityService != nil {
		consumers = append(consumers, c.ActivityService)
	}
	if c.LiveUpdateService != nil {
		consumers = append(consumers, c.LiveUpdateService)
	}
	if c.WelcomeMailService != nil {
		consumers = append(consumers, c.WelcomeMailService)
	}
	for _, consumer := range consumers {
		if err := consumer.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases bus and Redis connections. Safe on a test container.
func (c *Container) Close() {
	for _, closeFn := range c.closers {
		closeFn()
	}
	_ = c.Logger.Sync()
}
