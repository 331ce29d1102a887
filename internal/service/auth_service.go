package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"career-chat-be/internal/constant"
	"career-chat-be/internal/dto"
	"career-chat-be/internal/entity"
	"career-chat-be/internal/pkg/apperror"
	"career-chat-be/internal/pkg/logger"
	"career-chat-be/internal/pkg/serverutils"
	"career-chat-be/internal/repository/specification"
	"career-chat-be/internal/repository/unitofwork"
	"career-chat-be/pkg/events"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "invalid credentials"

type IAuthService interface {
	SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  events.Publisher
	logger     logger.ILogger
	jwtSecret  string
	tokenTTL   time.Duration
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	publisher events.Publisher,
	log logger.ILogger,
	jwtSecret string,
	tokenTTL time.Duration,
) IAuthService {
	return &authService{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     log,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
	}
}

// SignUp creates the account together with its first, empty session.
func (s *authService) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var name *string
	if req.Name != nil {
		if trimmed := strings.TrimSpace(*req.Name); trimmed != "" {
			name = &trimmed
		}
	}

	now := time.Now().UTC()
	user := &entity.User{
		Id:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    user.Id,
		Title:     constant.ChatSessionDefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	// the unique index still guards the race between the pre-check and here
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("AuthService", "User signed up", map[string]interface{}{"user_id": user.Id.String()})
	displayName := ""
	if user.Name != nil {
		displayName = *user.Name
	}
	publish(ctx, s.publisher, s.logger, events.NewUserSignedUp(user.Id, user.Email, displayName))

	return &dto.SignUpResponse{Id: user.Id, Email: user.Email, Name: user.Name}, nil
}

// Login answers unknown emails and wrong passwords the same way.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.AuthFailure(invalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperror.AuthFailure(invalidCredentials)
		}
		return nil, err
	}

	token, err := serverutils.IssueToken(s.jwtSecret, user.Id, s.tokenTTL)
	if err != nil {
		return nil, apperror.Internal("failed to issue token", err)
	}

	publish(ctx, s.publisher, s.logger, events.NewUserLogin(user.Id))

	return &dto.LoginResponse{
		Id:          user.Id,
		Email:       user.Email,
		Name:        user.Name,
		AccessToken: token,
	}, nil
}
