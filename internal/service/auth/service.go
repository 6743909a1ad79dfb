package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mailpilot/campaign-api/internal/email"
	"github.com/mailpilot/campaign-api/internal/model"
	"github.com/mailpilot/campaign-api/internal/repository"
	pkgauth "github.com/mailpilot/campaign-api/pkg/auth"
	"github.com/mailpilot/campaign-api/pkg/logger"
	"github.com/mailpilot/campaign-api/pkg/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

type Service struct {
	users    repository.UserRepository
	settings repository.SettingsRepository
	hasher   security.PasswordHasher
	jwtSvc   pkgauth.JWTService
	emailSvc email.Service
	logger   *logger.Logger
}

func NewService(
	users repository.UserRepository,
	settings repository.SettingsRepository,
	hasher security.PasswordHasher,
	jwtSvc pkgauth.JWTService,
	emailSvc email.Service,
	log *logger.Logger,
) *Service {
	return &Service{
		users:    users,
		settings: settings,
		hasher:   hasher,
		jwtSvc:   jwtSvc,
		emailSvc: emailSvc,
		logger:   log,
	}
}

// Register creates the user plus its default sending policy. The
// welcome email is best-effort; signup never fails on it.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.settings.Create(ctx, model.NewDefaultSettings(user.ID)); err != nil {
		return nil, fmt.Errorf("failed to create default settings: %w", err)
	}

	if err := s.emailSvc.SendWelcome(ctx, user.Email, user.Email); err != nil {
		s.logger.Warn("failed to send welcome email", "email", user.Email)
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtSvc.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}

func (s *Service) ValidateToken(_ context.Context, token string) (*pkgauth.TokenClaims, error) {
	return s.jwtSvc.ValidateToken(token)
}
