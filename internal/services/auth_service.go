package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fathima-sithara/social-service/internal/events"
	"github.com/fathima-sithara/social-service/internal/models"
	"github.com/fathima-sithara/social-service/internal/repository"
	"github.com/fathima-sithara/social-service/internal/utils"
	"go.uber.org/zap"
)

type authService struct {
	users    repository.UserRepository
	tokens   *utils.JWTManager
	hashCost int
	fx       sideEffects
}

func NewAuthService(users repository.UserRepository, tokens *utils.JWTManager, hashCost int, pub events.Publisher, log *zap.Logger) AuthService {
	return &authService{
		users:    users,
		tokens:   tokens,
		hashCost: hashCost,
		fx:       newSideEffects(nil, pub, log),
	}
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*AuthResult, error) {
	username := strings.TrimSpace(req.Username)
	email := normalizeEmail(req.Email)

	exists, err := s.users.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hash, err := utils.HashPassword(req.Password, s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Username:     username,
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(req.Phone),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	res, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	s.fx.publish(ctx, events.New(events.UserRegistered, u.ID.Hex()))
	return res, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !utils.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *authService) issue(u *models.User) (*AuthResult, error) {
	token, exp, err := s.tokens.Generate(u.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: u}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
