package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kdh92417/team-tasks/internal/auth"
	"github.com/kdh92417/team-tasks/internal/domain"
	"github.com/kdh92417/team-tasks/internal/repository"
	apperrors "github.com/kdh92417/team-tasks/pkg/util"
)

// AuthService issues and revokes access tokens for existing users. Accounts
// themselves are managed outside this service.
type AuthService struct {
	users    repository.UserRepository
	tokenMgr *auth.TokenManager
	revoked  auth.RevocationStore
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
	Revocations  auth.RevocationStore
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:    deps.UserRepo,
		tokenMgr: deps.TokenManager,
		revoked:  deps.Revocations,
	}
}

// Login authenticates a user by name and password.
func (s *AuthService) Login(ctx context.Context, userName, password string) (*domain.User, string, domain.Token, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" {
		return nil, "", domain.Token{}, apperrors.NewValidationError("user_name and password are required", nil)
	}

	user, err := s.users.GetByName(ctx, userName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", domain.Token{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
	}

	tokenString, token, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, "", domain.Token{}, apperrors.NewInternalError(err)
	}
	return user, tokenString, token, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, token domain.Token) error {
	if s.revoked == nil || token.ID == "" {
		return nil
	}
	if err := s.revoked.Revoke(ctx, token.ID, token.ExpiresAt); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
