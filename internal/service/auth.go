package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

type AuthService struct {
	Users  UserRepo
	Tokens *tokens.Manager
}

type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	UserID      string
}

func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if strings.TrimSpace(email) == "" || password == "" {
		return models.User{}, fmt.Errorf("email and password are required: %w", ErrValidation)
	}

	_, err := s.Users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return models.User{}, ErrDuplicateEmail
	case !errors.Is(err, repo.ErrNotFound):
		return models.User{}, fmt.Errorf("lookup email: %w", err)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return models.User{}, err
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: pwHash,
		FullName:     fullName,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	l.Info("user_registered", "status", 200, "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Authenticate(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup email: %w", err)
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, exp, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{AccessToken: token, ExpiresAt: exp, UserID: user.ID}, nil
}

// VerifyToken checks the token and that its subject still resolves to a stored user.
func (s *AuthService) VerifyToken(ctx context.Context, raw string) (string, error) {
	claims, err := s.Tokens.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if _, err := s.GetProfile(ctx, claims.Subject); err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID string) (models.User, error) {
	user, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.User{}, ErrUnknownUser
		}
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}
