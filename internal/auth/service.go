package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"paycheck-tracker/internal/domain"
	"paycheck-tracker/internal/storage"
	"paycheck-tracker/internal/validator"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes", MaxPasswordLength)
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Identity is the authenticated user behind a token.
type Identity struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	TokenID     string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type Service struct {
	users  storage.UserStorage
	tokens storage.TokenStorage
	jwt    *TokenService
}

func NewService(users storage.UserStorage, tokens storage.TokenStorage, jwt *TokenService) *Service {
	return &Service{users: users, tokens: tokens, jwt: jwt}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount registers a user and signs them in.
func (s *Service) CreateAccount(ctx context.Context, email, password, displayName string) (string, Identity, error) {
	email = normalizeEmail(email)
	if err := validator.Validate.Var(email, "required,email"); err != nil {
		return "", Identity{}, ErrInvalidEmail
	}
	hash, err := HashPassword(password)
	if err != nil {
		return "", Identity{}, err
	}

	u := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return "", Identity{}, ErrEmailTaken
		}
		return "", Identity{}, fmt.Errorf("create user: %w", err)
	}
	slog.Info("User registered", "user_id", u.ID)
	return s.issue(u)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (string, Identity, error) {
	u, err := s.users.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", Identity{}, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return "", Identity{}, ErrInvalidCredentials
	}
	ok, err := CheckPassword(u.PasswordHash, password)
	if err != nil {
		return "", Identity{}, err
	}
	if !ok {
		slog.Warn("Sign-in with wrong password", "user_id", u.ID)
		return "", Identity{}, ErrInvalidCredentials
	}
	return s.issue(*u)
}

func (s *Service) issue(u domain.User) (string, Identity, error) {
	token, claims, err := s.jwt.GenerateToken(u)
	if err != nil {
		return "", Identity{}, err
	}
	return token, identityFrom(claims), nil
}

func identityFrom(c *Claims) Identity {
	id := Identity{
		UserID:      c.Subject,
		Email:       c.Email,
		DisplayName: c.Name,
		TokenID:     c.ID,
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}

// Authenticate resolves a token that is valid and has not been signed out.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	claims, err := s.jwt.ParseToken(token)
	if err != nil {
		return Identity{}, err
	}
	revoked, err := s.tokens.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return Identity{}, fmt.Errorf("check token: %w", err)
	}
	if revoked {
		return Identity{}, ErrInvalidToken
	}
	return identityFrom(claims), nil
}

// SignOut revokes the token until it would have expired anyway.
func (s *Service) SignOut(ctx context.Context, token string) error {
	id, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	if err := s.tokens.RevokeToken(ctx, id.TokenID, id.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	slog.Info("User signed out", "user_id", id.UserID)
	return nil
}

// Message turns an auth error into text that can be shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Wrong email or password."
	case errors.Is(err, ErrEmailTaken):
		return "An account with this email already exists."
	case errors.Is(err, ErrInvalidEmail):
		return "Please enter a valid email address."
	case errors.Is(err, ErrWeakPassword):
		return fmt.Sprintf("The password must have at least %d characters.", MinPasswordLength)
	case errors.Is(err, ErrPasswordTooLong):
		return fmt.Sprintf("The password must be at most %d bytes long.", MaxPasswordLength)
	case errors.Is(err, ErrInvalidToken), errors.Is(err, domain.ErrUnauthorized):
		return "Your session has expired. Please sign in again."
	default:
		return "Something went wrong. Please try again."
	}
}
