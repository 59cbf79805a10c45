// Package services holds the authentication logic shared by handlers and middleware.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/utils"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers absent, malformed, badly signed and expired tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRevoked is returned for tokens presented after logout.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")
)

// AuthService verifies credentials, issues bearer tokens and resolves them back to users.
type AuthService struct {
	db      *gorm.DB
	tokens  *utils.TokenManager
	revoked utils.RevocationStore
	logger  *zap.Logger
}

// NewAuthService wires the service to its store, token manager and revocation store.
func NewAuthService(db *gorm.DB, tokens *utils.TokenManager, revoked utils.RevocationStore, logger *zap.Logger) *AuthService {
	return &AuthService{db: db, tokens: tokens, revoked: revoked, logger: logger}
}

// Register creates a user with a hashed password.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	email = models.NormalizeEmail(email)

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{Email: email, Username: username, PasswordHash: hash}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// concurrent registrations race past the count; the unique index decides
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate checks email and password and issues a token on success.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (string, *models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, _, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, &user, nil
}

// ResolveIdentity maps a valid, unrevoked token to its user id.
func (s *AuthService) ResolveIdentity(ctx context.Context, token string) (uint, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		// fail open: a revocation store outage must not lock every user out
		s.logger.Warn("revocation lookup failed", zap.Error(err))
		return claims.UserID, nil
	}
	if revoked {
		return 0, ErrTokenRevoked
	}
	return claims.UserID, nil
}

// Revoke invalidates token until its natural expiry.
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	expiresAt := time.Now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.revoked.Revoke(ctx, claims.ID, expiresAt)
}
