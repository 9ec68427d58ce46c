package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/scoresnap/internal/dependencies/clock"
	"github.com/mcoot/scoresnap/internal/dependencies/ids"
	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/storage"
)

// Errors
var (
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrInvalidUsername = errors.New("username must be 3 to 32 characters")
	ErrWeakPassword    = errors.New("password must be at least 8 characters")
)

const (
	issuer            = "scoresnap"
	minUsernameLength = 3
	maxUsernameLength = 32
	minPasswordLength = 8
)

// Session is an issued token and the user it belongs to
type Session struct {
	Token     string
	User      model.User
	ExpiresAt time.Time
}

// Claims are the JWT claims carried by a token
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Config holds configuration for the auth service
type Config struct {
	Secret   []byte
	TokenTTL time.Duration
}

// DefaultConfig returns default auth configuration without a secret
func DefaultConfig() Config {
	return Config{
		TokenTTL: 24 * time.Hour,
	}
}

// Service registers users and issues signed tokens
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	ids     ids.Generator
	logger  *slog.Logger

	secret   []byte
	tokenTTL time.Duration
}

// New creates a new auth Service
func New(storage storage.Storage, clock clock.Clock, ids ids.Generator, cfg Config, logger *slog.Logger) *Service {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = DefaultConfig().TokenTTL
	}
	return &Service{
		storage:  storage,
		clock:    clock,
		ids:      ids,
		logger:   logger,
		secret:   cfg.Secret,
		tokenTTL: cfg.TokenTTL,
	}
}

// Register creates an account and signs the user in
func (s *Service) Register(ctx context.Context, username, password, displayName string) (*Session, error) {
	username = normalizeUsername(username)
	if n := len(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, ErrInvalidUsername
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	_, err := s.storage.GetCredentialsByUsername(ctx, username)
	if err == nil {
		return nil, model.ErrUsernameTaken
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now()
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = username
	}
	user := &model.User{
		ID:          model.UserID(s.ids.NewID()),
		Username:    username,
		DisplayName: displayName,
		CreatedAt:   now,
	}
	creds := &model.Credentials{
		UserID:       user.ID,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.storage.SaveCredentials(ctx, creds); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("user_id", string(user.ID)),
		slog.String("username", username),
	)
	return s.issue(user)
}

// Login verifies a password and issues a new token
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	creds, err := s.storage.GetCredentialsByUsername(ctx, normalizeUsername(username))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	user, err := s.storage.GetUser(ctx, creds.UserID)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// ValidateToken checks a token's signature and expiry and returns its claims
func (s *Service) ValidateToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Me returns the user a token belongs to
func (s *Service) Me(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	user, err := s.storage.GetUser(ctx, model.UserID(claims.Subject))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) issue(user *model.User) (*Session, error) {
	now := s.clock.Now()
	expires := now.Add(s.tokenTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   string(user.ID),
			ID:        s.ids.NewID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Username: user.Username,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Session{Token: token, User: *user, ExpiresAt: expires}, nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
