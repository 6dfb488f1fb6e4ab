package auth

import (
	"errors"
	"time"

	"pr-radar/internal/core"
)

// DefaultTokenTTL is how long an admin session lasts
const DefaultTokenTTL = 24 * time.Hour

// Common authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAuthDisabled       = errors.New("admin password is not configured")
)

// Service guards admin operations behind a single shared password
type Service struct {
	password Password
	tokens   *TokenStore
	logger   *core.Logger
	ttl      time.Duration
	clock    func() time.Time
}

// NewService creates a new authentication service. With an empty admin
// password the service is disabled and every request is let through.
func NewService(logger *core.Logger, config core.AuthConfig) (*Service, error) {
	s := &Service{
		tokens: NewTokenStore(),
		logger: logger,
		ttl:    DefaultTokenTTL,
		clock:  time.Now,
	}

	if config.AdminPassword == "" {
		logger.Warn("Admin password not set, admin routes are unprotected")
		return s, nil
	}

	if err := s.password.Set(config.AdminPassword); err != nil {
		return nil, err
	}
	return s, nil
}

// Enabled reports whether admin routes require a token
func (s *Service) Enabled() bool {
	return s.password.IsSet()
}

// Login checks the admin password and issues a session token
func (s *Service) Login(password string) (*Token, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}

	match, err := s.password.Matches(password)
	if err != nil {
		return nil, err
	}
	if !match {
		s.logger.Warn("Rejected admin login")
		return nil, ErrInvalidCredentials
	}

	now := s.clock()
	s.tokens.DeleteExpired(now)

	token, err := generateToken(now, s.ttl)
	if err != nil {
		return nil, err
	}
	s.tokens.Insert(token)

	s.logger.Info("Created admin token", "expiry", token.Expiry)
	return token, nil
}

// ValidateToken checks an admin session token
func (s *Service) ValidateToken(plaintext string) error {
	if plaintext == "" || !s.tokens.Valid(plaintext, s.clock()) {
		return ErrInvalidToken
	}
	return nil
}

// Logout revokes an admin session token
func (s *Service) Logout(plaintext string) {
	s.tokens.Delete(plaintext)
	s.logger.Info("Admin logged out")
}
