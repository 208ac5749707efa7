package service

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hbox/claimtrack/common/config"
	"github.com/hbox/claimtrack/common/logger"
	"github.com/hbox/claimtrack/common/models"
)

var (
	// ErrInvalidCredentials means the email/password pair did not match
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken means the bearer token is unknown or expired
	ErrInvalidToken = errors.New("invalid or expired token")
)

// AuthService issues and verifies opaque bearer tokens for the statically
// provisioned accounts. Real identity management is an external concern; the
// rest of the service only needs a Principal for attribution.
type AuthService struct {
	users    []config.AuthUser
	tokenTTL time.Duration
	log      *logger.Logger

	mu     sync.Mutex
	tokens map[string]tokenEntry
}

type tokenEntry struct {
	principal models.Principal
	expiresAt time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.AuthConfig, log *logger.Logger) *AuthService {
	return &AuthService{
		users:    cfg.Users,
		tokenTTL: cfg.TokenTTL,
		log:      log,
		tokens:   make(map[string]tokenEntry),
	}
}

// Login checks the credentials and issues a fresh token
func (s *AuthService) Login(email, password string) (string, *models.Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	for _, u := range s.users {
		if strings.ToLower(u.Email) != email || u.Password != password {
			continue
		}

		principal := models.Principal{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
			Role:  u.Role,
		}
		token := uuid.NewString()

		s.mu.Lock()
		s.pruneLocked()
		s.tokens[token] = tokenEntry{
			principal: principal,
			expiresAt: time.Now().Add(s.tokenTTL),
		}
		s.mu.Unlock()

		s.log.Info("login", "user_id", u.ID, "role", u.Role)
		return token, &principal, nil
	}

	return "", nil, ErrInvalidCredentials
}

// Verify resolves a bearer token to its principal
func (s *AuthService) Verify(token string) (*models.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tokens[token]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.tokens, token)
		return nil, ErrInvalidToken
	}

	principal := entry.principal
	return &principal, nil
}

// pruneLocked drops expired tokens. Called under the lock on each issue so
// the map does not grow unbounded.
func (s *AuthService) pruneLocked() {
	now := time.Now()
	for token, entry := range s.tokens {
		if now.After(entry.expiresAt) {
			delete(s.tokens, token)
		}
	}
}
