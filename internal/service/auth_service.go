package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"studycards/internal/config"
	"studycards/internal/models"
	"studycards/internal/repository"
	"studycards/internal/security"
	"studycards/internal/validation"
)

var (
	ErrAlreadyExists   = errors.New("identity already exists")
	ErrNotFound        = errors.New("identity not found")
	ErrBadCredential   = errors.New("bad credential")
	ErrDenied          = errors.New("access denied")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// AuthService handles registration, login and the supervisor identity
type AuthService struct {
	userRepo           *repository.UserRepository
	tokens             *security.TokenIssuer
	adminUser          string
	adminPassHash      string
	requireCredentials bool
	sessionDuration    time.Duration
	logger             *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, tokens *security.TokenIssuer, cfg *config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:           userRepo,
		tokens:             tokens,
		adminUser:          cfg.AdminUser,
		adminPassHash:      cfg.AdminPassHash,
		requireCredentials: cfg.RequireCredentials,
		sessionDuration:    cfg.SessionDuration,
		logger:             logger,
	}
}

// Register creates a user with an empty history. The credential is optional
// unless credentials are required; when given it is stored as a bcrypt hash.
func (s *AuthService) Register(identity, credential string) (*models.User, error) {
	if err := validation.ValidateIdentity(identity); err != nil {
		return nil, err
	}
	if err := validation.ValidateCredential(credential, s.requireCredentials); err != nil {
		return nil, err
	}

	// The supervisor identity can never be claimed
	if s.adminUser != "" && identity == s.adminUser {
		return nil, ErrAlreadyExists
	}

	var passwordHash string
	if credential != "" {
		hash, err := security.HashPassword(credential)
		if err != nil {
			return nil, fmt.Errorf("failed to hash credential: %w", err)
		}
		passwordHash = hash
	}

	user, err := s.userRepo.CreateUser(identity, passwordHash)
	if errors.Is(err, repository.ErrIdentityTaken) {
		return nil, ErrAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("identity", identity), zap.Bool("credential", user.HasCredential()))
	return user, nil
}

// Authenticate checks an identity and credential. A user registered without
// a credential is authenticated by identity alone.
func (s *AuthService) Authenticate(identity, credential string) (*models.User, error) {
	user, err := s.userRepo.GetUserByIdentity(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	if user.HasCredential() && !security.CheckPassword(credential, user.PasswordHash) {
		return nil, ErrBadCredential
	}

	return user, nil
}

// AuthenticateAdmin checks the configured supervisor pair and returns a signed token
func (s *AuthService) AuthenticateAdmin(identity, credential string) (string, error) {
	if s.adminUser == "" || s.adminPassHash == "" {
		return "", ErrDenied
	}
	if subtle.ConstantTimeCompare([]byte(identity), []byte(s.adminUser)) != 1 {
		return "", ErrDenied
	}
	if !security.CheckPassword(credential, s.adminPassHash) {
		return "", ErrDenied
	}

	token, err := s.tokens.IssueAdmin(identity)
	if err != nil {
		return "", fmt.Errorf("failed to issue admin token: %w", err)
	}
	return token, nil
}

// ValidateAdminToken verifies a supervisor token
func (s *AuthService) ValidateAdminToken(token string) (*security.AdminClaims, error) {
	claims, err := s.tokens.ParseAdmin(token)
	if err != nil {
		return nil, ErrDenied
	}
	return claims, nil
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(identity, credential string) (*models.Session, *models.User, error) {
	user, err := s.Authenticate(identity, credential)
	if err != nil {
		return nil, nil, err
	}

	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)

	session, err := s.userRepo.CreateSession(sessionID, user.ID, expiresAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, user, nil
}

// ValidateSession checks if a session is valid and returns the associated user
func (s *AuthService) ValidateSession(sessionID string) (*models.User, error) {
	session, err := s.userRepo.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.userRepo.DeleteSession(sessionID)
		return nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}

	return user, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(sessionID string) error {
	if err := s.userRepo.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database and
// returns their ids so per-login state can be dropped with them
func (s *AuthService) CleanupExpiredSessions() ([]string, error) {
	removed, err := s.userRepo.DeleteExpiredSessions()
	if err != nil {
		return nil, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	if len(removed) > 0 {
		s.logger.Info("expired sessions removed", zap.Int("count", len(removed)))
	}
	return removed, nil
}
