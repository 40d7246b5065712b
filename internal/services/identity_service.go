package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/growup/backend/internal/auth"
	"github.com/growup/backend/internal/ids"
	"github.com/growup/backend/internal/models"
	"github.com/growup/backend/internal/validation"
	"go.uber.org/zap"
)

// SessionRepository is the interface that wraps methods for session data access
type SessionRepository interface {
	// Method Create stores a new session.
	Create(ctx context.Context, session *models.Session) error
	// Method Get retrieves a live session by id.
	//
	// If the session does not exist or has expired, models.ErrNoSession is returned.
	Get(ctx context.Context, id string) (*models.Session, error)
	// Method Delete removes a session by id. Removing a missing session is not an error.
	Delete(ctx context.Context, id string) error
	// Method DeleteByUser removes every session of a user.
	DeleteByUser(ctx context.Context, userID string) error
}

// CredentialVerifier is the interface that wraps credential hashing and verification
type CredentialVerifier interface {
	// Method Hash returns the stored form of secret.
	Hash(secret string) (string, error)
	// Method Verify reports whether secret matches the stored form hash.
	//
	// A mismatch is reported as "false" with a nil error.
	Verify(hash, secret string) (bool, error)
}

// identityService implements the session lifecycle
type identityService struct {
	users    Collection[models.User]
	sessions SessionRepository
	tokens   *auth.TokenGenerator
	verifier CredentialVerifier
	validate *validator.Validate
	logger   *zap.Logger
	ttl      time.Duration
	now      func() time.Time
}

// NewIdentityService creates a new identity service issuing sessions that live for ttl
func NewIdentityService(
	users Collection[models.User],
	sessions SessionRepository,
	tokens *auth.TokenGenerator,
	verifier CredentialVerifier,
	validate *validator.Validate,
	logger *zap.Logger,
	ttl time.Duration,
) *identityService {
	return &identityService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		verifier: verifier,
		validate: validate,
		logger:   logger,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Authenticate verifies the credentials and establishes a new session.
//
// An unknown email and a wrong secret both fail with models.ErrInvalidCredentials.
// A blocked account with the correct secret fails with models.ErrAccountBlocked.
// The decision is taken on a single read of the identity.
func (s *identityService) Authenticate(ctx context.Context, email, secret string) (*models.User, string, error) {
	user, err := s.users.FindByKey(ctx, models.NormalizeEmail(email))
	if errors.Is(err, models.ErrNotFound) {
		return nil, "", models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up identity: %w", err)
	}

	ok, err := s.verifier.Verify(user.PasswordHash, secret)
	if err != nil {
		s.logger.Warn("credential verification failed", zap.String("user_id", user.ID), zap.Error(err))
		return nil, "", models.ErrInvalidCredentials
	}
	if !ok {
		return nil, "", models.ErrInvalidCredentials
	}
	if user.IsBlocked {
		return nil, "", models.ErrAccountBlocked
	}

	token, err := s.establish(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user authenticated", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, token, nil
}

// establish stores a new session for userID and returns its signed token
func (s *identityService) establish(ctx context.Context, userID string) (string, error) {
	now := s.now()
	session := &models.Session{
		ID:        ids.New(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.tokens.Generate(session.ID, userID, session.ExpiresAt)
	if err != nil {
		if delErr := s.sessions.Delete(ctx, session.ID); delErr != nil {
			s.logger.Error("failed to discard unsigned session", zap.Error(delErr))
		}
		return "", err
	}
	return token, nil
}

// ResolveSession returns the identity bound to token.
//
// An unknown, expired or malformed token fails with models.ErrNoSession.
// When the identity no longer exists the session is invalidated and models.ErrStaleSession is returned.
// When the identity is blocked all its sessions are revoked and models.ErrAccountBlocked is returned.
func (s *identityService) ResolveSession(ctx context.Context, token string) (*models.User, error) {
	sessionID, userID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, models.ErrNoSession
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, models.ErrNoSession) {
		return nil, models.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.UserID != userID {
		return nil, models.ErrNoSession
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, models.ErrNotFound) {
		if delErr := s.sessions.Delete(ctx, session.ID); delErr != nil {
			s.logger.Error("failed to invalidate stale session", zap.String("session_id", session.ID), zap.Error(delErr))
		}
		return nil, models.ErrStaleSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	if user.IsBlocked {
		s.revoke(ctx, user.ID)
		return nil, models.ErrAccountBlocked
	}

	return user, nil
}

// Logout ends the session named by token. It is idempotent and never fails:
// storage errors are logged.
func (s *identityService) Logout(ctx context.Context, token string) {
	sessionID, _, err := s.tokens.Validate(token)
	if err != nil {
		return
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Error("failed to delete session", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// RevokeUser ends every session of userID
func (s *identityService) RevokeUser(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}

func (s *identityService) revoke(ctx context.Context, userID string) {
	if err := s.RevokeUser(ctx, userID); err != nil {
		s.logger.Error("failed to revoke sessions", zap.String("user_id", userID), zap.Error(err))
	}
}

// Register creates a student identity. Any role in req is ignored and the subscription starts unpaid.
// A taken email fails with models.ErrDuplicateKey.
func (s *identityService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	hash, err := s.verifier.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           ids.New(),
		Email:        models.NormalizeEmail(req.Email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Mobile:       strings.TrimSpace(req.Mobile),
		Role:         models.RoleStudent,
		CreatedAt:    s.now().UTC(),
		Student: &models.StudentProfile{
			ClassGrade:       req.ClassGrade,
			SubscriptionType: req.SubscriptionType,
			IsPaid:           false,
		},
	}
	if req.SubscriptionType == models.SubscriptionClassWise {
		user.Student.Subject = strings.TrimSpace(req.Subject)
	}

	created, err := s.users.CreateAs(ctx, user.ID, models.ActionUserRegister, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("student registered", zap.String("user_id", created.ID), zap.String("class", string(req.ClassGrade)))
	return created, nil
}

// Bootstrap creates an initial admin when no admin exists. It does nothing when email is empty.
func (s *identityService) Bootstrap(ctx context.Context, email, password, name string) error {
	if email == "" {
		return nil
	}

	users, err := s.users.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			return nil
		}
	}

	if len(password) < 6 {
		return fmt.Errorf("%w: seed admin password must have at least 6 characters", models.ErrValidation)
	}
	hash, err := s.verifier.Hash(password)
	if err != nil {
		return err
	}
	if name == "" {
		name = "Administrator"
	}

	admin := &models.User{
		ID:           ids.New(),
		Email:        models.NormalizeEmail(email),
		PasswordHash: hash,
		Name:         name,
		Role:         models.RoleAdmin,
		CreatedAt:    s.now().UTC(),
	}
	if _, err := s.users.Create(ctx, models.SystemActor, admin); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return fmt.Errorf("seed admin email %s belongs to a non-admin account: %w", admin.Email, err)
		}
		return fmt.Errorf("failed to create seed admin: %w", err)
	}

	s.logger.Info("seed admin created", zap.String("user_id", admin.ID), zap.String("email", admin.Email))
	return nil
}
