package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/growup/backend/internal/ids"
	"github.com/growup/backend/internal/models"
	"github.com/growup/backend/internal/policy"
	"github.com/growup/backend/internal/validation"
	"go.uber.org/zap"
)

// SessionRevoker is the interface that wraps session revocation
type SessionRevoker interface {
	// Method RevokeUser ends every session of a user.
	RevokeUser(ctx context.Context, userID string) error
}

// userService implements admin user management
type userService struct {
	users            Collection[models.User]
	sessions         SessionRevoker
	verifier         CredentialVerifier
	validate         *validator.Validate
	logger           *zap.Logger
	protectLastAdmin bool
	// adminMu serializes the operations that may remove an admin so the admin count stays accurate
	adminMu sync.Mutex
	now     func() time.Time
}

// NewUserService creates a new user service
func NewUserService(
	users Collection[models.User],
	sessions SessionRevoker,
	verifier CredentialVerifier,
	validate *validator.Validate,
	logger *zap.Logger,
	protectLastAdmin bool,
) *userService {
	return &userService{
		users:            users,
		sessions:         sessions,
		verifier:         verifier,
		validate:         validate,
		logger:           logger,
		protectLastAdmin: protectLastAdmin,
		now:              time.Now,
	}
}

// List returns the users matching filter in insertion order
func (s *userService) List(ctx context.Context, actor *models.User, filter models.UserFilter) ([]models.User, error) {
	if err := requireRead(actor, models.CollectionUsers); err != nil {
		return nil, err
	}

	all, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := []models.User{}
	for _, u := range all {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(u.Email, search) && !strings.Contains(u.Mobile, search) {
			continue
		}
		result = append(result, u)
	}
	return result, nil
}

// Get returns the user with id
func (s *userService) Get(ctx context.Context, actor *models.User, id string) (*models.User, error) {
	if err := requireRead(actor, models.CollectionUsers); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

// Create adds a user with any role. New students start unpaid.
func (s *userService) Create(ctx context.Context, actor *models.User, req *models.CreateUserRequest) (*models.User, error) {
	if err := requireManage(actor, models.CollectionUsers); err != nil {
		return nil, err
	}
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
		Role:         req.Role,
		ShowMobile:   req.ShowMobile,
		CreatedAt:    s.now().UTC(),
	}
	if req.Role == models.RoleStudent {
		if req.ClassGrade == "" {
			return nil, fmt.Errorf("%w: classGrade is required for students", models.ErrValidation)
		}
		subType := req.SubscriptionType
		if subType == "" {
			subType = models.SubscriptionClassWise
		}
		user.Student = &models.StudentProfile{
			ClassGrade:       req.ClassGrade,
			SubscriptionType: subType,
		}
		if subType == models.SubscriptionClassWise {
			user.Student.Subject = strings.TrimSpace(req.Subject)
		}
	}
	user.NormalizeProfile()

	return s.users.Create(ctx, actor.ID, user)
}

// Update edits the user with id. A role change goes through the last-admin guard.
// isPaid can only be revoked here: activation goes through a payment.
func (s *userService) Update(ctx context.Context, actor *models.User, id string, req *models.UpdateUserRequest) (*models.User, error) {
	if err := requireManage(actor, models.CollectionUsers); err != nil {
		return nil, err
	}
	if req.IsPaid != nil && *req.IsPaid {
		return nil, fmt.Errorf("%w: subscriptions are activated by recording a payment", models.ErrValidation)
	}

	s.adminMu.Lock()
	defer s.adminMu.Unlock()

	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := &models.UserPatch{
		Email:            req.Email,
		Name:             req.Name,
		Mobile:           req.Mobile,
		ShowMobile:       req.ShowMobile,
		ClassGrade:       req.ClassGrade,
		SubscriptionType: req.SubscriptionType,
		Subject:          req.Subject,
		IsPaid:           req.IsPaid,
	}

	if req.Role != nil && *req.Role != target.Role {
		adminCount, err := s.activeAdminCount(ctx)
		if err != nil {
			return nil, err
		}
		if err := policy.CanChangeRole(actor, target, *req.Role, adminCount, s.protectLastAdmin); err != nil {
			return nil, err
		}
		if *req.Role == models.RoleStudent {
			if req.ClassGrade == nil {
				return nil, fmt.Errorf("%w: classGrade is required for students", models.ErrValidation)
			}
			if req.SubscriptionType == nil {
				classWise := models.SubscriptionClassWise
				patch.SubscriptionType = &classWise
			}
		}
		patch.Role = req.Role
	}

	return s.users.Update(ctx, actor.ID, id, patch)
}

// SetBlocked blocks or unblocks the user with id. Blocking ends all of the user's sessions.
func (s *userService) SetBlocked(ctx context.Context, actor *models.User, id string, blocked bool) (*models.User, error) {
	if err := requireManage(actor, models.CollectionUsers); err != nil {
		return nil, err
	}

	s.adminMu.Lock()
	defer s.adminMu.Unlock()

	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if blocked && s.protectLastAdmin {
		if err := s.guardLastAdmin(ctx, target); err != nil {
			return nil, err
		}
	}

	user, err := s.users.Update(ctx, actor.ID, id, &models.UserPatch{IsBlocked: &blocked})
	if err != nil {
		return nil, err
	}
	if blocked {
		s.revoke(ctx, id)
	}
	return user, nil
}

// Delete removes the user with id and ends their sessions. Deleting a missing user is not an error.
// Content uploaded by the user is kept.
func (s *userService) Delete(ctx context.Context, actor *models.User, id string) error {
	if err := requireManage(actor, models.CollectionUsers); err != nil {
		return err
	}

	s.adminMu.Lock()
	defer s.adminMu.Unlock()

	target, err := s.users.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if s.protectLastAdmin {
		if err := s.guardLastAdmin(ctx, target); err != nil {
			return err
		}
	}

	if err := s.users.Delete(ctx, actor.ID, id); err != nil {
		return err
	}
	s.revoke(ctx, id)
	return nil
}

func (s *userService) guardLastAdmin(ctx context.Context, target *models.User) error {
	if target.Role != models.RoleAdmin {
		return nil
	}
	adminCount, err := s.activeAdminCount(ctx)
	if err != nil {
		return err
	}
	if policy.RemovesLastAdmin(target, adminCount) {
		return models.ErrLastAdmin
	}
	return nil
}

func (s *userService) activeAdminCount(ctx context.Context) (int, error) {
	all, err := s.users.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, u := range all {
		if u.Role == models.RoleAdmin && !u.IsBlocked {
			count++
		}
	}
	return count, nil
}

func (s *userService) revoke(ctx context.Context, userID string) {
	if err := s.sessions.RevokeUser(ctx, userID); err != nil {
		s.logger.Error("failed to revoke sessions", zap.String("user_id", userID), zap.Error(err))
	}
}
