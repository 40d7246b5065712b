package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/growup/backend/internal/models"
	"go.uber.org/zap"
)

// settingsService implements the settings registry
type settingsService struct {
	settings Collection[models.Settings]
	users    Collection[models.User]
	logger   *zap.Logger
	now      func() time.Time
}

// NewSettingsService creates a new settings service
func NewSettingsService(settings Collection[models.Settings], users Collection[models.User], logger *zap.Logger) *settingsService {
	return &settingsService{
		settings: settings,
		users:    users,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the fully populated settings, storing the defaults on first use
func (s *settingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings, err := s.settings.GetByID(ctx, models.SettingsID)
	if errors.Is(err, models.ErrNotFound) {
		settings, err = s.initialize(ctx)
	}
	if err != nil {
		return nil, err
	}

	settings.FillDefaults()
	return settings, nil
}

func (s *settingsService) initialize(ctx context.Context) (*models.Settings, error) {
	defaults := models.DefaultSettings()
	defaults.UpdatedAt = s.now().UTC()

	created, err := s.settings.Create(ctx, models.SystemActor, &defaults)
	if errors.Is(err, models.ErrDuplicateKey) {
		// Another caller stored them first.
		return s.settings.GetByID(ctx, models.SettingsID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize settings: %w", err)
	}

	s.logger.Info("default settings stored")
	return created, nil
}

// PublicView returns the settings as shown to visitors
func (s *settingsService) PublicView(ctx context.Context) (*models.Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	view := settings.PublicView()
	return &view, nil
}

// Update merges patch into the settings on behalf of actorID, who must resolve to an active admin
func (s *settingsService) Update(ctx context.Context, patch *models.SettingsPatch, actorID string) (*models.Settings, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown actor", models.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if err := requireManage(actor, models.CollectionSettings); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.Get(ctx); err != nil {
		return nil, err
	}

	updated, err := s.settings.Update(ctx, actorID, models.SettingsID, &settingsUpdate{SettingsPatch: patch, at: s.now().UTC()})
	if err != nil {
		return nil, err
	}

	s.logger.Info("settings updated", zap.String("actor", actorID), zap.String("fields", patch.AuditDetails()))
	return updated, nil
}

// settingsUpdate stamps the modification time on top of a settings patch
type settingsUpdate struct {
	*models.SettingsPatch
	at time.Time
}

func (u *settingsUpdate) Apply(s *models.Settings) error {
	if err := u.SettingsPatch.Apply(s); err != nil {
		return err
	}
	s.UpdatedAt = u.at
	return nil
}
