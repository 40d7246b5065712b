package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/growup/backend/internal/ids"
	"github.com/growup/backend/internal/models"
	"github.com/growup/backend/internal/policy"
	"github.com/growup/backend/internal/validation"
	"go.uber.org/zap"
)

// SettingsReader is the interface that wraps read access to the settings registry
type SettingsReader interface {
	// Method Get returns the fully populated settings.
	Get(ctx context.Context) (*models.Settings, error)
}

// contentService implements the study material catalog
type contentService struct {
	content  Collection[models.Content]
	settings SettingsReader
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewContentService creates a new content service
func NewContentService(content Collection[models.Content], settings SettingsReader, validate *validator.Validate, logger *zap.Logger) *contentService {
	return &contentService{
		content:  content,
		settings: settings,
		validate: validate,
		logger:   logger,
		now:      time.Now,
	}
}

// requireAccess keeps students without an active subscription behind the payment wall
func (s *contentService) requireAccess(viewer *models.User) error {
	if viewer == nil || viewer.IsBlocked {
		return models.ErrUnauthorized
	}
	if viewer.IsStudent() && !policy.SubscriptionActive(viewer, s.now()) {
		return models.ErrSubscriptionInactive
	}
	return nil
}

// Catalog returns the items viewer may enumerate in insertion order
func (s *contentService) Catalog(ctx context.Context, viewer *models.User) ([]models.Content, error) {
	if err := s.requireAccess(viewer); err != nil {
		return nil, err
	}

	all, err := s.content.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return policy.VisibleContent(viewer, all), nil
}

// Open returns the item with id as delivered to viewer and counts the view.
// Items viewer may not see are reported as models.ErrNotFound.
func (s *contentService) Open(ctx context.Context, viewer *models.User, id string) (*models.ContentView, error) {
	item, err := s.visibleItem(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	if viewer.IsStudent() {
		item, err = s.content.Update(ctx, viewer.ID, id, models.CounterPatch{Views: 1})
		if err != nil {
			return nil, err
		}
	}
	return s.view(ctx, viewer, item)
}

// Download authorizes a download of the item with id by viewer and counts it
func (s *contentService) Download(ctx context.Context, viewer *models.User, id string) (*models.ContentView, error) {
	item, err := s.visibleItem(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanDownload(viewer, item, s.now()) {
		return nil, fmt.Errorf("%w: content %s is not downloadable", models.ErrUnauthorized, id)
	}

	item, err = s.content.Update(ctx, viewer.ID, id, models.CounterPatch{Downloads: 1})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, viewer, item)
}

func (s *contentService) visibleItem(ctx context.Context, viewer *models.User, id string) (*models.Content, error) {
	if err := s.requireAccess(viewer); err != nil {
		return nil, err
	}
	item, err := s.content.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(viewer, item) {
		return nil, fmt.Errorf("content %s: %w", id, models.ErrNotFound)
	}
	return item, nil
}

func (s *contentService) view(ctx context.Context, viewer *models.User, item *models.Content) (*models.ContentView, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &models.ContentView{
		Content:     *item,
		Watermark:   policy.Watermark(settings, viewer, item),
		CanDownload: policy.CanDownload(viewer, item, s.now()),
	}, nil
}

// Create adds a new item uploaded by actor
func (s *contentService) Create(ctx context.Context, actor *models.User, req *models.CreateContentRequest) (*models.Content, error) {
	if err := requireManage(actor, models.CollectionContent); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	item := &models.Content{
		ID:             ids.New(),
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Type:           req.Type,
		URL:            req.URL,
		UploadedBy:     actor.ID,
		ClassGrade:     req.ClassGrade,
		Subject:        strings.TrimSpace(req.Subject),
		Chapter:        strings.TrimSpace(req.Chapter),
		Topic:          strings.TrimSpace(req.Topic),
		IsWatermarked:  req.IsWatermarked,
		IsVisible:      true,
		IsDownloadable: req.IsDownloadable,
		CreatedAt:      s.now().UTC(),
	}
	if req.IsVisible != nil {
		item.IsVisible = *req.IsVisible
	}

	return s.content.Create(ctx, actor.ID, item)
}

// Update applies patch to the item with id. Teachers may only change their own uploads.
func (s *contentService) Update(ctx context.Context, actor *models.User, id string, patch *models.ContentPatch) (*models.Content, error) {
	if err := requireManage(actor, models.CollectionContent); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, patch); err != nil {
		return nil, err
	}
	return s.content.Update(ctx, actor.ID, id, &ownedContentPatch{ContentPatch: patch, actor: actor})
}

// Delete removes the item with id. Teachers may only remove their own uploads.
func (s *contentService) Delete(ctx context.Context, actor *models.User, id string) error {
	if err := requireManage(actor, models.CollectionContent); err != nil {
		return err
	}

	if actor.Role != models.RoleAdmin {
		item, err := s.content.GetByID(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if item.UploadedBy != actor.ID {
			return fmt.Errorf("%w: content %s belongs to another uploader", models.ErrUnauthorized, id)
		}
	}

	return s.content.Delete(ctx, actor.ID, id)
}

// ownedContentPatch enforces the uploader check inside the store's write lock
type ownedContentPatch struct {
	*models.ContentPatch
	actor *models.User
}

func (p *ownedContentPatch) Apply(c *models.Content) error {
	if p.actor.Role != models.RoleAdmin && c.UploadedBy != p.actor.ID {
		return fmt.Errorf("%w: content %s belongs to another uploader", models.ErrUnauthorized, c.ID)
	}
	return p.ContentPatch.Apply(c)
}
