package services

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/growup/backend/internal/ids"
	"github.com/growup/backend/internal/models"
	"github.com/growup/backend/internal/policy"
	"github.com/growup/backend/internal/validation"
	"go.uber.org/zap"
)

// adService implements banner ad management
type adService struct {
	ads      Collection[models.Ad]
	settings SettingsReader
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAdService creates a new ad service
func NewAdService(ads Collection[models.Ad], settings SettingsReader, validate *validator.Validate, logger *zap.Logger) *adService {
	return &adService{
		ads:      ads,
		settings: settings,
		validate: validate,
		logger:   logger,
	}
}

// Active returns the active ads for placement that viewer should see.
// An empty placement matches every placement.
func (s *adService) Active(ctx context.Context, viewer *models.User, placement models.AdPlacement) ([]models.Ad, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !policy.ShowAds(settings, viewer) {
		return []models.Ad{}, nil
	}

	all, err := s.ads.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	active := []models.Ad{}
	for _, ad := range all {
		if ad.Active && (placement == "" || ad.Placement == placement) {
			active = append(active, ad)
		}
	}
	return active, nil
}

// List returns every ad for admin management
func (s *adService) List(ctx context.Context, actor *models.User) ([]models.Ad, error) {
	if err := requireManage(actor, models.CollectionAds); err != nil {
		return nil, err
	}
	return s.ads.GetAll(ctx)
}

// Create adds an ad
func (s *adService) Create(ctx context.Context, actor *models.User, req *models.CreateAdRequest) (*models.Ad, error) {
	if err := requireManage(actor, models.CollectionAds); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	ad := &models.Ad{
		ID:        ids.New(),
		Title:     strings.TrimSpace(req.Title),
		ImageURL:  req.ImageURL,
		LinkURL:   req.LinkURL,
		Placement: req.Placement,
		Active:    req.Active,
	}
	return s.ads.Create(ctx, actor.ID, ad)
}

// Update applies patch to the ad with id
func (s *adService) Update(ctx context.Context, actor *models.User, id string, patch *models.AdPatch) (*models.Ad, error) {
	if err := requireManage(actor, models.CollectionAds); err != nil {
		return nil, err
	}
	return s.ads.Update(ctx, actor.ID, id, patch)
}

// Delete removes the ad with id
func (s *adService) Delete(ctx context.Context, actor *models.User, id string) error {
	if err := requireManage(actor, models.CollectionAds); err != nil {
		return err
	}
	return s.ads.Delete(ctx, actor.ID, id)
}
