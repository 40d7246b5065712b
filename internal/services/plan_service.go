package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/growup/backend/internal/ids"
	"github.com/growup/backend/internal/models"
	"github.com/growup/backend/internal/validation"
	"go.uber.org/zap"
)

// planService implements subscription plan management
type planService struct {
	plans    Collection[models.Plan]
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewPlanService creates a new plan service
func NewPlanService(plans Collection[models.Plan], validate *validator.Validate, logger *zap.Logger) *planService {
	return &planService{
		plans:    plans,
		validate: validate,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns every plan in insertion order
func (s *planService) List(ctx context.Context) ([]models.Plan, error) {
	return s.plans.GetAll(ctx)
}

// ListActive returns the plans on offer
func (s *planService) ListActive(ctx context.Context) ([]models.Plan, error) {
	all, err := s.plans.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	active := []models.Plan{}
	for _, p := range all {
		if p.Active {
			active = append(active, p)
		}
	}
	return active, nil
}

// Create adds a plan. Plans are active unless req says otherwise.
func (s *planService) Create(ctx context.Context, actor *models.User, req *models.CreatePlanRequest) (*models.Plan, error) {
	if err := requireManage(actor, models.CollectionPlans); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}

	plan := &models.Plan{
		ID:           ids.New(),
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Type:         req.Type,
		Price:        req.Price,
		DurationDays: req.DurationDays,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}
	if req.Active != nil {
		plan.Active = *req.Active
	}

	return s.plans.Create(ctx, actor.ID, plan)
}

// Update applies patch to the plan with id
func (s *planService) Update(ctx context.Context, actor *models.User, id string, patch *models.PlanPatch) (*models.Plan, error) {
	if err := requireManage(actor, models.CollectionPlans); err != nil {
		return nil, err
	}
	return s.plans.Update(ctx, actor.ID, id, patch)
}

// Delete removes the plan with id
func (s *planService) Delete(ctx context.Context, actor *models.User, id string) error {
	if err := requireManage(actor, models.CollectionPlans); err != nil {
		return err
	}
	return s.plans.Delete(ctx, actor.ID, id)
}
