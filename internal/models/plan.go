package models

import (
	"fmt"
	"strings"
	"time"
)

// Plan is a purchasable subscription offer
type Plan struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Type         SubscriptionType `json:"type"`
	Price        int64            `json:"price"`
	DurationDays int              `json:"durationDays"`
	Active       bool             `json:"active"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// CreatePlanRequest represents a new plan
type CreatePlanRequest struct {
	Name         string           `json:"name" validate:"required,max=100"`
	Description  string           `json:"description" validate:"max=500"`
	Type         SubscriptionType `json:"type" validate:"required,subscriptiontype"`
	Price        int64            `json:"price" validate:"gte=0"`
	DurationDays int              `json:"durationDays" validate:"gt=0"`
	Active       *bool            `json:"active,omitempty"`
}

// PlanPatch is a partial update of a plan
type PlanPatch struct {
	Name         *string           `json:"name,omitempty"`
	Description  *string           `json:"description,omitempty"`
	Type         *SubscriptionType `json:"type,omitempty"`
	Price        *int64            `json:"price,omitempty"`
	DurationDays *int              `json:"durationDays,omitempty"`
	Active       *bool             `json:"active,omitempty"`
}

// Apply merges the patch into p
func (pp *PlanPatch) Apply(p *Plan) error {
	if pp.Name != nil {
		if strings.TrimSpace(*pp.Name) == "" {
			return fmt.Errorf("%w: plan name cannot be empty", ErrValidation)
		}
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Type != nil {
		if !pp.Type.Valid() {
			return fmt.Errorf("%w: invalid plan type %q", ErrValidation, *pp.Type)
		}
		p.Type = *pp.Type
	}
	if pp.Price != nil {
		if *pp.Price < 0 {
			return fmt.Errorf("%w: price cannot be negative", ErrValidation)
		}
		p.Price = *pp.Price
	}
	if pp.DurationDays != nil {
		if *pp.DurationDays <= 0 {
			return fmt.Errorf("%w: duration must be positive", ErrValidation)
		}
		p.DurationDays = *pp.DurationDays
	}
	if pp.Active != nil {
		p.Active = *pp.Active
	}
	return nil
}
