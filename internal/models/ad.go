package models

import "fmt"

// AdPlacement is where an advertisement is rendered
type AdPlacement string

const (
	AdPlacementHeader  AdPlacement = "HEADER"
	AdPlacementFooter  AdPlacement = "FOOTER"
	AdPlacementContent AdPlacement = "CONTENT"
)

// Valid reports whether p is a known placement
func (p AdPlacement) Valid() bool {
	return p == AdPlacementHeader || p == AdPlacementFooter || p == AdPlacementContent
}

// Ad is a custom banner advertisement
type Ad struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	ImageURL  string      `json:"imageUrl,omitempty"`
	LinkURL   string      `json:"linkUrl"`
	Placement AdPlacement `json:"placement"`
	Active    bool        `json:"active"`
}

// CreateAdRequest represents a new ad
type CreateAdRequest struct {
	Title     string      `json:"title" validate:"required,max=200"`
	ImageURL  string      `json:"imageUrl" validate:"omitempty,url"`
	LinkURL   string      `json:"linkUrl" validate:"required,url"`
	Placement AdPlacement `json:"placement" validate:"required,adplacement"`
	Active    bool        `json:"active"`
}

// AdPatch is a partial update of an ad
type AdPatch struct {
	Title     *string      `json:"title,omitempty"`
	ImageURL  *string      `json:"imageUrl,omitempty"`
	LinkURL   *string      `json:"linkUrl,omitempty"`
	Placement *AdPlacement `json:"placement,omitempty"`
	Active    *bool        `json:"active,omitempty"`
}

// Apply merges the patch into a
func (p *AdPatch) Apply(a *Ad) error {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.ImageURL != nil {
		a.ImageURL = *p.ImageURL
	}
	if p.LinkURL != nil {
		a.LinkURL = *p.LinkURL
	}
	if p.Placement != nil {
		if !p.Placement.Valid() {
			return fmt.Errorf("%w: invalid placement %q", ErrValidation, *p.Placement)
		}
		a.Placement = *p.Placement
	}
	if p.Active != nil {
		a.Active = *p.Active
	}
	return nil
}
