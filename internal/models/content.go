package models

import (
	"fmt"
	"strings"
	"time"
)

// ContentType is the media type of a study material
type ContentType string

const (
	ContentPDF   ContentType = "PDF"
	ContentVideo ContentType = "VIDEO"
	ContentImage ContentType = "IMAGE"
	ContentDoc   ContentType = "DOC"
	ContentZip   ContentType = "ZIP"
	ContentLink  ContentType = "LINK"
	ContentLive  ContentType = "LIVE"
)

// Valid reports whether t is one of the known media types
func (t ContentType) Valid() bool {
	switch t {
	case ContentPDF, ContentVideo, ContentImage, ContentDoc, ContentZip, ContentLink, ContentLive:
		return true
	}
	return false
}

// Content represents a unit of study material.
// UploadedBy is a weak reference: the uploader may be deleted without touching the content.
type Content struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description,omitempty"`
	Type           ContentType `json:"type"`
	URL            string      `json:"url"`
	UploadedBy     string      `json:"uploadedBy"`
	ClassGrade     ClassGrade  `json:"classGrade"`
	Subject        string      `json:"subject"`
	Chapter        string      `json:"chapter"`
	Topic          string      `json:"topic,omitempty"`
	IsWatermarked  bool        `json:"isWatermarked"`
	IsVisible      bool        `json:"isVisible"`
	IsDownloadable bool        `json:"isDownloadable"`
	CreatedAt      time.Time   `json:"createdAt"`
	Views          int64       `json:"views"`
	Downloads      int64       `json:"downloads"`
}

// ContentView is a content item as delivered to one viewer
type ContentView struct {
	Content
	// Watermark lists the viewer attributes the renderer must stamp, empty when none
	Watermark   []string `json:"watermark,omitempty"`
	CanDownload bool     `json:"canDownload"`
}

// CreateContentRequest represents a new study material
type CreateContentRequest struct {
	Title          string      `json:"title" validate:"required,max=200"`
	Description    string      `json:"description" validate:"max=2000"`
	Type           ContentType `json:"type" validate:"required,contenttype"`
	URL            string      `json:"url" validate:"required,max=2048"`
	ClassGrade     ClassGrade  `json:"classGrade" validate:"required,classgrade"`
	Subject        string      `json:"subject" validate:"required,max=100"`
	Chapter        string      `json:"chapter" validate:"required,max=200"`
	Topic          string      `json:"topic" validate:"max=200"`
	IsWatermarked  bool        `json:"isWatermarked"`
	IsVisible      *bool       `json:"isVisible,omitempty"`
	IsDownloadable bool        `json:"isDownloadable"`
}

// ContentPatch is a partial update of a content item. Counters cannot be patched.
// Length limits match CreateContentRequest; required fields cannot be cleared.
type ContentPatch struct {
	Title          *string      `json:"title,omitempty" validate:"omitempty,max=200"`
	Description    *string      `json:"description,omitempty" validate:"omitempty,max=2000"`
	Type           *ContentType `json:"type,omitempty"`
	URL            *string      `json:"url,omitempty" validate:"omitempty,max=2048"`
	ClassGrade     *ClassGrade  `json:"classGrade,omitempty"`
	Subject        *string      `json:"subject,omitempty" validate:"omitempty,max=100"`
	Chapter        *string      `json:"chapter,omitempty" validate:"omitempty,max=200"`
	Topic          *string      `json:"topic,omitempty" validate:"omitempty,max=200"`
	IsWatermarked  *bool        `json:"isWatermarked,omitempty"`
	IsVisible      *bool        `json:"isVisible,omitempty"`
	IsDownloadable *bool        `json:"isDownloadable,omitempty"`
}

// requiredText trims v and rejects a blank value for the required field name
func requiredText(name string, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%w: %s cannot be empty", ErrValidation, name)
	}
	return v, nil
}

// Apply merges the patch into c. c is left unchanged when the patch is rejected.
func (p *ContentPatch) Apply(c *Content) error {
	next := *c
	var err error

	if p.Title != nil {
		if next.Title, err = requiredText("title", *p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
	}
	if p.Type != nil {
		if !p.Type.Valid() {
			return fmt.Errorf("%w: invalid content type %q", ErrValidation, *p.Type)
		}
		next.Type = *p.Type
	}
	if p.URL != nil {
		if next.URL, err = requiredText("url", *p.URL); err != nil {
			return err
		}
	}
	if p.ClassGrade != nil {
		if !p.ClassGrade.Valid() {
			return fmt.Errorf("%w: invalid class %q", ErrValidation, *p.ClassGrade)
		}
		next.ClassGrade = *p.ClassGrade
	}
	if p.Subject != nil {
		if next.Subject, err = requiredText("subject", *p.Subject); err != nil {
			return err
		}
	}
	if p.Chapter != nil {
		if next.Chapter, err = requiredText("chapter", *p.Chapter); err != nil {
			return err
		}
	}
	if p.Topic != nil {
		next.Topic = strings.TrimSpace(*p.Topic)
	}
	if p.IsWatermarked != nil {
		next.IsWatermarked = *p.IsWatermarked
	}
	if p.IsVisible != nil {
		next.IsVisible = *p.IsVisible
	}
	if p.IsDownloadable != nil {
		next.IsDownloadable = *p.IsDownloadable
	}

	*c = next
	return nil
}

// AuditDetails lists the changed fields
func (p *ContentPatch) AuditDetails() string {
	var fields []string
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Type != nil {
		fields = append(fields, "type="+string(*p.Type))
	}
	if p.URL != nil {
		fields = append(fields, "url")
	}
	if p.ClassGrade != nil {
		fields = append(fields, "classGrade="+string(*p.ClassGrade))
	}
	if p.Subject != nil {
		fields = append(fields, "subject")
	}
	if p.Chapter != nil {
		fields = append(fields, "chapter")
	}
	if p.Topic != nil {
		fields = append(fields, "topic")
	}
	if p.IsWatermarked != nil {
		fields = append(fields, fmt.Sprintf("isWatermarked=%t", *p.IsWatermarked))
	}
	if p.IsVisible != nil {
		fields = append(fields, fmt.Sprintf("isVisible=%t", *p.IsVisible))
	}
	if p.IsDownloadable != nil {
		fields = append(fields, fmt.Sprintf("isDownloadable=%t", *p.IsDownloadable))
	}
	return strings.Join(fields, ", ")
}

// CounterPatch increments the view and download counters
type CounterPatch struct {
	Views     int64
	Downloads int64
}

// Apply adds the deltas to c. Counters never decrease.
func (p CounterPatch) Apply(c *Content) error {
	if p.Views < 0 || p.Downloads < 0 {
		return fmt.Errorf("%w: counters cannot decrease", ErrValidation)
	}
	c.Views += p.Views
	c.Downloads += p.Downloads
	return nil
}

// AuditAction returns an empty action: counter bumps are not privileged
func (p CounterPatch) AuditAction() AuditAction {
	return ""
}
