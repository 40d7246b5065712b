// Package store provides keyed-collection persistence for the portal entities.
//
// Every collection is backed by a Backend (in memory or MySQL) and every privileged
// mutation is reported to an Auditor after the data write succeeded.
package store

import (
	"fmt"

	"github.com/growup/backend/internal/models"
	"go.uber.org/zap"
)

// Store groups the typed collections of the portal
type Store struct {
	Users    *Collection[models.User]
	Content  *Collection[models.Content]
	Plans    *Collection[models.Plan]
	Ads      *Collection[models.Ad]
	Settings *Collection[models.Settings]
	Payments *Collection[models.PaymentRecord]
}

// New creates the portal collections over backend
func New(backend Backend, auditor Auditor, logger *zap.Logger) *Store {
	return &Store{
		Users: NewCollection(backend, auditor, logger, Schema[models.User]{
			Name: models.CollectionUsers,
			ID:   func(u *models.User) string { return u.ID },
			Key:  func(u *models.User) string { return models.NormalizeEmail(u.Email) },
			Describe: func(u *models.User) string {
				return fmt.Sprintf("user %s (%s, %s)", u.ID, u.Email, u.Role)
			},
			Actions: Actions{
				Create: models.ActionUserCreate,
				Update: models.ActionUserUpdate,
				Delete: models.ActionUserDelete,
			},
		}),
		Content: NewCollection(backend, auditor, logger, Schema[models.Content]{
			Name: models.CollectionContent,
			ID:   func(c *models.Content) string { return c.ID },
			Describe: func(c *models.Content) string {
				return fmt.Sprintf("content %s (%q, class %s)", c.ID, c.Title, c.ClassGrade)
			},
			Actions: Actions{
				Create: models.ActionContentCreate,
				Update: models.ActionContentUpdate,
				Delete: models.ActionContentDelete,
			},
		}),
		Plans: NewCollection(backend, auditor, logger, Schema[models.Plan]{
			Name: models.CollectionPlans,
			ID:   func(p *models.Plan) string { return p.ID },
			Describe: func(p *models.Plan) string {
				return fmt.Sprintf("plan %s (%q, %s, %d)", p.ID, p.Name, p.Type, p.Price)
			},
			Actions: Actions{
				Create: models.ActionPlanCreate,
				Update: models.ActionPlanUpdate,
				Delete: models.ActionPlanDelete,
			},
		}),
		Ads: NewCollection(backend, auditor, logger, Schema[models.Ad]{
			Name: models.CollectionAds,
			ID:   func(a *models.Ad) string { return a.ID },
			Actions: Actions{
				Create: models.ActionAdCreate,
				Update: models.ActionAdUpdate,
				Delete: models.ActionAdDelete,
			},
		}),
		Settings: NewCollection(backend, auditor, logger, Schema[models.Settings]{
			Name:     models.CollectionSettings,
			ID:       func(s *models.Settings) string { return s.ID },
			Describe: func(*models.Settings) string { return "settings" },
			Actions: Actions{
				Create: models.ActionSettingsInit,
				Update: models.ActionSettingsUpdate,
			},
		}),
		Payments: NewCollection(backend, auditor, logger, Schema[models.PaymentRecord]{
			Name: models.CollectionPayments,
			ID:   func(p *models.PaymentRecord) string { return p.ID },
			Describe: func(p *models.PaymentRecord) string {
				return fmt.Sprintf("payment %s (user %s, %d, %s)", p.ID, p.UserID, p.Amount, p.Status)
			},
			Actions: Actions{
				Create: models.ActionPaymentCreate,
				Update: models.ActionPaymentStatusChange,
			},
		}),
	}
}
