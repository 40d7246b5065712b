// Package policy holds the access decisions of the portal.
//
// Every function is pure: it reads only its arguments and never touches storage,
// so services can evaluate a decision before attempting any mutation.
package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/growup/backend/internal/models"
)

// CanManage reports whether role may mutate the collection.
// Content is managed by staff; teachers are further limited to their own uploads by the content service.
// The audit log is append-only and managed by nobody.
func CanManage(role models.Role, collection models.Collection) bool {
	switch collection {
	case models.CollectionUsers, models.CollectionPlans, models.CollectionSettings,
		models.CollectionAds, models.CollectionPayments:
		return role == models.RoleAdmin
	case models.CollectionContent:
		return role == models.RoleAdmin || role == models.RoleTeacher
	default:
		return false
	}
}

// CanRead reports whether role may enumerate the whole collection
func CanRead(role models.Role, collection models.Collection) bool {
	switch collection {
	case models.CollectionAuditLog, models.CollectionUsers, models.CollectionPayments:
		return role == models.RoleAdmin
	case models.CollectionContent:
		return role.Valid()
	case models.CollectionPlans, models.CollectionAds, models.CollectionSettings:
		return true
	default:
		return false
	}
}

// CanView reports whether viewer may see item
func CanView(viewer *models.User, item *models.Content) bool {
	if viewer == nil || item == nil {
		return false
	}
	if viewer.Role == models.RoleAdmin || viewer.Role == models.RoleTeacher {
		return true
	}
	if viewer.Role != models.RoleStudent || viewer.Student == nil {
		return false
	}
	if !item.IsVisible || item.ClassGrade != viewer.Student.ClassGrade {
		return false
	}
	if viewer.Student.SubscriptionType == models.SubscriptionClassWise && viewer.Student.Subject != "" {
		return strings.EqualFold(strings.TrimSpace(item.Subject), viewer.Student.Subject)
	}
	return true
}

// VisibleContent filters all down to the items viewer may enumerate, preserving order
func VisibleContent(viewer *models.User, all []models.Content) []models.Content {
	visible := make([]models.Content, 0, len(all))
	for i := range all {
		if CanView(viewer, &all[i]) {
			visible = append(visible, all[i])
		}
	}
	return visible
}

// SubscriptionActive reports whether u is a student whose paid access holds at now
func SubscriptionActive(u *models.User, now time.Time) bool {
	if u == nil || u.Role != models.RoleStudent || u.Student == nil {
		return false
	}
	if !u.Student.IsPaid {
		return false
	}
	return u.Student.SubscriptionExpiry == nil || u.Student.SubscriptionExpiry.After(now)
}

// CanDownload reports whether viewer may download item at now
func CanDownload(viewer *models.User, item *models.Content, now time.Time) bool {
	if viewer == nil || item == nil || !item.IsDownloadable {
		return false
	}
	if viewer.Role != models.RoleStudent {
		return true
	}
	return SubscriptionActive(viewer, now)
}

// RemovesLastAdmin reports whether taking target out of the ADMIN role, blocking or deleting it
// would leave no active admin. adminCount is the number of unblocked admins including target.
func RemovesLastAdmin(target *models.User, adminCount int) bool {
	return target != nil && target.Role == models.RoleAdmin && !target.IsBlocked && adminCount <= 1
}

// CanChangeRole checks a role change of target to newRole requested by actor.
// With protectLastAdmin, demoting the sole active admin fails with models.ErrLastAdmin.
func CanChangeRole(actor, target *models.User, newRole models.Role, adminCount int, protectLastAdmin bool) error {
	if actor == nil || actor.Role != models.RoleAdmin || actor.IsBlocked {
		return models.ErrUnauthorized
	}
	if !newRole.Valid() {
		return fmt.Errorf("%w: invalid role %q", models.ErrValidation, newRole)
	}
	if target == nil {
		return models.ErrNotFound
	}
	if protectLastAdmin && newRole != models.RoleAdmin && RemovesLastAdmin(target, adminCount) {
		return models.ErrLastAdmin
	}
	return nil
}

// Watermark returns the viewer attributes to stamp on item, in the configured field order.
// It returns nil when nothing is to be stamped.
func Watermark(settings *models.Settings, viewer *models.User, item *models.Content) []string {
	if settings == nil || viewer == nil || item == nil {
		return nil
	}
	if !settings.EnableWatermark || !item.IsWatermarked {
		return nil
	}

	var stamp []string
	for _, field := range settings.WatermarkFields {
		var value string
		switch field {
		case models.WatermarkName:
			value = viewer.Name
		case models.WatermarkMobile:
			value = viewer.Mobile
		case models.WatermarkClass:
			if viewer.Student != nil {
				value = "Class " + string(viewer.Student.ClassGrade)
			}
		}
		if value != "" {
			stamp = append(stamp, value)
		}
	}
	return stamp
}

// ShowAds reports whether ads are rendered for viewer. Anonymous visitors count as students.
func ShowAds(settings *models.Settings, viewer *models.User) bool {
	if settings == nil || !settings.EnableAds {
		return false
	}
	return viewer == nil || viewer.Role == models.RoleStudent
}
