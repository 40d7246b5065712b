package services

import (
	"context"
	"iter"
	"time"

	"github.com/growup/backend/internal/models"
	"github.com/growup/backend/internal/policy"
	"go.uber.org/zap"
)

// RecentActivity is the interface that wraps the audit trail read used by the dashboard
type RecentActivity interface {
	// Method Recent returns the n most recent audit entries, most recent first.
	Recent(ctx context.Context, n int) iter.Seq2[models.AuditLogEntry, error]
}

// overviewService builds the admin dashboard summary
type overviewService struct {
	users    Collection[models.User]
	content  Collection[models.Content]
	payments Collection[models.PaymentRecord]
	audit    RecentActivity
	logger   *zap.Logger
	now      func() time.Time
}

// NewOverviewService creates a new overview service
func NewOverviewService(
	users Collection[models.User],
	content Collection[models.Content],
	payments Collection[models.PaymentRecord],
	audit RecentActivity,
	logger *zap.Logger,
) *overviewService {
	return &overviewService{
		users:    users,
		content:  content,
		payments: payments,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

// Overview summarizes revenue, active students, totals and the latest audit activity
func (s *overviewService) Overview(ctx context.Context, actor *models.User) (*models.Overview, error) {
	if err := requireRead(actor, models.CollectionUsers); err != nil {
		return nil, err
	}

	users, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	content, err := s.content.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	overview := &models.Overview{
		TotalUsers:     len(users),
		ContentCount:   len(content),
		RecentActivity: []models.AuditLogEntry{},
	}
	for i := range users {
		if policy.SubscriptionActive(&users[i], now) {
			overview.ActiveStudents++
		}
	}
	for _, p := range payments {
		if p.Status == models.PaymentSuccess {
			overview.Revenue += p.Amount
		}
	}
	for entry, err := range s.audit.Recent(ctx, models.OverviewActivityLimit) {
		if err != nil {
			return nil, err
		}
		overview.RecentActivity = append(overview.RecentActivity, entry)
	}

	s.logger.Debug("overview built",
		zap.String("actor", actor.ID),
		zap.Int("users", overview.TotalUsers),
		zap.Int("active_students", overview.ActiveStudents),
	)
	return overview, nil
}
