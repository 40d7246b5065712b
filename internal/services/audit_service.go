package services

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/growup/backend/internal/ids"
	"github.com/growup/backend/internal/models"
	"go.uber.org/zap"
)

// AuditLogRepository is the interface that wraps methods for audit log data access
type AuditLogRepository interface {
	// Method Append stores entry and evicts the oldest entries beyond capacity.
	//
	// The repository assigns entry.Seq, which orders entries with equal timestamps.
	Append(ctx context.Context, entry *models.AuditLogEntry, capacity int) error
	// Method List returns up to limit entries, most recent first.
	List(ctx context.Context, limit int) ([]models.AuditLogEntry, error)
}

// auditService implements the audit trail
type auditService struct {
	repo     AuditLogRepository
	logger   *zap.Logger
	capacity int
	now      func() time.Time
}

// NewAuditService creates a new audit service bounded at models.AuditLogCapacity entries
func NewAuditService(repo AuditLogRepository, logger *zap.Logger) *auditService {
	return &auditService{
		repo:     repo,
		logger:   logger,
		capacity: models.AuditLogCapacity,
		now:      time.Now,
	}
}

// Record appends a new entry for actorID. An empty actor is recorded as models.SystemActor.
func (s *auditService) Record(ctx context.Context, actorID string, action models.AuditAction, details string) error {
	if !action.Valid() {
		return fmt.Errorf("%w: unknown audit action %q", models.ErrValidation, action)
	}
	if actorID == "" {
		actorID = models.SystemActor
	}

	entry := &models.AuditLogEntry{
		ID:        ids.NewAuditID(),
		ActorID:   actorID,
		Action:    action,
		Details:   details,
		Timestamp: s.now().UTC(),
	}
	if err := s.repo.Append(ctx, entry, s.capacity); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	s.logger.Debug("audit entry recorded",
		zap.String("actor", actorID),
		zap.String("action", string(action)),
		zap.Int64("seq", entry.Seq),
	)
	return nil
}

// Recent returns the n most recent entries, most recent first.
// The sequence is lazy and restartable: every range re-reads the log.
func (s *auditService) Recent(ctx context.Context, n int) iter.Seq2[models.AuditLogEntry, error] {
	return func(yield func(models.AuditLogEntry, error) bool) {
		if n <= 0 {
			return
		}
		entries, err := s.repo.List(ctx, min(n, s.capacity))
		if err != nil {
			yield(models.AuditLogEntry{}, fmt.Errorf("failed to list audit entries: %w", err))
			return
		}
		for _, entry := range entries {
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// List collects Recent(n) for actor, who must be allowed to read the audit log
func (s *auditService) List(ctx context.Context, actor *models.User, n int) ([]models.AuditLogEntry, error) {
	if err := requireRead(actor, models.CollectionAuditLog); err != nil {
		return nil, err
	}

	entries := []models.AuditLogEntry{}
	for entry, err := range s.Recent(ctx, n) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
