package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/growup/backend/internal/models"
	"go.uber.org/zap"
)

// auditLogRepository implements the audit log repository on the audit_log table
type auditLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *sql.DB, logger *zap.Logger) *auditLogRepository {
	return &auditLogRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts entry and trims the table to the newest capacity rows in one transaction
func (r *auditLogRepository) Append(ctx context.Context, entry *models.AuditLogEntry, capacity int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO audit_log (id, actor_id, action, details, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query, entry.ID, entry.ActorID, string(entry.Action), entry.Details, entry.Timestamp)
	if err != nil {
		r.logger.Error("failed to insert audit entry", zap.Error(err), zap.String("action", string(entry.Action)))
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if capacity > 0 {
		// The derived table is required: MySQL cannot LIMIT a subquery on the table being deleted from.
		query = `
			DELETE FROM audit_log
			WHERE seq < (
				SELECT seq FROM (
					SELECT seq FROM audit_log ORDER BY seq DESC LIMIT 1 OFFSET ?
				) AS boundary
			)
		`
		if _, err := tx.ExecContext(ctx, query, capacity-1); err != nil {
			r.logger.Error("failed to trim audit log", zap.Error(err))
			return fmt.Errorf("failed to trim audit log: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	entry.Seq = seq
	return nil
}

// List returns up to limit entries, most recent first
func (r *auditLogRepository) List(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	query := `
		SELECT seq, id, actor_id, action, details, created_at
		FROM audit_log
		ORDER BY seq DESC
		LIMIT ?
	`

	if limit <= 0 {
		limit = models.AuditLogCapacity
	}

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("failed to query audit log", zap.Error(err))
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	entries := []models.AuditLogEntry{}
	for rows.Next() {
		var entry models.AuditLogEntry
		if err := rows.Scan(&entry.Seq, &entry.ID, &entry.ActorID, &entry.Action, &entry.Details, &entry.Timestamp); err != nil {
			r.logger.Error("failed to scan audit entry", zap.Error(err))
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// Count returns the number of retained entries
func (r *auditLogRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&count); err != nil {
		r.logger.Error("failed to count audit log", zap.Error(err))
		return 0, fmt.Errorf("failed to count audit log: %w", err)
	}
	return count, nil
}
