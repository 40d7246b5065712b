package store

import (
	"context"
	"sync"

	"github.com/growup/backend/internal/models"
)

// memoryAuditLog keeps audit entries oldest-first in a bounded slice
type memoryAuditLog struct {
	mu      sync.Mutex
	entries []models.AuditLogEntry
	seq     int64
}

// NewMemoryAuditLog creates an empty in-memory audit log
func NewMemoryAuditLog() *memoryAuditLog {
	return &memoryAuditLog{}
}

// Append stores entry, assigns its sequence and evicts the oldest entries beyond capacity
func (l *memoryAuditLog) Append(ctx context.Context, entry *models.AuditLogEntry, capacity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	entry.Seq = l.seq
	l.entries = append(l.entries, *entry)

	if overflow := len(l.entries) - capacity; capacity > 0 && overflow > 0 {
		// Copy so the evicted prefix does not pin the backing array.
		kept := make([]models.AuditLogEntry, capacity, capacity+1)
		copy(kept, l.entries[overflow:])
		l.entries = kept
	}
	return nil
}

// List returns up to limit entries, most recent first
func (l *memoryAuditLog) List(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}
	result := make([]models.AuditLogEntry, 0, limit)
	for i := len(l.entries) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, l.entries[i])
	}
	return result, nil
}

// Count returns the number of retained entries
func (l *memoryAuditLog) Count(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries), nil
}
