// Package sessions stores live login sessions
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/growup/backend/internal/models"
)

// pruneInterval is the minimum time between two sweeps of expired sessions
const pruneInterval = time.Minute

// memoryStore keeps sessions in process memory.
// Expired sessions are dropped when read and swept at most once per pruneInterval on Create.
type memoryStore struct {
	mu        sync.Mutex
	sessions  map[string]models.Session
	byUser    map[string]map[string]struct{}
	now       func() time.Time
	lastPrune time.Time
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *memoryStore {
	return &memoryStore{
		sessions: make(map[string]models.Session),
		byUser:   make(map[string]map[string]struct{}),
		now:      time.Now,
	}
}

// Create stores a session
func (s *memoryStore) Create(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now := s.now(); now.Sub(s.lastPrune) >= pruneInterval {
		s.pruneLocked(now)
		s.lastPrune = now
	}

	s.sessions[session.ID] = *session
	ids, ok := s.byUser[session.UserID]
	if !ok {
		ids = make(map[string]struct{})
		s.byUser[session.UserID] = ids
	}
	ids[session.ID] = struct{}{}
	return nil
}

// Get returns the session with id or models.ErrNoSession when it is absent or expired
func (s *memoryStore) Get(ctx context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, models.ErrNoSession
	}
	if session.Expired(s.now()) {
		s.deleteLocked(id)
		return nil, models.ErrNoSession
	}
	return &session, nil
}

// Delete removes the session with id. Removing a missing session is not an error.
func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteLocked(id)
	return nil
}

// DeleteByUser removes every session of userID
func (s *memoryStore) DeleteByUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.byUser[userID] {
		delete(s.sessions, id)
	}
	delete(s.byUser, userID)
	return nil
}

func (s *memoryStore) deleteLocked(id string) {
	session, ok := s.sessions[id]
	if !ok {
		return
	}
	delete(s.sessions, id)
	if ids, ok := s.byUser[session.UserID]; ok {
		delete(ids, id)
		if len(ids) == 0 {
			delete(s.byUser, session.UserID)
		}
	}
}

func (s *memoryStore) pruneLocked(now time.Time) {
	for id, session := range s.sessions {
		if session.Expired(now) {
			s.deleteLocked(id)
		}
	}
}
