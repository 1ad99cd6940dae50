package session

import (
	"context"
	"sync"
	"time"

	"rental-search/models"
)

type entry struct {
	requestSecret    string
	requestExpiresAt time.Time
	access           *models.AccessToken
	accessExpiresAt  time.Time
}

// MemoryStore is an in-process Store for single-instance deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore using the wall clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*entry), now: time.Now}
}

// WithClock replaces the time source. Used by tests to step past TTLs.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*models.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds := &models.Credentials{}
	e, ok := s.entries[sessionID]
	if !ok {
		return creds, nil
	}

	e.expire(s.now())
	if s.prune(sessionID, e) {
		return creds, nil
	}
	creds.RequestTokenSecret = e.requestSecret
	if e.access != nil {
		tok := *e.access
		creds.AccessToken = &tok
	}
	return creds, nil
}

func (s *MemoryStore) PutRequestSecret(_ context.Context, sessionID, secret string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(sessionID)
	e.requestSecret = secret
	e.requestExpiresAt = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) DeleteRequestSecret(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[sessionID]; ok {
		e.requestSecret = ""
		s.prune(sessionID, e)
	}
	return nil
}

func (s *MemoryStore) PutAccessToken(_ context.Context, sessionID string, token models.AccessToken, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(sessionID)
	e.access = &token
	e.accessExpiresAt = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) DeleteAccessToken(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[sessionID]; ok {
		e.access = nil
		s.prune(sessionID, e)
	}
	return nil
}

// entry returns the entry for sessionID, creating it if needed. Every write
// goes through here, so it also sweeps out sessions whose credentials have
// all expired.
func (s *MemoryStore) entry(sessionID string) *entry {
	s.evictExpired()
	e, ok := s.entries[sessionID]
	if !ok {
		e = &entry{}
		s.entries[sessionID] = e
	}
	return e
}

func (s *MemoryStore) evictExpired() {
	now := s.now()
	for id, e := range s.entries {
		e.expire(now)
		s.prune(id, e)
	}
}

func (s *MemoryStore) prune(sessionID string, e *entry) bool {
	if e.requestSecret == "" && e.access == nil {
		delete(s.entries, sessionID)
		return true
	}
	return false
}

func (e *entry) expire(now time.Time) {
	if e.requestSecret != "" && !now.Before(e.requestExpiresAt) {
		e.requestSecret = ""
	}
	if e.access != nil && !now.Before(e.accessExpiresAt) {
		e.access = nil
	}
}
