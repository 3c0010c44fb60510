package session

import (
	"context"
	"sync"
	"time"

	"github.com/dharsanguruparan/Previo/internal/model"
)

type memoryEntry struct {
	session   *Session
	saved     []model.Product
	expiresAt time.Time
}

// MemoryStore keeps sessions in a map guarded by an RWMutex. Entries expire
// after ttl; a zero ttl keeps them forever.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) expiry(now time.Time) time.Time {
	if m.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(m.ttl)
}

// lookup must be called with the lock held.
func (m *MemoryStore) lookup(id string) (*memoryEntry, bool) {
	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		return nil, false
	}
	return e, true
}

// sweep drops expired entries. The write lock must be held.
func (m *MemoryStore) sweep(now time.Time) {
	for id, e := range m.sessions {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(m.sessions, id)
		}
	}
}

// Create stores a new session and evicts the expired ones.
func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.sessions[s.ID] = &memoryEntry{session: s.clone(), expiresAt: m.expiry(now)}
	return nil
}

// Get returns a copy so callers cannot mutate stored state.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	return e.session.clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(s.ID)
	if !ok {
		return ErrNotFound
	}
	now := m.now()
	s.UpdatedAt = now
	e.session = s.clone()
	e.expiresAt = m.expiry(now)
	return nil
}

func (m *MemoryStore) SaveForLater(_ context.Context, id string, products []model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(id)
	if !ok {
		return ErrNotFound
	}
	e.saved = append([]model.Product(nil), products...)
	return nil
}

func (m *MemoryStore) Saved(_ context.Context, id string) ([]model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]model.Product(nil), e.saved...), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
