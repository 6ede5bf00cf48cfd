package cache

import (
	"context"
	"sync"
	"time"

	"github.com/teachhire/marketplace/backend/internal/domain"
)

type memoryEntry struct {
	value     any
	expiresAt time.Time
}

// Memory is an in-process stand-in for Redis with the same expiry semantics.
type Memory struct {
	mu       sync.Mutex
	ttl      time.Duration
	eventTTL time.Duration
	entries  map[string]memoryEntry
	now      func() time.Time
}

func NewMemory(ttl, eventTTL time.Duration) *Memory {
	return &Memory{
		ttl:      ttl,
		eventTTL: eventTTL,
		entries:  make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (m *Memory) get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (m *Memory) set(key string, value any, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = entry
}

func (m *Memory) GetCandidateStats(_ context.Context, candidateID string) (domain.CandidateStats, bool, error) {
	v, ok := m.get(candidateKey(candidateID))
	if !ok {
		return domain.CandidateStats{}, false, nil
	}
	return v.(domain.CandidateStats), true, nil
}

func (m *Memory) SetCandidateStats(_ context.Context, candidateID string, stats domain.CandidateStats) error {
	if m.ttl <= 0 {
		return nil
	}
	m.set(candidateKey(candidateID), stats, m.ttl)
	return nil
}

func (m *Memory) GetInstituteStats(_ context.Context, instituteID string) (domain.InstituteStats, bool, error) {
	v, ok := m.get(instituteKey(instituteID))
	if !ok {
		return domain.InstituteStats{}, false, nil
	}
	return v.(domain.InstituteStats), true, nil
}

func (m *Memory) SetInstituteStats(_ context.Context, instituteID string, stats domain.InstituteStats) error {
	if m.ttl <= 0 {
		return nil
	}
	m.set(instituteKey(instituteID), stats, m.ttl)
	return nil
}

func (m *Memory) Invalidate(_ context.Context, accountIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range accountIDs {
		delete(m.entries, candidateKey(id))
		delete(m.entries, instituteKey(id))
	}
	return nil
}

func (m *Memory) FirstSeen(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.entries[eventKey(key)]; ok {
		if entry.expiresAt.IsZero() || m.now().Before(entry.expiresAt) {
			return false, nil
		}
	}

	entry := memoryEntry{value: true}
	if m.eventTTL > 0 {
		entry.expiresAt = m.now().Add(m.eventTTL)
	}
	m.entries[eventKey(key)] = entry
	return true, nil
}
