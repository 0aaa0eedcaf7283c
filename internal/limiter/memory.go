package limiter

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	fails        int
	updatedAt    time.Time
	blockedUntil time.Time
}

// Memory is a process-local Limiter used when no database is configured.
type Memory struct {
	policy Policy
	now    func() time.Time

	mu        sync.Mutex
	entries   map[string]*entry
	lastSweep time.Time
}

// NewMemory returns an empty in-process limiter.
func NewMemory(p Policy) *Memory {
	return &Memory{policy: p, now: time.Now, entries: make(map[string]*entry)}
}

func memKey(username string, ipHash []byte) string { return username + "\x00" + string(ipHash) }

func (m *Memory) Allow(_ context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	e, ok := m.entries[memKey(username, ipHash)]
	if !ok {
		return true, 0, nil
	}
	if wait := e.blockedUntil.Sub(now); wait > 0 {
		return false, wait, nil
	}
	return true, 0, nil
}

func (m *Memory) Success(_ context.Context, username string, ipHash []byte) error {
	m.mu.Lock()
	delete(m.entries, memKey(username, ipHash))
	m.mu.Unlock()
	return nil
}

func (m *Memory) Failure(_ context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	k := memKey(username, ipHash)
	e, ok := m.entries[k]
	switch {
	case !ok:
		e = &entry{}
		m.entries[k] = e
		e.fails = 1
	case now.Sub(e.updatedAt) > m.policy.Window:
		e.fails = 1
	default:
		e.fails++
	}
	e.updatedAt = now

	if e.fails < m.policy.MaxFails {
		return false, 0, nil
	}
	e.blockedUntil = now.Add(m.policy.BlockFor)
	return true, m.policy.BlockFor, nil
}

// sweep drops entries whose window and block have both lapsed. It runs at most
// once per window; m.mu must be held.
func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.policy.Window {
		return
	}
	m.lastSweep = now
	ttl := m.policy.Window + m.policy.BlockFor
	for k, e := range m.entries {
		if now.Sub(e.updatedAt) > ttl && !now.Before(e.blockedUntil) {
			delete(m.entries, k)
		}
	}
}
