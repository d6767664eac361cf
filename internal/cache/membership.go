// Package cache holds the time-bounded membership cache. Expiry policy lives
// here, not at call sites, so it can be tuned and tested in one place.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-realtime/internal/models"
)

// Loader rebuilds a membership snapshot from durable storage.
type Loader func(ctx context.Context, userID string) (*models.MembershipSnapshot, error)

// Config defines the membership cache lifecycle bounds.
type Config struct {
	// TTL is how long a snapshot may be used before a rebuild is forced.
	TTL time.Duration

	// SweepInterval is how often the background sweep runs.
	SweepInterval time.Duration

	// MaxIdle is how long an untouched snapshot survives before the sweep
	// removes it, bounding memory for long-disconnected users.
	MaxIdle time.Duration
}

func DefaultConfig() Config {
	return Config{
		TTL:           5 * time.Minute,
		SweepInterval: 30 * time.Minute,
		MaxIdle:       time.Hour,
	}
}

type entry struct {
	snapshot   *models.MembershipSnapshot
	lastAccess time.Time
}

// Membership caches one snapshot per user. Snapshots are replaced atomically
// under the lock; readers never observe a half-built one.
type Membership struct {
	loader  Loader
	config  Config
	entries map[string]*entry
	mu      sync.RWMutex

	stopSweep    chan struct{}
	sweepRunning bool
}

func NewMembership(loader Loader, config Config) *Membership {
	if config.TTL <= 0 {
		config.TTL = DefaultConfig().TTL
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultConfig().SweepInterval
	}
	if config.MaxIdle <= 0 {
		config.MaxIdle = DefaultConfig().MaxIdle
	}
	return &Membership{
		loader:    loader,
		config:    config,
		entries:   make(map[string]*entry),
		stopSweep: make(chan struct{}),
	}
}

// GetOrRefresh returns the cached snapshot, rebuilding it first when missing
// or older than the TTL. If the rebuild fails, any stale snapshot is kept for
// the next attempt but the error is surfaced: callers must not authorize
// against data older than the TTL.
func (m *Membership) GetOrRefresh(ctx context.Context, userID string) (*models.MembershipSnapshot, error) {
	m.mu.RLock()
	e, ok := m.entries[userID]
	m.mu.RUnlock()

	now := time.Now()
	if ok && now.Sub(e.snapshot.FetchedAt) < m.config.TTL {
		m.touch(userID, now)
		return e.snapshot, nil
	}

	snapshot, err := m.loader(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rebuild membership snapshot: %w", err)
	}

	m.mu.Lock()
	m.entries[userID] = &entry{snapshot: snapshot, lastAccess: now}
	m.mu.Unlock()

	return snapshot, nil
}

// Invalidate forces the next GetOrRefresh for the user to rebuild. Called
// when chat/group membership changes out of band.
func (m *Membership) Invalidate(userID string) {
	m.mu.Lock()
	delete(m.entries, userID)
	m.mu.Unlock()
}

// Len reports the number of cached snapshots.
func (m *Membership) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Membership) touch(userID string, now time.Time) {
	m.mu.Lock()
	if e, ok := m.entries[userID]; ok {
		e.lastAccess = now
	}
	m.mu.Unlock()
}

// StartSweep launches the periodic removal of idle snapshots.
func (m *Membership) StartSweep() {
	m.mu.Lock()
	if m.sweepRunning {
		m.mu.Unlock()
		return
	}
	m.sweepRunning = true
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(m.config.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if removed := m.sweep(time.Now()); removed > 0 {
					slog.Debug("Swept idle membership snapshots", "removed", removed)
				}
			case <-m.stopSweep:
				return
			}
		}
	}()
}

// StopSweep stops the background sweep.
func (m *Membership) StopSweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.sweepRunning {
		return
	}
	close(m.stopSweep)
	m.sweepRunning = false
	m.stopSweep = make(chan struct{})
}

func (m *Membership) sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for userID, e := range m.entries {
		if now.Sub(e.lastAccess) > m.config.MaxIdle {
			delete(m.entries, userID)
			removed++
		}
	}
	return removed
}
