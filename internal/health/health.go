// Package health tracks the health of the service's backing stores.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chrissnell/clearsky/internal/log"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	checkTimeout = 5 * time.Second
)

// Pinger is implemented by anything whose connectivity can be checked
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the result of the most recent check of one component
type Status struct {
	LastCheck time.Time `json:"last_check"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// Manager holds registered components and their latest status
type Manager struct {
	mu      sync.RWMutex
	pingers map[string]Pinger
	status  map[string]Status
}

// NewManager creates a new health manager
func NewManager() *Manager {
	return &Manager{
		pingers: make(map[string]Pinger),
		status:  make(map[string]Status),
	}
}

// Register adds a component to be checked
func (m *Manager) Register(name string, p Pinger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingers[name] = p
}

// Components returns the registered component names, sorted
func (m *Manager) Components() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.pingers))
	for name := range m.pingers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check pings every component and records the results
func (m *Manager) Check(ctx context.Context) {
	for _, name := range m.Components() {
		m.mu.RLock()
		p := m.pingers[name]
		m.mu.RUnlock()

		pingCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := p.Ping(pingCtx)
		cancel()

		st := Status{LastCheck: time.Now(), Status: StatusHealthy}
		if err != nil {
			st.Status = StatusUnhealthy
			st.Error = err.Error()
			log.Warnf("%s health check failed: %v", name, err)
		}

		m.mu.Lock()
		m.status[name] = st
		m.mu.Unlock()
	}
}

// Snapshot returns a copy of the latest statuses
func (m *Manager) Snapshot() map[string]Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Status, len(m.status))
	for k, v := range m.status {
		out[k] = v
	}
	return out
}

// Healthy reports whether every registered component passed a check no
// older than maxAge
func (m *Manager) Healthy(maxAge time.Duration) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for name := range m.pingers {
		st, ok := m.status[name]
		if !ok || st.Status != StatusHealthy || time.Since(st.LastCheck) > maxAge {
			return false
		}
	}
	return true
}

// Start checks immediately and then every interval until ctx is done
func (m *Manager) Start(ctx context.Context, wg *sync.WaitGroup, interval time.Duration) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Check(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Check(ctx)
			case <-ctx.Done():
				log.Info("stopping health monitor")
				return
			}
		}
	}()
}
