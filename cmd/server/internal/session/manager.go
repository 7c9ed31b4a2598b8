package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrisaathi/agriwaste/pkg/metrics"
)

// DefaultIdleTTL is how long a session may go untouched before the
// janitor evicts it.
const DefaultIdleTTL = 30 * time.Minute

// Manager is the in-memory session registry. Sessions are keyed by uuid
// and evicted after DefaultIdleTTL of inactivity; nothing is persisted.
type Manager struct {
	deps    Deps
	log     *slog.Logger
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*Controller

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewManager builds a registry creating sessions with the given
// collaborators. idleTTL <= 0 selects DefaultIdleTTL.
func NewManager(deps Deps, idleTTL time.Duration) *Manager {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		deps:     deps,
		log:      log,
		idleTTL:  idleTTL,
		sessions: make(map[string]*Controller),
		stopCh:   make(chan struct{}),
	}
}

// Create registers a new session in its initial state.
func (m *Manager) Create() *Controller {
	c := NewController(uuid.NewString(), m.deps)
	m.mu.Lock()
	m.sessions[c.ID()] = c
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.SetActiveSessions(n)
	m.log.Info("session created", "session_id", c.ID(), "active", n)
	return c
}

// Get returns the session with the given id, if registered.
func (m *Manager) Get(id string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sessions[id]
	return c, ok
}

// Delete destroys a session, cancelling any in-flight playback. It reports
// whether the id was registered.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	c, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	n := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return false
	}
	c.Close()
	metrics.SetActiveSessions(n)
	m.log.Info("session deleted", "session_id", id, "active", n)
	return true
}

// Len returns the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StartJanitor launches the background eviction loop. Call Stop to end it.
func (m *Manager) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweep()
			case <-m.stopCh:
				return
			}
		}
	}()
}

// Stop ends the janitor loop. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// sweep evicts sessions idle past the TTL.
func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	var evicted []*Controller
	for id, c := range m.sessions {
		if c.touched().Before(cutoff) {
			delete(m.sessions, id)
			evicted = append(evicted, c)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if len(evicted) == 0 {
		return
	}
	for _, c := range evicted {
		c.Close()
		m.log.Info("session evicted", "session_id", c.ID(), "idle_ttl", m.idleTTL.String())
	}
	metrics.SetActiveSessions(n)
}
