package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tracker maps opaque connection-supplied ids to stable session identities
// and their liveness. It is a leaf: rooms and the registry never reach back
// into it, and its lock is never held across room work.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*session
	grace    time.Duration
	logger   *zap.Logger
}

type session struct {
	online bool
	expire *time.Timer
}

func NewTracker(grace time.Duration, logger *zap.Logger) *Tracker {
	return &Tracker{
		sessions: make(map[string]*session),
		grace:    grace,
		logger:   logger,
	}
}

// Resolve maps a claimed id to a live session and marks it online. An empty,
// unknown, or expired id becomes a fresh anonymous session, never an error.
func (t *Tracker) Resolve(claimed string) (id string, resumed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if claimed != "" {
		if s, ok := t.sessions[claimed]; ok {
			if s.expire != nil {
				s.expire.Stop()
				s.expire = nil
			}
			s.online = true
			return claimed, true
		}
	}

	id = uuid.NewString()
	t.sessions[id] = &session{online: true}
	t.logger.Debug("session created", zap.String("session_id", id))
	return id, false
}

// MarkOffline starts the reconnect grace window. The session stays
// resolvable until the window elapses; after that a reconnect with the same
// id is treated as a new anonymous session.
func (t *Tracker) MarkOffline(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[id]
	if !ok {
		return
	}
	s.online = false
	if s.expire != nil {
		s.expire.Stop()
	}
	s.expire = time.AfterFunc(t.grace, func() { t.forget(id) })
}

func (t *Tracker) forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[id]; ok && !s.online {
		delete(t.sessions, id)
		t.logger.Debug("session expired", zap.String("session_id", id))
	}
}

func (t *Tracker) Online(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	return ok && s.online
}

func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Close stops all pending expiry timers.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.sessions {
		if s.expire != nil {
			s.expire.Stop()
		}
	}
	t.sessions = make(map[string]*session)
}
