package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is the idle period after which a session is torn down.
const DefaultTimeout = time.Hour

var ErrNotFound = errors.New("session not found")

// Manager owns the per-sender session table, the activity markers and the
// allowed-users audit set. All state is process memory only.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	markers  map[string]time.Time
	allowed  map[string]struct{}

	timeout  time.Duration
	now      func() time.Time
	locks    *keyedMutex
	onExpire func(*Session)
	onStart  func(*Session)
}

// NewManager returns an empty manager. A non-positive timeout falls back to
// DefaultTimeout.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{
		sessions: make(map[string]*Session),
		markers:  make(map[string]time.Time),
		allowed:  make(map[string]struct{}),
		timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
		locks:    newKeyedMutex(),
	}
}

// SetClock replaces the time source. Intended for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	m.now = now
}

func (m *Manager) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now()
}

func (m *Manager) Timeout() time.Duration { return m.timeout }

// SetExpireHook registers a callback run after a session is torn down by
// idle timeout (event-driven or janitor).
func (m *Manager) SetExpireHook(hook func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

// SetStartHook registers a callback run after a session is created.
func (m *Manager) SetStartHook(hook func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStart = hook
}

// Lock serializes routing for one sender. Different senders never contend.
func (m *Manager) Lock(sender string) (unlock func()) {
	return m.locks.Lock(sender)
}

// Start creates a session at mode selection unless one already exists. The
// returned bool is false when an existing session was left untouched.
func (m *Manager) Start(sender string) (*Session, bool) {
	m.mu.Lock()
	if s, ok := m.sessions[sender]; ok {
		out := clone(s)
		m.mu.Unlock()
		return out, false
	}
	now := m.now()
	s := &Session{
		ID:             uuid.NewString(),
		Sender:         sender,
		Stage:          StageAwaitingModeSelection,
		StartedAt:      now,
		LastActivityAt: now,
	}
	m.sessions[sender] = s
	m.markers[sender] = now
	m.allowed[sender] = struct{}{}
	hook := m.onStart
	out := clone(s)
	m.mu.Unlock()

	if hook != nil {
		hook(clone(out))
	}
	return out, true
}

// Get returns a copy of the sender's session, or ErrNotFound.
func (m *Manager) Get(sender string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sender]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

// Exists reports whether sender has a live session.
func (m *Manager) Exists(sender string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[sender]
	return ok
}

// Save writes back a mutated copy obtained from Get. The activity marker is
// not changed; callers use Touch for that.
func (m *Manager) Save(s *Session) error {
	if s == nil {
		return ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.Sender]
	if !ok || cur.ID != s.ID {
		return ErrNotFound
	}
	next := clone(s)
	next.LastActivityAt = m.markers[s.Sender]
	m.sessions[s.Sender] = next
	return nil
}

// Touch refreshes the activity marker. A missing session is a no-op.
func (m *Manager) Touch(sender string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sender]
	if !ok {
		return
	}
	now := m.now()
	m.markers[sender] = now
	s.LastActivityAt = now
}

// IsExpired reports whether sender has a session idle for longer than the
// timeout at the given instant.
func (m *Manager) IsExpired(sender string, now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	last, ok := m.markers[sender]
	if !ok {
		return false
	}
	return now.Sub(last) > m.timeout
}

// HasMarker reports whether an activity marker exists for sender.
func (m *Manager) HasMarker(sender string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.markers[sender]
	return ok
}

// End tears down the session and marker on an explicit end request.
// Idempotent.
func (m *Manager) End(sender string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(sender)
}

// Expire tears down the session after an idle timeout and fires the expire
// hook. Idempotent.
func (m *Manager) Expire(sender string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.removeLocked(sender)
	hook := m.onExpire
	m.mu.Unlock()

	if ok && hook != nil {
		hook(clone(s))
	}
	return s, ok
}

func (m *Manager) removeLocked(sender string) (*Session, bool) {
	s, ok := m.sessions[sender]
	delete(m.sessions, sender)
	delete(m.markers, sender)
	if !ok {
		return nil, false
	}
	return clone(s), true
}

// ActiveCount returns the number of live sessions.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IsAllowed reports whether sender ever issued start. Audit only.
func (m *Manager) IsAllowed(sender string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.allowed[sender]
	return ok
}

// AllowedUsers lists every sender that ever issued start, sorted.
func (m *Manager) AllowedUsers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.allowed))
	for sender := range m.allowed {
		out = append(out, sender)
	}
	sort.Strings(out)
	return out
}

// StartJanitor runs ExpireInactive every interval until ctx is done.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.ExpireInactive()
			}
		}
	}()
}

// ExpireInactive tears down every idle session. Senders currently being
// routed are skipped; the router performs its own expiry check under the
// sender lock.
func (m *Manager) ExpireInactive() int {
	m.mu.RLock()
	now := m.now()
	var candidates []string
	for sender, last := range m.markers {
		if now.Sub(last) > m.timeout {
			candidates = append(candidates, sender)
		}
	}
	m.mu.RUnlock()

	expired := 0
	for _, sender := range candidates {
		unlock, ok := m.locks.TryLock(sender)
		if !ok {
			continue
		}
		if m.IsExpired(sender, m.Now()) {
			if _, ok := m.Expire(sender); ok {
				expired++
			}
		}
		unlock()
	}
	return expired
}

func clone(s *Session) *Session {
	c := *s
	if s.ShownNames != nil {
		c.ShownNames = append([]string(nil), s.ShownNames...)
	}
	return &c
}
