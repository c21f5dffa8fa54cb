package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps the audit trail in process memory for local/dev use.
type InMemoryStore struct {
	mu      sync.RWMutex
	turns   map[string][]TurnRecord
	allowed map[string]time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		turns:   make(map[string][]TurnRecord),
		allowed: make(map[string]time.Time),
	}
}

func (s *InMemoryStore) RecordStart(_ context.Context, sender string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.allowed[sender]; !ok {
		s.allowed[sender] = at
	}
	return nil
}

func (s *InMemoryStore) SaveTurn(_ context.Context, record TurnRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.turns[record.Sender] = append(s.turns[record.Sender], record)
	return nil
}

func (s *InMemoryStore) RecentTurns(_ context.Context, sender string, limit int) ([]TurnRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.turns[sender]
	if len(arr) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(arr) {
		limit = len(arr)
	}
	out := make([]TurnRecord, 0, limit)
	for i := len(arr) - limit; i < len(arr); i++ {
		out = append(out, arr[i])
	}
	return out, nil
}

func (s *InMemoryStore) AllowedUsers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.allowed))
	for sender := range s.allowed {
		out = append(out, sender)
	}
	sort.Strings(out)
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
