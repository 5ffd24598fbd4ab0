package infrastructure

import (
	"sync"
	"time"

	"project_waAgent/internal/entities"
)

// MemoryStateStore is the default process-local conversation store: state per
// (agent, sender) key, message-id dedup, and pause control. Contents are lost
// on restart; use the SQLite store for restart-safe deployments.
type MemoryStateStore struct {
	mu      sync.RWMutex
	seenIDs map[string]struct{}
	states  map[string]*entities.ConversationState

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		seenIDs: make(map[string]struct{}),
		states:  make(map[string]*entities.ConversationState),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Seen records the message id and reports whether it was already seen.
// An empty id can never be deduplicated and is always "not seen".
func (s *MemoryStateStore) Seen(messageID string) bool {
	if messageID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seenIDs[messageID]; ok {
		return true
	}
	s.seenIDs[messageID] = struct{}{}
	return false
}

// GetState returns the conversation state, creating an empty one if absent.
func (s *MemoryStateStore) GetState(key string) *entities.ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[key]
	if !ok {
		st = &entities.ConversationState{}
		s.states[key] = st
	}
	return st
}

func (s *MemoryStateStore) SetState(key string, state *entities.ConversationState) {
	if state == nil {
		state = &entities.ConversationState{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = state
}

func (s *MemoryStateStore) ClearState(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
}

func (s *MemoryStateStore) SetPaused(key string, d time.Duration) {
	st := s.GetState(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	until := time.Now().Add(d)
	st.PausedUntil = &until
	st.PausedForever = false
}

func (s *MemoryStateStore) PauseForever(key string) {
	st := s.GetState(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	st.PausedForever = true
	st.PausedUntil = nil
}

func (s *MemoryStateStore) ClearPaused(key string) {
	st := s.GetState(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	st.PausedForever = false
	st.PausedUntil = nil
}

func (s *MemoryStateStore) IsPaused(key string) bool {
	st := s.GetState(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st.PausedForever {
		return true
	}
	return st.PausedUntil != nil && time.Now().Before(*st.PausedUntil)
}

// LockKey serializes read-modify-write cycles for one conversation so racing
// webhook deliveries for the same sender cannot lose lead_saved/step updates.
func (s *MemoryStateStore) LockKey(key string) func() {
	s.lockMu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.lockMu.Unlock()

	l.Lock()
	return l.Unlock
}
