package chat

import "sync"

// MemoryStore is the process-local SessionStore. Sessions are created on the
// first workflow-starting command, advanced on each valid input and deleted on
// workflow completion or explicit reset. Never persisted.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*ChatState
}

// NewMemoryStore creates an empty session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*ChatState)}
}

func (s *MemoryStore) Load(chatID string) *ChatState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[chatID]
}

func (s *MemoryStore) Save(state *ChatState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[state.ChatID] = state
}

func (s *MemoryStore) Delete(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}
