package store

import (
	"sync"
	"time"

	"github.com/bookrook/bookrook-backend/internal"
)

// HistoryStore is an append-only, in-memory chat log scoped to one session.
// Entries are never removed; there is no persistence across restarts.
type HistoryStore struct {
	mu       sync.Mutex
	messages []internal.Message
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{messages: make([]internal.Message, 0, 64)}
}

// All returns a copy of the log in insertion order.
func (s *HistoryStore) All() []internal.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]internal.Message, len(s.messages))
	copy(cp, s.messages)
	return cp
}

func (s *HistoryStore) Append(role internal.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, internal.Message{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
}

// AppendWithCitations records an assistant reply together with its rendered
// citation footnotes.
func (s *HistoryStore) AppendWithCitations(role internal.Role, content string, citations []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, internal.Message{
		Role:      role,
		Content:   content,
		Citations: citations,
		CreatedAt: time.Now(),
	})
}

func (s *HistoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = s.messages[:0]
}

// SeedAssistantHello plants a greeting so the chat surface has something to
// show before the first user turn.
func SeedAssistantHello(s *HistoryStore, text string) {
	s.Append(internal.RoleAssistant, text)
}
