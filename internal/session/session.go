// Package session scopes the provisioned knowledge base, assistant, thread
// and uploaded-file handle to one chat session, so concurrent sessions
// cannot cross-talk through process globals.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bookrook/bookrook-backend/internal"
	"github.com/bookrook/bookrook-backend/internal/store"
)

// Session carries everything one chat session established: the remote
// identifiers and the local history. Turns within a session are serialized
// by the turn mutex; the chat surface allows one in-flight query at a time.
type Session struct {
	ID            string
	KnowledgeBase internal.KnowledgeBase
	Assistant     internal.Assistant
	ThreadID      string
	File          internal.FileHandle
	History       *store.HistoryStore

	// Turn serializes user turns within the session.
	Turn sync.Mutex
}

func New() *Session {
	return &Session{
		ID:      uuid.NewString(),
		History: store.NewHistoryStore(),
	}
}

// Registry holds live sessions keyed by ID. A default session backs the
// single-page flow where the client sends no session header.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	def      *Session
}

func NewRegistry() *Registry {
	def := New()
	return &Registry{
		sessions: map[string]*Session{def.ID: def},
		def:      def,
	}
}

// Default returns the session used when the client does not name one.
func (r *Registry) Default() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.def
}

// Get resolves id to a live session, falling back to the default session
// when id is empty or unknown.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	return r.def
}

// Add registers a session created outside the registry.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}
