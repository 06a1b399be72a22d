package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bookrook/bookrook-backend/internal"
)

func TestHistoryStore_AppendOrder(t *testing.T) {
	s := NewHistoryStore()
	s.Append(internal.RoleUser, "hi")
	s.Append(internal.RoleAssistant, "hello")

	msgs := s.All()
	assert.Len(t, msgs, 2)
	assert.Equal(t, internal.RoleUser, msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, internal.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "hello", msgs[1].Content)
}

func TestHistoryStore_AllReturnsCopy(t *testing.T) {
	s := NewHistoryStore()
	s.Append(internal.RoleUser, "hi")

	msgs := s.All()
	msgs[0].Content = "mutated"

	assert.Equal(t, "hi", s.All()[0].Content)
}

func TestHistoryStore_Citations(t *testing.T) {
	s := NewHistoryStore()
	s.AppendWithCitations(internal.RoleAssistant, "see [0]", []string{"[0] book.pdf"})

	msgs := s.All()
	assert.Equal(t, []string{"[0] book.pdf"}, msgs[0].Citations)
}

func TestHistoryStore_Reset(t *testing.T) {
	s := NewHistoryStore()
	s.Append(internal.RoleUser, "hi")
	s.Reset()

	assert.Empty(t, s.All())

	SeedAssistantHello(s, "welcome back")
	msgs := s.All()
	assert.Len(t, msgs, 1)
	assert.Equal(t, internal.RoleAssistant, msgs[0].Role)
}
