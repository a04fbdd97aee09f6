// Package store holds per-conversation message history for the lifetime of
// the process.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bitnetd/bitnetd/pkg/api"
)

// Store is an in-memory conversation store. A single mutex serializes all
// access; Get and Put copy message slices so callers never alias
// store-owned memory.
type Store struct {
	mu            sync.Mutex
	conversations map[string]*conversation
	maxEntries    int
}

type conversation struct {
	messages []api.Message
	touched  time.Time
}

// New creates a Store. maxEntries bounds the number of retained
// conversations; when exceeded, the least-recently-touched conversation is
// evicted. 0 disables eviction.
func New(maxEntries int) *Store {
	return &Store{
		conversations: make(map[string]*conversation),
		maxEntries:    maxEntries,
	}
}

// Create allocates a fresh conversation with an empty history and returns
// its id. IDs are unique even under concurrent calls.
func (s *Store) Create() string {
	id := "conv_" + uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[id] = &conversation{touched: time.Now()}
	s.evictLocked()
	return id
}

// Get returns a copy of the conversation's messages, or false if the id is
// unknown.
func (s *Store) Get(id string) ([]api.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, false
	}
	conv.touched = time.Now()

	msgs := make([]api.Message, len(conv.messages))
	copy(msgs, conv.messages)
	return msgs, true
}

// Put replaces the conversation's messages atomically, creating the
// conversation if needed.
func (s *Store) Put(id string, messages []api.Message) {
	msgs := make([]api.Message, len(messages))
	copy(msgs, messages)

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		conv = &conversation{}
		s.conversations[id] = conv
	}
	conv.messages = msgs
	conv.touched = time.Now()
	if !ok {
		s.evictLocked()
	}
}

// Append adds one message to the conversation, creating it if needed.
func (s *Store) Append(id string, msg api.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		conv = &conversation{}
		s.conversations[id] = conv
	}
	conv.messages = append(conv.messages, msg)
	conv.touched = time.Now()
	if !ok {
		s.evictLocked()
	}
}

// Len returns the number of stored conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// evictLocked drops the least-recently-touched conversations until the store
// is within its capacity bound. Caller must hold s.mu.
func (s *Store) evictLocked() {
	if s.maxEntries <= 0 {
		return
	}
	for len(s.conversations) > s.maxEntries {
		var oldestID string
		var oldest time.Time
		for id, conv := range s.conversations {
			if oldestID == "" || conv.touched.Before(oldest) {
				oldestID = id
				oldest = conv.touched
			}
		}
		delete(s.conversations, oldestID)
	}
}
