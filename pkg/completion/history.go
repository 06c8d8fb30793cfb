// relaybot - Telegram/Discord to GPT relay bot
// License: MIT
//
// Copyright (c) 2026 relaybot contributors

package completion

import "sync"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// maxHistoryMessages caps how many messages a key retains; older
	// exchanges fall off the front.
	maxHistoryMessages = 40
)

// Message is one turn of a keyed conversation.
type Message struct {
	Role    string
	Content string
}

type historyEntry struct {
	mu       sync.Mutex
	messages []Message
}

// HistoryStore keeps per-key conversation history. Each key has its own
// lock, so concurrent requests for the same key serialize while requests
// for different keys proceed independently.
type HistoryStore struct {
	mu      sync.RWMutex
	entries map[string]*historyEntry
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{entries: make(map[string]*historyEntry)}
}

func (s *HistoryStore) entry(key string) *historyEntry {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[key]; ok {
		return e
	}
	e = &historyEntry{}
	s.entries[key] = e
	return e
}

// Converse runs call with a snapshot of the key's history while holding
// that key's lock. On success the prompt and reply are appended to the
// history; on failure the history is left untouched.
func (s *HistoryStore) Converse(key, prompt string, call func(history []Message) (string, error)) (string, error) {
	e := s.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	history := make([]Message, len(e.messages))
	copy(history, e.messages)

	reply, err := call(history)
	if err != nil {
		return "", err
	}

	e.messages = append(e.messages,
		Message{Role: RoleUser, Content: prompt},
		Message{Role: RoleAssistant, Content: reply},
	)
	if over := len(e.messages) - maxHistoryMessages; over > 0 {
		e.messages = append(e.messages[:0:0], e.messages[over:]...)
	}
	return reply, nil
}

// Reset drops the history for a key.
func (s *HistoryStore) Reset(key string) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.messages = nil
	e.mu.Unlock()
}

// Len reports how many messages a key currently holds.
func (s *HistoryStore) Len(key string) int {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.messages)
}
