package components

import (
	"sync"

	"github.com/ficheapp/fiche/schema"
)

// Memory holds the ordered message history of one field conversation.
// Append-only during a resolution run, threadsafe.
type Memory struct {
	// history is the ordered list of messages of the conversation
	history []Message
	// turnID is the ID of the current resolution turn
	turnID string
	// maxMessages caps the history length, oldest messages dropped first.
	// Zero means unbounded, which is what the resolution engine uses.
	maxMessages int
	mtx         sync.RWMutex
}

// NewMemory initializes a Memory with an empty history.
func NewMemory(maxMessages int) *Memory {
	return &Memory{
		maxMessages: maxMessages,
		history:     make([]Message, 0, 8),
	}
}

// TurnID returns the current turn ID
func (m *Memory) TurnID() string {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.turnID
}

// NewTurn starts a new resolution turn with a fresh turn ID.
func (m *Memory) NewTurn() string {
	m.mtx.Lock()
	m.turnID = NewTurnID()
	m.mtx.Unlock()
	return m.turnID
}

// NewMessage appends a message built from role and content.
func (m *Memory) NewMessage(role MessageRole, content schema.Schema) *Message {
	msg := NewMessage(role, content)
	m.Push(msg)
	return msg
}

// Push appends a prepared message, stamping it with the current turn ID.
func (m *Memory) Push(msg *Message) {
	m.mtx.Lock()
	msg.SetTurnID(m.turnID)
	m.history = append(m.history, *msg)
	if m.maxMessages > 0 && len(m.history) > m.maxMessages {
		m.history = m.history[1:]
	}
	m.mtx.Unlock()
}

// History returns a copy of the conversation history.
func (m *Memory) History() []Message {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	out := make([]Message, len(m.history))
	copy(out, m.history)
	return out
}

// LastRole returns the role of the most recent message, or "" when empty.
func (m *Memory) LastRole() MessageRole {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	if len(m.history) == 0 {
		return ""
	}
	return m.history[len(m.history)-1].Role()
}

// MessageCount returns the number of messages in the history.
func (m *Memory) MessageCount() int {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return len(m.history)
}

// Reset drops the whole history.
func (m *Memory) Reset() {
	m.mtx.Lock()
	m.history = m.history[:0]
	m.turnID = ""
	m.mtx.Unlock()
}
