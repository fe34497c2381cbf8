package infrastructure

import (
	"sync"

	"whatsflow/internal/entities"
)

// conversation holds one contact's history plus a lock that serializes
// dispatch for that contact.
type conversation struct {
	mu    sync.Mutex
	turns []entities.Turn
}

// HistoryStore keeps per-contact conversation history in memory.
// State is ephemeral: a restart loses everything, which is fine for an
// operational chat session (this is not an audit record).
type HistoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*conversation

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		conversations: make(map[string]*conversation),
		locks:         make(map[string]*sync.Mutex),
	}
}

func (h *HistoryStore) get(contact string) *conversation {
	h.mu.RLock()
	conv, exists := h.conversations[contact]
	h.mu.RUnlock()
	if exists {
		return conv
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if conv, exists = h.conversations[contact]; !exists {
		conv = &conversation{}
		h.conversations[contact] = conv
	}
	return conv
}

// Get returns a copy of the contact's history (empty if absent).
// Callers never share the underlying slice.
func (h *HistoryStore) Get(contact string) []entities.Turn {
	h.mu.RLock()
	conv, exists := h.conversations[contact]
	h.mu.RUnlock()
	if !exists {
		return nil
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()
	turns := make([]entities.Turn, len(conv.turns))
	copy(turns, conv.turns)
	return turns
}

func (h *HistoryStore) Append(contact string, turn entities.Turn) {
	conv := h.get(contact)
	conv.mu.Lock()
	conv.turns = append(conv.turns, turn)
	conv.mu.Unlock()
}

// Replace swaps the contact's full history for the given turns
func (h *HistoryStore) Replace(contact string, turns []entities.Turn) {
	conv := h.get(contact)
	copied := make([]entities.Turn, len(turns))
	copy(copied, turns)
	conv.mu.Lock()
	conv.turns = copied
	conv.mu.Unlock()
}

func (h *HistoryStore) Evict(contact string) {
	h.mu.Lock()
	delete(h.conversations, contact)
	h.mu.Unlock()
}

// LockContact acquires the per-contact dispatch lock and returns its unlock.
// Serializing per contact keeps two rapid messages from interleaving their
// read-modify-write of the history.
func (h *HistoryStore) LockContact(contact string) func() {
	h.lockMu.Lock()
	l, exists := h.locks[contact]
	if !exists {
		l = &sync.Mutex{}
		h.locks[contact] = l
	}
	h.lockMu.Unlock()

	l.Lock()
	return l.Unlock
}
