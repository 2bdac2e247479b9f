package responder

import (
	"container/list"
	"sync"
)

// History keeps a bounded rolling conversation per remote party, entirely
// in memory. Each conversation holds at most 2*maxTurns messages (a turn is
// one user message plus one reply). When the number of tracked
// conversations exceeds maxConversations the least recently used one is
// evicted.
type History struct {
	mu               sync.Mutex
	maxTurns         int
	maxConversations int
	order            *list.List
	conversations    map[string]*list.Element
}

type conversationEntry struct {
	remote   string
	messages []ChatMessage
}

// NewHistory creates a history keeping maxTurns exchanges per remote across
// at most maxConversations remotes.
func NewHistory(maxTurns, maxConversations int) *History {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	if maxConversations <= 0 {
		maxConversations = 1000
	}
	return &History{
		maxTurns:         maxTurns,
		maxConversations: maxConversations,
		order:            list.New(),
		conversations:    make(map[string]*list.Element),
	}
}

// Messages returns a copy of the conversation with the given remote, oldest
// first.
func (h *History) Messages(remote string) []ChatMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	elem, ok := h.conversations[remote]
	if !ok {
		return nil
	}
	entry := elem.Value.(*conversationEntry)
	out := make([]ChatMessage, len(entry.messages))
	copy(out, entry.messages)
	return out
}

// Append records one exchange and trims the conversation to its cap.
func (h *History) Append(remote, userMessage, reply string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	elem, ok := h.conversations[remote]
	if !ok {
		elem = h.order.PushFront(&conversationEntry{remote: remote})
		h.conversations[remote] = elem
		h.evictLocked()
	} else {
		h.order.MoveToFront(elem)
	}

	entry := elem.Value.(*conversationEntry)
	entry.messages = append(entry.messages,
		ChatMessage{Role: ChatRoleUser, Content: userMessage},
		ChatMessage{Role: ChatRoleAssistant, Content: reply},
	)
	if max := h.maxTurns * 2; len(entry.messages) > max {
		entry.messages = entry.messages[len(entry.messages)-max:]
	}
}

// Clear drops the conversation with the given remote.
func (h *History) Clear(remote string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if elem, ok := h.conversations[remote]; ok {
		h.order.Remove(elem)
		delete(h.conversations, remote)
	}
}

// ClearAll drops every conversation.
func (h *History) ClearAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.order.Init()
	h.conversations = make(map[string]*list.Element)
}

// ActiveConversations returns the number of tracked remotes.
func (h *History) ActiveConversations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conversations)
}

func (h *History) evictLocked() {
	for len(h.conversations) > h.maxConversations {
		oldest := h.order.Back()
		if oldest == nil {
			return
		}
		h.order.Remove(oldest)
		delete(h.conversations, oldest.Value.(*conversationEntry).remote)
	}
}
