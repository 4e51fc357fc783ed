package chatclient

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// PlaceholderID marks the in-progress assistant message while its
// fragments are still arriving.
const PlaceholderID = "ai-response"

type CachedMessage struct {
	ID            string
	Text          string
	IsUserMessage bool
	CreatedAt     time.Time
}

// MessageCache is the client-side ordered conversation log. It supports
// optimistic updates: take a Snapshot before mutating, Restore it if
// the round trip fails.
type MessageCache struct {
	mu       sync.Mutex
	messages []CachedMessage
}

func NewMessageCache() *MessageCache {
	return &MessageCache{}
}

func (c *MessageCache) Messages() []CachedMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CachedMessage(nil), c.messages...)
}

func (c *MessageCache) Snapshot() []CachedMessage {
	return c.Messages()
}

func (c *MessageCache) Restore(snapshot []CachedMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append([]CachedMessage(nil), snapshot...)
}

// AddUserMessage appends the user's text and the assistant placeholder
// in one step, returning the user message id.
func (c *MessageCache) AddUserMessage(text string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := uuid.NewString()
	now := time.Now()
	c.messages = append(c.messages,
		CachedMessage{ID: id, Text: text, IsUserMessage: true, CreatedAt: now},
		CachedMessage{ID: PlaceholderID, Text: "", IsUserMessage: false, CreatedAt: now},
	)
	return id
}

// AppendFragment extends the placeholder message in arrival order. A
// fragment with no placeholder present is dropped.
func (c *MessageCache) AppendFragment(fragment string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == PlaceholderID {
			c.messages[i].Text += fragment
			return
		}
	}
}

// FinalizePlaceholder promotes the placeholder to a permanent message.
func (c *MessageCache) FinalizePlaceholder() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == PlaceholderID {
			c.messages[i].ID = uuid.NewString()
			return
		}
	}
}

// Reconcile replaces the local log with the authoritative server
// listing.
func (c *MessageCache) Reconcile(list []CachedMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append([]CachedMessage(nil), list...)
}
