package history

import (
	"sync"
	"time"
)

// ttlCache holds ordered message logs keyed by conversation id. Entries
// expire after the configured TTL; reads and writes both refresh it. A
// zero TTL disables caching entirely.
type ttlCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	messages  []Message
	expiresAt time.Time
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{
		ttl:     ttl,
		entries: make(map[string]*cacheEntry),
	}
}

func (c *ttlCache) get(conversationID string) ([]Message, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[conversationID]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, conversationID)
		return nil, false
	}

	entry.expiresAt = time.Now().Add(c.ttl)
	out := make([]Message, len(entry.messages))
	copy(out, entry.messages)
	return out, true
}

func (c *ttlCache) set(conversationID string, messages []Message) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]Message, len(messages))
	copy(stored, messages)
	c.entries[conversationID] = &cacheEntry{
		messages:  stored,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// append extends a cached log after a successful database write. A miss
// is fine: the next read repopulates from the durable store.
func (c *ttlCache) append(conversationID string, msg Message) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[conversationID]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.entries, conversationID)
		return
	}
	entry.messages = append(entry.messages, msg)
	entry.expiresAt = time.Now().Add(c.ttl)
}

func (c *ttlCache) invalidate(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, conversationID)
}
