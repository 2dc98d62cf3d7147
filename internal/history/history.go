// Package history is the durable conversation store: an append-only
// per-conversation message log over SQLite with a TTL read cache.
package history

import (
	"context"
	"time"
)

// Message roles.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// Conversation is a persisted thread grouping an ordered list of messages.
type Conversation struct {
	ID        string            `json:"id"`
	Title     string            `json:"title,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Message is one turn in a conversation. Immutable once created.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store is the interface for persistent conversation storage.
type Store interface {
	CreateConversation(ctx context.Context, title string, metadata map[string]string) (*Conversation, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, limit, offset int) ([]Conversation, error)
	UpdateTitle(ctx context.Context, id, title string) error
	DeleteConversation(ctx context.Context, id string) error

	// AppendMessage adds a message to a conversation's log.
	AppendMessage(ctx context.Context, conversationID, role, content string) (*Message, error)
	// Messages returns the full ordered log for a conversation,
	// oldest first.
	Messages(ctx context.Context, conversationID string) ([]Message, error)

	Close() error
}
