// Package types defines the data model shared across the Jana voice core.
package types

import "time"

// Sender identifies who produced a chat message.
type Sender string

const (
	// SenderUser marks a message transcribed from the user's speech or typed.
	SenderUser Sender = "user"
	// SenderAssistant marks a message produced by the agent.
	SenderAssistant Sender = "assistant"
)

// Valid reports whether the sender is one of the known values.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// ChatMessage is one turn in a conversation. Messages are append-only and
// never mutated after creation; insertion order is display and playback order.
type ChatMessage struct {
	Sender  Sender `json:"sender"`
	Content string `json:"content"`
}

// NewUserMessage creates a user turn.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Sender: SenderUser, Content: content}
}

// NewAssistantMessage creates an assistant turn.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Sender: SenderAssistant, Content: content}
}

// Transcript is a saved conversation: an ordered message log plus metadata.
// ID is empty until the transcript is first persisted remotely.
type Transcript struct {
	ID       string        `json:"id,omitempty"`
	UserID   string        `json:"user_id"`
	Title    string        `json:"title"`
	Messages []ChatMessage `json:"messages"`

	// SavedAt is the server-assigned timestamp. LocalSavedAt is assigned by
	// the client and is authoritative for ordering until SavedAt round-trips.
	SavedAt      time.Time `json:"saved_at,omitempty"`
	LocalSavedAt time.Time `json:"local_saved_at,omitempty"`
}

// BestTimestamp returns the server timestamp when present, falling back to
// the local one. The zero time means no timestamp is available.
func (t *Transcript) BestTimestamp() time.Time {
	if !t.SavedAt.IsZero() {
		return t.SavedAt
	}
	return t.LocalSavedAt
}
