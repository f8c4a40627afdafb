package conversations

import "time"

// DocumentID identifies an imported conversation export.
type DocumentID string

// Role values used by chat exports. Role is free-form; these are conventions.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Document is one imported conversation export.
type Document struct {
	ID           DocumentID `json:"id"`
	Title        string     `json:"title"`
	Source       string     `json:"source,omitempty"`
	MessageCount int        `json:"message_count"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Message is one turn of the conversation. Messages are immutable once parsed.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Topic     string     `json:"topic,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}
