package session

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one append-only entry of the conversation transcript.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	ToolName  string    `json:"tool_name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TimelineEntry is one dated legal event extracted from tool results.
// Two entries with the same (Date, TextID) are the same event.
type TimelineEntry struct {
	Date       string `json:"date"`
	TextID     string `json:"text_id"`
	Title      string `json:"title"`
	Kind       string `json:"kind,omitempty"`
	SourceTool string `json:"source_tool,omitempty"`
	URL        string `json:"url,omitempty"`
}

// Session is a full research session: the transcript plus the legal
// timeline accumulated along the way. Serialized as a single JSON
// document with stable field names.
type Session struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Conversation []Turn          `json:"conversation"`
	Timeline     []TimelineEntry `json:"timeline"`
}

// New creates an empty session with a fresh identifier.
func New(name string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           uuid.NewString(),
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
		Conversation: []Turn{},
		Timeline:     []TimelineEntry{},
	}
}
