package store

import "time"

// ChatTurn is one entry of a session's sliding history window.
type ChatTurn struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// StructuredContext is the compact per-session summary refreshed after
// every turn: topic, active filters and the recently mentioned entities
// (max 5, most recent last).
type StructuredContext struct {
	CurrentTopic      string                 `json:"current_topic"`
	ActiveFilters     map[string]interface{} `json:"active_filters"`
	MentionedEntities []string               `json:"mentioned_entities"`
}

// Session is the durable conversational state for one conversation id.
// It is created lazily on first query, mutated after every turn and
// upserted wholesale; lifecycle deletion belongs to the collaborator store.
type Session struct {
	SessionID           string            `json:"session_id"`
	ChatHistory         []ChatTurn        `json:"chat_history"`
	ConversationSummary string            `json:"conversation_summary"`
	StructuredContext   StructuredContext `json:"structured_context"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// NewSession returns an empty session for a fresh id.
func NewSession(sessionID string) *Session {
	now := time.Now().UTC()
	return &Session{
		SessionID: sessionID,
		StructuredContext: StructuredContext{
			ActiveFilters: map[string]interface{}{},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
