package domain

import "time"

// Message roles within an assistant conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Insight types stored for a user.
const (
	InsightTypeSummary        = "summary"
	InsightTypeRecommendation = "recommendation"
	InsightTypeAlert          = "alert"
)

// Conversation is a chat session between a user and the assistant.
type Conversation struct {
	ID        string
	TenantID  string
	UserID    string
	Title     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConversationMessage is a single turn within a conversation.
type ConversationMessage struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	CreatedAt      time.Time
}

// HealthInsight is a stored assistant output (summary, recommendation, alert).
type HealthInsight struct {
	ID        string
	TenantID  string
	UserID    string
	Type      string
	Title     string
	Content   string
	IsRead    bool
	CreatedAt time.Time
}
