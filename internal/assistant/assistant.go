// Package assistant implements the conversational layer: it grounds each
// model call in resolved health context and persists the exchange.
package assistant

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/CHIDI00/healix/internal/domain"
)

// historyLimit caps how many prior messages are replayed to the model.
const historyLimit = 10

// ContextResolver produces the health-context block for a prompt.
type ContextResolver interface {
	ContextForQuery(ctx context.Context, tenantID, userID, query string) (string, error)
	ComprehensiveContext(ctx context.Context, tenantID, userID string) (string, error)
}

// ConversationStore persists conversations, messages and insights.
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv domain.Conversation) error
	GetConversation(ctx context.Context, tenantID, userID, id string) (*domain.Conversation, error)
	ListConversations(ctx context.Context, tenantID, userID string) ([]domain.Conversation, error)
	UpdateConversation(ctx context.Context, tenantID string, conv domain.Conversation) error
	DeleteConversation(ctx context.Context, tenantID, conversationID string) error
	AppendMessage(ctx context.Context, tenantID string, msg domain.ConversationMessage) error
	ListMessages(ctx context.Context, tenantID, conversationID string, limit int) ([]domain.ConversationMessage, error)
	CreateInsight(ctx context.Context, insight domain.HealthInsight) error
	ListInsights(ctx context.Context, tenantID, userID, insightType string, limit int) ([]domain.HealthInsight, error)
	MarkInsightsRead(ctx context.Context, tenantID, userID string, ids []string) error
}

// Assistant coordinates context resolution, completion calls and storage.
type Assistant struct {
	client   CompletionClient
	resolver ContextResolver
	store    ConversationStore
	model    string
	logger   *log.Logger
	now      func() time.Time
}

// NewAssistant constructs an Assistant.
func NewAssistant(client CompletionClient, resolver ContextResolver, store ConversationStore, model string, logger *log.Logger) *Assistant {
	if logger == nil {
		logger = log.Default()
	}
	return &Assistant{
		client:   client,
		resolver: resolver,
		store:    store,
		model:    model,
		logger:   logger,
		now:      time.Now,
	}
}

// ChatResult is the outcome of one chat turn.
type ChatResult struct {
	ConversationID  string
	Reply           string
	ContextDegraded bool
}

// Chat handles one user turn. An empty conversationID starts a new
// conversation titled from the message. When useContext is false the turn is
// answered without resolving health context. When the record store is
// unreachable the turn still completes without health context and the result
// is flagged degraded; a store outage must not take the assistant down with it.
func (a *Assistant) Chat(ctx context.Context, tenantID, userID, conversationID, message string, useContext bool) (*ChatResult, error) {
	now := a.now().UTC()

	var conv *domain.Conversation
	if conversationID == "" {
		conv = &domain.Conversation{
			ID:        uuid.NewString(),
			TenantID:  tenantID,
			UserID:    userID,
			Title:     titleFromMessage(message),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := a.store.CreateConversation(ctx, *conv); err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
	} else {
		existing, err := a.store.GetConversation(ctx, tenantID, userID, conversationID)
		if err != nil {
			return nil, err
		}
		conv = existing
	}

	history, err := a.store.ListMessages(ctx, tenantID, conv.ID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	if err := a.store.AppendMessage(ctx, tenantID, domain.ConversationMessage{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           domain.RoleUser,
		Content:        message,
		CreatedAt:      now,
	}); err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}

	degraded := false
	healthContext := ""
	if useContext {
		healthContext, err = a.resolver.ContextForQuery(ctx, tenantID, userID, message)
		if err != nil {
			degraded = true
			healthContext = ""
			a.logger.Printf("chat: resolving health context failed, continuing without it: %v", err)
		}
	}

	reply := offlineReply
	if a.client.Configured() {
		turns := make([]Turn, 0, len(history)+1)
		for _, msg := range history {
			turns = append(turns, Turn{Role: msg.Role, Content: msg.Content})
		}
		turns = append(turns, Turn{Role: domain.RoleUser, Content: composeUserTurn(healthContext, message)})

		reply, err = a.client.Complete(ctx, systemPrompt, turns)
		if err != nil {
			return nil, fmt.Errorf("completion: %w", err)
		}
	}

	if err := a.store.AppendMessage(ctx, tenantID, domain.ConversationMessage{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           domain.RoleAssistant,
		Content:        reply,
		CreatedAt:      a.now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("store assistant message: %w", err)
	}

	return &ChatResult{
		ConversationID:  conv.ID,
		Reply:           reply,
		ContextDegraded: degraded,
	}, nil
}

// Conversations lists the user's conversations, newest-updated first.
func (a *Assistant) Conversations(ctx context.Context, tenantID, userID string) ([]domain.Conversation, error) {
	return a.store.ListConversations(ctx, tenantID, userID)
}

// Conversation fetches a single conversation.
func (a *Assistant) Conversation(ctx context.Context, tenantID, userID, conversationID string) (*domain.Conversation, error) {
	return a.store.GetConversation(ctx, tenantID, userID, conversationID)
}

// UpdateConversation renames or archives a conversation. Nil fields stay
// unchanged.
func (a *Assistant) UpdateConversation(ctx context.Context, tenantID, userID, conversationID string, title *string, isActive *bool) (*domain.Conversation, error) {
	conv, err := a.store.GetConversation(ctx, tenantID, userID, conversationID)
	if err != nil {
		return nil, err
	}
	if title != nil {
		conv.Title = *title
	}
	if isActive != nil {
		conv.IsActive = *isActive
	}
	conv.UpdatedAt = a.now().UTC()
	if err := a.store.UpdateConversation(ctx, tenantID, *conv); err != nil {
		return nil, fmt.Errorf("update conversation: %w", err)
	}
	return conv, nil
}

// DeleteConversation removes a conversation and its messages.
func (a *Assistant) DeleteConversation(ctx context.Context, tenantID, userID, conversationID string) error {
	if _, err := a.store.GetConversation(ctx, tenantID, userID, conversationID); err != nil {
		return err
	}
	return a.store.DeleteConversation(ctx, tenantID, conversationID)
}

// Messages lists a conversation's messages oldest-first.
func (a *Assistant) Messages(ctx context.Context, tenantID, userID, conversationID string, limit int) ([]domain.ConversationMessage, error) {
	if _, err := a.store.GetConversation(ctx, tenantID, userID, conversationID); err != nil {
		return nil, err
	}
	return a.store.ListMessages(ctx, tenantID, conversationID, limit)
}

// HealthSummary generates a summary insight over the user's full health
// context and stores it.
func (a *Assistant) HealthSummary(ctx context.Context, tenantID, userID string) (*domain.HealthInsight, error) {
	return a.generateInsight(ctx, tenantID, userID, domain.InsightTypeSummary, "Health Summary", summaryPrompt)
}

// Recommendations generates a recommendations insight and stores it.
func (a *Assistant) Recommendations(ctx context.Context, tenantID, userID string) (*domain.HealthInsight, error) {
	return a.generateInsight(ctx, tenantID, userID, domain.InsightTypeRecommendation, "Recommendations", recommendationsPrompt)
}

func (a *Assistant) generateInsight(ctx context.Context, tenantID, userID, insightType, title, prompt string) (*domain.HealthInsight, error) {
	if !a.client.Configured() {
		return nil, fmt.Errorf("completion client not configured")
	}

	healthContext, err := a.resolver.ComprehensiveContext(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve health context: %w", err)
	}

	content, err := a.client.Complete(ctx, systemPrompt, []Turn{
		{Role: domain.RoleUser, Content: composeUserTurn(healthContext, prompt)},
	})
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}

	insight := domain.HealthInsight{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		UserID:    userID,
		Type:      insightType,
		Title:     title,
		Content:   content,
		CreatedAt: a.now().UTC(),
	}
	if err := a.store.CreateInsight(ctx, insight); err != nil {
		return nil, fmt.Errorf("store insight: %w", err)
	}
	return &insight, nil
}

// Insights lists stored insights, optionally filtered by type. When markRead
// is set the returned insights are flagged read.
func (a *Assistant) Insights(ctx context.Context, tenantID, userID, insightType string, limit int, markRead bool) ([]domain.HealthInsight, error) {
	insights, err := a.store.ListInsights(ctx, tenantID, userID, insightType, limit)
	if err != nil {
		return nil, err
	}
	if !markRead {
		return insights, nil
	}

	ids := make([]string, 0, len(insights))
	for i := range insights {
		if !insights[i].IsRead {
			ids = append(ids, insights[i].ID)
		}
	}
	if len(ids) > 0 {
		if err := a.store.MarkInsightsRead(ctx, tenantID, userID, ids); err != nil {
			return nil, fmt.Errorf("mark insights read: %w", err)
		}
		for i := range insights {
			insights[i].IsRead = true
		}
	}
	return insights, nil
}

// Status describes the assistant's availability.
type Status struct {
	Available bool   `json:"available"`
	Model     string `json:"model"`
}

// Status reports whether the completion backend is configured.
func (a *Assistant) Status() Status {
	return Status{Available: a.client.Configured(), Model: a.model}
}

func composeUserTurn(healthContext, message string) string {
	if healthContext == "" {
		return message
	}
	return fmt.Sprintf("Health context for this user:\n%s\n\nUser message: %s", healthContext, message)
}

func titleFromMessage(message string) string {
	runes := []rune(message)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return message
}
