package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/CHIDI00/healix/internal/assistant"
	"github.com/CHIDI00/healix/internal/auth"
	"github.com/CHIDI00/healix/internal/domain"
)

// AssistantService is the conversational surface the API depends on.
type AssistantService interface {
	Chat(ctx context.Context, tenantID, userID, conversationID, message string, useContext bool) (*assistant.ChatResult, error)
	Conversations(ctx context.Context, tenantID, userID string) ([]domain.Conversation, error)
	Conversation(ctx context.Context, tenantID, userID, conversationID string) (*domain.Conversation, error)
	UpdateConversation(ctx context.Context, tenantID, userID, conversationID string, title *string, isActive *bool) (*domain.Conversation, error)
	DeleteConversation(ctx context.Context, tenantID, userID, conversationID string) error
	Messages(ctx context.Context, tenantID, userID, conversationID string, limit int) ([]domain.ConversationMessage, error)
	HealthSummary(ctx context.Context, tenantID, userID string) (*domain.HealthInsight, error)
	Recommendations(ctx context.Context, tenantID, userID string) (*domain.HealthInsight, error)
	Insights(ctx context.Context, tenantID, userID, insightType string, limit int, markRead bool) ([]domain.HealthInsight, error)
	Status() assistant.Status
}

// assistantRoutes dispatches /v1/assistant/* paths.
func (h *Handler) assistantRoutes(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeHealthRead) && !claims.HasScope(auth.ScopeHealthWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope health:read required")
		return
	}

	tenantID := claims.TenantID
	userID := claims.UserID()
	rest := strings.TrimPrefix(r.URL.Path, "/v1/assistant/")

	switch {
	case rest == "chat" && r.Method == http.MethodPost:
		h.chat(w, r, tenantID, userID)
	case rest == "conversations" && r.Method == http.MethodGet:
		h.conversations(w, r, tenantID, userID)
	case strings.HasPrefix(rest, "conversations/") && strings.HasSuffix(rest, "/messages") && r.Method == http.MethodGet:
		id := strings.TrimSuffix(strings.TrimPrefix(rest, "conversations/"), "/messages")
		h.conversationMessages(w, r, tenantID, userID, id)
	case strings.HasPrefix(rest, "conversations/") && !strings.Contains(strings.TrimPrefix(rest, "conversations/"), "/"):
		h.conversation(w, r, tenantID, userID, strings.TrimPrefix(rest, "conversations/"))
	case rest == "health-summary" && r.Method == http.MethodPost:
		h.insightEndpoint(w, r, tenantID, userID, h.assistant.HealthSummary)
	case rest == "recommendations" && r.Method == http.MethodPost:
		h.insightEndpoint(w, r, tenantID, userID, h.assistant.Recommendations)
	case rest == "insights" && r.Method == http.MethodGet:
		h.insights(w, r, tenantID, userID)
	case rest == "status" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, h.assistant.Status())
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown assistant endpoint")
	}
}

// ChatRequest is the payload for POST /v1/assistant/chat. UseContext defaults
// to true when omitted.
type ChatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	UseContext     *bool  `json:"use_context"`
}

// Validate ensures request correctness.
func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return errors.New("message is required")
	}
	return nil
}

// ChatResponse is the body for POST /v1/assistant/chat.
type ChatResponse struct {
	ConversationID  string `json:"conversation_id"`
	Reply           string `json:"reply"`
	ContextDegraded bool   `json:"context_degraded,omitempty"`
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request, tenantID, userID string) {
	var req ChatRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	useContext := req.UseContext == nil || *req.UseContext
	result, err := h.assistant.Chat(r.Context(), tenantID, userID, req.ConversationID, req.Message, useContext)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "conversation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		ConversationID:  result.ConversationID,
		Reply:           result.Reply,
		ContextDegraded: result.ContextDegraded,
	})
}

// ConversationView summarises a conversation for listings.
type ConversationView struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
	IsActive       bool   `json:"is_active"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func (h *Handler) conversations(w http.ResponseWriter, r *http.Request, tenantID, userID string) {
	conversations, err := h.assistant.Conversations(r.Context(), tenantID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	views := make([]ConversationView, 0, len(conversations))
	for _, conv := range conversations {
		views = append(views, toConversationView(conv))
	}
	writeJSON(w, http.StatusOK, map[string][]ConversationView{"items": views})
}

func toConversationView(conv domain.Conversation) ConversationView {
	return ConversationView{
		ConversationID: conv.ID,
		Title:          conv.Title,
		IsActive:       conv.IsActive,
		CreatedAt:      conv.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:      conv.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ConversationUpdateRequest is the payload for PUT /v1/assistant/conversations/{id}.
type ConversationUpdateRequest struct {
	Title    *string `json:"title"`
	IsActive *bool   `json:"is_active"`
}

// Validate ensures request correctness.
func (r ConversationUpdateRequest) Validate() error {
	if r.Title == nil && r.IsActive == nil {
		return errors.New("at least one of title or is_active is required")
	}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return errors.New("title must not be blank")
	}
	return nil
}

func (h *Handler) conversation(w http.ResponseWriter, r *http.Request, tenantID, userID, conversationID string) {
	switch r.Method {
	case http.MethodGet:
		conv, err := h.assistant.Conversation(r.Context(), tenantID, userID, conversationID)
		if err != nil {
			writeConversationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toConversationView(*conv))
	case http.MethodPut:
		var req ConversationUpdateRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		conv, err := h.assistant.UpdateConversation(r.Context(), tenantID, userID, conversationID, req.Title, req.IsActive)
		if err != nil {
			writeConversationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toConversationView(*conv))
	case http.MethodDelete:
		if err := h.assistant.DeleteConversation(r.Context(), tenantID, userID, conversationID); err != nil {
			writeConversationError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func writeConversationError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrConversationNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "conversation not found")
		return
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "health data store unavailable")
		return
	}
	writeError(w, http.StatusInternalServerError, "server_error", err.Error())
}

// MessageView exposes a conversation message.
type MessageView struct {
	MessageID string `json:"message_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func (h *Handler) conversationMessages(w http.ResponseWriter, r *http.Request, tenantID, userID, conversationID string) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	messages, err := h.assistant.Messages(r.Context(), tenantID, userID, conversationID, limit)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "conversation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	views := make([]MessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, MessageView{
			MessageID: msg.ID,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, map[string][]MessageView{"items": views})
}

// InsightView exposes a stored insight.
type InsightView struct {
	InsightID string `json:"insight_id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func toInsightView(insight domain.HealthInsight) InsightView {
	return InsightView{
		InsightID: insight.ID,
		Type:      insight.Type,
		Title:     insight.Title,
		Content:   insight.Content,
		IsRead:    insight.IsRead,
		CreatedAt: insight.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *Handler) insightEndpoint(w http.ResponseWriter, r *http.Request, tenantID, userID string, generate func(context.Context, string, string) (*domain.HealthInsight, error)) {
	insight, err := generate(r.Context(), tenantID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "store_unavailable", "health data store unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toInsightView(*insight))
}

func (h *Handler) insights(w http.ResponseWriter, r *http.Request, tenantID, userID string) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	insightType := r.URL.Query().Get("type")
	markRead := r.URL.Query().Get("mark_read") == "true"

	insights, err := h.assistant.Insights(r.Context(), tenantID, userID, insightType, limit, markRead)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	views := make([]InsightView, 0, len(insights))
	for _, insight := range insights {
		views = append(views, toInsightView(insight))
	}
	writeJSON(w, http.StatusOK, map[string][]InsightView{"items": views})
}
