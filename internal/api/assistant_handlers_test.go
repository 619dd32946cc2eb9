package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CHIDI00/healix/internal/assistant"
	"github.com/CHIDI00/healix/internal/auth"
	"github.com/CHIDI00/healix/internal/domain"
)

type stubAssistant struct {
	chatResult   *assistant.ChatResult
	chatErr      error
	conversation *domain.Conversation
	insight      *domain.HealthInsight
	insights     []domain.HealthInsight
	status       assistant.Status

	lastMessage        string
	lastConversationID string
	lastUseContext     bool
	lastMarkRead       bool
	deleted            []string
}

func (s *stubAssistant) Chat(_ context.Context, _, _, conversationID, message string, useContext bool) (*assistant.ChatResult, error) {
	s.lastConversationID = conversationID
	s.lastMessage = message
	s.lastUseContext = useContext
	if s.chatErr != nil {
		return nil, s.chatErr
	}
	if s.chatResult != nil {
		return s.chatResult, nil
	}
	return &assistant.ChatResult{ConversationID: "conv-1", Reply: "ok"}, nil
}

func (s *stubAssistant) Conversations(context.Context, string, string) ([]domain.Conversation, error) {
	return nil, nil
}

func (s *stubAssistant) Conversation(_ context.Context, _, _, conversationID string) (*domain.Conversation, error) {
	if s.conversation == nil || s.conversation.ID != conversationID {
		return nil, domain.ErrConversationNotFound
	}
	return s.conversation, nil
}

func (s *stubAssistant) UpdateConversation(_ context.Context, _, _, conversationID string, title *string, isActive *bool) (*domain.Conversation, error) {
	if s.conversation == nil || s.conversation.ID != conversationID {
		return nil, domain.ErrConversationNotFound
	}
	if title != nil {
		s.conversation.Title = *title
	}
	if isActive != nil {
		s.conversation.IsActive = *isActive
	}
	return s.conversation, nil
}

func (s *stubAssistant) DeleteConversation(_ context.Context, _, _, conversationID string) error {
	if s.conversation == nil || s.conversation.ID != conversationID {
		return domain.ErrConversationNotFound
	}
	s.deleted = append(s.deleted, conversationID)
	return nil
}

func (s *stubAssistant) Messages(context.Context, string, string, string, int) ([]domain.ConversationMessage, error) {
	return nil, nil
}

func (s *stubAssistant) HealthSummary(context.Context, string, string) (*domain.HealthInsight, error) {
	return s.insight, nil
}

func (s *stubAssistant) Recommendations(context.Context, string, string) (*domain.HealthInsight, error) {
	return s.insight, nil
}

func (s *stubAssistant) Insights(_ context.Context, _, _, _ string, _ int, markRead bool) ([]domain.HealthInsight, error) {
	s.lastMarkRead = markRead
	return s.insights, nil
}

func (s *stubAssistant) Status() assistant.Status {
	return s.status
}

func newAssistantMux(stub *stubAssistant) *http.ServeMux {
	handler := NewHandler(domain.NewService(&mockRepo{}), &stubResolver{}, stub)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return mux
}

func TestChatEndpoint(t *testing.T) {
	stub := &stubAssistant{
		chatResult: &assistant.ChatResult{ConversationID: "conv-9", Reply: "hello", ContextDegraded: true},
	}
	mux := newAssistantMux(stub)

	body := strings.NewReader(`{"message": "how is my sleep?"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/assistant/chat", body)
	req = authed(req, testClaims(auth.ScopeHealthRead))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp ChatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ConversationID != "conv-9" || resp.Reply != "hello" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if !resp.ContextDegraded {
		t.Fatal("expected context_degraded flag")
	}
	if stub.lastMessage != "how is my sleep?" {
		t.Fatalf("assistant saw message %q", stub.lastMessage)
	}
}

func TestChatEndpointRequiresMessage(t *testing.T) {
	mux := newAssistantMux(&stubAssistant{})

	req := httptest.NewRequest(http.MethodPost, "/v1/assistant/chat", strings.NewReader(`{}`))
	req = authed(req, testClaims(auth.ScopeHealthRead))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestChatEndpointUnknownConversation(t *testing.T) {
	mux := newAssistantMux(&stubAssistant{chatErr: domain.ErrConversationNotFound})

	body := strings.NewReader(`{"conversation_id": "missing", "message": "hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/assistant/chat", body)
	req = authed(req, testClaims(auth.ScopeHealthRead))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestChatUsesContextByDefault(t *testing.T) {
	stub := &stubAssistant{}
	mux := newAssistantMux(stub)

	req := httptest.NewRequest(http.MethodPost, "/v1/assistant/chat", strings.NewReader(`{"message": "hi"}`))
	req = authed(req, testClaims(auth.ScopeHealthRead))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if !stub.lastUseContext {
		t.Fatal("expected use_context to default to true")
	}
}

func TestChatUseContextOptOut(t *testing.T) {
	stub := &stubAssistant{}
	mux := newAssistantMux(stub)

	body := strings.NewReader(`{"message": "hi", "use_context": false}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/assistant/chat", body)
	req = authed(req, testClaims(auth.ScopeHealthRead))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if stub.lastUseContext {
		t.Fatal("expected use_context false to be honored")
	}
}

func TestUpdateConversationEndpoint(t *testing.T) {
	stub := &stubAssistant{
		conversation: &domain.Conversation{
			ID:        "conv-5",
			Title:     "Old title",
			IsActive:  true,
			CreatedAt: time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC),
		},
	}
	mux := newAssistantMux(stub)

	body := strings.NewReader(`{"title": "New title"}`)
	req := httptest.NewRequest(http.MethodPut, "/v1/assistant/conversations/conv-5", body)
	req = authed(req, testClaims(auth.ScopeHealthRead))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp ConversationView
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Title != "New title" {
		t.Fatalf("unexpected title %q", resp.Title)
	}
}

func TestUpdateConversationRequiresField(t *testing.T) {
	mux := newAssistantMux(&stubAssistant{conversation: &domain.Conversation{ID: "conv-5"}})

	req := httptest.NewRequest(http.MethodPut, "/v1/assistant/conversations/conv-5", strings.NewReader(`{}`))
	req = authed(req, testClaims(auth.ScopeHealthRead))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestDeleteConversationEndpoint(t *testing.T) {
	stub := &stubAssistant{conversation: &domain.Conversation{ID: "conv-5"}}
	mux := newAssistantMux(stub)

	req := httptest.NewRequest(http.MethodDelete, "/v1/assistant/conversations/conv-5", nil)
	req = authed(req, testClaims(auth.ScopeHealthRead))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}
	if len(stub.deleted) != 1 || stub.deleted[0] != "conv-5" {
		t.Fatalf("unexpected deletions %v", stub.deleted)
	}
}

func TestDeleteUnknownConversation(t *testing.T) {
	mux := newAssistantMux(&stubAssistant{})

	req := httptest.NewRequest(http.MethodDelete, "/v1/assistant/conversations/missing", nil)
	req = authed(req, testClaims(auth.ScopeHealthRead))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestInsightsMarkReadParam(t *testing.T) {
	stub := &stubAssistant{}
	mux := newAssistantMux(stub)

	req := httptest.NewRequest(http.MethodGet, "/v1/assistant/insights?mark_read=true", nil)
	req = authed(req, testClaims(auth.ScopeHealthRead))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if !stub.lastMarkRead {
		t.Fatal("expected mark_read to be forwarded")
	}
}

func TestHealthSummaryEndpoint(t *testing.T) {
	stub := &stubAssistant{
		insight: &domain.HealthInsight{
			ID:        "ins-1",
			Type:      domain.InsightTypeSummary,
			Title:     "Health Summary",
			Content:   "All good.",
			CreatedAt: time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC),
		},
	}
	mux := newAssistantMux(stub)

	req := httptest.NewRequest(http.MethodPost, "/v1/assistant/health-summary", nil)
	req = authed(req, testClaims(auth.ScopeHealthRead))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp InsightView
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Type != domain.InsightTypeSummary {
		t.Fatalf("unexpected insight type %q", resp.Type)
	}
}

func TestAssistantStatusEndpoint(t *testing.T) {
	mux := newAssistantMux(&stubAssistant{status: assistant.Status{Available: true, Model: "gemini-2.0-flash"}})

	req := httptest.NewRequest(http.MethodGet, "/v1/assistant/status", nil)
	req = authed(req, testClaims(auth.ScopeHealthRead))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}

	var resp assistant.Status
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Available || resp.Model != "gemini-2.0-flash" {
		t.Fatalf("unexpected status %+v", resp)
	}
}

func TestAssistantRequiresAuth(t *testing.T) {
	mux := newAssistantMux(&stubAssistant{})

	req := httptest.NewRequest(http.MethodGet, "/v1/assistant/status", nil)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}
