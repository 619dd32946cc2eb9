package assistant

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CHIDI00/healix/internal/domain"
)

type stubCompletion struct {
	configured bool
	reply      string
	err        error

	lastSystem string
	lastTurns  []Turn
}

func (s *stubCompletion) Configured() bool { return s.configured }

func (s *stubCompletion) Complete(_ context.Context, system string, turns []Turn) (string, error) {
	s.lastSystem = system
	s.lastTurns = turns
	return s.reply, s.err
}

type stubResolver struct {
	queryContext  string
	comprehensive string
	err           error
}

func (s *stubResolver) ContextForQuery(context.Context, string, string, string) (string, error) {
	return s.queryContext, s.err
}

func (s *stubResolver) ComprehensiveContext(context.Context, string, string) (string, error) {
	return s.comprehensive, s.err
}

type stubConvStore struct {
	conversations map[string]domain.Conversation
	messages      map[string][]domain.ConversationMessage
	insights      []domain.HealthInsight
}

func newStubConvStore() *stubConvStore {
	return &stubConvStore{
		conversations: make(map[string]domain.Conversation),
		messages:      make(map[string][]domain.ConversationMessage),
	}
}

func (s *stubConvStore) CreateConversation(_ context.Context, conv domain.Conversation) error {
	s.conversations[conv.ID] = conv
	return nil
}

func (s *stubConvStore) GetConversation(_ context.Context, _, userID, id string) (*domain.Conversation, error) {
	conv, ok := s.conversations[id]
	if !ok || conv.UserID != userID {
		return nil, domain.ErrConversationNotFound
	}
	return &conv, nil
}

func (s *stubConvStore) ListConversations(_ context.Context, _, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for _, conv := range s.conversations {
		if conv.UserID == userID {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (s *stubConvStore) UpdateConversation(_ context.Context, _ string, conv domain.Conversation) error {
	s.conversations[conv.ID] = conv
	return nil
}

func (s *stubConvStore) DeleteConversation(_ context.Context, _, conversationID string) error {
	delete(s.conversations, conversationID)
	delete(s.messages, conversationID)
	return nil
}

func (s *stubConvStore) AppendMessage(_ context.Context, _ string, msg domain.ConversationMessage) error {
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)
	return nil
}

func (s *stubConvStore) ListMessages(_ context.Context, _, conversationID string, _ int) ([]domain.ConversationMessage, error) {
	return s.messages[conversationID], nil
}

func (s *stubConvStore) CreateInsight(_ context.Context, insight domain.HealthInsight) error {
	s.insights = append(s.insights, insight)
	return nil
}

func (s *stubConvStore) ListInsights(_ context.Context, _, userID, insightType string, _ int) ([]domain.HealthInsight, error) {
	var out []domain.HealthInsight
	for _, insight := range s.insights {
		if insight.UserID == userID && (insightType == "" || insight.Type == insightType) {
			out = append(out, insight)
		}
	}
	return out, nil
}

func (s *stubConvStore) MarkInsightsRead(_ context.Context, _, userID string, ids []string) error {
	marked := make(map[string]bool, len(ids))
	for _, id := range ids {
		marked[id] = true
	}
	for i := range s.insights {
		if s.insights[i].UserID == userID && marked[s.insights[i].ID] {
			s.insights[i].IsRead = true
		}
	}
	return nil
}

func newTestAssistant(client CompletionClient, resolver ContextResolver, store ConversationStore) *Assistant {
	return NewAssistant(client, resolver, store, "gemini-2.0-flash", log.New(io.Discard, "", 0))
}

func TestChatNewConversation(t *testing.T) {
	client := &stubCompletion{configured: true, reply: "Your heart rate looks normal."}
	resolver := &stubResolver{queryContext: "Recent Vital Signs (past 7 days):\n  2025-06-14 08:30: HR: 68 bpm"}
	store := newStubConvStore()
	a := newTestAssistant(client, resolver, store)

	result, err := a.Chat(context.Background(), "tenant-a", "user-1", "", "What's my heart rate?", true)
	require.NoError(t, err)
	require.NotEmpty(t, result.ConversationID)
	require.Equal(t, "Your heart rate looks normal.", result.Reply)
	require.False(t, result.ContextDegraded)

	conv := store.conversations[result.ConversationID]
	require.Equal(t, "What's my heart rate?", conv.Title)
	require.True(t, conv.IsActive)

	msgs := store.messages[result.ConversationID]
	require.Len(t, msgs, 2)
	require.Equal(t, domain.RoleUser, msgs[0].Role)
	require.Equal(t, domain.RoleAssistant, msgs[1].Role)

	// The model sees the resolved context, never raw records.
	last := client.lastTurns[len(client.lastTurns)-1]
	require.Contains(t, last.Content, "HR: 68 bpm")
	require.Contains(t, last.Content, "What's my heart rate?")
	require.Contains(t, client.lastSystem, "health and wellness assistant")
}

func TestChatExistingConversationReplaysHistory(t *testing.T) {
	client := &stubCompletion{configured: true, reply: "ok"}
	store := newStubConvStore()
	a := newTestAssistant(client, &stubResolver{}, store)

	first, err := a.Chat(context.Background(), "tenant-a", "user-1", "", "hello", true)
	require.NoError(t, err)

	second, err := a.Chat(context.Background(), "tenant-a", "user-1", first.ConversationID, "and my sleep?", true)
	require.NoError(t, err)
	require.Equal(t, first.ConversationID, second.ConversationID)

	// 2 history turns plus the new user turn.
	require.Len(t, client.lastTurns, 3)
	require.Equal(t, "hello", client.lastTurns[0].Content)
}

func TestChatUnknownConversation(t *testing.T) {
	a := newTestAssistant(&stubCompletion{configured: true}, &stubResolver{}, newStubConvStore())

	_, err := a.Chat(context.Background(), "tenant-a", "user-1", "missing", "hi", true)
	require.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestChatDegradesWhenStoreUnavailable(t *testing.T) {
	client := &stubCompletion{configured: true, reply: "I can't see your data right now."}
	resolver := &stubResolver{err: fmt.Errorf("fetch vitals: %w", domain.ErrStoreUnavailable)}
	store := newStubConvStore()
	a := newTestAssistant(client, resolver, store)

	result, err := a.Chat(context.Background(), "tenant-a", "user-1", "", "check my blood pressure", true)
	require.NoError(t, err)
	require.True(t, result.ContextDegraded)

	// Without context the user turn is passed through verbatim.
	last := client.lastTurns[len(client.lastTurns)-1]
	require.Equal(t, "check my blood pressure", last.Content)
}

func TestChatOfflineReply(t *testing.T) {
	store := newStubConvStore()
	a := newTestAssistant(&stubCompletion{configured: false}, &stubResolver{}, store)

	result, err := a.Chat(context.Background(), "tenant-a", "user-1", "", "hi", true)
	require.NoError(t, err)
	require.Equal(t, offlineReply, result.Reply)

	msgs := store.messages[result.ConversationID]
	require.Len(t, msgs, 2)
}

func TestChatLongMessageTruncatedTitle(t *testing.T) {
	store := newStubConvStore()
	a := newTestAssistant(&stubCompletion{configured: true, reply: "ok"}, &stubResolver{}, store)

	long := strings.Repeat("sleep ", 20)
	result, err := a.Chat(context.Background(), "tenant-a", "user-1", "", long, true)
	require.NoError(t, err)

	title := store.conversations[result.ConversationID].Title
	require.LessOrEqual(t, len([]rune(title)), 53)
	require.True(t, strings.HasSuffix(title, "..."))
}

func TestChatWithoutContext(t *testing.T) {
	client := &stubCompletion{configured: true, reply: "ok"}
	resolver := &stubResolver{queryContext: "Recent Vital Signs (past 7 days):"}
	a := newTestAssistant(client, resolver, newStubConvStore())

	result, err := a.Chat(context.Background(), "tenant-a", "user-1", "", "just chatting", false)
	require.NoError(t, err)
	require.False(t, result.ContextDegraded)

	last := client.lastTurns[len(client.lastTurns)-1]
	require.Equal(t, "just chatting", last.Content)
}

func TestUpdateConversation(t *testing.T) {
	store := newStubConvStore()
	a := newTestAssistant(&stubCompletion{configured: true, reply: "ok"}, &stubResolver{}, store)

	result, err := a.Chat(context.Background(), "tenant-a", "user-1", "", "hello there", true)
	require.NoError(t, err)

	title := "Renamed"
	inactive := false
	conv, err := a.UpdateConversation(context.Background(), "tenant-a", "user-1", result.ConversationID, &title, &inactive)
	require.NoError(t, err)
	require.Equal(t, "Renamed", conv.Title)
	require.False(t, conv.IsActive)
	require.Equal(t, "Renamed", store.conversations[result.ConversationID].Title)
}

func TestDeleteConversation(t *testing.T) {
	store := newStubConvStore()
	a := newTestAssistant(&stubCompletion{configured: true, reply: "ok"}, &stubResolver{}, store)

	result, err := a.Chat(context.Background(), "tenant-a", "user-1", "", "hello there", true)
	require.NoError(t, err)

	require.NoError(t, a.DeleteConversation(context.Background(), "tenant-a", "user-1", result.ConversationID))
	require.NotContains(t, store.conversations, result.ConversationID)

	err = a.DeleteConversation(context.Background(), "tenant-a", "user-1", result.ConversationID)
	require.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestInsightsMarkRead(t *testing.T) {
	client := &stubCompletion{configured: true, reply: "summary text"}
	store := newStubConvStore()
	a := newTestAssistant(client, &stubResolver{comprehensive: "data"}, store)

	_, err := a.HealthSummary(context.Background(), "tenant-a", "user-1")
	require.NoError(t, err)

	insights, err := a.Insights(context.Background(), "tenant-a", "user-1", "", 10, false)
	require.NoError(t, err)
	require.Len(t, insights, 1)
	require.False(t, insights[0].IsRead)

	insights, err = a.Insights(context.Background(), "tenant-a", "user-1", "", 10, true)
	require.NoError(t, err)
	require.True(t, insights[0].IsRead)
	require.True(t, store.insights[0].IsRead)
}

func TestHealthSummaryStoresInsight(t *testing.T) {
	client := &stubCompletion{configured: true, reply: "You slept well this week."}
	resolver := &stubResolver{comprehensive: "Sleep Summary (past 7 days):\n  Average Sleep Duration: 7.5 hours"}
	store := newStubConvStore()
	a := newTestAssistant(client, resolver, store)

	insight, err := a.HealthSummary(context.Background(), "tenant-a", "user-1")
	require.NoError(t, err)
	require.Equal(t, domain.InsightTypeSummary, insight.Type)
	require.Equal(t, "You slept well this week.", insight.Content)
	require.Len(t, store.insights, 1)

	require.Contains(t, client.lastTurns[0].Content, "Average Sleep Duration")
}

func TestRecommendationsRequireConfiguredClient(t *testing.T) {
	a := newTestAssistant(&stubCompletion{configured: false}, &stubResolver{}, newStubConvStore())

	_, err := a.Recommendations(context.Background(), "tenant-a", "user-1")
	require.Error(t, err)
}

func TestStatus(t *testing.T) {
	a := newTestAssistant(&stubCompletion{configured: true}, &stubResolver{}, newStubConvStore())
	status := a.Status()
	require.True(t, status.Available)
	require.Equal(t, "gemini-2.0-flash", status.Model)
}
