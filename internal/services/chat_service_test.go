package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/jari-app/jari-backend/internal/ai"
	"github.com/jari-app/jari-backend/internal/domain"
	"github.com/jari-app/jari-backend/internal/repo"
)

// ----- Fakes -----

type fakeCompleter struct {
	gotMessages []ai.Message
	reply       string
	err         error
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []ai.Message) (string, error) {
	f.gotMessages = messages
	return f.reply, f.err
}

type fakePublisher struct {
	published []domain.ConversationMessage
}

func (f *fakePublisher) Publish(m domain.ConversationMessage) {
	f.published = append(f.published, m)
}

func chatTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func countMessages(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	n, err := repo.CountConversationMessages(context.Background(), db, userID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// ----- Send -----

func TestSend_EmptyMessageRejectedBeforeWrite(t *testing.T) {
	db := chatTestDB(t)
	s := NewChatService(db, &fakeCompleter{reply: "hi"}, nil)

	if _, err := s.Send(context.Background(), "u1", "", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
	if n := countMessages(t, db, "u1"); n != 0 {
		t.Fatalf("messages persisted = %d, want 0", n)
	}
}

func TestSend_OverlongMessageRejectedBeforeWrite(t *testing.T) {
	db := chatTestDB(t)
	comp := &fakeCompleter{reply: "hi"}
	s := NewChatService(db, comp, nil)
	s.MaxMessageRunes = 10

	_, err := s.Send(context.Background(), "u1", "", strings.Repeat("a", 11))
	if !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("err = %v, want ErrMessageTooLong", err)
	}
	if n := countMessages(t, db, "u1"); n != 0 {
		t.Fatalf("messages persisted = %d, want 0", n)
	}
	if comp.gotMessages != nil {
		t.Fatalf("completion ran despite validation failure")
	}
}

func TestSend_PersistsBothSidesAndPublishes(t *testing.T) {
	db := chatTestDB(t)
	comp := &fakeCompleter{reply: "That sounds lovely."}
	pub := &fakePublisher{}
	s := NewChatService(db, comp, pub)

	reply, err := s.Send(context.Background(), "u1", "", "I watched the sunrise today")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reply.IsAI || reply.Message != "That sounds lovely." {
		t.Fatalf("reply = %+v", reply)
	}
	if n := countMessages(t, db, "u1"); n != 2 {
		t.Fatalf("messages persisted = %d, want 2", n)
	}
	if len(pub.published) != 2 || pub.published[0].IsAI || !pub.published[1].IsAI {
		t.Fatalf("published = %+v", pub.published)
	}
	if reply.SessionID == "" || reply.SessionID != pub.published[0].SessionID {
		t.Fatalf("reply not in the user's session")
	}
}

func TestSend_CompletionContextShape(t *testing.T) {
	db := chatTestDB(t)
	comp := &fakeCompleter{reply: "ok"}
	s := NewChatService(db, comp, nil)

	if _, err := s.Send(context.Background(), "u1", "", "first thing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(comp.gotMessages) != 2 {
		t.Fatalf("context size = %d, want system + user", len(comp.gotMessages))
	}
	if comp.gotMessages[0].Role != ai.RoleSystem ||
		!strings.Contains(comp.gotMessages[0].Content, "Jari") {
		t.Fatalf("system prompt = %+v", comp.gotMessages[0])
	}
	if comp.gotMessages[1].Role != ai.RoleUser || comp.gotMessages[1].Content != "first thing" {
		t.Fatalf("user message = %+v", comp.gotMessages[1])
	}
}

func TestSend_ContextWindowIsOldestFirstAndCapped(t *testing.T) {
	db := chatTestDB(t)
	comp := &fakeCompleter{reply: "ok"}
	s := NewChatService(db, comp, nil)
	s.ContextWindow = 3

	for _, m := range []string{"one", "two"} {
		if _, err := s.Send(context.Background(), "u1", "sess", m); err != nil {
			t.Fatalf("send %q: %v", m, err)
		}
	}
	if _, err := s.Send(context.Background(), "u1", "sess", "three"); err != nil {
		t.Fatalf("send three: %v", err)
	}

	// system + the 3 most recent messages of the 5 persisted.
	if len(comp.gotMessages) != 4 {
		t.Fatalf("context size = %d, want 4", len(comp.gotMessages))
	}
	last := comp.gotMessages[len(comp.gotMessages)-1]
	if last.Role != ai.RoleUser || last.Content != "three" {
		t.Fatalf("window not oldest-first: last = %+v", last)
	}
}

func TestSend_PersonaIncludesPreferences(t *testing.T) {
	db := chatTestDB(t)
	age := 31
	if err := repo.SavePreferences(context.Background(), db, &domain.UserPreferences{
		UserID:    "u1",
		Age:       &age,
		Interests: domain.StringList{"hiking", "poetry"},
	}); err != nil {
		t.Fatalf("save prefs: %v", err)
	}

	comp := &fakeCompleter{reply: "ok"}
	s := NewChatService(db, comp, nil)
	if _, err := s.Send(context.Background(), "u1", "", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sys := comp.gotMessages[0].Content
	if !strings.Contains(sys, "31 years old") || !strings.Contains(sys, "hiking, poetry") {
		t.Fatalf("persona missing preferences: %q", sys)
	}
}

func TestSend_CompletionFailureKeepsUserMessage(t *testing.T) {
	db := chatTestDB(t)
	comp := &fakeCompleter{err: errors.New("upstream 503")}
	pub := &fakePublisher{}
	s := NewChatService(db, comp, pub)

	_, err := s.Send(context.Background(), "u1", "", "keep this one")
	if !errors.Is(err, ErrAssistantUnavailable) {
		t.Fatalf("err = %v, want ErrAssistantUnavailable", err)
	}
	if n := countMessages(t, db, "u1"); n != 1 {
		t.Fatalf("messages persisted = %d, want just the user message", n)
	}
	if len(pub.published) != 1 || pub.published[0].IsAI {
		t.Fatalf("published = %+v, want only the user message", pub.published)
	}
}

func TestSend_FirstSessionMessageGetsTopic(t *testing.T) {
	db := chatTestDB(t)
	s := NewChatService(db, &fakeCompleter{reply: "ok"}, nil)

	reply, err := s.Send(context.Background(), "u1", "", "I am grateful for the quiet morning walk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.SessionTopic == "" {
		t.Fatalf("session topic not generated")
	}
	if strings.Contains(strings.ToLower(reply.SessionTopic), "the ") {
		t.Fatalf("stop words not filtered: %q", reply.SessionTopic)
	}

	// A second message in the same session keeps the original topic.
	reply2, err := s.Send(context.Background(), "u1", reply.SessionID, "and the coffee afterwards")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply2.SessionTopic != "" {
		t.Fatalf("second turn regenerated a topic: %q", reply2.SessionTopic)
	}
}

// ----- HistoryPage -----

func TestHistoryPage_OldestFirst(t *testing.T) {
	db := chatTestDB(t)
	s := NewChatService(db, &fakeCompleter{reply: "r"}, nil)

	for _, m := range []string{"alpha", "beta"} {
		if _, err := s.Send(context.Background(), "u1", "sess", m); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	items, total, err := s.HistoryPage(context.Background(), "u1", 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 4 || len(items) != 4 {
		t.Fatalf("total/items = %d/%d, want 4/4", total, len(items))
	}
	if items[0].Message != "alpha" || items[0].IsAI {
		t.Fatalf("history not oldest-first: %+v", items[0])
	}
}

func TestHistoryPage_EmptyUser(t *testing.T) {
	db := chatTestDB(t)
	s := NewChatService(db, &fakeCompleter{}, nil)

	items, total, err := s.HistoryPage(context.Background(), "ghost", 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("expected empty history, got %d/%d", total, len(items))
	}
}
