// Package services – ChatService
//
// This file implements ChatService, which owns a companion chat turn:
// validate the user message, persist it, call the external completion
// service with the persona prompt and the recent conversation window, and
// persist the assistant's reply. Both persisted messages are pushed to the
// realtime hub for any open stream.
//
// Failure ordering matters: the user message is written before the external
// call, so a completion failure leaves it persisted with no reply, surfaced
// to the caller as a single generic error. There is no retry, backoff, or
// streaming; one synchronous round trip per turn.
//
// Optional enhancement: the first user message of a session auto-generates
// a short session topic, the same mechanism chats use for titles elsewhere.
package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/jari-app/jari-backend/internal/ai"
	"github.com/jari-app/jari-backend/internal/domain"
	"github.com/jari-app/jari-backend/internal/repo"
)

// defaultPersona is the system prompt for the companion. Preference text is
// appended when the user saved any.
const defaultPersona = "You are Jari, a warm and empathetic AI gratitude companion. " +
	"Your goal is to help users cultivate gratitude and positive reflection in their daily lives. " +
	"Keep responses concise, supportive, and focused on gratitude."

// Completer is the completion-service contract consumed by ChatService.
// Implementations must honor the context for cancellation and timeouts.
type Completer interface {
	// Complete returns the assistant reply for a role-tagged conversation.
	Complete(ctx context.Context, messages []ai.Message) (string, error)
}

// Publisher receives every persisted conversation message for realtime
// delivery. Implementations must not block.
type Publisher interface {
	Publish(msg domain.ConversationMessage)
}

// ChatService coordinates message persistence and completion round trips.
type ChatService struct {
	DB        *gorm.DB
	Completer Completer
	Publisher Publisher

	// ContextWindow caps how many recent messages are sent as context;
	// values <= 0 default to 10.
	ContextWindow int
	// MaxMessageRunes caps user messages by rune length; 0 disables the cap.
	MaxMessageRunes int

	// Topic generation config.
	TopicLocale language.Tag
	TopicMaxLen int
}

// NewChatService constructs a ChatService with sane defaults.
func NewChatService(db *gorm.DB, c Completer, p Publisher) *ChatService {
	return &ChatService{
		DB:              db,
		Completer:       c,
		Publisher:       p,
		ContextWindow:   10,
		MaxMessageRunes: 2000,
		TopicLocale:     language.English,
		TopicMaxLen:     60,
	}
}

// Send runs one chat turn for userID. An empty sessionID starts a new
// session. It returns the persisted assistant message, or
// ErrAssistantUnavailable when the external call fails after the user
// message was written.
func (s *ChatService) Send(ctx context.Context, userID, sessionID, message string) (*domain.ConversationMessage, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(message) > s.MaxMessageRunes {
		return nil, ErrMessageTooLong
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	userMsg := &domain.ConversationMessage{
		UserID:    userID,
		Message:   message,
		IsAI:      false,
		SessionID: sessionID,
	}
	if s.shouldAutoTopic(ctx, userID, sessionID) {
		userMsg.SessionTopic = s.topicFromMessage(message)
	}
	userMsg, err := repo.CreateConversationMessage(ctx, s.DB, userMsg)
	if err != nil {
		return nil, err
	}
	s.publish(*userMsg)

	reply, err := s.Completer.Complete(ctx, s.buildContext(ctx, userID))
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("chat: completion failed")
		return nil, ErrAssistantUnavailable
	}

	aiMsg := &domain.ConversationMessage{
		UserID:       userID,
		Message:      reply,
		IsAI:         true,
		SessionID:    sessionID,
		SessionTopic: userMsg.SessionTopic,
	}
	aiMsg, err = repo.CreateConversationMessage(ctx, s.DB, aiMsg)
	if err != nil {
		return nil, err
	}
	s.publish(*aiMsg)

	return aiMsg, nil
}

// HistoryPage returns a page of the user's conversation ordered
// oldest-first, plus the total message count.
func (s *ChatService) HistoryPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ConversationMessage, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountConversationMessages(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ConversationMessage{}, 0, nil
	}

	items, err := repo.ListConversationPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// buildContext assembles the persona prompt plus the most recent window of
// the user's conversation, oldest-first, role-tagged for the completion
// service. The just-persisted user message is part of the window.
func (s *ChatService) buildContext(ctx context.Context, userID string) []ai.Message {
	window := s.ContextWindow
	if window <= 0 {
		window = 10
	}

	msgs := []ai.Message{{Role: ai.RoleSystem, Content: s.persona(ctx, userID)}}

	recent, err := repo.LastConversationMessages(ctx, s.DB, userID, window)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("chat: context load failed")
		return msgs
	}
	for _, m := range recent {
		role := ai.RoleUser
		if m.IsAI {
			role = ai.RoleAssistant
		}
		msgs = append(msgs, ai.Message{Role: role, Content: m.Message})
	}
	return msgs
}

// persona returns the system prompt, enriched with saved preferences.
func (s *ChatService) persona(ctx context.Context, userID string) string {
	prefs, err := repo.GetPreferences(ctx, s.DB, userID)
	if err != nil || prefs == nil {
		return defaultPersona
	}
	var extra []string
	if prefs.Age != nil {
		extra = append(extra, fmt.Sprintf("The user is %d years old.", *prefs.Age))
	}
	if len(prefs.Interests) > 0 {
		extra = append(extra, "The user is interested in: "+strings.Join(prefs.Interests, ", ")+".")
	}
	if len(extra) == 0 {
		return defaultPersona
	}
	return defaultPersona + " " + strings.Join(extra, " ")
}

// publish pushes a persisted message to the realtime hub, if configured.
func (s *ChatService) publish(m domain.ConversationMessage) {
	if s.Publisher != nil {
		s.Publisher.Publish(m)
	}
}

// shouldAutoTopic reports whether this is the first message of a session.
func (s *ChatService) shouldAutoTopic(ctx context.Context, userID, sessionID string) bool {
	n, err := repo.CountSessionMessages(ctx, s.DB, userID, sessionID)
	return err == nil && n == 0
}

// topicFromMessage derives a concise session topic from the first message.
func (s *ChatService) topicFromMessage(message string) string {
	toks := topicWordRE.FindAllString(strings.ToLower(message), -1)
	if len(toks) == 0 {
		return ""
	}

	caser := cases.Title(s.topicLocaleOrDefault())
	out := make([]string, 0, 6)
	for _, w := range toks {
		if _, skip := topicStopWords[w]; skip {
			continue
		}
		out = append(out, caser.String(w))
		if len(out) >= 6 {
			break
		}
	}
	topic := strings.Join(out, " ")

	max := s.TopicMaxLen
	if max <= 0 {
		max = 60
	}
	if utf8.RuneCountInString(topic) > max {
		topic = string([]rune(topic)[:max])
	}
	return topic
}

// topicLocaleOrDefault returns the configured casing locale or English.
func (s *ChatService) topicLocaleOrDefault() language.Tag {
	if s.TopicLocale == language.Und {
		return language.English
	}
	return s.TopicLocale
}

// topicWordRE extracts Unicode letters with optional trailing numbers.
var topicWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

// topicStopWords is a minimal English stop-word set for compact topics.
var topicStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
	"i": {}, "im": {}, "my": {}, "me": {},
}
