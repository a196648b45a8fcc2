package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jari-app/jari-backend/internal/domain"
	"github.com/jari-app/jari-backend/internal/http/middleware"
	"github.com/jari-app/jari-backend/internal/services"
)

// ----- Fake chat service -----

type fakeChatSvc struct {
	sendUserID    string
	sendSessionID string
	sendMessage   string
	sendOut       *domain.ConversationMessage
	sendErr       error

	histItems []domain.ConversationMessage
	histTotal int64
	histErr   error
}

func (f *fakeChatSvc) Send(ctx context.Context, userID, sessionID, message string) (*domain.ConversationMessage, error) {
	f.sendUserID, f.sendSessionID, f.sendMessage = userID, sessionID, message
	return f.sendOut, f.sendErr
}

func (f *fakeChatSvc) HistoryPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ConversationMessage, int64, error) {
	return f.histItems, f.histTotal, f.histErr
}

func chatTestRouter(svc *fakeChatSvc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(nil, nil, svc, nil, nil, 0)
	r := gin.New()
	api := r.Group("", middleware.RequireUser())
	api.POST("/chat/messages", h.SendMessage)
	api.GET("/chat/messages", h.ChatHistory)
	return r
}

// ----- Tests -----

func TestSendMessage_Success(t *testing.T) {
	svc := &fakeChatSvc{sendOut: &domain.ConversationMessage{
		ID: "m2", UserID: "u1", Message: "So glad to hear it!", IsAI: true, SessionID: "s1",
	}}
	r := chatTestRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/chat/messages",
		`{"message":"today was good","session_id":"s1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d body=%s", w.Code, w.Body.String())
	}
	if svc.sendUserID != "u1" || svc.sendSessionID != "s1" || svc.sendMessage != "today was good" {
		t.Fatalf("send args = (%q, %q, %q)", svc.sendUserID, svc.sendSessionID, svc.sendMessage)
	}

	var resp SendMessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || !resp.Message.IsAI {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestSendMessage_EmptyIs400(t *testing.T) {
	r := chatTestRouter(&fakeChatSvc{})

	w := doJSON(t, r, http.MethodPost, "/chat/messages", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", w.Code)
	}
}

func TestSendMessage_CompanionDownIs502(t *testing.T) {
	svc := &fakeChatSvc{sendErr: services.ErrAssistantUnavailable}
	r := chatTestRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/chat/messages", `{"message":"hello"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("code = %d, want 502", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Code != ErrCodeCompanionFailed {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestChatHistory_Paginated(t *testing.T) {
	svc := &fakeChatSvc{
		histItems: []domain.ConversationMessage{
			{ID: "m1", Message: "hi"},
			{ID: "m2", Message: "hello!", IsAI: true},
		},
		histTotal: 2,
	}
	r := chatTestRouter(svc)

	w := doJSON(t, r, http.MethodGet, "/chat/messages?page=1&page_size=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d body=%s", w.Code, w.Body.String())
	}

	var resp ChatHistoryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(resp.Messages) != 2 || resp.Pagination.Total != 2 || resp.Pagination.HasNext {
		t.Fatalf("resp = %+v", resp)
	}
}
