// Companion chat HTTP handlers.
//
// This file exposes the chat surface:
//   - POST /chat/messages  (send a message, get the companion's reply)
//   - GET  /chat/messages  (paginated history, oldest first)
//
// The completion round trip is synchronous; a companion failure after the
// user's message was persisted answers 502 with a stable code so clients can
// render the saved message and offer a retry.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jari-app/jari-backend/internal/domain"
	"github.com/jari-app/jari-backend/internal/http/middleware"
	"github.com/jari-app/jari-backend/internal/services"
)

//
// DTOs
//

// SendMessageRequest is the JSON payload for a chat turn. SessionID is
// optional; an empty one starts a new session.
type SendMessageRequest struct {
	Message   string `json:"message" binding:"required,min=1" example:"I had a rough day but the sunset helped"`
	SessionID string `json:"session_id,omitempty" format:"uuid"`
}

// SendMessageResponse carries the persisted companion reply.
type SendMessageResponse struct {
	Message *domain.ConversationMessage `json:"message"`
}

// ChatHistoryResponse contains a page of conversation messages, oldest first.
type ChatHistoryResponse struct {
	Messages   []domain.ConversationMessage `json:"messages"`
	Pagination Pagination                   `json:"pagination"`
}

//
// Handlers
//

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a chat message
// @Description Appends the user's message, asks the companion for a reply, and
// @Description returns the persisted reply. When the companion is unreachable
// @Description the user's message is kept and the response is 502.
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SendMessageRequest  true  "Message payload"
//
// @Success     200  {object}  handlers.SendMessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     502  {object}  handlers.ErrorResponse  "Companion unavailable"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	reply, err := h.chatSvc.Send(c.Request.Context(), middleware.UserID(c), req.SessionID, sanitizeContent(req.Message))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		case errors.Is(err, services.ErrMessageTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message too long")
		case errors.Is(err, services.ErrAssistantUnavailable):
			fail(c, http.StatusBadGateway, ErrCodeCompanionFailed, "companion unavailable, your message was saved")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, SendMessageResponse{Message: reply})
}

// ChatHistory godoc
// @ID          chatHistory
// @Summary     List conversation history
// @Description Returns a paginated page of the caller's conversation with the
// @Description companion, ordered oldest first.
// @Tags        Chat
// @Produce     json
//
// @Param       page       query  int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ChatHistoryResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /chat/messages [get]
func (h *Handlers) ChatHistory(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.chatSvc.HistoryPage(c.Request.Context(), middleware.UserID(c), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ChatHistoryResponse{
		Messages:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}
