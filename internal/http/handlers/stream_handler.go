// Realtime chat stream handler.
//
// GET /chat/stream upgrades the connection to a websocket and pushes every
// conversation message persisted for the caller while the socket is open,
// both user messages and companion replies, as JSON frames. Delivery is
// best-effort: frames carry created_at, clients order by that field and treat
// the history endpoint as the source of truth after a reconnect.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jari-app/jari-backend/internal/http/middleware"
)

const (
	// streamWriteWait bounds a single frame write.
	streamWriteWait = 10 * time.Second
	// streamPongWait is how long a connection may stay silent before it is
	// considered dead. Pings go out at a fraction of this interval.
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	// streamReadLimit caps inbound frames; the stream is push-only, clients
	// have nothing meaningful to send.
	streamReadLimit = 512
)

// streamUpgrader performs the HTTP → websocket upgrade. Origin checking is
// deliberately permissive: identity comes from headers, not cookies, so
// cross-origin sockets carry no ambient credentials.
var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ChatStream godoc
// @ID          chatStream
// @Summary     Stream conversation messages
// @Description Upgrades to a websocket and pushes each persisted conversation
// @Description message for the caller as a JSON frame until the socket closes.
// @Tags        Chat
//
// @Success     101  "Switching protocols"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing identity"
// @Router      /chat/stream [get]
func (h *Handlers) ChatStream(c *gin.Context) {
	userID := middleware.UserID(c)

	conn, err := streamUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return
	}

	sub, cancel := h.hub.Subscribe(userID)
	defer cancel()
	defer conn.Close()

	lg := middleware.LoggerFrom(c)
	lg.Info().Str("user_id", userID).Msg("chat stream opened")
	defer lg.Info().Str("user_id", userID).Msg("chat stream closed")

	// Reader goroutine: discard inbound frames, surface close/pong.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(streamReadLimit)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, open := <-sub.C:
			if !open {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
