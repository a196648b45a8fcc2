// Package realtime implements the insert-notification broker behind the
// chat stream. It replaces an ambient push channel with an explicit
// subscribe/unsubscribe abstraction: the HTTP layer subscribes a connection
// for one user, receives every conversation message persisted for that user
// while subscribed, and releases the subscription on teardown.
//
// Delivery is fan-out per user, in publish order per subscriber, and lossy
// under backpressure: a subscriber whose buffer is full misses the message
// rather than blocking the publisher. Payloads carry created_at, so clients
// render from a sort on that field and treat the history endpoint as the
// ordering source of truth.
package realtime

import (
	"sync"

	"github.com/jari-app/jari-backend/internal/domain"
)

// subscriberBuffer is the per-connection channel capacity. A chat turn
// produces two messages, so even a slow reader has headroom.
const subscriberBuffer = 16

// Subscription is one live listener on a user's message feed. Close it via
// the cancel function returned by Subscribe; the channel is closed by the
// hub and must not be closed by the receiver.
type Subscription struct {
	C      <-chan domain.ConversationMessage
	userID string
	ch     chan domain.ConversationMessage
}

// Hub fans out persisted conversation messages to the subscribers of the
// owning user. The zero value is not usable; construct with NewHub.
// All methods are safe for concurrent use.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{} // userID -> subscriptions
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers a listener for userID and returns the subscription
// together with a cancel function. Cancel is idempotent and closes the
// subscription channel, so a draining goroutine terminates on its own.
func (h *Hub) Subscribe(userID string) (*Subscription, func()) {
	sub := &Subscription{
		userID: userID,
		ch:     make(chan domain.ConversationMessage, subscriberBuffer),
	}
	sub.C = sub.ch

	h.mu.Lock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[userID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[userID]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.subs, userID)
				}
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub, cancel
}

// Publish delivers a persisted message to every live subscriber of its
// user. Subscribers with a full buffer are skipped.
func (h *Hub) Publish(msg domain.ConversationMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[msg.UserID] {
		select {
		case sub.ch <- msg:
		default:
			// Slow consumer; drop rather than stall the chat turn.
		}
	}
}

// Subscribers reports the number of live subscriptions for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
