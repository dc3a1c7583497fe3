package hub

import (
	"sync"

	"curbside/internal/model"

	"github.com/rs/zerolog"
)

// Subscriber is one live connection belonging to a user. Events arrive on
// Events until Unsubscribe (or Close) closes it.
type Subscriber struct {
	UserID int64
	Events chan model.OrderEvent
}

// Hub is a pure in-memory fan-out registry keyed by user identity. It
// gives no delivery guarantee: events to users with no open connections
// are dropped, and a slow subscriber loses events rather than applying
// backpressure to the publisher.
type Hub struct {
	mu         sync.RWMutex
	subs       map[int64][]*Subscriber
	sendBuffer int
	closed     bool
	logger     zerolog.Logger
}

// New creates a hub whose subscribers buffer up to sendBuffer events.
func New(sendBuffer int, logger zerolog.Logger) *Hub {
	return &Hub{
		subs:       make(map[int64][]*Subscriber),
		sendBuffer: sendBuffer,
		logger:     logger.With().Str("component", "hub").Logger(),
	}
}

// Subscribe registers a new connection for the given user. Multiple
// concurrent subscriptions per user are allowed; all receive events.
func (h *Hub) Subscribe(userID int64) *Subscriber {
	sub := &Subscriber{
		UserID: userID,
		Events: make(chan model.OrderEvent, h.sendBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(sub.Events)
		return sub
	}

	h.subs[userID] = append(h.subs[userID], sub)
	h.logger.Debug().
		Int64("user_id", userID).
		Int("connections", len(h.subs[userID])).
		Msg("subscriber registered")

	return sub
}

// Unsubscribe removes the subscription and closes its event channel. Safe
// to call for a subscriber that was already removed.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.subs[sub.UserID]
	for i, s := range conns {
		if s == sub {
			h.subs[sub.UserID] = append(conns[:i], conns[i+1:]...)
			close(sub.Events)
			break
		}
	}
	if len(h.subs[sub.UserID]) == 0 {
		delete(h.subs, sub.UserID)
	}
}

// Publish delivers the event to every open connection of the user. It
// never blocks: a full subscriber buffer drops the event for that
// connection. Publishing to a user with no connections is a no-op.
func (h *Hub) Publish(userID int64, event model.OrderEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs[userID] {
		select {
		case sub.Events <- event:
		default:
			h.logger.Warn().
				Int64("user_id", userID).
				Str("order_id", event.OrderID.String()).
				Msg("subscriber buffer full, event dropped")
		}
	}
}

// ConnectionCount returns the number of open connections for a user.
func (h *Hub) ConnectionCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Close shuts the hub down and closes all subscriber channels. Later
// Subscribe calls return an already-closed subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for userID, conns := range h.subs {
		for _, sub := range conns {
			close(sub.Events)
		}
		delete(h.subs, userID)
	}

	h.logger.Info().Msg("hub closed")
}
