package hub

import (
	"net/http"
	"strings"
	"time"

	"curbside/internal/auth"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WebSocketHandler upgrades authenticated HTTP requests into hub
// subscriptions and pumps events out over the socket.
type WebSocketHandler struct {
	hub      *Hub
	verifier auth.Verifier
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewWebSocketHandler creates a websocket endpoint for the hub.
func NewWebSocketHandler(h *Hub, verifier auth.Verifier, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      h,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers cannot set headers on websocket requests; CORS-style
			// origin policy is enforced upstream.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With().Str("handler", "websocket").Logger(),
	}
}

// ServeHTTP handles GET /api/ws/orders. The credential is checked before
// the upgrade; an invalid one is rejected with 401 and no subscription is
// created.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.Verify(bearerToken(r))
	if err != nil {
		h.logger.Warn().Str("remote_addr", r.RemoteAddr).Msg("websocket credential rejected")
		http.Error(w, "unauthorised", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	sub := h.hub.Subscribe(identity.UserID)
	h.logger.Info().
		Int64("user_id", identity.UserID).
		Msg("websocket connected")

	go h.writePump(conn, sub)
	go h.readPump(conn, sub)
}

// readPump drains inbound frames. Clients send nothing meaningful; the
// read loop exists to detect disconnects and answer pings.
func (h *WebSocketHandler) readPump(conn *websocket.Conn, sub *Subscriber) {
	defer func() {
		h.hub.Unsubscribe(sub)
		conn.Close()
		h.logger.Info().Int64("user_id", sub.UserID).Msg("websocket disconnected")
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards hub events to the socket and keeps it alive with
// periodic pings. A write failure ends the connection; the reconciling
// poll on reconnect covers anything lost.
func (h *WebSocketHandler) writePump(conn *websocket.Conn, sub *Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case event, ok := <-sub.Events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug().
					Err(err).
					Int64("user_id", sub.UserID).
					Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// bearerToken extracts the credential from the Authorization header or,
// for browser websocket clients that cannot set headers, from the token
// query parameter.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
