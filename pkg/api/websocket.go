package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/codeagent-run/codeagent/pkg/agent"
)

// WSMessage is the envelope every streamed pipeline event is wrapped in,
// the same shape as the teacher's websocket.go WSMessage.
type WSMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Data      any    `json:"data,omitempty"`
}

type wsClient struct {
	sessionID string
	conn      *websocket.Conn
}

// wsHub owns every WebSocket connection, keyed by the session it's
// streaming. Grounded on the teacher's channel-owned-map WSHub: a single
// goroutine owns the client map, so register/unregister/broadcast never
// race without needing a mutex.
type wsHub struct {
	register       chan wsClient
	unregister     chan wsClient
	broadcast      chan WSMessage
	clients        map[string]map[*websocket.Conn]bool
	logger         *slog.Logger
	allowedOrigins map[string]bool
}

func newWSHub(logger *slog.Logger, allowedOrigins []string) *wsHub {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	h := &wsHub{
		register:       make(chan wsClient),
		unregister:     make(chan wsClient),
		broadcast:      make(chan WSMessage, 256),
		clients:        make(map[string]map[*websocket.Conn]bool),
		logger:         logger,
		allowedOrigins: origins,
	}
	go h.run()
	return h
}

func (h *wsHub) run() {
	for {
		select {
		case c := <-h.register:
			if h.clients[c.sessionID] == nil {
				h.clients[c.sessionID] = make(map[*websocket.Conn]bool)
			}
			h.clients[c.sessionID][c.conn] = true

		case c := <-h.unregister:
			if conns, ok := h.clients[c.sessionID]; ok {
				if _, ok := conns[c.conn]; ok {
					delete(conns, c.conn)
					_ = c.conn.Close()
				}
				if len(conns) == 0 {
					delete(h.clients, c.sessionID)
				}
			}

		case msg := <-h.broadcast:
			for conn := range h.clients[msg.SessionID] {
				if err := conn.WriteJSON(msg); err != nil {
					h.logger.Warn("ws write failed", "session_id", msg.SessionID, "error", err)
					go func(sessionID string, c *websocket.Conn) {
						h.unregister <- wsClient{sessionID: sessionID, conn: c}
					}(msg.SessionID, conn)
				}
			}
		}
	}
}

func (h *wsHub) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true // no allowlist configured: open, matching the teacher's PoC-era default
	}
	return h.allowedOrigins[r.Header.Get("Origin")]
}

// wsProgress implements agent.Progress by broadcasting every event to the
// hub under the sessionID each method already receives as a parameter, so
// one instance serves every session in flight.
type wsProgress struct {
	hub *wsHub
}

func (p *wsProgress) PublishPhase(_ context.Context, sessionID string, phase agent.Phase, detail string) {
	p.hub.broadcast <- WSMessage{
		Type:      "phase",
		SessionID: sessionID,
		Data:      map[string]string{"phase": string(phase), "detail": detail},
	}
}

func (p *wsProgress) PublishToolCall(_ context.Context, sessionID string, call agent.ToolCallRecord) {
	p.hub.broadcast <- WSMessage{Type: "tool_call", SessionID: sessionID, Data: call}
}

func (p *wsProgress) PublishInstruction(_ context.Context, sessionID string, instr agent.PipelineInstruction) {
	p.hub.broadcast <- WSMessage{Type: "instruction", SessionID: sessionID, Data: instr}
}
