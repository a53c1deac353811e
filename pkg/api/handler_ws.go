package api

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{}

// streamHandler handles GET /api/v1/sessions/:id/stream: it upgrades to a
// WebSocket and registers the connection with the hub under this session
// ID, then blocks on a read loop purely for keepalive/close detection —
// ported from the teacher's HandleWS, minus the broadcast-to-everyone
// behavior (streams are per-session here, not global).
func (s *Server) streamHandler(c *gin.Context) {
	idStr := c.Param("id")

	wsUpgrader.CheckOrigin = s.hub.checkOrigin
	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "session_id", idStr, "error", err)
		return
	}

	client := wsClient{sessionID: idStr, conn: conn}
	s.hub.register <- client

	_ = conn.WriteJSON(WSMessage{Type: "connected", SessionID: idStr})

	defer func() { s.hub.unregister <- client }()

	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warn("ws read error", "session_id", idStr, "error", err)
			}
			return
		}
		if t, _ := msg["type"].(string); t == "ping" {
			_ = conn.WriteJSON(WSMessage{Type: "pong", SessionID: idStr})
		}
	}
}
