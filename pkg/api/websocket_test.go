package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWSHub_CheckOrigin(t *testing.T) {
	open := newWSHub(nil, nil)
	assert.True(t, open.checkOrigin(httptest.NewRequest(http.MethodGet, "/", nil)))

	restricted := newWSHub(nil, []string{"https://allowed.example"})
	allowedReq := httptest.NewRequest(http.MethodGet, "/", nil)
	allowedReq.Header.Set("Origin", "https://allowed.example")
	assert.True(t, restricted.checkOrigin(allowedReq))

	deniedReq := httptest.NewRequest(http.MethodGet, "/", nil)
	deniedReq.Header.Set("Origin", "https://evil.example")
	assert.False(t, restricted.checkOrigin(deniedReq))
}

func TestStreamHandler_ConnectAndBroadcast(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/sess-1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var connected WSMessage
	require.NoError(t, conn.ReadJSON(&connected))
	assert.Equal(t, "connected", connected.Type)
	assert.Equal(t, "sess-1", connected.SessionID)

	s.hub.broadcast <- WSMessage{Type: "phase", SessionID: "sess-1", Data: "planning"}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var phase WSMessage
	require.NoError(t, conn.ReadJSON(&phase))
	assert.Equal(t, "phase", phase.Type)
	assert.Equal(t, "sess-1", phase.SessionID)
}
