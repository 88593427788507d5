package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// echoDispatcher answers every message to its sender.
type echoDispatcher struct {
	hub          *Hub
	mu           sync.Mutex
	disconnected []string
}

func (d *echoDispatcher) HandleMessage(connID string, msg WSMessage) {
	d.hub.SendTo(connID, msg.Event+"Ack", msg.Data)
}

func (d *echoDispatcher) HandleDisconnect(connID string) {
	d.mu.Lock()
	d.disconnected = append(d.disconnected, connID)
	d.mu.Unlock()
}

func (d *echoDispatcher) disconnects() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.disconnected)
}

func newWSServer(t *testing.T, origins []string) (*httptest.Server, *Hub, *echoDispatcher) {
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	hub := NewHub(logger)
	d := &echoDispatcher{hub: hub}
	r := gin.New()
	r.GET("/ws", ServeWs(hub, d, NewUpgrader(origins), logger))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, d
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestServeWs_RoundTripAndDisconnect(t *testing.T) {
	srv, hub, d := newWSServer(t, []string{"http://localhost:5173"})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteJSON(WSMessage{Event: "ping", Data: []byte(`{"n":1}`)}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply WSMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "pingAck", reply.Event)
	assert.JSONEq(t, `{"n":1}`, string(reply.Data))
	assert.Equal(t, 1, hub.Count())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return d.disconnects() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.Count())
}

func TestServeWs_OriginCheck(t *testing.T) {
	srv, _, _ := newWSServer(t, []string{"http://localhost:5173"})

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "http://localhost:5173")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)
	_ = conn.Close()
}

func TestNewUpgrader_Wildcard(t *testing.T) {
	u := NewUpgrader([]string{"*"})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://anything.example")
	assert.True(t, u.CheckOrigin(req))
}

func TestHubClose_DisconnectsClients(t *testing.T) {
	srv, hub, d := newWSServer(t, []string{"*"})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	hub.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "server closes the connection")
	require.Eventually(t, func() bool { return d.disconnects() == 1 }, 2*time.Second, 10*time.Millisecond)
}
