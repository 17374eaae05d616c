package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/devcircle/internal/app"
	"github.com/dkeye/devcircle/internal/config"
	"github.com/dkeye/devcircle/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type message struct {
	Type     string `json:"type"`
	FileName string `json:"fileName,omitempty"`
	Content  string `json:"content,omitempty"`
}

func startServer(t *testing.T, cfg *config.Config) (*app.Relay, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	relay := app.NewRelay(app.DropPolicy{})
	ctl := NewCollabWSController(relay, cfg)

	r := gin.New()
	r.GET("/api/ws/collab", func(c *gin.Context) { ctl.HandleCollab(ctx, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return relay, "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/collab"
}

func testConfig() *config.Config {
	return &config.Config{
		ReadLimit:  1 << 20,
		PingPeriod: time.Minute,
		SendBuffer: 16,
		Relay:      config.RelayConfig{SlowConsumer: "drop", RateLimit: 0, RateInterval: time.Second},
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(v))
}

func read(t *testing.T, ws *websocket.Conn) message {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m message
	require.NoError(t, ws.ReadJSON(&m))
	return m
}

// roundTrip sends a ping and waits for the pong, so every message sent before it has been handled.
func roundTrip(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	send(t, ws, map[string]string{"type": "ping"})
	require.Equal(t, message{Type: "pong"}, read(t, ws))
}

func expectSilence(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err := ws.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	require.ErrorAs(t, err, &netErr)
	require.True(t, netErr.Timeout())
}

func join(t *testing.T, ws *websocket.Conn, project string) {
	t.Helper()
	send(t, ws, map[string]string{"type": "join-room", "projectId": project})
	roundTrip(t, ws)
}

func codeChange(project, file, content string) map[string]string {
	return map[string]string{"type": "code-change", "projectId": project, "fileName": file, "content": content}
}

func TestCollab_EditReachesRoomMatesOnly(t *testing.T) {
	_, url := startServer(t, testConfig())
	a, b, c := dial(t, url), dial(t, url), dial(t, url)
	join(t, a, "proj1")
	join(t, b, "proj1")
	join(t, c, "proj2")

	send(t, a, codeChange("proj1", "main.js", "console.log(1)"))

	require.Equal(t, message{Type: "remote-code-change", FileName: "main.js", Content: "console.log(1)"}, read(t, b))
	expectSilence(t, a)
	expectSilence(t, c)
}

func TestCollab_EmptyFieldsAreIgnored(t *testing.T) {
	_, url := startServer(t, testConfig())
	a, b := dial(t, url), dial(t, url)
	join(t, a, "p")
	join(t, b, "p")

	send(t, a, codeChange("", "main.js", "x"))
	send(t, a, codeChange("p", "", "x"))
	send(t, a, map[string]string{"type": "join-room", "projectId": ""})
	send(t, a, map[string]string{"type": "mystery"})
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("{not json")))
	roundTrip(t, a)

	expectSilence(t, b)
}

func TestCollab_DisconnectLeavesRooms(t *testing.T) {
	relay, url := startServer(t, testConfig())
	a, b := dial(t, url), dial(t, url)
	join(t, a, "p")
	join(t, b, "p")
	require.Equal(t, 2, relay.Registry.Count())

	require.NoError(t, b.Close())
	require.Eventually(t, func() bool { return relay.Registry.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	room, ok := relay.Rooms.Get("p")
	require.True(t, ok)
	require.Equal(t, 1, room.MemberCount())
}

func TestCollab_OrderPreservedPerSender(t *testing.T) {
	_, url := startServer(t, testConfig())
	a, b := dial(t, url), dial(t, url)
	join(t, a, "p")
	join(t, b, "p")

	for _, content := range []string{"1", "2", "3"} {
		send(t, a, codeChange("p", "f", content))
	}

	for _, want := range []string{"1", "2", "3"} {
		got := read(t, b)
		require.Equal(t, want, got.Content)
	}
}

func TestCollab_RateLimitKeepsLatestEdit(t *testing.T) {
	cfg := testConfig()
	cfg.Relay.RateLimit = 2
	cfg.Relay.RateInterval = time.Second
	_, url := startServer(t, cfg)
	a, b := dial(t, url), dial(t, url)
	join(t, a, "p")
	join(t, b, "p")

	for i := 1; i <= 80; i++ {
		send(t, a, codeChange("p", "f", strconv.Itoa(i)))
	}
	send(t, a, codeChange("p", "g", "other"))
	roundTrip(t, a)

	require.Equal(t, "1", read(t, b).Content)
	require.Equal(t, "2", read(t, b).Content)
	// the burst collapses to the newest content of each file
	require.Equal(t, message{Type: "remote-code-change", FileName: "f", Content: "80"}, read(t, b))
	require.Equal(t, message{Type: "remote-code-change", FileName: "g", Content: "other"}, read(t, b))
	expectSilence(t, b)
}

func TestCollab_UnlimitedDeliversEveryEdit(t *testing.T) {
	_, url := startServer(t, testConfig())
	a, b := dial(t, url), dial(t, url)
	join(t, a, "p")
	join(t, b, "p")

	// stays under the send buffer so the drop policy never applies
	for i := 1; i <= 12; i++ {
		send(t, a, codeChange("p", "f", strconv.Itoa(i)))
	}
	for i := 1; i <= 12; i++ {
		require.Equal(t, strconv.Itoa(i), read(t, b).Content)
	}
}

func TestRateLimiter(t *testing.T) {
	req := require.New(t)
	rl := NewRateLimiter(2, time.Second)
	now := time.Unix(0, 0)
	rl.now = func() time.Time { return now }

	req.True(rl.Allow("s"))
	req.True(rl.Allow("s"))
	req.False(rl.Allow("s"))
	req.True(rl.Allow("other"))

	now = now.Add(1500 * time.Millisecond)
	req.True(rl.Allow("s"))

	rl.Forget("s")
	req.True(rl.Allow("s"))
	req.True(rl.Allow("s"))

	req.True(NewRateLimiter(0, time.Second).Allow("s"))
}

func TestRateLimiter_ReserveReportsWait(t *testing.T) {
	req := require.New(t)
	rl := NewRateLimiter(1, time.Second)
	now := time.Unix(0, 0)
	rl.now = func() time.Time { return now }

	ok, wait := rl.Reserve("s")
	req.True(ok)
	req.Zero(wait)

	now = now.Add(400 * time.Millisecond)
	ok, wait = rl.Reserve("s")
	req.False(ok)
	req.Equal(600*time.Millisecond, wait)
}

func TestWsConn_TrySendBackpressure(t *testing.T) {
	encoded, err := json.Marshal(message{Type: "x"})
	require.NoError(t, err)
	c := &WsConn{sid: "x", send: make(chan core.Frame, 1)}

	require.NoError(t, c.TrySend(encoded))
	require.ErrorIs(t, c.TrySend(encoded), ErrBackpressure)
	require.Equal(t, core.SessionID("x"), c.SID())
}
