package session

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/classpulse/livepoll/internal/events"
	"github.com/classpulse/livepoll/internal/models"
	"github.com/classpulse/livepoll/internal/realtime"
)

func startServer(t *testing.T) (string, *savedPolls) {
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)
	hub := realtime.NewHub(logger)
	saved := &savedPolls{}
	s := New(hub, saved, Config{TickInterval: 20 * time.Millisecond}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(stopped)
	}()

	r := gin.New()
	r.GET("/ws", realtime.ServeWs(hub, s, realtime.NewUpgrader([]string{"*"}), logger))
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		<-stopped
		hub.Close()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", saved
}

func dial(t *testing.T, url string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func emit(t *testing.T, conn *websocket.Conn, name string, data interface{}) {
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(realtime.WSMessage{Event: name, Data: b}))
}

// await reads until a message named name arrives.
func await(t *testing.T, conn *websocket.Conn, name string) realtime.WSMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg realtime.WSMessage
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", name)
		if msg.Event == name {
			return msg
		}
	}
}

func TestSessionOverWebsocket(t *testing.T) {
	url, saved := startServer(t)
	teacher := dial(t, url)
	student := dial(t, url)

	emit(t, teacher, events.JoinRoom, map[string]string{"role": "teacher"})
	await(t, teacher, events.TimerUpdate)
	assert.JSONEq(t, `[]`, string(await(t, teacher, events.ParticipantsList).Data))
	emit(t, student, events.JoinRoom, map[string]string{"role": "student"})
	await(t, student, events.TimerUpdate)

	emit(t, student, events.RegisterStudent, map[string]string{"name": "Sam"})
	roster := await(t, teacher, events.ParticipantsList)
	assert.Contains(t, string(roster.Data), `"Sam"`)

	emit(t, teacher, events.CreatePoll, map[string]interface{}{
		"question": "Pick one",
		"options":  []map[string]string{{"value": "A"}, {"value": "B"}},
		"duration": "25 seconds",
	})
	var poll models.Poll
	require.NoError(t, json.Unmarshal(await(t, student, events.NewQuestion).Data, &poll))
	assert.Equal(t, "Pick one", poll.Question)

	emit(t, student, events.SubmitVote, map[string]interface{}{"questionId": poll.ID.String(), "optionIndex": 1})
	require.NoError(t, json.Unmarshal(await(t, teacher, events.VoteUpdate).Data, &poll))
	assert.Equal(t, 1, poll.Options[1].Votes)

	await(t, student, events.PollEnded)
	var timer models.TimerState
	require.NoError(t, json.Unmarshal(await(t, student, events.TimerUpdate).Data, &timer))
	assert.Equal(t, models.TimerState{}, timer)
	require.Eventually(t, func() bool { return saved.count() == 1 }, time.Second, 10*time.Millisecond)

	emit(t, student, events.SubmitVote, map[string]interface{}{"questionId": poll.ID.String(), "optionIndex": 0})
	rejected := await(t, student, events.VoteRejected)
	assert.JSONEq(t, `{"reason":"Poll has ended"}`, string(rejected.Data))

	require.NoError(t, student.Close())
	await(t, teacher, events.ParticipantsList)
}
