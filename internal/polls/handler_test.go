package polls

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classpulse/livepoll/internal/models"
)

type brokenStore struct{ MemoryStore }

func (*brokenStore) ListRecent(context.Context, int) ([]models.PollRecord, error) {
	return nil, errors.New("relation \"poll_history\" does not exist")
}

type historyBody struct {
	Success bool                `json:"success"`
	Data    []models.PollRecord `json:"data"`
	Message string              `json:"message"`
	Error   string              `json:"error"`
}

func newHistoryRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewHistory(store, nil, zap.NewNop()), 3, 5, zap.NewNop())
	r := gin.New()
	r.GET("/api/polls/history", h.ListHistory)
	return r
}

func getHistory(t *testing.T, r http.Handler, query string) (int, historyBody) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/polls/history"+query, nil)
	r.ServeHTTP(w, req)

	var body historyBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestListHistory(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		require.NoError(t, store.Save(context.Background(), record("q", base.Add(time.Duration(i)*time.Minute))))
	}
	r := newHistoryRouter(store)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"default limit", "", 3},
		{"explicit limit", "?limit=2", 2},
		{"limit capped", "?limit=50", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := getHistory(t, r, tt.query)
			assert.Equal(t, http.StatusOK, code)
			assert.True(t, body.Success)
			assert.Len(t, body.Data, tt.want)
			assert.True(t, body.Data[0].CreatedAt.Equal(base.Add(7*time.Minute)), "newest first")
		})
	}
}

func TestListHistory_EmptyIsList(t *testing.T) {
	r := newHistoryRouter(NewMemoryStore())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/polls/history", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestListHistory_BadLimit(t *testing.T) {
	r := newHistoryRouter(NewMemoryStore())

	for _, q := range []string{"?limit=abc", "?limit=0", "?limit=-4"} {
		code, body := getHistory(t, r, q)
		assert.Equal(t, http.StatusBadRequest, code, q)
		assert.False(t, body.Success)
	}
}

func TestListHistory_StoreFailure(t *testing.T) {
	r := newHistoryRouter(&brokenStore{})

	code, body := getHistory(t, r, "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, body.Success)
	assert.Equal(t, "Error fetching poll history", body.Message)
	assert.Contains(t, body.Error, "poll_history")
}
