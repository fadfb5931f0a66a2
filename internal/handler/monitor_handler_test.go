package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/codexam-backend/internal/model"
	"github.com/stemsi/codexam-backend/internal/service"
	ws "github.com/stemsi/codexam-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExams struct {
	known uuid.UUID
}

func (f fakeExams) GetExam(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	if id != f.known {
		return nil, service.ErrExamNotFound
	}
	return &model.Exam{ID: id}, nil
}

type fakeFeed struct {
	events chan string
	closed chan struct{}
	err    error
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{events: make(chan string, 4), closed: make(chan struct{})}
}

func (f *fakeFeed) Subscribe(context.Context, uuid.UUID) (<-chan string, func() error, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.events, func() error { close(f.closed); return nil }, nil
}

func newMonitorServer(t *testing.T, examID uuid.UUID, feed *fakeFeed) *httptest.Server {
	t.Helper()
	h := NewMonitorHandler(fakeExams{known: examID}, feed, zerolog.New(io.Discard), nil)
	r := gin.New()
	r.GET("/monitor/:exam_id", h.MonitorExam)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, examID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/monitor/" + examID
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestMonitorForwardsEvents(t *testing.T) {
	examID := uuid.New()
	feed := newFakeFeed()
	conn := dial(t, newMonitorServer(t, examID, feed), examID.String())

	feed.events <- `{"type":"ANSWER_SUBMITTED","student_id":7}`

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Event ws.Event          `json:"event"`
		Data  model.AnswerEvent `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.EventAnswerEvent, msg.Event)
	assert.Equal(t, model.AnswerEventSubmitted, msg.Data.Type)
	assert.Equal(t, 7, msg.Data.StudentID)
}

func TestMonitorPingPong(t *testing.T) {
	examID := uuid.New()
	feed := newFakeFeed()
	conn := dial(t, newMonitorServer(t, examID, feed), examID.String())

	require.NoError(t, conn.WriteJSON(ws.RequestEnvelope{Action: ws.ActionPing}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var pong ws.PongResponse
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, ws.EventPong, pong.Event)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "dance"}))
	var errResp ws.ErrorResponse
	require.NoError(t, conn.ReadJSON(&errResp))
	assert.Equal(t, ws.EventError, errResp.Event)
	assert.Contains(t, errResp.Error, "dance")
}

func TestMonitorClosesFeedOnDisconnect(t *testing.T) {
	examID := uuid.New()
	feed := newFakeFeed()
	conn := dial(t, newMonitorServer(t, examID, feed), examID.String())

	require.NoError(t, conn.Close())

	select {
	case <-feed.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("feed was not closed after client disconnect")
	}
}

func TestMonitorRejectsBeforeUpgrade(t *testing.T) {
	examID := uuid.New()

	srv := newMonitorServer(t, examID, newFakeFeed())
	for _, tc := range []struct {
		path string
		want int
	}{
		{"/monitor/nope", http.StatusBadRequest},
		{"/monitor/" + uuid.NewString(), http.StatusNotFound},
	} {
		resp, err := http.Get(srv.URL + tc.path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, tc.want, resp.StatusCode, tc.path)
	}

	broken := newFakeFeed()
	broken.err = errors.New("redis down")
	resp, err := http.Get(newMonitorServer(t, examID, broken).URL + "/monitor/" + examID.String())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestMonitorEventPayloadIsRaw(t *testing.T) {
	raw := json.RawMessage(`{"type":"ANSWER_STARTED"}`)
	b, err := json.Marshal(ws.AnswerEventMessage{Event: ws.EventAnswerEvent, Data: raw})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"answer_event","data":{"type":"ANSWER_STARTED"}}`, string(b))
}
