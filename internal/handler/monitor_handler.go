package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/codexam-backend/internal/model"
	"github.com/stemsi/codexam-backend/internal/response"
	"github.com/stemsi/codexam-backend/internal/service"
	ws "github.com/stemsi/codexam-backend/internal/websocket"
)

// ExamLookup resolves the exam being monitored.
type ExamLookup interface {
	GetExam(ctx context.Context, examID uuid.UUID) (*model.Exam, error)
}

// EventFeed streams raw answer events of one exam.
type EventFeed interface {
	Subscribe(ctx context.Context, examID uuid.UUID) (<-chan string, func() error, error)
}

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams answer events of an exam to staff over WebSocket.
type MonitorHandler struct {
	exams    ExamLookup
	feed     EventFeed
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(exams ExamLookup, feed EventFeed, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		exams:    exams,
		feed:     feed,
		upgrader: buildUpgrader(allowedOrigins),
		log:      log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorExam godoc
// WS /ws/v1/admin/exams/:exam_id/monitor?token=...
// Forwards every answer event of the exam; answers "ping" with "pong".
func (h *MonitorHandler) MonitorExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if _, err := h.exams.GetExam(c.Request.Context(), examID); err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
			return
		}
		h.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Monitor exam lookup failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	// The hijacked connection outlives the request context, so the read
	// loop owns cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, closeFeed, err := h.feed.Subscribe(ctx, examID)
	if err != nil {
		h.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Monitor subscribe failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer closeFeed()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("exam_id", examID.String()).Logger()
	wsLog.Info().Msg("Admin attached to live monitor")

	replies := make(chan interface{}, 8)
	go readLoop(conn, replies, cancel, wsLog)

	for {
		select {
		case <-ctx.Done():
			wsLog.Info().Msg("Admin detached from live monitor")
			return

		case payload, ok := <-events:
			if !ok {
				_ = ws.WriteError(conn, "event feed closed")
				_ = ws.WriteClose(conn, "event feed closed")
				return
			}
			if !json.Valid([]byte(payload)) {
				wsLog.Warn().Msg("Dropping malformed answer event")
				continue
			}
			msg := ws.AnswerEventMessage{Event: ws.EventAnswerEvent, Data: json.RawMessage(payload)}
			if err := ws.WriteTyped(conn, msg); err != nil {
				wsLog.Debug().Err(err).Msg("Monitor write failed")
				return
			}

		case reply := <-replies:
			if err := ws.WriteTyped(conn, reply); err != nil {
				wsLog.Debug().Err(err).Msg("Monitor write failed")
				return
			}
		}
	}
}

// readLoop handles client actions. Replies go through the writer loop since
// gorilla connections allow one concurrent writer.
func readLoop(conn *websocket.Conn, replies chan<- interface{}, cancel context.CancelFunc, log zerolog.Logger) {
	defer cancel()

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		var reply interface{}
		switch msg.Action {
		case ws.ActionPing:
			reply = ws.PongResponse{Event: ws.EventPong}
		default:
			reply = ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(msg.Action)}
		}

		select {
		case replies <- reply:
		default:
			log.Warn().Msg("Monitor reply dropped, client is not reading")
		}
	}
}
