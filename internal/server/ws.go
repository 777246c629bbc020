package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/momentlens/internal/moment"
	"github.com/sanspareilsmyn/momentlens/internal/pipeline"
)

const (
	wsWriteWait = 10 * time.Second
	wsMaxFrame  = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type wsReply struct {
	*segmentResponse
	Error string `json:"error,omitempty"`
}

// handleSegmentMetricsWS answers each {"video_id","start_time","end_time"}
// frame with the segment's metrics. Bad frames get an error reply and keep
// the connection open.
func (s *Server) handleSegmentMetricsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxFrame)

	logger := s.logger.With(zap.String("request_id", RequestID(r.Context())))
	logger.Debug("Websocket client connected")

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				logger.Debug("Websocket read ended", zap.Error(err))
			}
			return
		}

		var reply wsReply
		var in moment.Input
		if err := json.Unmarshal(frame, &in); err != nil {
			reply.Error = fmt.Errorf("%w: %w", ErrInvalidBody, err).Error()
		} else {
			reply = s.segmentReply(r, in)
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			logger.Debug("Websocket write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) segmentReply(r *http.Request, in moment.Input) wsReply {
	m, err := moment.Validate(in)
	if err != nil {
		return wsReply{Error: fmt.Errorf("%w: %w", pipeline.ErrInvalidSegment, err).Error()}
	}
	res, err := s.deps.Pipeline.SegmentMetrics(r.Context(), m.VideoID, m.Start, m.End)
	if err != nil {
		return wsReply{Error: err.Error()}
	}
	view := viewSegment(m.VideoID, m.Start, m.End, res)
	return wsReply{segmentResponse: &view}
}
