package web

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"scholarhub/internal/chat"
	"scholarhub/internal/httpmiddleware"
	"scholarhub/internal/queue"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 9 / 10
	maxFrameBytes = 8 << 10
	eventBuffer   = 64
)

// inboundFrame is what the browser sends.
type inboundFrame struct {
	Message string `json:"message"`
}

// chatSocket relays one browser socket to its own chat session. The
// session is closed when the browser goes away.
func (s *Server) chatSocket(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("chat upgrade", zap.Error(err))
		return
	}
	defer ws.Close()

	log := s.log.With(zap.String("request_id", c.GetString(httpmiddleware.RequestIDKey)))
	if m := s.chat.Metrics; m != nil {
		m.Sessions.Inc()
		defer m.Sessions.Dec()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := queue.NewInMemory(eventBuffer)
	stream, err := events.Consume(ctx)
	if err != nil {
		log.Error("chat event stream", zap.Error(err))
		return
	}

	opts := []chat.SessionOption{chat.WithSessionLogger(log)}
	if s.chat.BannerTTL > 0 {
		opts = append(opts, chat.WithBannerTTL(s.chat.BannerTTL))
	}
	if s.chat.Metrics != nil {
		opts = append(opts, chat.WithChatMetrics(s.chat.Metrics))
	}
	if s.chat.ReconnectDelay > 0 {
		opts = append(opts, chat.WithTransportOptions(chat.WithReconnectDelay(s.chat.ReconnectDelay)))
	}
	session := chat.NewSession(s.chat.URL, s.chat.Dialer, events, opts...)

	done := make(chan struct{})
	go func() {
		defer close(done)
		writeEvents(ws, stream, log)
		// Unblock readFrames when the browser stops accepting writes.
		_ = ws.Close()
	}()

	// Dial in the background so a browser that leaves during a slow
	// chatbot handshake is noticed by readFrames.
	started := make(chan struct{})
	go func() {
		defer close(started)
		session.Start()
	}()
	readFrames(ws, session, log)

	session.Close()
	<-started
	cancel()
	<-done
	log.Debug("chat socket closed")
}

// writeEvents is the only writer of ws. It returns when stream closes or a
// write fails.
func writeEvents(ws *websocket.Conn, stream <-chan queue.Message, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-stream:
			if !ok {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, msg.Body); err != nil {
				log.Debug("chat write", zap.String("type", msg.Type), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readFrames feeds browser messages to the session until the socket ends.
// Malformed frames and rejected sends are skipped.
func readFrames(ws *websocket.Conn, session *chat.Session, log *zap.Logger) {
	ws.SetReadLimit(maxFrameBytes)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("chat socket dropped", zap.Error(err))
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		var in inboundFrame
		if err := json.Unmarshal(data, &in); err != nil {
			log.Debug("chat frame ignored", zap.Error(err))
			continue
		}
		if err := session.Send(in.Message); err != nil {
			switch {
			case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrNotConnected):
				log.Debug("chat send rejected", zap.Error(err))
			default:
				log.Warn("chat send", zap.Error(err))
			}
		}
	}
}
