package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 64 << 10
	sendBufferSize = 64
)

// Session is one websocket connection of an authenticated user.
type Session struct {
	id     string
	userID int
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func NewSession(conn *websocket.Conn, userID int, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Session{
		id:     id,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger.With("conn_id", id, "user_id", userID),
	}
}

func (s *Session) ID() string  { return s.id }
func (s *Session) UserID() int { return s.userID }

// Send queues frame for the write loop. A full queue or a closed session
// drops the frame.
func (s *Session) Send(frame Frame) bool {
	data, err := json.Marshal(frame)
	if err != nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- data:
		return true
	case <-s.done:
		return false
	default:
		s.logger.Warn("socket send queue full, dropping frame", "event", frame.Event)
		return false
	}
}

// Close stops both loops. It is safe to call more than once.
func (s *Session) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// Serve joins the user's group and processes frames until the peer goes
// away or ctx is cancelled.
func (s *Session) Serve(ctx context.Context, d *Dispatcher) {
	d.Hub().Join(s)
	defer func() {
		d.Hub().Leave(s)
		_ = s.Close()
		_ = s.conn.Close()
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop()
	}()
	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		// Unblock ReadMessage.
		_ = s.conn.SetReadDeadline(time.Now())
	}()

	s.readLoop(ctx, d)
	_ = s.Close()
	<-writerDone
}

func (s *Session) readLoop(ctx context.Context, d *Dispatcher) {
	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !isClosing(s.done) {
				s.logger.Debug("socket read ended", "error", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
			d.fail(s, "Invalid frame.")
			continue
		}
		d.Handle(ctx, s, frame)
	}
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				_ = s.Close()
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = s.Close()
				return
			}
		case <-s.done:
			err := s.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				s.logger.Debug("socket close frame failed", "error", err)
			}
			return
		}
	}
}

func isClosing(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}
