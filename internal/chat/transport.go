// Package chat relays a chat conversation to the chatbot backend.
//
// A Transport owns one reconnecting socket to the chatbot. A Session sits on
// top of it and keeps the conversation state shown in the chat widget.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DefaultURL is the chatbot endpoint used when none is configured.
const DefaultURL = "ws://127.0.0.1:5000/ws/chat/"

// DefaultReconnectDelay is the fixed wait between a failure and the next dial.
const DefaultReconnectDelay = 3 * time.Second

var (
	// ErrNotConnected is returned by Send outside the connected state.
	ErrNotConnected = errors.New("chat: not connected")
	// ErrClosed is returned once the transport or session has been closed.
	ErrClosed = errors.New("chat: closed")
)

// State is the connection state of a Transport.
type State string

const (
	StateConnecting State = "connecting"
	StateConnected  State = "connected"
	StateError      State = "error"
	StateClosed     State = "closed"
	// StateStopped is terminal; it is only reached through Close.
	StateStopped State = "stopped"
)

// Conn is the subset of *websocket.Conn the transport uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Dialer opens a connection to the chatbot.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Timer is the handle of a scheduled reconnect.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc is the production value.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Handlers receive transport events. They run outside the transport lock.
type Handlers struct {
	// OnState is called on every state transition. err is set for StateError
	// and StateClosed.
	OnState func(state State, err error)
	// OnOpen runs after a dial succeeds.
	OnOpen func()
	// OnFrame receives the text of each inbound frame.
	OnFrame func(payload string)
}

// TransportOption customizes a Transport.
type TransportOption func(*Transport)

// WithReconnectDelay overrides DefaultReconnectDelay.
func WithReconnectDelay(d time.Duration) TransportOption {
	return func(t *Transport) { t.delay = d }
}

// WithAfterFunc replaces the timer used to schedule reconnects.
func WithAfterFunc(f AfterFunc) TransportOption {
	return func(t *Transport) { t.afterFunc = f }
}

// WithLogger sets the transport logger.
func WithLogger(l *zap.Logger) TransportOption {
	return func(t *Transport) { t.log = l }
}

// WithReconnectHook is called each time a reconnect is scheduled.
func WithReconnectHook(f func()) TransportOption {
	return func(t *Transport) { t.onReconnect = f }
}

// Transport keeps at most one live connection to the chatbot and reconnects
// after every failure until it is closed.
type Transport struct {
	url         string
	dialer      Dialer
	delay       time.Duration
	afterFunc   AfterFunc
	log         *zap.Logger
	handlers    Handlers
	onReconnect func()

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   State
	conn    Conn
	gen     uint64
	timer   Timer
	started bool
	stopped bool
}

// NewTransport creates a transport for url. Nothing is dialed until Start.
func NewTransport(url string, dialer Dialer, handlers Handlers, opts ...TransportOption) *Transport {
	if url == "" {
		url = DefaultURL
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &Transport{
		url:       url,
		dialer:    dialer,
		delay:     DefaultReconnectDelay,
		afterFunc: stdAfterFunc,
		log:       zap.NewNop(),
		handlers:  handlers,
		ctx:       ctx,
		cancel:    cancel,
		state:     StateConnecting,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns the current connection state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start dials the chatbot. It returns once the first attempt has either
// connected or scheduled its reconnect.
func (t *Transport) Start() {
	t.mu.Lock()
	if t.started || t.stopped {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	t.connect(gen)
}

// Send writes {"message": text} on the live connection.
func (t *Transport) Send(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return ErrClosed
	}
	if t.state != StateConnected || t.conn == nil {
		return ErrNotConnected
	}
	return t.conn.WriteJSON(outboundFrame{Message: text})
}

// Close drops the connection, cancels a pending reconnect and stops the
// transport for good. It is safe to call more than once.
func (t *Transport) Close() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.gen++
	t.state = StateStopped
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	t.cancel()
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

func (t *Transport) connect(gen uint64) {
	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.state = StateConnecting
	t.timer = nil
	t.mu.Unlock()
	t.emitState(StateConnecting, nil)

	conn, err := t.dialer.Dial(t.ctx, t.url)
	if err != nil {
		t.log.Warn("chatbot dial failed", zap.String("url", t.url), zap.Error(err))
		t.fail(gen, StateError, err)
		return
	}

	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		_ = conn.Close()
		return
	}
	t.conn = conn
	t.state = StateConnected
	t.mu.Unlock()

	t.log.Info("chatbot connected", zap.String("url", t.url))
	t.emitState(StateConnected, nil)
	if t.handlers.OnOpen != nil {
		t.handlers.OnOpen()
	}

	go t.readLoop(gen, conn)
}

func (t *Transport) readLoop(gen uint64, conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			state := StateError
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				state = StateClosed
			}
			t.fail(gen, state, err)
			return
		}

		payload, err := decodeFrame(data)
		if err != nil {
			t.log.Warn("dropping undecodable chatbot frame", zap.ByteString("frame", data), zap.Error(err))
			continue
		}

		t.mu.Lock()
		current := !t.stopped && gen == t.gen
		t.mu.Unlock()
		if !current {
			return
		}
		if t.handlers.OnFrame != nil {
			t.handlers.OnFrame(payload)
		}
	}
}

// fail records the failure of connection gen and schedules exactly one
// reconnect. Failures of stale generations are ignored.
func (t *Transport) fail(gen uint64, state State, cause error) {
	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		return
	}
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
	t.state = state
	t.gen++
	next := t.gen
	t.timer = t.afterFunc(t.delay, func() { t.connect(next) })
	t.mu.Unlock()

	t.log.Info("chatbot connection lost, reconnect scheduled",
		zap.String("state", string(state)),
		zap.Duration("delay", t.delay),
		zap.Error(cause),
	)
	if t.onReconnect != nil {
		t.onReconnect()
	}
	t.emitState(state, cause)
}

func (t *Transport) emitState(state State, err error) {
	if t.handlers.OnState != nil {
		t.handlers.OnState(state, err)
	}
}

type outboundFrame struct {
	Message string `json:"message"`
}

type inboundFrame struct {
	Message string `json:"message"`
	Text    string `json:"text"`
}

// NoContent is delivered for a frame that carries neither message nor text.
const NoContent = "No message content"

func decodeFrame(data []byte) (string, error) {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return "", err
	}
	switch {
	case f.Message != "":
		return f.Message, nil
	case f.Text != "":
		return f.Text, nil
	default:
		return NoContent, nil
	}
}
