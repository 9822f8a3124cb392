package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"scholarhub/internal/metrics"
	"scholarhub/internal/queue"
)

// ErrEmptyMessage is returned by Session.Send for blank input.
var ErrEmptyMessage = errors.New("chat: empty message")

// Turn sentinels sent by the chatbot around each reply.
const (
	StartOfTurn = "<STARTOFTURN>"
	EndOfTurn   = "<ENDOFTURN>"
)

// Greeting is the first message shown after every successful connect.
const Greeting = "👋 **Hello! How can I assist you today?**\n- Ask me anything!\n- I can help you with various queries."

// Status banners.
const (
	BannerConnecting = "Connecting..."
	BannerConnected  = "Connected to Chatbot"
	BannerError      = "Connection error. Reconnecting..."
	BannerClosed     = "Connection closed. Reconnecting..."
)

// DefaultBannerTTL is how long the connected banner stays up.
const DefaultBannerTTL = 2 * time.Second

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one entry of the conversation.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	HTML      string    `json:"html,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types published to the session queue.
const (
	EventStatus  = "status"
	EventMessage = "message"
	EventTyping  = "typing"
	EventReset   = "reset"
)

// Event is the JSON body of a queue message.
type Event struct {
	Type     string    `json:"type"`
	Status   State     `json:"status,omitempty"`
	Banner   string    `json:"banner,omitempty"`
	Typing   bool      `json:"typing"`
	Message  *Message  `json:"message,omitempty"`
	Messages []Message `json:"messages,omitempty"`
}

// Snapshot is a copy of the widget state.
type Snapshot struct {
	Status   State
	Banner   string
	Typing   bool
	Messages []Message
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithBannerTTL overrides DefaultBannerTTL.
func WithBannerTTL(d time.Duration) SessionOption {
	return func(s *Session) { s.bannerTTL = d }
}

// WithSessionLogger sets the logger of the session and its transport.
func WithSessionLogger(l *zap.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// WithClock replaces the timer function used for banners and reconnects,
// and the wall clock used for message timestamps.
func WithClock(after AfterFunc, now func() time.Time) SessionOption {
	return func(s *Session) {
		s.afterFunc = after
		s.now = now
	}
}

// WithChatMetrics records relayed messages and reconnects.
func WithChatMetrics(m *metrics.Chat) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// WithTransportOptions passes options through to the session's transport.
func WithTransportOptions(opts ...TransportOption) SessionOption {
	return func(s *Session) { s.transportOpts = append(s.transportOpts, opts...) }
}

// Session is the state of one chat widget. It owns its Transport and
// publishes an Event for every change.
type Session struct {
	transport     *Transport
	transportOpts []TransportOption
	out           queue.Queue
	log           *zap.Logger
	metrics       *metrics.Chat
	bannerTTL     time.Duration
	afterFunc     AfterFunc
	now           func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	status      State
	banner      string
	bannerGen   uint64
	bannerTimer Timer
	typing      bool
	messages    []Message
	closed      bool
}

// NewSession builds a session talking to url through dialer and publishing
// to out. Call Start to connect.
func NewSession(url string, dialer Dialer, out queue.Queue, opts ...SessionOption) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		out:       out,
		log:       zap.NewNop(),
		bannerTTL: DefaultBannerTTL,
		afterFunc: stdAfterFunc,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
		status:    StateConnecting,
		banner:    BannerConnecting,
		messages:  []Message{},
	}
	for _, opt := range opts {
		opt(s)
	}

	topts := []TransportOption{WithLogger(s.log), WithAfterFunc(s.afterFunc)}
	if s.metrics != nil {
		topts = append(topts, WithReconnectHook(s.metrics.Reconnects.Inc))
	}
	topts = append(topts, s.transportOpts...)

	s.transport = NewTransport(url, dialer, Handlers{
		OnState: s.onState,
		OnOpen:  s.onOpen,
		OnFrame: s.onFrame,
	}, topts...)
	return s
}

// Start connects to the chatbot.
func (s *Session) Start() {
	s.transport.Start()
}

// Send trims text and sends it. Blank text and a session that is not
// connected are rejected without side effects.
func (s *Session) Send(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case s.status != StateConnected:
		s.mu.Unlock()
		return ErrNotConnected
	}
	s.mu.Unlock()

	if err := s.transport.Send(text); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.newMessage(SenderUser, text)
	s.messages = append(s.messages, msg)
	s.typing = true
	s.publish(Event{Type: EventMessage, Message: &msg, Typing: true})
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]Message, len(s.messages))
	copy(msgs, s.messages)
	return Snapshot{
		Status:   s.status,
		Banner:   s.banner,
		Typing:   s.typing,
		Messages: msgs,
	}
}

// Close stops the transport. No event is published afterwards.
func (s *Session) Close() {
	s.cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.bannerTimer != nil {
		s.bannerTimer.Stop()
		s.bannerTimer = nil
	}
	s.mu.Unlock()

	s.transport.Close()
}

func (s *Session) onState(state State, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || state == StateStopped {
		return
	}

	s.status = state
	s.bannerGen++
	if s.bannerTimer != nil {
		s.bannerTimer.Stop()
		s.bannerTimer = nil
	}

	switch state {
	case StateConnecting:
		s.banner = BannerConnecting
	case StateConnected:
		s.banner = BannerConnected
		gen := s.bannerGen
		s.bannerTimer = s.afterFunc(s.bannerTTL, func() { s.clearBanner(gen) })
	case StateError:
		s.banner = BannerError
	case StateClosed:
		s.banner = BannerClosed
	}
	s.publish(Event{Type: EventStatus, Status: s.status, Banner: s.banner, Typing: s.typing})
}

func (s *Session) clearBanner(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.bannerGen {
		return
	}
	s.banner = ""
	s.bannerTimer = nil
	s.publish(Event{Type: EventStatus, Status: s.status, Typing: s.typing})
}

func (s *Session) onOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.messages = []Message{s.newMessage(SenderBot, Greeting)}
	msgs := make([]Message, len(s.messages))
	copy(msgs, s.messages)
	s.publish(Event{Type: EventReset, Messages: msgs, Typing: s.typing})
}

func (s *Session) onFrame(payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	switch payload {
	case StartOfTurn:
		s.typing = true
		s.publish(Event{Type: EventTyping, Typing: true})
	case EndOfTurn:
		s.typing = false
		s.publish(Event{Type: EventTyping, Typing: false})
	default:
		s.typing = false
		msg := s.newMessage(SenderBot, payload)
		s.messages = append(s.messages, msg)
		s.publish(Event{Type: EventMessage, Message: &msg, Typing: false})
	}
}

func (s *Session) newMessage(sender Sender, text string) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Timestamp: s.now(),
	}
	if sender == SenderBot {
		msg.HTML = RenderMarkdown(text)
	}
	if s.metrics != nil {
		s.metrics.Messages.WithLabelValues(string(sender)).Inc()
	}
	return msg
}

// publish must be called with s.mu held. Close cancels s.ctx before taking
// the lock, so a publish blocked on a full queue cannot hold Close up.
func (s *Session) publish(ev Event) {
	if s.out == nil || s.ctx.Err() != nil {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		s.log.Error("encode chat event", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	if err := s.out.Publish(s.ctx, queue.Message{Type: ev.Type, Body: body}); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("publish chat event", zap.String("type", ev.Type), zap.Error(err))
	}
}
