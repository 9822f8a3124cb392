package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"scholarhub/internal/chat"
	"scholarhub/internal/metrics"
)

// chatbot answers every {message} with a typing turn and an echo.
func chatbot(t *testing.T) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var in struct {
				Message string `json:"message"`
			}
			if err := conn.ReadJSON(&in); err != nil {
				return
			}
			for _, out := range []string{chat.StartOfTurn, "echo: " + in.Message, chat.EndOfTurn} {
				if err := conn.WriteJSON(map[string]string{"message": out}); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

// readUntil reads browser events until match returns true.
func readUntil(t *testing.T, ws *websocket.Conn, match func(chat.Event) bool) chat.Event {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var ev chat.Event
		if err := ws.ReadJSON(&ev); err != nil {
			t.Fatalf("read event: %v", err)
		}
		if match(ev) {
			return ev
		}
	}
}

func TestChatSocketRelaysConversation(t *testing.T) {
	bot := chatbot(t)
	reg := prometheus.NewRegistry()
	cm := metrics.NewChat(reg)

	s := newServer(t, backend(t, http.StatusOK, 0).URL, func(d *Deps) {
		d.Chat = ChatConfig{URL: wsURL(bot, "/ws/chat/"), Metrics: cm}
	})
	front := httptest.NewServer(s.Router())
	defer front.Close()

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(front, "/ws/chat"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	status := readUntil(t, ws, func(ev chat.Event) bool {
		return ev.Type == chat.EventStatus && ev.Status == chat.StateConnected
	})
	if status.Banner != chat.BannerConnected {
		t.Errorf("banner = %q", status.Banner)
	}

	reset := readUntil(t, ws, func(ev chat.Event) bool { return ev.Type == chat.EventReset })
	if len(reset.Messages) != 1 || reset.Messages[0].Text != chat.Greeting {
		t.Fatalf("reset = %+v", reset)
	}
	if reset.Messages[0].HTML == "" {
		t.Error("greeting not rendered as markdown")
	}

	if err := ws.WriteJSON(map[string]string{"message": "  hello  "}); err != nil {
		t.Fatal(err)
	}
	// The bot may answer before the user message event is published, so
	// collect the whole turn before checking it.
	var user, reply *chat.Message
	turnOver := false
	readUntil(t, ws, func(ev chat.Event) bool {
		switch {
		case ev.Type == chat.EventMessage && ev.Message.Sender == chat.SenderUser:
			user = ev.Message
		case ev.Type == chat.EventMessage && ev.Message.Sender == chat.SenderBot:
			reply = ev.Message
		case ev.Type == chat.EventTyping && !ev.Typing:
			turnOver = true
		}
		return user != nil && reply != nil && turnOver
	})
	if user.Text != "hello" {
		t.Errorf("user text = %q, want trimmed", user.Text)
	}
	if reply.Text != "echo: hello" {
		t.Errorf("reply = %q", reply.Text)
	}

	if got := testutil.ToFloat64(cm.Sessions); got != 1 {
		t.Errorf("open sessions = %v, want 1", got)
	}
	_ = ws.Close()

	deadline := time.Now().Add(5 * time.Second)
	for testutil.ToFloat64(cm.Sessions) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session not torn down after browser disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestChatSocketClosesDuringSlowHandshake(t *testing.T) {
	release := make(chan struct{})
	stalled := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	t.Cleanup(stalled.Close)
	t.Cleanup(func() { close(release) })

	reg := prometheus.NewRegistry()
	cm := metrics.NewChat(reg)
	s := newServer(t, backend(t, http.StatusOK, 0).URL, func(d *Deps) {
		d.Chat = ChatConfig{
			URL:     wsURL(stalled, "/ws/chat/"),
			Dialer:  chat.NewWSDialer(30 * time.Second),
			Metrics: cm,
		}
	})
	front := httptest.NewServer(s.Router())
	defer front.Close()

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(front, "/ws/chat"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	readUntil(t, ws, func(ev chat.Event) bool {
		return ev.Type == chat.EventStatus && ev.Status == chat.StateConnecting
	})
	_ = ws.Close()

	deadline := time.Now().Add(3 * time.Second)
	for testutil.ToFloat64(cm.Sessions) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session still open while the chatbot handshake hangs")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
