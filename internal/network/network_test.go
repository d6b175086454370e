package network

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// echoHandler answers every message with the same envelope and reports lifecycle events.
type echoHandler struct {
	connected    chan *Client
	disconnected chan *Client
}

func (h *echoHandler) OnConnect(c *Client)    { h.connected <- c }
func (h *echoHandler) OnDisconnect(c *Client) { h.disconnected <- c }
func (h *echoHandler) OnMessage(c *Client, msg Message) {
	c.Send(msg)
}

func startServer(t *testing.T) (*echoHandler, string) {
	t.Helper()
	h := &echoHandler{
		connected:    make(chan *Client, 4),
		disconnected: make(chan *Client, 4),
	}
	srv := NewServer(h, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Run(ctx)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return h, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestEchoRoundTrip(t *testing.T) {
	h, url := startServer(t)
	conn := dial(t, url)

	select {
	case c := <-h.connected:
		if c.ID() == "" {
			t.Error("client has no id")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnConnect not called")
	}

	if err := conn.WriteJSON(Message{Type: "ping", Payload: json.RawMessage(`{"n":1}`)}); err != nil {
		t.Fatal(err)
	}
	got := readMessage(t, conn)
	if got.Type != "ping" || string(got.Payload) != `{"n":1}` {
		t.Errorf("echo = %s %s", got.Type, got.Payload)
	}
}

func TestMalformedFrameIsAnswered(t *testing.T) {
	_, url := startServer(t)
	conn := dial(t, url)

	conn.WriteMessage(websocket.TextMessage, []byte(`{not json`))
	if got := readMessage(t, conn); got.Type != TypeError {
		t.Fatalf("type = %q, want error", got.Type)
	}
	conn.WriteMessage(websocket.TextMessage, []byte(`{"payload":{}}`))
	got := readMessage(t, conn)
	if got.Type != TypeError || !strings.Contains(string(got.Payload), "type") {
		t.Fatalf("missing type answer = %s %s", got.Type, got.Payload)
	}

	// The connection survives both.
	conn.WriteJSON(Message{Type: "still-here"})
	if got := readMessage(t, conn); got.Type != "still-here" {
		t.Errorf("type = %q", got.Type)
	}
}

func TestDisconnectIsReported(t *testing.T) {
	h, url := startServer(t)
	conn := dial(t, url)
	c := <-h.connected
	conn.Close()

	select {
	case gone := <-h.disconnected:
		if gone != c {
			t.Error("wrong client disconnected")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnDisconnect not called")
	}
	if c.Send(Message{Type: "late"}) {
		t.Error("send to a stopped client reported success")
	}
}

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage("x", map[string]int{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(msg.Payload) != `{"a":1}` {
		t.Errorf("payload = %s", msg.Payload)
	}
	if msg, _ := NewMessage("y", nil); msg.Payload != nil {
		t.Errorf("nil payload encoded as %s", msg.Payload)
	}
	if _, err := NewMessage("bad", func() {}); err == nil {
		t.Error("unencodable payload accepted")
	}
}

func TestPostRunsOnHub(t *testing.T) {
	h, url := startServer(t)
	dial(t, url)
	c := <-h.connected

	ran := make(chan bool, 1)
	if !c.Post(func() { ran <- c.Closed() }) {
		t.Fatal("post rejected by a running hub")
	}
	select {
	case closed := <-ran:
		if closed {
			t.Error("live client reported closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("posted func never ran")
	}
}
