package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"ecatalog-admin/internal/api"
)

func chatServer(t *testing.T, handler func(*websocket.Conn, *http.Request)) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer ws.Close()
		handler(ws, r)
	}))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return srv, wsURL
}

func TestDialPathAndToken(t *testing.T) {
	gotPath := make(chan string, 1)
	gotToken := make(chan string, 1)
	srv, wsURL := chatServer(t, func(ws *websocket.Conn, r *http.Request) {
		gotPath <- r.URL.Path
		gotToken <- r.URL.Query().Get("token")
		// hold the socket open until the client closes
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	conn, err := NewDialer(wsURL).Dial(context.Background(), 42, "jwt-token")
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	defer conn.Close()

	if p := <-gotPath; p != "/chat/42/" {
		t.Fatalf("unexpected path %q", p)
	}
	if tok := <-gotToken; tok != "jwt-token" {
		t.Fatalf("unexpected token %q", tok)
	}
}

func TestIncomingFramesParsed(t *testing.T) {
	srv, wsURL := chatServer(t, func(ws *websocket.Conn, _ *http.Request) {
		_ = ws.WriteJSON(api.ChatMessage{ID: 7, Conversation: 1, Sender: "client", Body: "hello"})
		// keep open
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	conn, err := NewDialer(wsURL).Dial(context.Background(), 1, "t")
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	defer conn.Close()

	select {
	case msg := <-conn.Incoming:
		if msg.ID != 7 || msg.Body != "hello" {
			t.Fatalf("unexpected message: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func TestCloseEndsReadLoop(t *testing.T) {
	srv, wsURL := chatServer(t, func(ws *websocket.Conn, _ *http.Request) {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	conn, err := NewDialer(wsURL).Dial(context.Background(), 1, "t")
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}

	conn.Close()
	conn.Close() // idempotent

	select {
	case _, ok := <-conn.Incoming:
		if ok {
			t.Fatal("expected no frame after close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected Incoming to close after Close")
	}
}

func TestSendWritesFrame(t *testing.T) {
	frames := make(chan outboundFrame, 1)
	srv, wsURL := chatServer(t, func(ws *websocket.Conn, _ *http.Request) {
		var f outboundFrame
		if err := ws.ReadJSON(&f); err == nil {
			frames <- f
		}
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	conn, err := NewDialer(wsURL).Dial(context.Background(), 1, "t")
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	defer conn.Close()

	if err := conn.Send("hi there", "local-1"); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	select {
	case f := <-frames:
		if f.Body != "hi there" || f.ClientMsgID != "local-1" {
			t.Fatalf("unexpected frame: %+v", f)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sent frame")
	}
}

func TestLogDeduplicates(t *testing.T) {
	l := NewLog()
	l.SetHistory([]api.ChatMessage{
		{ID: 1, Body: "a"},
		{ID: 2, Body: "b"},
	})

	if !l.Append(api.ChatMessage{ID: 3, Body: "c"}) {
		t.Fatal("expected new message appended")
	}
	if l.Append(api.ChatMessage{ID: 2, Body: "b again"}) {
		t.Fatal("expected duplicate server id rejected")
	}

	// HTTP-posted attachment followed by its socket echo
	if !l.Append(api.ChatMessage{ID: 4, ClientMsgID: "local-9", Body: "file"}) {
		t.Fatal("expected attachment message appended")
	}
	if l.Append(api.ChatMessage{ID: 5, ClientMsgID: "local-9", Body: "file"}) {
		t.Fatal("expected socket echo rejected by client_msg_id")
	}

	if l.Len() != 4 {
		t.Fatalf("expected 4 messages, got %d", l.Len())
	}
}

func TestLogSetHistoryResets(t *testing.T) {
	l := NewLog()
	l.SetHistory([]api.ChatMessage{{ID: 1}})
	l.SetHistory([]api.ChatMessage{{ID: 1}, {ID: 2}})
	if l.Len() != 2 {
		t.Fatalf("expected history replaced, got %d messages", l.Len())
	}
}
