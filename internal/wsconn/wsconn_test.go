package wsconn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
)

// wsServer runs handler for every accepted connection and converts the
// httptest URL to a ws:// one.
func wsServer(t *testing.T, handler func(ctx context.Context, conn *websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		handler(r.Context(), conn)
	}))
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestConnectDeliversMessages(t *testing.T) {
	srv, url := wsServer(t, func(ctx context.Context, conn *websocket.Conn) {
		conn.Write(ctx, websocket.MessageText, []byte(`{"seq":1}`))
		conn.Write(ctx, websocket.MessageText, []byte(`{"seq":2}`))
		time.Sleep(100 * time.Millisecond)
	})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := New(DefaultConfig(url))
	defer client.Close()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := client.State(); got != StateConnected {
		t.Errorf("State = %s, want %s", got, StateConnected)
	}

	for want := 1; want <= 2; want++ {
		select {
		case msg := <-client.Messages():
			if !strings.Contains(string(msg), `"seq":`) {
				t.Errorf("message %d = %s", want, msg)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for message %d", want)
		}
	}
}

func TestConnectFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := New(DefaultConfig("ws://127.0.0.1:1"))
	defer client.Close()

	if err := client.Connect(ctx); err == nil {
		t.Fatal("Connect against a closed port should fail")
	}
	if got := client.State(); got != StateDisconnected {
		t.Errorf("State = %s, want %s", got, StateDisconnected)
	}
}

func TestSubscribeSentOnConnect(t *testing.T) {
	got := make(chan []byte, 1)
	srv, url := wsServer(t, func(ctx context.Context, conn *websocket.Conn) {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		got <- data
		time.Sleep(100 * time.Millisecond)
	})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := DefaultConfig(url)
	cfg.Subscribe = []byte(`{"event":"subscribe","channel":"swaps"}`)
	client := New(cfg)
	defer client.Close()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	select {
	case data := <-got:
		if string(data) != string(cfg.Subscribe) {
			t.Errorf("server received %s, want the subscribe payload", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the subscribe payload")
	}
}

func TestReconnectResubscribes(t *testing.T) {
	var conns atomic.Int32
	srv, url := wsServer(t, func(ctx context.Context, conn *websocket.Conn) {
		n := conns.Add(1)
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
		if n == 1 {
			// Drop the first connection right after the subscribe so the
			// client has to dial again.
			conn.Close(websocket.StatusGoingAway, "restart")
			return
		}
		conn.Write(ctx, websocket.MessageText, []byte(`{"after":"reconnect"}`))
		time.Sleep(200 * time.Millisecond)
	})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := DefaultConfig(url)
	cfg.Subscribe = []byte(`{"event":"subscribe"}`)
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 50 * time.Millisecond
	client := New(cfg)
	defer client.Close()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	select {
	case msg := <-client.Messages():
		if string(msg) != `{"after":"reconnect"}` {
			t.Errorf("message = %s", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no message after reconnect")
	}
	if got := conns.Load(); got < 2 {
		t.Errorf("server saw %d connections, want at least 2", got)
	}
}

func TestMaxReconnectsGivesUp(t *testing.T) {
	srv, url := wsServer(t, func(ctx context.Context, conn *websocket.Conn) {
		conn.Close(websocket.StatusGoingAway, "bye")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := DefaultConfig(url)
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 20 * time.Millisecond
	cfg.MaxReconnects = 2
	client := New(cfg)
	defer client.Close()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	srv.Close()

	// The messages channel closes when the client stops retrying.
	deadline := time.After(4 * time.Second)
	for {
		select {
		case _, ok := <-client.Messages():
			if !ok {
				if got := client.State(); got != StateDisconnected {
					t.Errorf("State after giving up = %s, want %s", got, StateDisconnected)
				}
				return
			}
		case <-deadline:
			t.Fatal("client did not give up after MaxReconnects")
		}
	}
}

func TestSendBeforeConnect(t *testing.T) {
	client := New(DefaultConfig("ws://127.0.0.1:1"))
	defer client.Close()

	if err := client.Send(context.Background(), []byte("x")); err == nil {
		t.Fatal("Send without a connection should fail")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	srv, url := wsServer(t, func(ctx context.Context, conn *websocket.Conn) {
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := New(DefaultConfig(url))
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := client.State(); got != StateClosed {
		t.Errorf("State = %s, want %s", got, StateClosed)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
