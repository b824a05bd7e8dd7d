package dispatch_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/MrWong99/presenter/internal/dispatch"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, srv.URL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func waitConnected(t *testing.T, hub *dispatch.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.Connected() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Connected() = %d, want %d", hub.Connected(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_NoListeners(t *testing.T) {
	t.Parallel()

	hub := dispatch.NewHub("presenters")
	err := hub.Send(context.Background(), dispatch.Message{ID: "x"})
	if !errors.Is(err, dispatch.ErrNoListeners) {
		t.Fatalf("Send err = %v, want ErrNoListeners", err)
	}
}

func TestHub_BroadcastsToPresenters(t *testing.T) {
	t.Parallel()

	hub := dispatch.NewHub("presenters")
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)

	a := dialHub(t, srv)
	b := dialHub(t, srv)
	waitConnected(t, hub, 2)

	msg := dispatch.NewMessage("sess-1", lambda, time.Now())
	if err := hub.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	for i, conn := range []*websocket.Conn{a, b} {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		var got dispatch.Message
		err := wsjson.Read(ctx, conn, &got)
		cancel()
		if err != nil {
			t.Fatalf("presenter %d: Read: %v", i, err)
		}
		if got.ID != msg.ID || got.Presentation.Filename != "lambda.pptx" {
			t.Errorf("presenter %d got %+v", i, got)
		}
	}
}

func TestHub_ForgetsDisconnectedPresenters(t *testing.T) {
	t.Parallel()

	hub := dispatch.NewHub("presenters")
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)

	conn := dialHub(t, srv)
	waitConnected(t, hub, 1)

	conn.Close(websocket.StatusNormalClosure, "bye")
	waitConnected(t, hub, 0)

	if err := hub.Send(context.Background(), dispatch.Message{ID: "x"}); !errors.Is(err, dispatch.ErrNoListeners) {
		t.Errorf("Send err = %v, want ErrNoListeners", err)
	}
}

func TestHub_CloseDisconnects(t *testing.T) {
	t.Parallel()

	hub := dispatch.NewHub("presenters")
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	conn := dialHub(t, srv)
	waitConnected(t, hub, 1)

	closed := make(chan struct{})
	go func() {
		hub.Close()
		close(closed)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusGoingAway {
		t.Errorf("Read err = %v, want going-away close", err)
	}
	<-closed
	if hub.Connected() != 0 {
		t.Errorf("Connected() = %d after Close", hub.Connected())
	}
}
