package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// serve starts a running hub behind an httptest server and returns the
// hub plus the ws:// URL.
func serve(t *testing.T) (*Hub, string) {
	t.Helper()
	logger := zerolog.Nop()
	hub := NewHub(&logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient("test", r.URL.Query().Get("equipment_type"), hub, conn)
		hub.Register(c)
		go c.WritePump()
		go c.ReadPump()
	}))
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestHub_DeliversMatchingMessages(t *testing.T) {
	hub, url := serve(t)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?equipment_type=ETCH-300", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Broadcast(Message{Type: "baseline.entry_added", EquipmentTypeID: "CVD-200", Data: "skipped"})
	hub.Broadcast(Message{Type: "baseline.entry_added", EquipmentTypeID: "ETCH-300", Data: "Temp"})
	hub.Broadcast(Message{Type: "qc.completed", Data: "qc-1"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first, second Message
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("read: %v", err)
	}

	if first.EquipmentTypeID != "ETCH-300" || first.Data != "Temp" {
		t.Errorf("expected the ETCH-300 entry first, got %+v", first)
	}
	if second.Type != "qc.completed" {
		t.Errorf("expected unscoped qc event, got %+v", second)
	}
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub, url := serve(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	waitFor(t, func() bool { return hub.ClientCount() == 0 })
}

func TestHub_Shutdown(t *testing.T) {
	logger := zerolog.Nop()
	hub := NewHub(&logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	hub.Register(&Client{id: "idle", hub: hub, send: make(chan Message, 1)})
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after cancel")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("expected no clients after shutdown, got %d", hub.ClientCount())
	}
}
