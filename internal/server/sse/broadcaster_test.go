package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

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

// readEvent reads lines up to the blank line that ends one SSE event.
func readEvent(t *testing.T, r *bufio.Reader) []string {
	t.Helper()
	var lines []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		if line == "" {
			return lines
		}
		lines = append(lines, line)
	}
}

func TestBroadcaster_StreamFiltersByEquipmentType(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	srv := httptest.NewServer(b)
	defer srv.Close()

	reqCtx, reqCancel := context.WithCancel(context.Background())
	defer reqCancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, srv.URL+"?equipment_type=ETCH-300", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %s", ct)
	}

	reader := bufio.NewReader(resp.Body)
	first := readEvent(t, reader)
	if len(first) == 0 || first[0] != "event: connected" {
		t.Fatalf("expected connected event, got %v", first)
	}

	waitFor(t, func() bool { return b.ClientCount() == 1 })

	b.Broadcast(Event{Event: "baseline.entry_added", EquipmentTypeID: "CVD-200", Data: "skipped"})
	b.Broadcast(Event{Event: "baseline.entry_added", ID: "7", EquipmentTypeID: "ETCH-300", Data: map[string]string{"parameter": "Temp"}})

	got := readEvent(t, reader)
	want := []string{"event: baseline.entry_added", "id: 7", `data: {"parameter":"Temp"}`}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBroadcaster_Shutdown(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	b.newClients <- &client{events: make(chan Event, 1)}
	waitFor(t, func() bool { return b.ClientCount() == 1 })

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcaster did not stop after cancel")
	}
	if b.ClientCount() != 0 {
		t.Errorf("expected no clients after shutdown, got %d", b.ClientCount())
	}
}

func TestBroadcaster_BroadcastNeverBlocks(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			b.Broadcast(Event{Data: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked without a running broadcaster")
	}
}
