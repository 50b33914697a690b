// Package sse streams realtime baseline and QC events as Server-Sent Events.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event represents an SSE event.
type Event struct {
	Event string `json:"event,omitempty"` // Event type (optional)
	ID    string `json:"id,omitempty"`    // Event ID (optional)
	Data  any    `json:"data"`            // Event data

	// EquipmentTypeID scopes the event; clients subscribed to another
	// equipment type skip it. Empty reaches everyone.
	EquipmentTypeID string `json:"-"`
}

// client is one open stream and its equipment type filter.
type client struct {
	events        chan Event
	equipmentType string
}

// Broadcaster manages Server-Sent Events connections.
type Broadcaster struct {
	clients    map[*client]bool
	newClients chan *client
	closed     chan *client
	events     chan Event
	mu         sync.RWMutex
	logger     *zerolog.Logger
}

// NewBroadcaster creates a new SSE broadcaster.
func NewBroadcaster(logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		clients:    make(map[*client]bool),
		newClients: make(chan *client, 16),
		closed:     make(chan *client, 16),
		events:     make(chan Event, 256),
		logger:     logger,
	}
}

// Run starts the broadcaster's main loop until ctx is cancelled.
// Should be called in a goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for c := range b.clients {
				close(c.events)
			}
			b.clients = make(map[*client]bool)
			b.mu.Unlock()
			b.logger.Info().Msg("SSE broadcaster shut down")
			return

		case c := <-b.newClients:
			b.mu.Lock()
			b.clients[c] = true
			n := len(b.clients)
			b.mu.Unlock()
			b.logger.Info().
				Str("equipment_type", c.equipmentType).
				Int("total_clients", n).
				Msg("SSE client connected")

		case c := <-b.closed:
			b.mu.Lock()
			if b.clients[c] {
				delete(b.clients, c)
				close(c.events)
			}
			n := len(b.clients)
			b.mu.Unlock()
			b.logger.Info().Int("total_clients", n).Msg("SSE client disconnected")

		case event := <-b.events:
			b.mu.RLock()
			for c := range b.clients {
				if !matches(event, c.equipmentType) {
					continue
				}
				select {
				case c.events <- event:
				default:
					b.logger.Warn().Msg("SSE client buffer full, event skipped")
				}
			}
			b.mu.RUnlock()
		}
	}
}

func matches(e Event, equipmentType string) bool {
	return equipmentType == "" || e.EquipmentTypeID == "" || e.EquipmentTypeID == equipmentType
}

// Broadcast sends an event to all matching SSE clients.
func (b *Broadcaster) Broadcast(event Event) {
	select {
	case b.events <- event:
	default:
		b.logger.Warn().Msg("SSE broadcast channel full, event dropped")
	}
}

// ClientCount returns the number of connected SSE clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ServeHTTP streams events to one client. The optional equipment_type
// query parameter restricts the stream to that equipment type.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c := &client{
		events:        make(chan Event, 64),
		equipmentType: r.URL.Query().Get("equipment_type"),
	}
	b.newClients <- c
	defer func() {
		b.closed <- c
	}()

	b.writeEvent(w, flusher, Event{
		Event: "connected",
		Data: map[string]any{
			"message":        "Connected to motherdb updates stream",
			"equipment_type": c.equipmentType,
			"timestamp":      time.Now(),
		},
	})

	for {
		select {
		case event, ok := <-c.events:
			if !ok {
				return
			}
			b.writeEvent(w, flusher, event)

		case <-r.Context().Done():
			return
		}
	}
}

// writeEvent writes an SSE event to the response writer.
func (b *Broadcaster) writeEvent(w http.ResponseWriter, flusher http.Flusher, event Event) {
	if event.Event != "" {
		_, _ = fmt.Fprintf(w, "event: %s\n", event.Event)
	}
	if event.ID != "" {
		_, _ = fmt.Fprintf(w, "id: %s\n", event.ID)
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to marshal SSE event data")
		return
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
