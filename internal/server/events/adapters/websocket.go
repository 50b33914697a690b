// Package adapters connects the event broker to the realtime transports.
package adapters

import (
	"github.com/agentstation/motherdb/internal/server/events"
	ws "github.com/agentstation/motherdb/internal/server/websocket"
)

// WebSocketSubscriber adapts the WebSocket hub to the Subscriber interface.
type WebSocketSubscriber struct {
	hub *ws.Hub
}

// NewWebSocketSubscriber creates a new WebSocket subscriber.
func NewWebSocketSubscriber(hub *ws.Hub) *WebSocketSubscriber {
	return &WebSocketSubscriber{hub: hub}
}

// Send delivers an event to the WebSocket clients following its equipment type.
func (w *WebSocketSubscriber) Send(event events.Event) error {
	w.hub.Broadcast(ws.Message{
		Type:            string(event.Type),
		Timestamp:       event.Timestamp,
		EquipmentTypeID: event.EquipmentTypeID,
		Data:            event.Data,
	})
	return nil
}

// Close is a no-op; the hub manages its own lifecycle.
func (w *WebSocketSubscriber) Close() error {
	return nil
}
