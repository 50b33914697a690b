// Package events fans baseline and QC notifications out to the realtime
// transports (WebSocket, SSE).
//
// Client hooks publish into a single Broker; each transport registers as a
// Subscriber and filters by equipment type on its own connections.
package events

import "time"

// EventType represents the type of a realtime event.
type EventType string

// Event types.
const (
	// Baseline events (from client entry hooks).
	EntryAdded   EventType = "baseline.entry_added"
	EntryUpdated EventType = "baseline.entry_updated"

	// QC events (from the client QC hook).
	QCCompleted EventType = "qc.completed"

	// Client events (from transport layers).
	ClientConnected EventType = "client.connected"
)

// Event is one notification with its type, time and payload.
type Event struct {
	Type            EventType `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	EquipmentTypeID string    `json:"equipment_type_id,omitempty"`
	Data            any       `json:"data"`
}

// Matches reports whether a subscriber filtering on equipmentTypeID should
// receive the event. An empty filter receives everything, and events that
// are not tied to an equipment type reach every subscriber.
func (e Event) Matches(equipmentTypeID string) bool {
	return equipmentTypeID == "" || e.EquipmentTypeID == "" || e.EquipmentTypeID == equipmentTypeID
}
