package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/agentstation/motherdb/internal/server/events"
	ws "github.com/agentstation/motherdb/internal/server/websocket"
)

// HandleWebSocket handles GET /api/v1/updates/ws.
// Query: equipment_type=<id> limits baseline events to that equipment type.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	equipmentType := r.URL.Query().Get("equipment_type")
	client := ws.NewClient(uuid.NewString(), equipmentType, h.wsHub, conn)
	h.wsHub.Register(client)

	h.broker.Publish(events.ClientConnected, equipmentType, map[string]any{
		"client_id": client.ID(),
		"transport": "websocket",
	})

	go client.WritePump()
	go client.ReadPump()
}

// HandleSSE handles GET /api/v1/updates/stream.
// Query: equipment_type=<id> limits baseline events to that equipment type.
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.sseBroadcaster.ServeHTTP(w, r)
}
