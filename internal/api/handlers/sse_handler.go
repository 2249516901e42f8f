package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/providers"
)

// SSEHandler streams clinic events to connected clients over Server-Sent
// Events. The portal uses it to refresh calendars and stock views without
// polling.
type SSEHandler struct {
	eventBus providers.EventBus
	clients  map[string]map[chan *entities.ClinicEvent]bool
	mu       sync.RWMutex
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		eventBus: eventBus,
		clients:  make(map[string]map[chan *entities.ClinicEvent]bool),
	}
}

// StreamAppointments handles GET /api/stream/appointments, the clinic-wide
// appointment lifecycle stream
func (h *SSEHandler) StreamAppointments(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, providers.EventChannelAppointments, map[string]interface{}{
		"stream": "appointments",
	})
}

// StreamBranchAppointments handles GET /api/stream/branches/{id}/appointments,
// scoped to one branch
func (h *SSEHandler) StreamBranchAppointments(w http.ResponseWriter, r *http.Request) {
	branchID := r.PathValue("id")
	if branchID == "" {
		respondWithError(w, http.StatusBadRequest, "branch ID is required")
		return
	}
	h.stream(w, r, providers.GetBranchChannel(branchID), map[string]interface{}{
		"stream":    "branch_appointments",
		"branch_id": branchID,
	})
}

// StreamStock handles GET /api/stream/stock, the inventory change stream
func (h *SSEHandler) StreamStock(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, providers.EventChannelStock, map[string]interface{}{
		"stream": "stock",
	})
}

func (h *SSEHandler) stream(w http.ResponseWriter, r *http.Request, channel string, hello map[string]interface{}) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	clientChan := make(chan *entities.ClinicEvent, 10)
	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("failed to subscribe")
		return
	}

	hello["timestamp"] = time.Now()
	h.sendEvent(w, "connected", hello)
	flusher.Flush()

	go h.forwardEvents(r.Context(), eventChan, clientChan)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("channel", channel).Msg("SSE client disconnected")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{"timestamp": time.Now()})
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

// forwardEvents forwards events from the bus to a client channel,
// dropping when the client falls behind
func (h *SSEHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.ClinicEvent, clientChan chan<- *entities.ClinicEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			select {
			case clientChan <- event:
			default:
			}
		}
	}
}

func (h *SSEHandler) registerClient(channel string, clientChan chan *entities.ClinicEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.ClinicEvent]bool)
	}
	h.clients[channel][clientChan] = true
}

func (h *SSEHandler) unregisterClient(channel string, clientChan chan *entities.ClinicEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[channel]; exists {
		delete(clients, clientChan)
		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal SSE event")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected clients, exposed on the
// stats endpoint
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}

// Stats handles GET /api/stream/stats
func (h *SSEHandler) Stats(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	channels := make(map[string]int, len(h.clients))
	for channel, clients := range h.clients {
		channels[channel] = len(clients)
	}
	h.mu.RUnlock()

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"connected_clients": h.GetClientCount(),
		"channels":          channels,
	})
}
