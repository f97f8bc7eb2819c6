package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// TelemetryHandler broadcasts per-frame tracking samples via WebSocket.
type TelemetryHandler struct {
	pipeline Telemetry
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
}

// NewTelemetryHandler creates a new TelemetryHandler over the given pipeline.
func NewTelemetryHandler(pipeline Telemetry) *TelemetryHandler {
	h := &TelemetryHandler{
		pipeline: pipeline,
		clients:  make(map[*websocket.Conn]bool),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *TelemetryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// broadcast sends each new tracking sample to all connected clients.
func (h *TelemetryHandler) broadcast() {
	ticker := time.NewTicker(66 * time.Millisecond) // ~15 FPS
	defer ticker.Stop()

	lastRun := ""
	lastIndex := -1

	for range ticker.C {
		h.mu.RLock()
		if len(h.clients) == 0 {
			h.mu.RUnlock()
			continue
		}
		h.mu.RUnlock()

		sample, ok := h.pipeline.LatestSample()
		if !ok {
			continue
		}
		// Don't resend a frame the clients already have
		if sample.RunID == lastRun && sample.FrameIndex == lastIndex {
			continue
		}
		lastRun = sample.RunID
		lastIndex = sample.FrameIndex

		msg, _ := json.Marshal(sample)

		h.mu.RLock()
		for conn := range h.clients {
			conn.WriteMessage(websocket.TextMessage, msg)
		}
		h.mu.RUnlock()
	}
}
