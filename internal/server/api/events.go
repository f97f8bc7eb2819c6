package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/rekha/internal/store"
)

// EventsHandler handles HTTP requests for a run's events.
type EventsHandler struct {
	store *store.Store
}

// NewEventsHandler creates a new EventsHandler with the given store.
func NewEventsHandler(s *store.Store) *EventsHandler {
	return &EventsHandler{store: s}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/runs/{id}/events
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Parse run ID from path: /api/runs/{id}/events
	path := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[1] != "events" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	runID := parts[0]

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.list(w, r, runID)
}

// Response types

type eventResponse struct {
	FrameIndex int    `json:"frame_index"`
	Type       string `json:"type"`
	Detail     string `json:"detail"`
	CreatedAt  string `json:"created_at"`
}

type listEventsResponse struct {
	Events []eventResponse `json:"events"`
}

// list handles GET /api/runs/{id}/events
func (h *EventsHandler) list(w http.ResponseWriter, r *http.Request, runID string) {
	// Verify the run exists
	if _, err := h.store.Runs().GetByID(runID); err != nil {
		if err == store.ErrNotFound {
			writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify run")
		return
	}

	events, err := h.store.Events().ListByRun(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	response := listEventsResponse{
		Events: make([]eventResponse, 0, len(events)),
	}

	for _, e := range events {
		response.Events = append(response.Events, eventResponse{
			FrameIndex: e.FrameIndex,
			Type:       string(e.Type),
			Detail:     e.Detail,
			CreatedAt:  e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
