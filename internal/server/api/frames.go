package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/rekha/internal/store"
)

// FramesHandler handles HTTP requests for a run's frame measurements.
type FramesHandler struct {
	store *store.Store
}

// NewFramesHandler creates a new FramesHandler with the given store.
func NewFramesHandler(s *store.Store) *FramesHandler {
	return &FramesHandler{store: s}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/runs/{id}/frames
func (h *FramesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Parse run ID from path: /api/runs/{id}/frames
	path := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[1] != "frames" {
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

type frameResponse struct {
	Index      int     `json:"index"`
	Strategy   string  `json:"strategy"`
	LeftValid  bool    `json:"left_valid"`
	RightValid bool    `json:"right_valid"`
	Curvature  float64 `json:"curvature"`
	Offset     float64 `json:"offset_m"`
	CreatedAt  string  `json:"created_at"`
}

type listFramesResponse struct {
	Frames []frameResponse `json:"frames"`
}

// list handles GET /api/runs/{id}/frames
func (h *FramesHandler) list(w http.ResponseWriter, r *http.Request, runID string) {
	// Verify the run exists
	if _, err := h.store.Runs().GetByID(runID); err != nil {
		if err == store.ErrNotFound {
			writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify run")
		return
	}

	frames, err := h.store.Frames().ListByRun(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list frames")
		return
	}

	response := listFramesResponse{
		Frames: make([]frameResponse, 0, len(frames)),
	}

	for _, f := range frames {
		response.Frames = append(response.Frames, frameResponse{
			Index:      f.Index,
			Strategy:   f.Strategy,
			LeftValid:  f.LeftValid,
			RightValid: f.RightValid,
			Curvature:  f.Curvature,
			Offset:     f.Offset,
			CreatedAt:  f.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
