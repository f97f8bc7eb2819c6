// Package alert fans tracking events out to external hook programs, so a
// dashcam rig can buzz a speaker or flash a light without the pipeline
// knowing about either.
package alert

import "encoding/json"

// Manifest describes a hook's metadata and subscriptions.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Executable  string `json:"executable"`
	// Events lists the event types the hook wants. An empty list
	// subscribes to everything.
	Events []string `json:"events"`
}

// Notification is the JSON payload sent to a hook on stdin.
type Notification struct {
	Event      string  `json:"event"`
	RunID      string  `json:"run_id"`
	FrameIndex int     `json:"frame_index"`
	Curvature  float64 `json:"curvature"`
	Offset     float64 `json:"offset_m"`
	Detail     string  `json:"detail,omitempty"`
}

// Response represents the response from a hook execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook represents a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Subscribed reports whether the hook wants the given event type.
func (h *Hook) Subscribed(event string) bool {
	if len(h.Manifest.Events) == 0 {
		return true
	}
	for _, e := range h.Manifest.Events {
		if e == event {
			return true
		}
	}
	return false
}
