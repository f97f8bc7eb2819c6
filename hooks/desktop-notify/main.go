// Package main provides a hook that raises a desktop notification when
// the tracker reports a lane event. It uses notify-send on Linux and
// osascript on macOS.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Notification represents the input from the hook executor.
type Notification struct {
	Event      string  `json:"event"`
	RunID      string  `json:"run_id"`
	FrameIndex int     `json:"frame_index"`
	Curvature  float64 `json:"curvature"`
	Offset     float64 `json:"offset_m"`
	Detail     string  `json:"detail,omitempty"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// titles maps event names to notification titles.
var titles = map[string]string{
	"lane_departure":  "Lane departure",
	"lane_lost":       "Lane lost",
	"lane_reacquired": "Lane reacquired",
	"scene_cut":       "Scene cut",
}

func main() {
	// Read notification from stdin
	var note Notification
	if err := json.NewDecoder(os.Stdin).Decode(&note); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode notification: %v", err))
		return
	}

	title, ok := titles[note.Event]
	if !ok {
		title = note.Event
	}

	body := fmt.Sprintf("frame %d, offset %.2fm", note.FrameIndex, note.Offset)
	if note.Detail != "" {
		body = note.Detail
	}

	if err := notify(title, body); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to send notification: %v", err))
		return
	}

	writeSuccessResponse()
}

// notify raises a desktop notification using the platform's native tool.
func notify(title, body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, body, title)
		cmd = exec.Command("osascript", "-e", script)
	case "linux":
		cmd = exec.Command("notify-send", "--urgency=critical", title, body)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	resp := Response{
		Success: true,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
