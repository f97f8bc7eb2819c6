// Package main provides a hook that appends lane events to a log file.
// The executor runs hooks with their own directory as the working
// directory, so departures.log ends up next to the hook binary.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
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

const logFile = "departures.log"

func main() {
	// Read notification from stdin
	var note Notification
	if err := json.NewDecoder(os.Stdin).Decode(&note); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode notification: %v", err))
		return
	}

	if err := appendEntry(note); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to write log entry: %v", err))
		return
	}

	writeSuccessResponse()
}

// appendEntry writes a single timestamped line describing the event.
func appendEntry(note Notification) error {
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	line := fmt.Sprintf("%s run=%s frame=%d event=%s offset=%.2fm curvature=%.0fm %s\n",
		time.Now().Format(time.RFC3339), note.RunID, note.FrameIndex,
		note.Event, note.Offset, note.Curvature, note.Detail)
	_, err = f.WriteString(line)
	return err
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
