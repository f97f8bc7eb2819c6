package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/rekha/internal/store"
)

func TestAPI_RunWorkflow(t *testing.T) {
	// Setup: runs are created by the pipeline, so seed one through the store.
	tmpDir := t.TempDir()
	s, _ := store.New(filepath.Join(tmpDir, "test.db"))
	defer s.Close()

	run := &store.Run{ID: "run-workflow", Source: "dashcam.mp4"}
	if err := s.Runs().Create(run); err != nil {
		t.Fatalf("failed to seed run: %v", err)
	}
	frames := []*store.Frame{
		{RunID: run.ID, Index: 0, Strategy: "cold_start", LeftValid: true, RightValid: true, Curvature: 884.2, Offset: 0.11},
		{RunID: run.ID, Index: 1, Strategy: "warm_start", LeftValid: true, RightValid: false, Curvature: 879.6, Offset: 0.84},
	}
	for _, f := range frames {
		if err := s.Frames().Insert(f); err != nil {
			t.Fatalf("failed to seed frame: %v", err)
		}
	}
	event := &store.Event{RunID: run.ID, FrameIndex: 1, Type: store.EventLaneDeparture, Detail: "0.84m right of lane center"}
	if err := s.Events().Insert(event); err != nil {
		t.Fatalf("failed to seed event: %v", err)
	}
	if err := s.Runs().Finish(run.ID, len(frames)); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. List runs
	resp, err := client.Get(ts.URL + "/api/runs")
	if err != nil {
		t.Fatalf("GET /api/runs error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/runs status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var listed struct {
		Runs []struct {
			ID     string `json:"id"`
			Source string `json:"source"`
			Frames int    `json:"frames"`
		} `json:"runs"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(listed.Runs))
	}
	if listed.Runs[0].Source != "dashcam.mp4" {
		t.Errorf("run source = %s, want dashcam.mp4", listed.Runs[0].Source)
	}

	// 2. Get single run
	resp, _ = client.Get(ts.URL + "/api/runs/" + run.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/runs/%s status = %d, want %d", run.ID, resp.StatusCode, http.StatusOK)
	}

	var got struct {
		ID         string `json:"id"`
		FinishedAt string `json:"finished_at"`
		Frames     int    `json:"frames"`
	}
	json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()

	if got.Frames != 2 {
		t.Errorf("run frames = %d, want 2", got.Frames)
	}
	if got.FinishedAt == "" {
		t.Error("expected finished_at to be set")
	}

	// 3. Get the run's frames
	resp, _ = client.Get(ts.URL + "/api/runs/" + run.ID + "/frames")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET frames status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var gotFrames struct {
		Frames []struct {
			Index    int    `json:"index"`
			Strategy string `json:"strategy"`
		} `json:"frames"`
	}
	json.NewDecoder(resp.Body).Decode(&gotFrames)
	resp.Body.Close()

	if len(gotFrames.Frames) != 2 {
		t.Fatalf("len(frames) = %d, want 2", len(gotFrames.Frames))
	}
	if gotFrames.Frames[1].Strategy != "warm_start" {
		t.Errorf("frame 1 strategy = %s, want warm_start", gotFrames.Frames[1].Strategy)
	}

	// 4. Get the run's events
	resp, _ = client.Get(ts.URL + "/api/runs/" + run.ID + "/events")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET events status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var gotEvents struct {
		Events []struct {
			FrameIndex int    `json:"frame_index"`
			Type       string `json:"type"`
		} `json:"events"`
	}
	json.NewDecoder(resp.Body).Decode(&gotEvents)
	resp.Body.Close()

	if len(gotEvents.Events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(gotEvents.Events))
	}
	if gotEvents.Events[0].Type != "lane_departure" {
		t.Errorf("event type = %s, want lane_departure", gotEvents.Events[0].Type)
	}

	// 5. Delete the run
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/runs/"+run.ID, nil)
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()

	// 6. Verify deleted
	resp, _ = client.Get(ts.URL + "/api/runs/" + run.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}
