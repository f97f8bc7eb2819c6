package app

import (
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/rekha/internal/capture"
	"github.com/ayusman/rekha/internal/config"
	"github.com/ayusman/rekha/internal/store"
	"github.com/ayusman/rekha/internal/testutil"
	"github.com/ayusman/rekha/internal/vision"
)

// waitForFrame polls the published telemetry until the pipeline reaches at
// least the given frame index.
func waitForFrame(t *testing.T, a *App, index int) Sample {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for {
		if sample, ok := a.LatestSample(); ok && sample.FrameIndex >= index {
			return sample
		}
		if time.Now().After(deadline) {
			t.Fatalf("pipeline did not reach frame %d within 3s", index)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestApp_LiveLoop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	s := newTestStore(t)
	profile := config.Default()

	a := New(Config{Store: s, Profile: profile})
	defer a.Stop()

	frames := testutil.RoadSequence(2, 1280, 720, profile.Vision.TransformSrc)
	defer testutil.CloseAll(frames)
	a.SetSource(capture.NewMockSource(frames, true))
	a.SetMasker(vision.NewThresholdMasker(profile.Vision))

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// The looping source keeps feeding frames
	waitForFrame(t, a, 1)

	// Starting twice is a no-op
	if err := a.Start(); err != nil {
		t.Errorf("second Start() error = %v", err)
	}

	// Pausing stops frame processing
	a.SetEnabled(false)
	time.Sleep(150 * time.Millisecond)
	paused, _ := a.LatestSample()
	time.Sleep(150 * time.Millisecond)
	if current, _ := a.LatestSample(); current.FrameIndex != paused.FrameIndex {
		t.Errorf("expected processing to pause, frame advanced from %d to %d",
			paused.FrameIndex, current.FrameIndex)
	}

	// Resuming picks the loop back up
	a.SetEnabled(true)
	waitForFrame(t, a, paused.FrameIndex+1)

	if a.LatestFrameJPEG() == nil {
		t.Error("expected an annotated frame to be published")
	}

	runID := a.RunID()
	a.Stop()

	run, err := s.Runs().GetByID(runID)
	if err != nil {
		t.Fatalf("run not recorded: %v", err)
	}
	if !run.Finished() {
		t.Error("expected run to be finished after Stop")
	}
	if run.Frames == 0 {
		t.Error("expected run to record processed frames")
	}
}

func TestApp_SceneCutColdRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	s := newTestStore(t)
	profile := config.Default()

	a := New(Config{Store: s, Profile: profile, VideoPath: "cut.mp4"})
	defer a.Stop()

	// Two road frames, then a cut to a white frame
	frames := testutil.RoadSequence(2, 1280, 720, profile.Vision.TransformSrc)
	white := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 720, 1280, gocv.MatTypeCV8UC3)
	frames = append(frames, &white)
	defer testutil.CloseAll(frames)

	a.SetSource(capture.NewMockSource(frames, false))
	a.SetMasker(vision.NewThresholdMasker(profile.Vision))

	if err := a.ProcessVideo(); err != nil {
		t.Fatalf("ProcessVideo() error = %v", err)
	}

	events, err := s.Events().ListByRun(a.RunID())
	if err != nil {
		t.Fatalf("list events error = %v", err)
	}
	var cut *store.Event
	for _, e := range events {
		if e.Type == store.EventSceneCut {
			cut = e
			break
		}
	}
	if cut == nil {
		t.Fatal("expected a scene_cut event")
	}
	if cut.FrameIndex != 2 {
		t.Errorf("scene_cut frame = %d, want 2", cut.FrameIndex)
	}

	// The cut resets warm tracking, so the frame after it starts cold
	rows, err := s.Frames().ListByRun(a.RunID())
	if err != nil {
		t.Fatalf("list frames error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(frames) = %d, want 3", len(rows))
	}
	if rows[2].Strategy != "cold_start" {
		t.Errorf("frame 2 strategy = %s, want cold_start", rows[2].Strategy)
	}
}
