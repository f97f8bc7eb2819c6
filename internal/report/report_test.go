package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/rekha/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "rekha-report-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// seedRun inserts a run with a handful of frames and one departure event.
func seedRun(t *testing.T, s *store.Store) string {
	t.Helper()

	run := &store.Run{ID: "run-report", Source: "highway.mp4"}
	if err := s.Runs().Create(run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	offsets := []float64{0.05, 0.12, 0.31, 0.55, 0.82, 0.91, 0.64, 0.22, 0.08, 0.02}
	for i, off := range offsets {
		f := &store.Frame{
			RunID:      run.ID,
			Index:      i,
			Strategy:   "warm_start",
			LeftValid:  true,
			RightValid: i != 7,
			Curvature:  900 + 10*float64(i),
			Offset:     off,
		}
		if i == 0 {
			f.Strategy = "cold_start"
		}
		if err := s.Frames().Insert(f); err != nil {
			t.Fatalf("failed to insert frame: %v", err)
		}
	}

	event := &store.Event{RunID: run.ID, FrameIndex: 4, Type: store.EventLaneDeparture, Detail: "0.82m right of lane center"}
	if err := s.Events().Insert(event); err != nil {
		t.Fatalf("failed to insert event: %v", err)
	}

	return run.ID
}

func TestGenerator_Generate(t *testing.T) {
	s := newTestStore(t)
	runID := seedRun(t, s)

	outDir := filepath.Join(t.TempDir(), "charts")
	g := New(s, 0.7)

	written, err := g.Generate(runID, outDir)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(written) != 3 {
		t.Fatalf("expected 3 chart files, got %d", len(written))
	}

	for _, name := range []string{"curvature.png", "offset.png", "validity.png"} {
		path := filepath.Join(outDir, name)
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("expected %s to be non-empty", name)
		}
	}
}

func TestGenerator_Generate_NoThreshold(t *testing.T) {
	s := newTestStore(t)
	runID := seedRun(t, s)

	g := New(s, 0)
	written, err := g.Generate(runID, t.TempDir())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(written) != 3 {
		t.Errorf("expected 3 chart files, got %d", len(written))
	}
}

func TestGenerator_Generate_RunNotFound(t *testing.T) {
	s := newTestStore(t)

	g := New(s, 0.7)
	if _, err := g.Generate("no-such-run", t.TempDir()); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestGenerator_Generate_NoFrames(t *testing.T) {
	s := newTestStore(t)

	run := &store.Run{ID: "run-empty", Source: "empty.mp4"}
	if err := s.Runs().Create(run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	g := New(s, 0.7)
	if _, err := g.Generate(run.ID, t.TempDir()); err == nil {
		t.Error("expected error for run with no frames")
	}
}
