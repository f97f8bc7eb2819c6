package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestFileSource_ReadFrame_NotOpened(t *testing.T) {
	src := NewFileSource("nonexistent.mp4")

	_, err := src.ReadFrame()
	if !errors.Is(err, ErrSourceNotOpen) {
		t.Errorf("expected ErrSourceNotOpen, got %v", err)
	}
}

func TestFileSource_Open_MissingFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	src := NewFileSource("/nonexistent/path/video.mp4")

	if err := src.Open(); err == nil {
		src.Close()
		t.Error("expected an error opening a missing video file")
	}
	if src.IsOpen() {
		t.Error("expected source to stay closed after a failed open")
	}
}

func TestFileSource_Close_NotOpened(t *testing.T) {
	src := NewFileSource("nonexistent.mp4")

	if err := src.Close(); err != nil {
		t.Errorf("expected Close on an unopened source to return nil, got %v", err)
	}
}

func TestCameraSource_ReadFrame_NotOpened(t *testing.T) {
	src := NewCameraSource(0)

	_, err := src.ReadFrame()
	if !errors.Is(err, ErrSourceNotOpen) {
		t.Errorf("expected ErrSourceNotOpen, got %v", err)
	}
	if src.IsOpen() {
		t.Error("expected camera source to report closed")
	}
}

func TestMockSource_Playback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame1 := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	src := NewMockSource([]*gocv.Mat{&frame1, &frame2}, false)

	// Reads before Open must fail
	if _, err := src.ReadFrame(); !errors.Is(err, ErrSourceNotOpen) {
		t.Errorf("expected ErrSourceNotOpen before Open, got %v", err)
	}

	if err := src.Open(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w, h := src.FrameSize()
	if w != 1280 || h != 720 {
		t.Errorf("expected frame size 1280x720, got %dx%d", w, h)
	}

	// Both frames play back, then the stream ends
	for i := 0; i < 2; i++ {
		mat, err := src.ReadFrame()
		if err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}
		mat.Close()
	}
	if _, err := src.ReadFrame(); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("expected ErrEndOfStream after the last frame, got %v", err)
	}

	// Rewind restarts playback
	src.Rewind()
	mat, err := src.ReadFrame()
	if err != nil {
		t.Fatalf("unexpected error after rewind: %v", err)
	}
	mat.Close()
}

func TestMockSource_Loop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	src := NewMockSource([]*gocv.Mat{&frame}, true)
	if err := src.Open(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A looping source never ends
	for i := 0; i < 5; i++ {
		mat, err := src.ReadFrame()
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		mat.Close()
	}
}

func TestMockSource_Empty(t *testing.T) {
	src := NewMockSource(nil, true)
	if err := src.Open(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := src.ReadFrame(); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("expected ErrEndOfStream from an empty source, got %v", err)
	}
	if w, h := src.FrameSize(); w != 0 || h != 0 {
		t.Errorf("expected zero frame size, got %dx%d", w, h)
	}
}
