package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockSource plays back a fixed frame sequence for testing.
type MockSource struct {
	frames  []*gocv.Mat
	fps     float64
	index   int
	loop    bool
	mu      sync.Mutex
	running bool
}

// NewMockSource creates a MockSource over the given frames. When loop is
// false the source reports ErrEndOfStream after the last frame, like a file.
func NewMockSource(frames []*gocv.Mat, loop bool) *MockSource {
	return &MockSource{
		frames: frames,
		fps:    25,
		loop:   loop,
	}
}

func (s *MockSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.index = 0
	return nil
}

func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

func (s *MockSource) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrSourceNotOpen
	}
	if s.index >= len(s.frames) {
		if !s.loop || len(s.frames) == 0 {
			return nil, ErrEndOfStream
		}
		s.index = 0
	}

	// Clone so the caller can close its copy freely
	frame := s.frames[s.index].Clone()
	s.index++
	return &frame, nil
}

func (s *MockSource) FPS() float64 { return s.fps }

func (s *MockSource) FrameSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frames) == 0 {
		return 0, 0
	}
	return s.frames[0].Cols(), s.frames[0].Rows()
}

func (s *MockSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Rewind restarts playback from the first frame.
func (s *MockSource) Rewind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = 0
}
