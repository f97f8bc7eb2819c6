// Package capture provides video frame sources, camera calibration and
// scene-cut detection using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// ErrSourceNotOpen is returned when reading from a source that is not open.
var ErrSourceNotOpen = errors.New("source is not open")

// ErrEndOfStream is returned by file sources once the last frame has been read.
var ErrEndOfStream = errors.New("end of stream")

// Source defines the interface for video frame sources: files, live cameras
// and test playback.
type Source interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller owns the returned Mat
	// and must close it. File sources return ErrEndOfStream when exhausted.
	ReadFrame() (*gocv.Mat, error)
	FPS() float64
	FrameSize() (width, height int)
	IsOpen() bool
}

// fileSource reads frames from a video file.
type fileSource struct {
	path    string
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
}

// NewFileSource creates a Source that plays the video file at path.
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

// Open opens the video file for reading.
func (s *fileSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	capture, err := gocv.VideoCaptureFile(s.path)
	if err != nil {
		return fmt.Errorf("open video %s: %w", s.path, err)
	}

	s.capture = capture
	s.running = true
	return nil
}

// Close closes the video file and releases resources.
func (s *fileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.capture == nil {
		s.running = false
		return nil
	}

	err := s.capture.Close()
	s.capture = nil
	s.running = false
	return err
}

// ReadFrame reads the next frame from the file.
// The caller is responsible for closing the returned Mat.
func (s *fileSource) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.capture == nil {
		return nil, ErrSourceNotOpen
	}

	mat := gocv.NewMat()
	if ok := s.capture.Read(&mat); !ok {
		mat.Close()
		return nil, ErrEndOfStream
	}
	if mat.Empty() {
		mat.Close()
		return nil, ErrEndOfStream
	}
	return &mat, nil
}

// FPS returns the frame rate declared by the video file.
func (s *fileSource) FPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return 0
	}
	return s.capture.Get(gocv.VideoCaptureFPS)
}

// FrameSize returns the frame dimensions declared by the video file.
func (s *fileSource) FrameSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return 0, 0
	}
	return int(s.capture.Get(gocv.VideoCaptureFrameWidth)),
		int(s.capture.Get(gocv.VideoCaptureFrameHeight))
}

// IsOpen returns true if the file is currently open.
func (s *fileSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// cameraSource reads frames from a live camera device.
type cameraSource struct {
	deviceID int
	capture  *gocv.VideoCapture
	mu       sync.Mutex
	running  bool
}

// NewCameraSource creates a Source that reads from the camera device.
func NewCameraSource(deviceID int) Source {
	return &cameraSource{deviceID: deviceID}
}

// Open opens the camera device.
func (s *cameraSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(s.deviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", s.deviceID, err)
	}

	s.capture = capture
	s.running = true
	return nil
}

// Close closes the camera and releases resources.
func (s *cameraSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.capture == nil {
		s.running = false
		return nil
	}

	err := s.capture.Close()
	s.capture = nil
	s.running = false
	return err
}

// ReadFrame reads a single frame from the camera.
// The caller is responsible for closing the returned Mat.
func (s *cameraSource) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.capture == nil {
		return nil, ErrSourceNotOpen
	}

	mat := gocv.NewMat()
	if ok := s.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}
	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}
	return &mat, nil
}

// FPS returns the camera's reported frame rate.
func (s *cameraSource) FPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return 0
	}
	return s.capture.Get(gocv.VideoCaptureFPS)
}

// FrameSize returns the camera's reported frame dimensions.
func (s *cameraSource) FrameSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture == nil {
		return 0, 0
	}
	return int(s.capture.Get(gocv.VideoCaptureFrameWidth)),
		int(s.capture.Get(gocv.VideoCaptureFrameHeight))
}

// IsOpen returns true if the camera is currently open.
func (s *cameraSource) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
