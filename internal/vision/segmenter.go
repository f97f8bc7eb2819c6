package vision

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// segmenterIdleTimeout shuts the subprocess down after this much inactivity.
const segmenterIdleTimeout = 30 * time.Second

// SegmenterMasker implements Masker using a Python road-segmentation
// subprocess. Frames go out as length-prefixed JPEG, masks come back as
// length-prefixed PNG. It is the heavyweight alternative to ThresholdMasker
// for footage where color thresholds fail, such as night driving.
type SegmenterMasker struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewSegmenterMasker creates a new segmenter masker.
// The Python process is started lazily on the first mask request.
func NewSegmenterMasker() (*SegmenterMasker, error) {
	if findSegmenterScript() == "" {
		return nil, fmt.Errorf("segmenter_service.py not found")
	}
	return &SegmenterMasker{}, nil
}

// Mask sends a frame to the subprocess and returns the decoded mask.
func (s *SegmenterMasker) Mask(frame *gocv.Mat) (gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if frame == nil || frame.Empty() {
		return gocv.Mat{}, fmt.Errorf("mask: empty frame")
	}

	if err := s.ensureStarted(); err != nil {
		return gocv.Mat{}, err
	}

	// Encode frame as JPEG
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := s.stdin.Write(length); err != nil {
		return gocv.Mat{}, fmt.Errorf("write length: %w", err)
	}
	if _, err := s.stdin.Write(data); err != nil {
		return gocv.Mat{}, fmt.Errorf("write data: %w", err)
	}

	// Read length-prefixed PNG response
	if _, err := io.ReadFull(s.stdout, length); err != nil {
		return gocv.Mat{}, fmt.Errorf("read response length: %w", err)
	}
	response := make([]byte, binary.BigEndian.Uint32(length))
	if _, err := io.ReadFull(s.stdout, response); err != nil {
		return gocv.Mat{}, fmt.Errorf("read response: %w", err)
	}

	mask, err := gocv.IMDecode(response, gocv.IMReadGrayScale)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("decode mask: %w", err)
	}
	if mask.Rows() != frame.Rows() || mask.Cols() != frame.Cols() {
		mask.Close()
		return gocv.Mat{}, fmt.Errorf("mask size %dx%d does not match frame %dx%d",
			mask.Cols(), mask.Rows(), frame.Cols(), frame.Rows())
	}

	s.lastUsed = time.Now()
	s.resetIdleTimer()

	return mask, nil
}

// Close shuts down the Python process.
func (s *SegmenterMasker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown()
}

func (s *SegmenterMasker) ensureStarted() error {
	if s.started {
		return nil
	}

	scriptPath := findSegmenterScript()
	if scriptPath == "" {
		return fmt.Errorf("segmenter_service.py not found")
	}

	// Use virtual environment Python if available
	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	s.cmd = exec.Command(pythonPath, scriptPath)

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	s.cmd.Stderr = os.Stderr

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("start segmenter service: %w", err)
	}

	s.stdin = stdin
	s.stdout = bufio.NewReader(stdout)
	s.started = true
	s.lastUsed = time.Now()

	return nil
}

func (s *SegmenterMasker) shutdown() error {
	if !s.started {
		return nil
	}

	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}

	if s.stdin != nil {
		s.stdin.Close()
	}

	err := s.cmd.Wait()
	s.started = false
	s.cmd = nil
	s.stdin = nil
	s.stdout = nil

	return err
}

func (s *SegmenterMasker) resetIdleTimer() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = time.AfterFunc(segmenterIdleTimeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.shutdown()
	})
}

func findSegmenterScript() string {
	// Get executable directory
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/segmenter_service.py",
		"../scripts/segmenter_service.py",
		filepath.Join(execDir, "scripts/segmenter_service.py"),
		filepath.Join(os.Getenv("HOME"), ".rekha/scripts/segmenter_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
// It checks for venv/bin/python relative to the project directory.
func findVenvPython() string {
	// Get executable directory to find project root
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".rekha/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
