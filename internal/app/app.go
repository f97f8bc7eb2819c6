// Package app provides the main application logic for the Rekha lane tracking system.
package app

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/rekha/internal/alert"
	"github.com/ayusman/rekha/internal/capture"
	"github.com/ayusman/rekha/internal/config"
	"github.com/ayusman/rekha/internal/lane"
	"github.com/ayusman/rekha/internal/overlay"
	"github.com/ayusman/rekha/internal/store"
	"github.com/ayusman/rekha/internal/vision"
)

// Pipeline timing constants.
const (
	// DefaultFPS drives the live loop when the source does not report a rate.
	DefaultFPS = 30
	// HookTimeoutMs is the time in milliseconds each hook gets to run.
	HookTimeoutMs = 5000
)

// Config holds configuration options for the application.
type Config struct {
	Store      *store.Store
	Profile    config.Profile
	VideoPath  string               // non-empty selects file playback over the camera
	OutputPath string               // annotated video destination for file playback, empty disables
	Camera     *capture.CameraModel // calibration model, nil disables undistortion
}

// Sample is one frame's telemetry snapshot, published for the dashboard.
type Sample struct {
	RunID      string  `json:"run_id"`
	FrameIndex int     `json:"frame_index"`
	Strategy   string  `json:"strategy"`
	LeftValid  bool    `json:"left_valid"`
	RightValid bool    `json:"right_valid"`
	Curvature  float64 `json:"curvature"`
	Offset     float64 `json:"offset_m"`
	Timestamp  int64   `json:"timestamp"`
}

// App is the main application that orchestrates the lane tracking pipeline
// and fans results out to the store, the hooks and the dashboard.
type App struct {
	config      Config
	source      capture.Source
	masker      vision.Masker
	sceneCut    *capture.SceneCutDetector
	undistorter *capture.Undistorter
	warper      *vision.Warper
	renderer    *overlay.Renderer
	tracker     *lane.Tracker
	hookMgr     *alert.Manager
	notifier    *alert.Notifier

	runID    string
	departed bool
	laneLost bool

	lastSample Sample
	hasSample  bool
	lastJPEG   []byte

	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a new App instance with the given configuration.
func New(cfg Config) *App {
	profile := cfg.Profile
	if len(profile.Vision.TransformSrc) == 0 {
		// A zero-value profile means "use the defaults"
		profile = config.Default()
	}
	cfg.Profile = profile

	a := &App{
		config:      cfg,
		sceneCut:    capture.NewSceneCutDetector(profile.Capture.SceneCutThreshold),
		undistorter: capture.NewUndistorter(cfg.Camera),
		tracker:     lane.NewTracker(profile.Lane),
		hookMgr:     alert.NewManager(profile.Alerts.HooksDir),
		enabled:     true,
		stopCh:      nil,
	}
	a.notifier = alert.NewNotifier(a.hookMgr, alert.NewExecutor(HookTimeoutMs))

	if cfg.VideoPath != "" {
		a.source = capture.NewFileSource(cfg.VideoPath)
	} else {
		a.source = capture.NewCameraSource(profile.Capture.CameraID)
	}

	// Try the segmenter subprocess first, fall back to color thresholding
	if seg, err := vision.NewSegmenterMasker(); err == nil {
		a.masker = seg
		log.Println("Using segmenter subprocess for lane masking")
	} else {
		log.Printf("Segmenter not available (%v), using color thresholding", err)
		a.masker = vision.NewThresholdMasker(profile.Vision)
	}

	return a
}

// SetEnabled enables or disables frame processing in the live loop.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether frame processing is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetMasker sets the lane masker implementation to use.
func (a *App) SetMasker(m vision.Masker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.masker = m
}

// Masker returns the lane masker.
func (a *App) Masker() vision.Masker {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.masker
}

// SetSource sets the frame source to use. It must be called before Start
// or ProcessVideo.
func (a *App) SetSource(src capture.Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = src
}

// Tracker returns the lane tracker.
func (a *App) Tracker() *lane.Tracker {
	return a.tracker
}

// HookManager returns the hook manager.
func (a *App) HookManager() *alert.Manager {
	return a.hookMgr
}

// RunID returns the identifier of the current run, or "" before the first
// run starts.
func (a *App) RunID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.runID
}

// DiscoverHooks scans the hooks directory and loads available hooks.
func (a *App) DiscoverHooks() error {
	return a.hookMgr.Discover()
}

// LatestSample returns the most recent telemetry sample, if any frame has
// been processed yet.
func (a *App) LatestSample() (Sample, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastSample, a.hasSample
}

// LatestFrameJPEG returns the most recent annotated frame encoded as JPEG,
// or nil if no frame has been processed yet. The returned slice is never
// mutated afterwards.
func (a *App) LatestFrameJPEG() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastJPEG
}

// Start begins the live tracking pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	// Open the frame source
	if err := a.source.Open(); err != nil {
		return fmt.Errorf("open source: %w", err)
	}

	a.beginRun()

	// Create stop channel and start the pipeline
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Println("Tracking pipeline started")
	return nil
}

// Stop halts the tracking pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	var done chan struct{}
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
		done = a.doneCh
		a.doneCh = nil
	}
	a.mu.Unlock()

	// Wait for an in-flight frame to finish before releasing gocv handles
	if done != nil {
		<-done
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.endRun()

	// Close the frame source
	if err := a.source.Close(); err != nil {
		log.Printf("Error closing source: %v", err)
	}

	// Close the scene cut detector
	a.sceneCut.Close()

	// Close the masker
	if a.masker != nil {
		if err := a.masker.Close(); err != nil {
			log.Printf("Error closing masker: %v", err)
		}
	}

	// Release the perspective transform
	if a.warper != nil {
		a.warper.Close()
		a.warper = nil
	}

	log.Println("Tracking pipeline stopped")
}

// runPipeline is the live loop that paces frame processing at the source
// frame rate. Processing is skipped while the app is disabled.
func (a *App) runPipeline(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	fps := a.source.FPS()
	if fps <= 0 {
		fps = DefaultFPS
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// Skip processing if tracking is disabled
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.source.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			if _, err := a.processFrame(frame); err != nil {
				log.Printf("Error processing frame: %v", err)
			}
			frame.Close()
		}
	}
}

// beginRun assigns a run ID and records the run start. Callers hold a.mu.
func (a *App) beginRun() {
	a.runID = newRunID()
	a.departed = false
	a.laneLost = false

	if a.config.Store == nil {
		return
	}
	run := &store.Run{ID: a.runID, Source: a.sourceLabel()}
	if err := a.config.Store.Runs().Create(run); err != nil {
		log.Printf("Failed to record run: %v", err)
	}
}

// endRun marks the run finished with the processed frame count. Callers
// hold a.mu.
func (a *App) endRun() {
	if a.config.Store == nil || a.runID == "" {
		return
	}
	if err := a.config.Store.Runs().Finish(a.runID, a.tracker.FrameCount()); err != nil {
		log.Printf("Failed to finish run: %v", err)
	}
}

// sourceLabel describes the frame source for the run record.
func (a *App) sourceLabel() string {
	if a.config.VideoPath != "" {
		return a.config.VideoPath
	}
	return fmt.Sprintf("camera:%d", a.config.Profile.Capture.CameraID)
}

// newRunID returns a fresh run identifier.
func newRunID() string {
	return uuid.New().String()
}
