package app

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/rekha/internal/alert"
	"github.com/ayusman/rekha/internal/capture"
	"github.com/ayusman/rekha/internal/lane"
	"github.com/ayusman/rekha/internal/overlay"
	"github.com/ayusman/rekha/internal/store"
	"github.com/ayusman/rekha/internal/vision"
)

// ProcessVideo runs the pipeline over the configured video file from start
// to end, writing the annotated output if an output path is configured.
// Unlike the live loop it processes frames as fast as they decode.
func (a *App) ProcessVideo() error {
	if err := a.source.Open(); err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer a.source.Close()

	var writer *gocv.VideoWriter
	if a.config.OutputPath != "" {
		width, height := a.source.FrameSize()
		fps := a.source.FPS()
		if fps <= 0 {
			fps = DefaultFPS
		}
		w, err := gocv.VideoWriterFile(a.config.OutputPath, "mp4v", fps, width, height, true)
		if err != nil {
			return fmt.Errorf("open output video: %w", err)
		}
		defer w.Close()
		writer = w
	}

	a.mu.Lock()
	a.beginRun()
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.endRun()
		a.mu.Unlock()
	}()

	for {
		frame, err := a.source.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrEndOfStream) {
				break
			}
			return fmt.Errorf("read frame: %w", err)
		}

		rec, err := a.processFrame(frame)
		if err != nil {
			log.Printf("Frame dropped: %v", err)
			frame.Close()
			continue
		}

		if writer != nil {
			if err := writer.Write(*frame); err != nil {
				log.Printf("Failed to write frame %d: %v", rec.Index, err)
			}
		}
		frame.Close()
	}

	log.Printf("Processed %d frames from %s", a.tracker.FrameCount(), a.sourceLabel())
	return nil
}

// processFrame runs one frame through the full pipeline and annotates the
// frame in place. It returns the tracking record for the frame.
//
// Pipeline steps:
// 1. Undistort using the camera calibration, if present
// 2. Check for a scene cut and force a cold restart on one
// 3. Extract the lane color mask
// 4. Keep only the road region of interest
// 5. Warp the mask to the bird's-eye view
// 6. Search, fit and gate the lane curves
// 7. Measure curvature and lane-center offset
// 8. Raise event transitions (departure, lost, reacquired, cut)
// 9. Persist the measurement and draw the overlay
func (a *App) processFrame(frame *gocv.Mat) (lane.FrameRecord, error) {
	// Build the perspective transform once the frame size is known
	if a.warper == nil {
		warper, err := vision.NewWarper(frame.Cols(), frame.Rows(), a.config.Profile.Vision.TransformSrc)
		if err != nil {
			return lane.FrameRecord{}, fmt.Errorf("build perspective transform: %w", err)
		}
		a.warper = warper
		a.renderer = overlay.NewRenderer(warper)
	}

	// Step 1: undistort in place
	undistorted := gocv.NewMat()
	a.undistorter.Apply(*frame, &undistorted)
	undistorted.CopyTo(frame)
	undistorted.Close()

	// Step 2: scene cut detection
	cut, changed := a.sceneCut.Detect(frame)
	if cut {
		a.tracker.MarkDiscontinuity()
	}

	// Step 3: lane color mask
	mask, err := a.masker.Mask(frame)
	if err != nil {
		return lane.FrameRecord{}, fmt.Errorf("mask frame: %w", err)
	}
	defer mask.Close()

	// Step 4: region of interest
	roi, err := vision.ApplyROI(&mask, a.config.Profile.Vision.ROI)
	if err != nil {
		return lane.FrameRecord{}, fmt.Errorf("apply region of interest: %w", err)
	}
	defer roi.Close()

	// Step 5: bird's-eye view
	warped := gocv.NewMat()
	defer warped.Close()
	a.warper.Warp(roi, &warped)

	// Step 6: lane search and fit
	gray, err := vision.MatToGray(&warped)
	if err != nil {
		return lane.FrameRecord{}, err
	}
	rec, err := a.tracker.ProcessFrame(gray)
	if err != nil {
		return rec, fmt.Errorf("track frame: %w", err)
	}

	// Step 7: measurements
	curvature := 0.0
	if mean, ok := a.tracker.MeanCurvature(); ok {
		curvature = mean
	}
	offset := 0.0
	if rec.Left.Detected && rec.Right.Detected {
		width, _ := a.warper.Size()
		offset = lane.Offset(rec.Left, rec.Right, width, a.config.Profile.Lane.MetersPerPixelX)
	}

	// Step 8: event transitions
	if cut {
		a.recordEvent(store.EventSceneCut, rec.Index,
			fmt.Sprintf("%.0f%% of pixels changed", changed*100), curvature, offset)
	}
	a.updateLaneEvents(rec, curvature, offset)

	// Step 9: persist the measurement
	if a.config.Store != nil && a.runID != "" {
		f := &store.Frame{
			RunID:      a.runID,
			Index:      rec.Index,
			Strategy:   string(rec.Strategy),
			LeftValid:  rec.Left.IsValid(),
			RightValid: rec.Right.IsValid(),
			Curvature:  curvature,
			Offset:     offset,
		}
		if err := a.config.Store.Frames().Insert(f); err != nil {
			log.Printf("Failed to record frame %d: %v", rec.Index, err)
		}
	}

	// Step 10: annotate the frame
	left, leftOK := a.tracker.CurrentCurve(lane.SideLeft)
	right, rightOK := a.tracker.CurrentCurve(lane.SideRight)
	if leftOK && rightOK {
		a.renderer.FillLane(frame, left, right)
		a.renderer.DrawHUD(frame, curvature, offset)
	} else {
		a.renderer.DrawSearching(frame)
	}

	// Step 11: telemetry snapshot for the dashboard
	sample := Sample{
		RunID:      a.runID,
		FrameIndex: rec.Index,
		Strategy:   string(rec.Strategy),
		LeftValid:  rec.Left.IsValid(),
		RightValid: rec.Right.IsValid(),
		Curvature:  curvature,
		Offset:     offset,
		Timestamp:  time.Now().UnixMilli(),
	}
	a.publish(sample, encodeJPEG(frame))

	return rec, nil
}

// updateLaneEvents tracks the departed/lost state across frames and records
// an event on each transition.
func (a *App) updateLaneEvents(rec lane.FrameRecord, curvature, offset float64) {
	leftValid := rec.Left.IsValid()
	rightValid := rec.Right.IsValid()

	if !leftValid && !rightValid {
		if !a.laneLost {
			a.laneLost = true
			a.recordEvent(store.EventLaneLost, rec.Index,
				"no valid lane line on either side", curvature, offset)
		}
		return
	}

	if leftValid && rightValid {
		if a.laneLost {
			a.laneLost = false
			a.recordEvent(store.EventLaneReacquired, rec.Index,
				"both lane lines valid again", curvature, offset)
		}

		threshold := a.config.Profile.Alerts.DepartureThreshold
		if math.Abs(offset) > threshold {
			if !a.departed {
				a.departed = true
				side := "right"
				if offset < 0 {
					side = "left"
				}
				a.recordEvent(store.EventLaneDeparture, rec.Index,
					fmt.Sprintf("%.2fm %s of lane center", math.Abs(offset), side), curvature, offset)
			}
		} else {
			a.departed = false
		}
	}
}

// recordEvent logs an event, persists it and fans it out to subscribed
// hooks. Hook dispatch runs in the background so a slow hook cannot stall
// the frame loop.
func (a *App) recordEvent(event store.EventType, frameIndex int, detail string, curvature, offset float64) {
	log.Printf("Event %s at frame %d: %s", event, frameIndex, detail)

	if a.config.Store != nil && a.runID != "" {
		e := &store.Event{
			RunID:      a.runID,
			FrameIndex: frameIndex,
			Type:       event,
			Detail:     detail,
		}
		if err := a.config.Store.Events().Insert(e); err != nil {
			log.Printf("Failed to record %s event: %v", event, err)
		}
	}

	note := &alert.Notification{
		Event:      string(event),
		RunID:      a.runID,
		FrameIndex: frameIndex,
		Curvature:  curvature,
		Offset:     offset,
		Detail:     detail,
	}
	go a.notifier.Dispatch(note)
}

// publish stores the telemetry sample and annotated frame for the server.
func (a *App) publish(sample Sample, jpeg []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastSample = sample
	a.hasSample = true
	if jpeg != nil {
		a.lastJPEG = jpeg
	}
}

// encodeJPEG encodes the frame as JPEG, returning nil on failure.
func encodeJPEG(frame *gocv.Mat) []byte {
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data
}
