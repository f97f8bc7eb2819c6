package lane

import (
	"fmt"
	"image"
)

// Tracker carries lane state across the frames of one video run. It owns the
// append-only history of frame records and the mask dimensions captured from
// the first frame. A Tracker is not safe for concurrent use: frames must be
// processed one at a time and in order, because each frame's search strategy
// depends on the previous frame's result.
type Tracker struct {
	cfg     Config
	history []FrameRecord

	// barrier marks a scene discontinuity: records before it are never
	// consulted for strategy selection, smoothing or fallback.
	barrier int

	// mask dimensions captured from the first processed frame
	width  int
	height int
}

// NewTracker creates a tracker for a single video run.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg}
}

// Config returns the tuning parameters the tracker was created with.
func (t *Tracker) Config() Config {
	return t.cfg
}

// FrameCount returns the number of frames processed so far.
func (t *Tracker) FrameCount() int {
	return len(t.history)
}

// Record returns the frame record at the given index.
func (t *Tracker) Record(i int) (FrameRecord, bool) {
	if i < 0 || i >= len(t.history) {
		return FrameRecord{}, false
	}
	return t.history[i], true
}

// ProcessFrame runs lane detection on one binary mask and appends the result
// to the history. The mask dimensions are captured from the first frame; a
// later frame with different dimensions is an input contract violation and
// returns an error before any state changes. A frame where both curves fail
// validation is still appended; smoothing and fallback handle the gap.
func (t *Tracker) ProcessFrame(mask *image.Gray) (FrameRecord, error) {
	if mask == nil {
		return FrameRecord{}, fmt.Errorf("process frame: nil mask")
	}

	bounds := mask.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 2 || h < 2 {
		return FrameRecord{}, fmt.Errorf("process frame: mask %dx%d is too small", w, h)
	}

	if t.width == 0 {
		t.width, t.height = w, h
	} else if w != t.width || h != t.height {
		return FrameRecord{}, fmt.Errorf("process frame: mask is %dx%d, run started with %dx%d",
			w, h, t.width, t.height)
	}

	// Step 1: pick the search strategy from the previous frame's outcome.
	prev := t.prevRecord()
	strategy := ChooseStrategy(prev)

	// Step 2: run the search to get a candidate pixel set per side.
	var leftPx, rightPx PixelSet
	if strategy == StrategyWarmStart {
		leftPx, rightPx = polynomialSearch(mask, prev.Left, prev.Right, t.cfg)
	} else {
		leftPx, rightPx = slidingWindowSearch(mask, t.cfg)
	}

	// Step 3: fit both curves.
	left := Fit(leftPx, h, t.cfg)
	right := Fit(rightPx, h, t.cfg)

	// Step 4: cross-validate. Two individually valid curves closer than the
	// plausibility floor mean both windows locked onto the same line, so
	// neither can be trusted.
	if left.IsValid() && right.IsValid() && minLaneGap(left, right) < float64(t.cfg.MinLaneGap) {
		left.Detected = false
		right.Detected = false
	}

	record := FrameRecord{
		Index:    len(t.history),
		Left:     left,
		Right:    right,
		Strategy: strategy,
	}
	t.history = append(t.history, record)
	return record, nil
}

// prevRecord returns the most recent record, or nil when history is empty
// or everything before the discontinuity barrier.
func (t *Tracker) prevRecord() *FrameRecord {
	if len(t.history) == 0 || len(t.history) <= t.barrier {
		return nil
	}
	return &t.history[len(t.history)-1]
}

// LastValidCurves walks the history backward from the current frame and
// collects up to count valid curves for the side, most recent first. It may
// return fewer than count, including none. Callers must handle an empty
// result, which occurs whenever a lane side has been lost for longer than
// the recorded history.
func (t *Tracker) LastValidCurves(side Side, count int) []Curve {
	var curves []Curve
	for i := len(t.history) - 1; i >= t.barrier && len(curves) < count; i-- {
		if c := t.history[i].Curve(side); c.IsValid() {
			curves = append(curves, c)
		}
	}
	return curves
}

// SmoothedEstimate returns the coefficient-wise arithmetic mean of the most
// recent valid curves for the side, up to the configured averaging window.
// This is the published, jitter-reduced boundary used for rendering and
// measurement. Returns false when the side has no valid history.
func (t *Tracker) SmoothedEstimate(side Side) ([3]float64, bool) {
	curves := t.LastValidCurves(side, t.cfg.AverageWindow)
	if len(curves) == 0 {
		return [3]float64{}, false
	}

	var avg [3]float64
	for _, c := range curves {
		for i, v := range c.Coeffs {
			avg[i] += v
		}
	}
	n := float64(len(curves))
	for i := range avg {
		avg[i] /= n
	}
	return avg, true
}

// CurrentCurve returns the curve to treat as the side's current position:
// the present frame's curve when it is valid, otherwise the single most
// recent valid curve. Returns false when no valid curve exists at all.
func (t *Tracker) CurrentCurve(side Side) (Curve, bool) {
	if len(t.history) == 0 || len(t.history) <= t.barrier {
		return Curve{}, false
	}

	if c := t.history[len(t.history)-1].Curve(side); c.IsValid() {
		return c, true
	}

	recent := t.LastValidCurves(side, 1)
	if len(recent) == 0 {
		return Curve{}, false
	}
	return recent[0], true
}

// MeanCurvature averages the curvature of every curve contributing to both
// sides' smoothing windows. Returns false when neither side has valid
// history.
func (t *Tracker) MeanCurvature() (float64, bool) {
	var sum float64
	var n int
	for _, side := range []Side{SideLeft, SideRight} {
		for _, c := range t.LastValidCurves(side, t.cfg.AverageWindow) {
			sum += c.Curvature
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// MarkDiscontinuity records a scene cut. History up to this point is kept
// but never consulted again, so the next frame runs a cold start and
// smoothing restarts from empty.
func (t *Tracker) MarkDiscontinuity() {
	t.barrier = len(t.history)
}
