package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Scene-cut detection constants
const (
	// sceneCutBlurSize is the kernel size for the noise-reduction blur
	sceneCutBlurSize = 21
	// sceneCutDiffThreshold is the per-pixel binary threshold on the frame difference
	sceneCutDiffThreshold = 25
)

// SceneCutDetector detects hard cuts between consecutive frames using frame
// differencing. A cut means the tracker's history no longer describes the
// road ahead, so the pipeline forces a cold restart on the next frame.
type SceneCutDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewSceneCutDetector creates a detector that reports a cut when more than
// the given fraction of pixels change between frames (0..1).
func NewSceneCutDetector(threshold float64) *SceneCutDetector {
	return &SceneCutDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares a frame to the previous one and reports whether the change
// amounts to a scene cut, along with the changed-pixel fraction.
//
// Algorithm:
// 1. Convert the frame to grayscale
// 2. Apply a Gaussian blur to suppress sensor noise
// 3. On the first frame, store it as the baseline and report no cut
// 4. Threshold the absolute difference against the previous frame
// 5. Report a cut when changed pixels / total pixels exceeds the threshold
func (d *SceneCutDetector) Detect(frame *gocv.Mat) (bool, float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: sceneCutBlurSize, Y: sceneCutBlurSize},
		0, 0, gocv.BorderDefault)

	if !d.initialized {
		blurred.CopyTo(&d.prevGray)
		d.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, d.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, sceneCutDiffThreshold, 255, gocv.ThresholdBinary)

	changed := gocv.CountNonZero(thresh)
	total := thresh.Rows() * thresh.Cols()
	fraction := float64(changed) / float64(total)

	blurred.CopyTo(&d.prevGray)

	return fraction > d.threshold, fraction
}

// Reset clears the baseline so the next frame starts a fresh comparison.
func (d *SceneCutDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.prevGray.Empty() {
		d.prevGray.Close()
		d.prevGray = gocv.NewMat()
	}
	d.initialized = false
}

// Close releases the detector's resources.
func (d *SceneCutDetector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.prevGray.Empty() {
		d.prevGray.Close()
		d.prevGray = gocv.NewMat()
	}
	d.initialized = false
}
