package overlay

import (
	"image"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/rekha/internal/config"
	"github.com/ayusman/rekha/internal/lane"
	"github.com/ayusman/rekha/internal/vision"
)

// straightCurve builds a detected curve at a fixed column.
func straightCurve(x float64, height int) lane.Curve {
	samples := make([]float64, height)
	for i := range samples {
		samples[i] = x
	}
	return lane.Curve{Coeffs: [3]float64{0, 0, x}, SampledX: samples, Detected: true}
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	warper, err := vision.NewWarper(1280, 720, config.Default().Vision.TransformSrc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(warper.Close)
	return NewRenderer(warper)
}

func TestRenderer_FillLane(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	r := newTestRenderer(t)

	frame := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC3)
	defer frame.Close()
	frame.SetTo(gocv.NewScalar(30, 30, 30, 0))

	r.FillLane(&frame, straightCurve(300, 720), straightCurve(980, 720))

	// A point between the curves gains green from the translucent fill
	center := frame.GetVecbAt(650, 640)
	if center[1] <= 40 {
		t.Errorf("expected the lane area to gain green, got %d", center[1])
	}

	// A point far outside the lane stays untouched
	corner := frame.GetVecbAt(50, 50)
	if corner[1] != 30 {
		t.Errorf("expected the sky to stay untouched, got %d", corner[1])
	}
}

func TestRenderer_FillLane_SkipsCurvesWithoutSamples(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	r := newTestRenderer(t)

	frame := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC3)
	defer frame.Close()
	frame.SetTo(gocv.NewScalar(30, 30, 30, 0))

	before := frame.Clone()
	defer before.Close()

	r.FillLane(&frame, lane.Curve{}, straightCurve(980, 720))

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(frame, before, &diff)

	channels := gocv.Split(diff)
	for i := range channels {
		if count := gocv.CountNonZero(channels[i]); count != 0 {
			t.Errorf("expected the frame to stay untouched, channel %d has %d changed pixels", i, count)
		}
		channels[i].Close()
	}
}

func TestRenderer_DrawSearching(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	r := newTestRenderer(t)

	frame := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC3)
	defer frame.Close()
	frame.SetTo(gocv.NewScalar(0, 0, 0, 0))

	r.DrawSearching(&frame)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	textBand := gray.Region(image.Rect(0, 0, 1280, 100))
	defer textBand.Close()
	if count := gocv.CountNonZero(textBand); count == 0 {
		t.Error("expected the searching note in the top band of the frame")
	}
}

func TestRenderer_DrawHUD(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	r := newTestRenderer(t)

	frame := gocv.NewMatWithSize(720, 1280, gocv.MatTypeCV8UC3)
	defer frame.Close()
	frame.SetTo(gocv.NewScalar(0, 0, 0, 0))

	r.DrawHUD(&frame, 1250, -0.2)

	// The readout lands in the top-left corner
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	textBand := gray.Region(image.Rect(0, 0, 1280, 100))
	defer textBand.Close()
	if count := gocv.CountNonZero(textBand); count == 0 {
		t.Error("expected HUD text in the top band of the frame")
	}

	rest := gray.Region(image.Rect(0, 100, 1280, 720))
	defer rest.Close()
	if count := gocv.CountNonZero(rest); count != 0 {
		t.Errorf("expected no HUD text below the top band, got %d pixels", count)
	}
}
