// Package overlay renders tracking results back onto road frames: the
// detected lane area as a translucent fill and a telemetry readout.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/rekha/internal/lane"
	"github.com/ayusman/rekha/internal/vision"
)

// HUD text layout
const (
	hudFontScale = 0.8
	hudThickness = 2
)

var (
	laneFill = color.RGBA{G: 255}
	hudWhite = color.RGBA{R: 255, G: 255, B: 255}

	curvatureOrigin = image.Pt(100, 50)
	offsetOrigin    = image.Pt(100, 75)
)

// Renderer draws lane geometry and telemetry onto frames. The lane area is
// painted in bird's-eye view, where the curves live, and projected back
// through the warper's inverse transform.
type Renderer struct {
	warper *vision.Warper
}

// NewRenderer creates a Renderer that projects overlays through warper.
func NewRenderer(warper *vision.Warper) *Renderer {
	return &Renderer{warper: warper}
}

// FillLane paints the area between the two boundary curves onto frame as a
// translucent green fill. Curves without samples leave the frame untouched.
func (r *Renderer) FillLane(frame *gocv.Mat, left, right lane.Curve) {
	if len(left.SampledX) == 0 || len(left.SampledX) != len(right.SampledX) {
		return
	}

	width, height := r.warper.Size()

	// Walk down the left boundary and back up the right to close the polygon
	polygon := make([]image.Point, 0, 2*len(left.SampledX))
	for y, x := range left.SampledX {
		polygon = append(polygon, image.Pt(clampX(x, width), y))
	}
	for y := len(right.SampledX) - 1; y >= 0; y-- {
		polygon = append(polygon, image.Pt(clampX(right.SampledX[y], width), y))
	}

	canvas := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	defer canvas.Close()
	canvas.SetTo(gocv.NewScalar(0, 0, 0, 0))

	pts := gocv.NewPointsVectorFromPoints([][]image.Point{polygon})
	defer pts.Close()
	gocv.FillPoly(&canvas, pts, laneFill)

	unwarped := gocv.NewMat()
	defer unwarped.Close()
	r.warper.Unwarp(canvas, &unwarped)

	gocv.AddWeighted(*frame, 1.0, unwarped, 0.3, 0, frame)
}

// DrawHUD writes the curvature radius and the vehicle's lane-center offset
// in the frame's top-left corner.
func (r *Renderer) DrawHUD(frame *gocv.Mat, curvature, offset float64) {
	gocv.PutText(frame, fmt.Sprintf("Curvature: %.0fm", curvature),
		curvatureOrigin, gocv.FontHersheySimplex, hudFontScale, hudWhite, hudThickness)

	side := "right"
	if offset < 0 {
		side = "left"
	}
	gocv.PutText(frame, fmt.Sprintf("%.2f m %s of center", math.Abs(offset), side),
		offsetOrigin, gocv.FontHersheySimplex, hudFontScale, hudWhite, hudThickness)
}

// DrawSearching notes that no lane estimate is available, drawn in place
// of the measurement readout until tracking locks on.
func (r *Renderer) DrawSearching(frame *gocv.Mat) {
	gocv.PutText(frame, "Searching for lane lines...",
		curvatureOrigin, gocv.FontHersheySimplex, hudFontScale, hudWhite, hudThickness)
}

// clampX keeps a sampled x inside the drawable frame.
func clampX(x float64, width int) int {
	if x < 0 {
		return 0
	}
	if x > float64(width-1) {
		return width - 1
	}
	return int(x)
}
