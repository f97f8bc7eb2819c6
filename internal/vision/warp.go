package vision

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/rekha/internal/config"
)

// Warper maps the road ahead into a bird's-eye view and back. The forward
// transform takes the normalized source quadrilateral (a stretch of lane
// as the dashcam sees it) to a rectangle, making the lane lines near
// vertical so the pixel search can treat x as a function of y.
type Warper struct {
	m      gocv.Mat
	mInv   gocv.Mat
	width  int
	height int
	mu     sync.Mutex
	closed bool
}

// NewWarper builds the perspective transforms for the given frame size.
// quad is the normalized source quadrilateral in the order bottom-left,
// top-left, top-right, bottom-right. The destination rectangle spans the
// full frame height between the x positions of the two bottom corners.
func NewWarper(width, height int, quad []config.Point) (*Warper, error) {
	if len(quad) != 4 {
		return nil, fmt.Errorf("warper: quad needs exactly 4 points, got %d", len(quad))
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("warper: invalid frame size %dx%d", width, height)
	}

	fw, fh := float32(width), float32(height)
	src := make([]gocv.Point2f, 4)
	for i, p := range quad {
		src[i] = gocv.Point2f{X: float32(p.X) * fw, Y: float32(p.Y) * fh}
	}

	leftX := src[0].X
	rightX := src[3].X
	dst := []gocv.Point2f{
		{X: leftX, Y: fh},
		{X: leftX, Y: 0},
		{X: rightX, Y: 0},
		{X: rightX, Y: fh},
	}

	srcVec := gocv.NewPoint2fVectorFromPoints(src)
	defer srcVec.Close()
	dstVec := gocv.NewPoint2fVectorFromPoints(dst)
	defer dstVec.Close()

	return &Warper{
		m:      gocv.GetPerspectiveTransform2f(srcVec, dstVec),
		mInv:   gocv.GetPerspectiveTransform2f(dstVec, srcVec),
		width:  width,
		height: height,
	}, nil
}

// Warp writes the bird's-eye view of src to dst.
func (w *Warper) Warp(src gocv.Mat, dst *gocv.Mat) {
	gocv.WarpPerspective(src, dst, w.m, image.Pt(w.width, w.height))
}

// Unwarp writes the camera-perspective view of src to dst, the inverse of
// Warp. The overlay renderer uses it to project the lane fill back onto
// the original frame.
func (w *Warper) Unwarp(src gocv.Mat, dst *gocv.Mat) {
	gocv.WarpPerspective(src, dst, w.mInv, image.Pt(w.width, w.height))
}

// Size returns the frame size the warper was built for.
func (w *Warper) Size() (int, int) {
	return w.width, w.height
}

// Close releases the transform matrices.
func (w *Warper) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.m.Close()
	w.mInv.Close()
	w.closed = true
}
