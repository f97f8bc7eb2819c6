// Package testutil provides shared fixtures for tests that need synthetic
// road footage. Frames are rendered in code so the repository ships no
// binary assets.
package testutil

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/rekha/internal/config"
)

// Fixture colors, BGR-ordered where gocv wants scalars.
var (
	roadGray   = color.RGBA{R: 60, G: 60, B: 60}
	skyBlue    = color.RGBA{R: 135, G: 206, B: 235}
	lineWhite  = color.RGBA{R: 255, G: 255, B: 255}
	lineYellow = color.RGBA{R: 255, G: 255, B: 0}
)

// RoadFrame renders a synthetic dashcam frame: a gray road below the
// horizon, sky above, a white line along the left edge of the transform
// quad and a yellow line along its right edge. Warping the quad to a
// rectangle therefore maps both lines to near-vertical bars, which is
// what the pixel search expects. quad is the normalized source
// quadrilateral in bottom-left, top-left, top-right, bottom-right order.
//
// The caller owns the returned Mat and must Close it.
func RoadFrame(width, height int, quad []config.Point) gocv.Mat {
	frame := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	frame.SetTo(gocv.NewScalar(float64(roadGray.B), float64(roadGray.G), float64(roadGray.R), 0))

	horizon := int(quad[1].Y * float64(height))
	gocv.Rectangle(&frame, image.Rect(0, 0, width, horizon), skyBlue, -1)

	toPixel := func(p config.Point) image.Point {
		return image.Pt(int(p.X*float64(width)), int(p.Y*float64(height)))
	}

	gocv.Line(&frame, toPixel(quad[0]), toPixel(quad[1]), lineWhite, 14)
	gocv.Line(&frame, toPixel(quad[3]), toPixel(quad[2]), lineYellow, 14)

	return frame
}

// RoadSequence renders n identical road frames for pipeline tests.
// The caller owns the returned Mats and must Close each of them.
func RoadSequence(n, width, height int, quad []config.Point) []*gocv.Mat {
	frames := make([]*gocv.Mat, 0, n)
	for i := 0; i < n; i++ {
		frame := RoadFrame(width, height, quad)
		frames = append(frames, &frame)
	}
	return frames
}

// BarMask builds a binary single-channel mask with a 5-pixel vertical bar
// centered on each given column, the shape a straight lane leaves in a
// warped threshold mask. The caller owns the returned Mat and must Close it.
func BarMask(width, height int, centers ...int) gocv.Mat {
	mask := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC1)
	mask.SetTo(gocv.NewScalar(0, 0, 0, 0))

	for _, center := range centers {
		gocv.Rectangle(&mask, image.Rect(center-2, 0, center+3, height), lineWhite, -1)
	}

	return mask
}

// CloseAll closes every Mat in frames. Convenient with RoadSequence.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
