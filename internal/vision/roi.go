package vision

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/rekha/internal/config"
)

// ApplyROI zeroes every mask pixel outside the region-of-interest polygon,
// discarding thresholded clutter like sky, barriers and hood reflections.
// roi is normalized and scaled to the mask size. The caller owns the
// returned Mat.
func ApplyROI(mask *gocv.Mat, roi []config.Point) (gocv.Mat, error) {
	if mask == nil || mask.Empty() {
		return gocv.Mat{}, fmt.Errorf("apply roi: empty mask")
	}
	if len(roi) < 3 {
		return gocv.Mat{}, fmt.Errorf("apply roi: polygon needs at least 3 points, got %d", len(roi))
	}

	w, h := mask.Cols(), mask.Rows()
	polygon := make([]image.Point, len(roi))
	for i, p := range roi {
		polygon[i] = image.Pt(int(p.X*float64(w)), int(p.Y*float64(h)))
	}

	region := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC1)
	defer region.Close()
	region.SetTo(gocv.NewScalar(0, 0, 0, 0))

	pts := gocv.NewPointsVectorFromPoints([][]image.Point{polygon})
	defer pts.Close()
	gocv.FillPoly(&region, pts, color.RGBA{R: 255, G: 255, B: 255})

	out := gocv.NewMat()
	gocv.BitwiseAnd(*mask, region, &out)
	return out, nil
}
