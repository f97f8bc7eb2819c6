package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/rekha/internal/config"
)

// blurKernelSize is the kernel size of the Gaussian blur applied to the
// frame before thresholding, softening sensor noise and paint edges.
const blurKernelSize = 7

// ThresholdMasker extracts lane markings by color thresholding. White paint
// is caught by the L channel of the LUV color space, yellow paint by the B
// channel of LAB. The frame is processed in tiles so shadowed stretches of
// road can fall back to looser low-contrast ranges without washing out the
// rest of the image.
type ThresholdMasker struct {
	params config.VisionParams
}

// NewThresholdMasker creates a ThresholdMasker with the given parameters.
func NewThresholdMasker(params config.VisionParams) *ThresholdMasker {
	return &ThresholdMasker{params: params}
}

// Mask extracts a binary lane mask from a color frame.
//
// Algorithm:
// 1. Blur the frame to soften noise
// 2. Convert to LUV and LAB, keep the L and B channels
// 3. Split the frame into a tile grid
// 4. Pick per-tile threshold ranges from the tile's gray mean
// 5. OR the in-range L and B pixels into the mask tile
func (m *ThresholdMasker) Mask(frame *gocv.Mat) (gocv.Mat, error) {
	if frame == nil || frame.Empty() {
		return gocv.Mat{}, fmt.Errorf("mask: empty frame")
	}

	rows, cols := frame.Rows(), frame.Cols()
	if rows < m.params.TileRows || cols < m.params.TileCols {
		return gocv.Mat{}, fmt.Errorf("mask: frame %dx%d smaller than %dx%d tile grid",
			cols, rows, m.params.TileCols, m.params.TileRows)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(*frame, &blurred, image.Point{X: blurKernelSize, Y: blurKernelSize},
		0, 0, gocv.BorderDefault)

	luv := gocv.NewMat()
	defer luv.Close()
	gocv.CvtColor(blurred, &luv, gocv.ColorBGRToLuv)

	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(blurred, &lab, gocv.ColorBGRToLab)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(blurred, &gray, gocv.ColorBGRToGray)

	luvChannels := gocv.Split(luv)
	lChan := luvChannels[0]
	labChannels := gocv.Split(lab)
	bChan := labChannels[2]
	defer func() {
		for i := range luvChannels {
			luvChannels[i].Close()
		}
		for i := range labChannels {
			labChannels[i].Close()
		}
	}()

	mask := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC1)

	tileH := rows / m.params.TileRows
	tileW := cols / m.params.TileCols

	for tr := 0; tr < m.params.TileRows; tr++ {
		y0 := tr * tileH
		y1 := y0 + tileH
		if tr == m.params.TileRows-1 {
			y1 = rows
		}

		for tc := 0; tc < m.params.TileCols; tc++ {
			x0 := tc * tileW
			x1 := x0 + tileW
			if tc == m.params.TileCols-1 {
				x1 = cols
			}

			rect := image.Rect(x0, y0, x1, y1)
			m.maskTile(lChan, bChan, gray, mask, rect)
		}
	}

	return mask, nil
}

// maskTile thresholds one tile of the frame into the matching region of mask.
func (m *ThresholdMasker) maskTile(lChan, bChan, gray, mask gocv.Mat, rect image.Rectangle) {
	grayTile := gray.Region(rect)
	defer grayTile.Close()

	lRange := m.params.LThreshold
	bRange := m.params.BThreshold
	if grayTile.Mean().Val1 < m.params.ContrastThreshold {
		lRange = m.params.LThresholdLowContrast
		bRange = m.params.BThresholdLowContrast
	}

	lTile := lChan.Region(rect)
	defer lTile.Close()
	bTile := bChan.Region(rect)
	defer bTile.Close()

	lMask := gocv.NewMat()
	defer lMask.Close()
	gocv.InRangeWithScalar(lTile,
		gocv.NewScalar(float64(lRange.Low), 0, 0, 0),
		gocv.NewScalar(float64(lRange.High), 0, 0, 0), &lMask)

	bMask := gocv.NewMat()
	defer bMask.Close()
	gocv.InRangeWithScalar(bTile,
		gocv.NewScalar(float64(bRange.Low), 0, 0, 0),
		gocv.NewScalar(float64(bRange.High), 0, 0, 0), &bMask)

	combined := gocv.NewMat()
	defer combined.Close()
	gocv.BitwiseOr(lMask, bMask, &combined)

	maskTile := mask.Region(rect)
	defer maskTile.Close()
	combined.CopyTo(&maskTile)
}

// Close is a no-op; the masker holds no resources.
func (m *ThresholdMasker) Close() error {
	return nil
}
