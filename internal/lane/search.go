package lane

import (
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ChooseStrategy selects the pixel search variant for the next frame.
// The warm start is only trusted when both of the previous frame's curves
// passed validation; anything less falls back to a cold start.
func ChooseStrategy(prev *FrameRecord) Strategy {
	if prev != nil && prev.Left.IsValid() && prev.Right.IsValid() {
		return StrategyWarmStart
	}
	return StrategyColdStart
}

// buildHistogram sums nonzero pixels column-wise over the bottom half of
// the mask. The two halves of the histogram seed the sliding window search.
func buildHistogram(mask *image.Gray) []float64 {
	bounds := mask.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	hist := make([]float64, w)
	for y := h / 2; y < h; y++ {
		off := mask.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		row := mask.Pix[off : off+w]
		for x, v := range row {
			if v != 0 {
				hist[x]++
			}
		}
	}
	return hist
}

// slidingWindowSearch locates both lane sides from scratch: histogram peaks
// seed a base x per side, then 9 vertical bands are scanned bottom to top,
// each window recentering on the pixels it collects.
func slidingWindowSearch(mask *image.Gray, cfg Config) (left, right PixelSet) {
	bounds := mask.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Step 1: seed each side from its half of the histogram.
	hist := buildHistogram(mask)
	mid := w / 2
	leftCenter := floats.MaxIdx(hist[:mid])
	rightCenter := mid + floats.MaxIdx(hist[mid:])

	// Step 2: scan equal-height bands from the bottom of the image up,
	// collecting nonzero pixels around each side's current center.
	windowHeight := h / cfg.Windows
	for i := 0; i < cfg.Windows; i++ {
		yHigh := h - i*windowHeight
		yLow := h - (i+1)*windowHeight
		leftCenter = collectWindow(mask, &left, yLow, yHigh, leftCenter, cfg)
		rightCenter = collectWindow(mask, &right, yLow, yHigh, rightCenter, cfg)
	}
	return left, right
}

// collectWindow appends the nonzero pixels inside one band within the
// window margin of centerX to the set. When the band collects enough pixels
// the window recenters on their mean x; the returned center seeds the band
// above.
func collectWindow(mask *image.Gray, set *PixelSet, yLow, yHigh, centerX int, cfg Config) int {
	bounds := mask.Bounds()
	w := bounds.Dx()

	xLow := centerX - cfg.WindowMargin
	if xLow < 0 {
		xLow = 0
	}
	xHigh := centerX + cfg.WindowMargin
	if xHigh > w {
		xHigh = w
	}

	before := set.Len()
	sumX := 0
	for y := yLow; y < yHigh; y++ {
		off := mask.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		row := mask.Pix[off : off+w]
		for x := xLow; x < xHigh; x++ {
			if row[x] != 0 {
				set.Xs = append(set.Xs, x)
				set.Ys = append(set.Ys, y)
				sumX += x
			}
		}
	}

	if count := set.Len() - before; count >= cfg.MinRecenterPixels {
		centerX = sumX / count
	}
	return centerX
}

// polynomialSearch selects all nonzero pixels within the poly margin of the
// previous frame's fitted curves. The prior curve already localizes each
// side, so no windowing or recentering is needed.
func polynomialSearch(mask *image.Gray, prevLeft, prevRight Curve, cfg Config) (left, right PixelSet) {
	bounds := mask.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	margin := float64(cfg.PolyMargin)

	for y := 0; y < h; y++ {
		off := mask.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		row := mask.Pix[off : off+w]

		fy := float64(y)
		leftX := evalPoly(prevLeft.Coeffs, fy)
		rightX := evalPoly(prevRight.Coeffs, fy)

		for x, v := range row {
			if v == 0 {
				continue
			}
			fx := float64(x)
			if fx > leftX-margin && fx < leftX+margin {
				left.Xs = append(left.Xs, x)
				left.Ys = append(left.Ys, y)
			}
			if fx > rightX-margin && fx < rightX+margin {
				right.Xs = append(right.Xs, x)
				right.Ys = append(right.Ys, y)
			}
		}
	}
	return left, right
}

// minLaneGap returns the smallest horizontal separation between the two
// sampled curves across all y. Both curves must be sampled over the same
// height.
func minLaneGap(left, right Curve) float64 {
	minGap := math.Inf(1)
	for y := range left.SampledX {
		gap := math.Abs(right.SampledX[y] - left.SampledX[y])
		if gap < minGap {
			minGap = gap
		}
	}
	return minGap
}
