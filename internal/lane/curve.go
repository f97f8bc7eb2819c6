package lane

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// curvatureEpsilon is the floor applied to the |2a| divisor of the curvature
// radius formula. A near-straight line has a second-degree coefficient close
// to zero; the floor keeps the reported radius large but finite.
const curvatureEpsilon = 1e-6

// Curve is a fitted second-degree lane boundary model for one frame,
// x = a*y^2 + b*y + c in pixel space. The zero value is an undetected curve.
type Curve struct {
	Coeffs     [3]float64 // a, b, c
	PixelCount int        // number of mask pixels used by the fit
	Detected   bool       // false when the search produced no usable pixels
	SampledX   []float64  // fitted x at every integer y in [0, height)
	Curvature  float64    // world-space radius of curvature in meters
	UpperSlope float64    // dx/dy at the top of the sampled range
	MidSlope   float64    // dx/dy at the middle of the sampled range
	LowerSlope float64    // dx/dy at the bottom of the sampled range

	// validity gates captured from the Config at fit time
	minPixels int
	slopeTol  float64
}

// Fit fits a least-squares second-degree polynomial of x as a function of y
// to the pixel set and samples it at every integer y in [0, height).
// It never fails: an empty or degenerate pixel set (fewer pixels than
// coefficients, or a rank-deficient system such as all pixels on one row)
// yields a curve with Detected == false.
func Fit(px PixelSet, height int, cfg Config) Curve {
	curve := Curve{
		PixelCount: px.Len(),
		minPixels:  cfg.MinPixels,
		slopeTol:   cfg.SlopeTolerance,
	}

	// A set smaller than the coefficient count cannot constrain the fit.
	if px.Len() < 3 || len(px.Xs) != len(px.Ys) || height < 1 {
		return curve
	}

	ys := make([]float64, px.Len())
	xs := make([]float64, px.Len())
	for i := range px.Xs {
		ys[i] = float64(px.Ys[i])
		xs[i] = float64(px.Xs[i])
	}

	coeffs, err := polyfit(ys, xs)
	if err != nil {
		return curve
	}

	curve.Coeffs = coeffs
	curve.Detected = true

	// Sample the fitted polynomial over the full image height.
	curve.SampledX = make([]float64, height)
	for y := 0; y < height; y++ {
		curve.SampledX[y] = evalPoly(coeffs, float64(y))
	}

	// Slopes at top, middle and bottom of the sampled range feed the
	// plausibility gates in IsValid.
	curve.UpperSlope = slopeAt(coeffs, 0)
	curve.MidSlope = slopeAt(coeffs, float64(height/2))
	curve.LowerSlope = slopeAt(coeffs, float64(height-1))

	curve.Curvature = worldCurvature(curve.SampledX, cfg)

	return curve
}

// IsValid reports whether the curve passes the plausibility gates: it was
// detected, enough pixels supported the fit, and the slope at the top,
// middle and bottom of the curve (and the spread between top and bottom)
// stays below the tolerance. Curves fit from noise or bending implausibly
// sharply fail these gates.
func (c Curve) IsValid() bool {
	if !c.Detected {
		return false
	}
	if c.PixelCount <= c.minPixels {
		return false
	}
	if math.Abs(c.UpperSlope) >= c.slopeTol ||
		math.Abs(c.MidSlope) >= c.slopeTol ||
		math.Abs(c.LowerSlope) >= c.slopeTol {
		return false
	}
	return math.Abs(c.UpperSlope-c.LowerSlope) < c.slopeTol
}

// LowestPoint returns the fitted x at the maximum sampled y, the point on
// the curve closest to the vehicle. Returns 0 for an undetected curve.
func (c Curve) LowestPoint() float64 {
	if len(c.SampledX) == 0 {
		return 0
	}
	return c.SampledX[len(c.SampledX)-1]
}

// evalPoly evaluates a*y^2 + b*y + c at y.
func evalPoly(coeffs [3]float64, y float64) float64 {
	return coeffs[0]*y*y + coeffs[1]*y + coeffs[2]
}

// slopeAt evaluates the derivative 2a*y + b at y.
func slopeAt(coeffs [3]float64, y float64) float64 {
	return 2*coeffs[0]*y + coeffs[1]
}

// worldCurvature scales the sampled curve points to world space, refits the
// polynomial there, and evaluates the radius of curvature
// R = (1 + (2a*y + b)^2)^1.5 / |2a| at the maximum world-space y.
func worldCurvature(sampled []float64, cfg Config) float64 {
	n := len(sampled)
	if n < 3 {
		return 0
	}

	ys := make([]float64, n)
	xs := make([]float64, n)
	for y, x := range sampled {
		ys[y] = float64(y) * cfg.MetersPerPixelY
		xs[y] = x * cfg.MetersPerPixelX
	}

	coeffs, err := polyfit(ys, xs)
	if err != nil {
		return 0
	}

	yEval := float64(n-1) * cfg.MetersPerPixelY
	slope := slopeAt(coeffs, yEval)

	denom := math.Abs(2 * coeffs[0])
	if denom < curvatureEpsilon {
		denom = curvatureEpsilon
	}

	return math.Pow(1+slope*slope, 1.5) / denom
}

// polyfit solves the least-squares system for x = a*y^2 + b*y + c using a
// QR factorization of the Vandermonde matrix. Requires at least 3 points;
// returns an error when the system is rank deficient.
func polyfit(ys, xs []float64) ([3]float64, error) {
	n := len(ys)

	a := mat.NewDense(n, 3, nil)
	b := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		y := ys[i]
		a.Set(i, 0, y*y)
		a.Set(i, 1, y)
		a.Set(i, 2, 1)
		b.SetVec(i, xs[i])
	}

	var qr mat.QR
	qr.Factorize(a)

	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, b); err != nil {
		return [3]float64{}, err
	}

	return [3]float64{sol.AtVec(0), sol.AtVec(1), sol.AtVec(2)}, nil
}
