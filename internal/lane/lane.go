// Package lane implements per-frame lane boundary detection and the
// temporal tracking state carried across frames of a video run.
package lane

// Side identifies one of the two lane boundaries.
type Side string

const (
	// SideLeft is the lane boundary to the left of the vehicle.
	SideLeft Side = "left"
	// SideRight is the lane boundary to the right of the vehicle.
	SideRight Side = "right"
)

// Strategy identifies which pixel search variant produced a frame's curves.
type Strategy string

const (
	// StrategyColdStart is the histogram + sliding window search, used when
	// no usable prior curves exist.
	StrategyColdStart Strategy = "cold_start"
	// StrategyWarmStart is the polynomial neighborhood search around the
	// previous frame's curves.
	StrategyWarmStart Strategy = "warm_start"
)

// PixelSet holds the mask pixel coordinates selected for one lane side in
// one frame. Xs and Ys are parallel slices of equal length.
type PixelSet struct {
	Xs []int
	Ys []int
}

// Len returns the number of pixels in the set.
func (p PixelSet) Len() int {
	return len(p.Xs)
}

// FrameRecord holds the tracking result for a single processed frame.
// Records are appended to the tracker history in frame order and never
// mutated afterwards.
type FrameRecord struct {
	Index    int      // frame number within the run, starting at 0
	Left     Curve    // fitted left boundary
	Right    Curve    // fitted right boundary
	Strategy Strategy // search variant that produced the curves
}

// Curve returns the record's curve for the given side.
func (r FrameRecord) Curve(side Side) Curve {
	if side == SideRight {
		return r.Right
	}
	return r.Left
}

// Config holds the tuning parameters for lane detection and tracking.
type Config struct {
	MinPixels         int     `json:"min_pixels"`          // minimum pixel count for a fitted curve to be valid
	SlopeTolerance    float64 `json:"slope_tolerance"`     // maximum absolute slope (and slope spread) of a valid curve
	AverageWindow     int     `json:"average_window"`      // number of recent valid curves averaged per side
	MinLaneGap        int     `json:"min_lane_gap"`        // minimum plausible horizontal gap between the two curves, pixels
	Windows           int     `json:"windows"`             // number of vertical bands in the sliding window search
	WindowMargin      int     `json:"window_margin"`       // half-width of a sliding search window, pixels
	PolyMargin        int     `json:"poly_margin"`         // half-width of the polynomial neighborhood search, pixels
	MinRecenterPixels int     `json:"min_recenter_pixels"` // pixels a window must collect before it recenters
	MetersPerPixelX   float64 `json:"meters_per_pixel_x"`  // world-space scale along image x
	MetersPerPixelY   float64 `json:"meters_per_pixel_y"`  // world-space scale along image y
}

// DefaultConfig returns the tuning parameters used for 1280x720 dashcam
// footage with US highway lane geometry.
func DefaultConfig() Config {
	return Config{
		MinPixels:         3000,
		SlopeTolerance:    1.2,
		AverageWindow:     7,
		MinLaneGap:        300,
		Windows:           9,
		WindowMargin:      75,
		PolyMargin:        50,
		MinRecenterPixels: 75,
		MetersPerPixelX:   3.7 / 700,
		MetersPerPixelY:   30.0 / 720,
	}
}
