// Package config loads and validates the JSON processing profile. A profile
// bundles everything that varies between videos: masking thresholds, the
// region of interest, the perspective transform quad and the lane tracking
// tuning. Fields omitted from the profile file keep their defaults, so
// partial profiles are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/rekha/internal/lane"
)

// maxProfileSize caps the profile file read at 1MB.
const maxProfileSize = 1 * 1024 * 1024

// Point is a normalized image coordinate: both axes run 0..1 and are scaled
// by the frame dimensions at use time.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Range is an inclusive channel threshold range.
type Range struct {
	Low  uint8 `json:"low"`
	High uint8 `json:"high"`
}

// VisionParams configures binary mask extraction and the perspective warp.
type VisionParams struct {
	TileRows          int     `json:"tile_rows"`          // threshold tile grid rows
	TileCols          int     `json:"tile_cols"`          // threshold tile grid columns
	ContrastThreshold float64 `json:"contrast_threshold"` // tile gray mean below this switches to the low-contrast ranges

	LThreshold            Range `json:"l_threshold"`              // LUV L channel range for lane pixels
	BThreshold            Range `json:"b_threshold"`              // LAB B channel range for lane pixels
	LThresholdLowContrast Range `json:"l_threshold_low_contrast"` // L range used in low-contrast tiles
	BThresholdLowContrast Range `json:"b_threshold_low_contrast"` // B range used in low-contrast tiles

	// ROI is the polygon outside which mask pixels are discarded.
	ROI []Point `json:"roi"`

	// TransformSrc is the perspective source quad in the order bottom-left,
	// top-left, top-right, bottom-right. The destination quad is derived
	// from the outer corners' x at full image height.
	TransformSrc []Point `json:"transform_src"`
}

// CaptureParams configures the video source and camera calibration.
type CaptureParams struct {
	CameraID          int     `json:"camera_id"`           // device id for live capture
	CalibrationDir    string  `json:"calibration_dir"`     // chessboard image directory, empty disables undistortion
	ChessboardCols    int     `json:"chessboard_cols"`     // inner corners per chessboard row
	ChessboardRows    int     `json:"chessboard_rows"`     // inner corners per chessboard column
	SceneCutThreshold float64 `json:"scene_cut_threshold"` // changed-pixel fraction that counts as a scene cut
}

// AlertParams configures event hooks.
type AlertParams struct {
	HooksDir           string  `json:"hooks_dir"`           // hook manifest directory, empty disables hooks
	DepartureThreshold float64 `json:"departure_threshold"` // absolute lane-center offset in meters that raises lane_departure
}

// ServerParams configures the HTTP server.
type ServerParams struct {
	Addr      string `json:"addr"`       // listen address
	StaticDir string `json:"static_dir"` // dashboard directory, empty disables static serving
}

// Profile is the root processing profile.
type Profile struct {
	Lane    lane.Config   `json:"lane"`
	Vision  VisionParams  `json:"vision"`
	Capture CaptureParams `json:"capture"`
	Alerts  AlertParams   `json:"alerts"`
	Server  ServerParams  `json:"server"`
}

// Default returns the profile tuned for 1280x720 dashcam footage of US
// highway lanes. All values can be overridden per video.
func Default() Profile {
	return Profile{
		Lane: lane.DefaultConfig(),
		Vision: VisionParams{
			TileRows:              9,
			TileCols:              20,
			ContrastThreshold:     120,
			LThreshold:            Range{Low: 215, High: 255},
			BThreshold:            Range{Low: 145, High: 200},
			LThresholdLowContrast: Range{Low: 205, High: 255},
			BThresholdLowContrast: Range{Low: 140, High: 200},
			ROI: []Point{
				{X: 0.05, Y: 1.0},
				{X: 0.42, Y: 0.60},
				{X: 0.58, Y: 0.60},
				{X: 0.98, Y: 1.0},
			},
			TransformSrc: []Point{
				{X: 0.156, Y: 1.0},
				{X: 0.457, Y: 0.632},
				{X: 0.547, Y: 0.632},
				{X: 0.859, Y: 1.0},
			},
		},
		Capture: CaptureParams{
			CameraID:          0,
			ChessboardCols:    9,
			ChessboardRows:    6,
			SceneCutThreshold: 0.4,
		},
		Alerts: AlertParams{
			DepartureThreshold: 0.7,
		},
		Server: ServerParams{
			Addr: ":8765",
		},
	}
}

// Load reads a profile from a JSON file, merging it over the defaults.
func Load(path string) (Profile, error) {
	profile := Default()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return profile, fmt.Errorf("profile must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return profile, fmt.Errorf("stat profile: %w", err)
	}
	if info.Size() > maxProfileSize {
		return profile, fmt.Errorf("profile too large: %d bytes (max %d)", info.Size(), maxProfileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return profile, fmt.Errorf("read profile: %w", err)
	}

	if err := json.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("parse profile: %w", err)
	}

	if err := profile.Validate(); err != nil {
		return profile, fmt.Errorf("invalid profile: %w", err)
	}
	return profile, nil
}

// Validate checks the profile for values the pipeline cannot run with.
func (p Profile) Validate() error {
	l := p.Lane
	if l.MinPixels <= 0 {
		return fmt.Errorf("lane.min_pixels must be positive, got %d", l.MinPixels)
	}
	if l.SlopeTolerance <= 0 {
		return fmt.Errorf("lane.slope_tolerance must be positive, got %f", l.SlopeTolerance)
	}
	if l.AverageWindow < 1 {
		return fmt.Errorf("lane.average_window must be at least 1, got %d", l.AverageWindow)
	}
	if l.MinLaneGap < 0 {
		return fmt.Errorf("lane.min_lane_gap must be non-negative, got %d", l.MinLaneGap)
	}
	if l.Windows < 1 {
		return fmt.Errorf("lane.windows must be at least 1, got %d", l.Windows)
	}
	if l.WindowMargin <= 0 {
		return fmt.Errorf("lane.window_margin must be positive, got %d", l.WindowMargin)
	}
	if l.PolyMargin <= 0 {
		return fmt.Errorf("lane.poly_margin must be positive, got %d", l.PolyMargin)
	}
	if l.MinRecenterPixels < 1 {
		return fmt.Errorf("lane.min_recenter_pixels must be at least 1, got %d", l.MinRecenterPixels)
	}
	if l.MetersPerPixelX <= 0 || l.MetersPerPixelY <= 0 {
		return fmt.Errorf("lane meters-per-pixel factors must be positive, got %f and %f",
			l.MetersPerPixelX, l.MetersPerPixelY)
	}

	v := p.Vision
	if v.TileRows < 1 || v.TileCols < 1 {
		return fmt.Errorf("vision tile grid must be at least 1x1, got %dx%d", v.TileRows, v.TileCols)
	}
	for name, r := range map[string]Range{
		"l_threshold":              v.LThreshold,
		"b_threshold":              v.BThreshold,
		"l_threshold_low_contrast": v.LThresholdLowContrast,
		"b_threshold_low_contrast": v.BThresholdLowContrast,
	} {
		if r.Low > r.High {
			return fmt.Errorf("vision.%s: low %d exceeds high %d", name, r.Low, r.High)
		}
	}
	if len(v.ROI) < 3 {
		return fmt.Errorf("vision.roi needs at least 3 points, got %d", len(v.ROI))
	}
	if len(v.TransformSrc) != 4 {
		return fmt.Errorf("vision.transform_src needs exactly 4 points, got %d", len(v.TransformSrc))
	}
	for i, pt := range append(append([]Point{}, v.ROI...), v.TransformSrc...) {
		if pt.X < 0 || pt.X > 1 || pt.Y < 0 || pt.Y > 1 {
			return fmt.Errorf("normalized point %d out of range: (%f, %f)", i, pt.X, pt.Y)
		}
	}

	c := p.Capture
	if c.ChessboardCols < 2 || c.ChessboardRows < 2 {
		return fmt.Errorf("chessboard pattern must be at least 2x2, got %dx%d",
			c.ChessboardCols, c.ChessboardRows)
	}
	if c.SceneCutThreshold < 0 || c.SceneCutThreshold > 1 {
		return fmt.Errorf("capture.scene_cut_threshold must be within [0, 1], got %f", c.SceneCutThreshold)
	}

	if p.Alerts.DepartureThreshold < 0 {
		return fmt.Errorf("alerts.departure_threshold must be non-negative, got %f",
			p.Alerts.DepartureThreshold)
	}

	if p.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	return nil
}
