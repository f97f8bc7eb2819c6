package capture

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

// CameraModel holds the intrinsic camera matrix and distortion coefficients
// produced by chessboard calibration.
type CameraModel struct {
	Matrix     gocv.Mat
	DistCoeffs gocv.Mat
}

// Close releases the model's resources.
func (m *CameraModel) Close() {
	if !m.Matrix.Empty() {
		m.Matrix.Close()
	}
	if !m.DistCoeffs.Empty() {
		m.DistCoeffs.Close()
	}
}

// CalibrateFromDir computes a CameraModel from a directory of chessboard
// photographs taken with the camera to be corrected. cols and rows count the
// chessboard's inner corners. Images where no chessboard is found are
// skipped; at least one usable image is required.
func CalibrateFromDir(dir string, cols, rows int) (*CameraModel, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read calibration dir: %w", err)
	}

	patternSize := image.Pt(cols, rows)

	objectPoints := gocv.NewPoints3fVector()
	defer objectPoints.Close()
	imagePoints := gocv.NewPoints2fVector()
	defer imagePoints.Close()

	var imageSize image.Point
	usable := 0

	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}

		img := gocv.IMRead(filepath.Join(dir, entry.Name()), gocv.IMReadColor)
		if img.Empty() {
			img.Close()
			continue
		}

		gray := gocv.NewMat()
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

		corners := gocv.NewMat()
		found := gocv.FindChessboardCorners(gray, patternSize, &corners,
			gocv.CalibCBAdaptiveThresh|gocv.CalibCBNormalizeImage)
		if found {
			imageSize = image.Pt(gray.Cols(), gray.Rows())

			pts := gocv.NewPoint2fVectorFromMat(corners)
			imagePoints.Append(pts)
			pts.Close()

			// The object points are the same flat grid for every image
			obj := chessboardObjectPoints(cols, rows)
			objectPoints.Append(obj)
			obj.Close()

			usable++
		}

		corners.Close()
		gray.Close()
		img.Close()
	}

	if usable == 0 {
		return nil, fmt.Errorf("no usable chessboard images in %s", dir)
	}

	matrix := gocv.NewMat()
	distCoeffs := gocv.NewMat()
	rvecs := gocv.NewMat()
	defer rvecs.Close()
	tvecs := gocv.NewMat()
	defer tvecs.Close()

	gocv.CalibrateCamera(objectPoints, imagePoints, imageSize,
		&matrix, &distCoeffs, &rvecs, &tvecs, gocv.CalibFlag(0))

	return &CameraModel{Matrix: matrix, DistCoeffs: distCoeffs}, nil
}

// chessboardObjectPoints builds the flat reference grid the chessboard
// corners are matched against, one point per inner corner.
func chessboardObjectPoints(cols, rows int) gocv.Point3fVector {
	pts := gocv.NewPoint3fVector()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			pts.Append(gocv.Point3f{X: float32(x), Y: float32(y), Z: 0})
		}
	}
	return pts
}

// isImageFile reports whether the file name has a supported image extension.
func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// Undistorter corrects lens distortion on frames using a CameraModel.
// A nil model passes frames through unchanged, for footage where no
// calibration images exist.
type Undistorter struct {
	model *CameraModel
}

// NewUndistorter creates an Undistorter. model may be nil.
func NewUndistorter(model *CameraModel) *Undistorter {
	return &Undistorter{model: model}
}

// Apply writes the undistorted frame to dst.
func (u *Undistorter) Apply(src gocv.Mat, dst *gocv.Mat) {
	if u.model == nil {
		src.CopyTo(dst)
		return
	}
	gocv.Undistort(src, dst, u.model.Matrix, u.model.DistCoeffs, u.model.Matrix)
}
