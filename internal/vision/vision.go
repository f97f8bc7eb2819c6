// Package vision turns color road frames into binary lane masks and maps
// them into the bird's-eye view the pixel search operates in.
package vision

import "gocv.io/x/gocv"

// Masker defines the interface for lane mask extraction implementations.
type Masker interface {
	// Mask extracts a single-channel binary mask from a color frame.
	// Lane-marking pixels are nonzero. The caller owns the returned Mat.
	Mask(frame *gocv.Mat) (gocv.Mat, error)

	// Close releases any resources held by the masker.
	Close() error
}
