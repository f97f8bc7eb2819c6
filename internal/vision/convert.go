package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// MatToGray copies a single-channel mask Mat into an image.Gray, the
// representation the lane search operates on. Copying at this boundary
// keeps OpenCV types out of the lane package.
func MatToGray(mask *gocv.Mat) (*image.Gray, error) {
	if mask == nil || mask.Empty() {
		return nil, fmt.Errorf("mat to gray: empty mask")
	}
	if mask.Type() != gocv.MatTypeCV8UC1 {
		return nil, fmt.Errorf("mat to gray: want single-channel 8-bit mask, got type %d", mask.Type())
	}

	img, err := mask.ToImage()
	if err != nil {
		return nil, fmt.Errorf("mat to gray: %w", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("mat to gray: unexpected image type %T", img)
	}
	return gray, nil
}
