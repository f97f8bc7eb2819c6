package lane

// Offset returns the vehicle's lateral distance in meters from the lane
// center, measured at the bottom of the image. The camera is assumed to be
// mounted at the vehicle's centerline, so the image center column stands in
// for the vehicle position. Sign convention: positive means the vehicle sits
// to the right of the lane center, negative to the left.
func Offset(left, right Curve, width int, metersPerPixelX float64) float64 {
	laneCenter := (left.LowestPoint() + right.LowestPoint()) / 2
	imageCenter := float64(width) / 2
	return (imageCenter - laneCenter) * metersPerPixelX
}
