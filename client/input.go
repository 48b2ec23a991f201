package client

import "math"

// DirectionTo returns the heading from the centre of a w by h surface
// towards (x, y). Zero points up and angles grow clockwise.
func DirectionTo(x, y, w, h float64) float64 {
	return math.Atan2(x-w/2, h/2-y)
}
