package render

import "image/color"

// Point is a position in surface coordinates.
type Point struct {
	X, Y float64
}

// Surface is a 2D drawing target with a transform stack. Coordinates passed
// to the drawing calls go through the current transform.
type Surface interface {
	// Size returns the drawable width and height.
	Size() (w, h float64)
	// Clear makes the whole surface transparent.
	Clear()

	Save()
	Restore()
	Translate(x, y float64)
	Rotate(theta float64)

	StrokeRect(x, y, w, h, width float64, c color.Color)
	FillRect(x, y, w, h float64, c color.Color)
	FillPolygon(points []Point, c color.Color)
	StrokePolygon(points []Point, width float64, c color.Color)
	DrawSprite(name string, x, y, w, h float64)
}

var (
	colorWhite  = color.RGBA{255, 255, 255, 255}
	colorRed    = color.RGBA{255, 0, 0, 255}
	colorOrange = color.RGBA{255, 165, 0, 255}
	colorBlack  = color.RGBA{0, 0, 0, 255}
)
