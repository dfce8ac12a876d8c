package math

import (
	m "math"

	"golang.org/x/image/math/f32"
)

// Identity4 returns the 4x4 identity matrix.
func Identity4() f32.Mat4 {
	return f32.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// ScaleProjection returns a column-major matrix that scales x and y, leaving
// z and w untouched.
func ScaleProjection(xScale, yScale float32) f32.Mat4 {
	p := Identity4()
	p[0] = xScale
	p[5] = yScale
	return p
}

// AspectCorrectedZoom builds the breathing projection of the demo scenes:
// the zoom oscillates with time between 0.34 and 1.0, and x is scaled by
// height/width so the geometry keeps its proportions.
func AspectCorrectedZoom(width, height uint32, seconds float64) f32.Mat4 {
	if width == 0 {
		return Identity4()
	}
	aspect := float32(height) / float32(width)
	zoom := float32(m.Cos(seconds))*0.33 + 0.67
	return ScaleProjection(aspect*zoom, zoom)
}
