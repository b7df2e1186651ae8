package layout

import "math"

// Point represents a 2D coordinate or translation vector in key-geometry units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is a convenience constructor for Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Rotate returns the point rotated by deg degrees around the origin.
// Positive angles rotate clockwise in the y-down SVG coordinate system,
// matching the SVG rotate() transform.
func (p Point) Rotate(deg float64) Point {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Point{
		X: p.X*cos - p.Y*sin,
		Y: p.X*sin + p.Y*cos,
	}
}

// RotateAround returns the point rotated by deg degrees around center.
func (p Point) RotateAround(deg float64, center Point) Point {
	return p.Sub(center).Rotate(deg).Add(center)
}

// Round converts a coordinate to the integer used in SVG output,
// rounding half away from zero. All emitted coordinates go through
// this single rule.
func Round(v float64) int {
	return int(math.Round(v))
}
