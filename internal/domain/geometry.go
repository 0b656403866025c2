package domain

// Point is a pixel position in full-screen coordinates.
type Point struct {
	X int
	Y int
}

// Rect is a pixel rectangle. X2/Y2 are exclusive.
type Rect struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

func (r Rect) Width() int  { return r.X2 - r.X1 }
func (r Rect) Height() int { return r.Y2 - r.Y1 }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X1 + r.Width()/2, Y: r.Y1 + r.Height()/2}
}

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X1 && p.X < r.X2 && p.Y >= r.Y1 && p.Y < r.Y2
}
