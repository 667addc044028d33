package quadfill

import "math"

// Vec2 is a 2D point or displacement in float32, the precision the GPU
// kernels use.
type Vec2 struct {
	X, Y float32
}

// V2 is a convenience function to create a Vec2.
func V2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns v + w.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{X: v.X + w.X, Y: v.Y + w.Y}
}

// Sub returns v - w.
func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{X: v.X - w.X, Y: v.Y - w.Y}
}

// Mul returns v scaled by s.
func (v Vec2) Mul(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Lerp interpolates between v and w.
func (v Vec2) Lerp(w Vec2, t float32) Vec2 {
	return Vec2{X: v.X + (w.X-v.X)*t, Y: v.Y + (w.Y-v.Y)*t}
}

// Len returns the Euclidean length.
func (v Vec2) Len() float32 {
	return float32(math.Hypot(float64(v.X), float64(v.Y)))
}

// Vec4 is a homogeneous 4D vector.
type Vec4 struct {
	X, Y, Z, W float32
}

// XY returns the first two components.
func (v Vec4) XY() Vec2 {
	return Vec2{X: v.X, Y: v.Y}
}

// Project divides x, y and z by w.
func (v Vec4) Project() Vec4 {
	inv := 1 / v.W
	return Vec4{X: v.X * inv, Y: v.Y * inv, Z: v.Z * inv, W: 1}
}

// Rect is an axis-aligned box stored as (min x, min y, max x, max y).
type Rect [4]float32

// EmptyRect returns a rect that any Union replaces.
func EmptyRect() Rect {
	inf := float32(math.Inf(1))
	return Rect{inf, inf, -inf, -inf}
}

// Union grows r to include p.
func (r Rect) Union(p Vec2) Rect {
	return Rect{
		min32(r[0], p.X), min32(r[1], p.Y),
		max32(r[2], p.X), max32(r[3], p.Y),
	}
}

// IsEmpty reports whether r covers no area.
func (r Rect) IsEmpty() bool {
	return !(r[0] < r[2] && r[1] < r[3])
}

// Expand grows r by d on every side.
func (r Rect) Expand(d float32) Rect {
	return Rect{r[0] - d, r[1] - d, r[2] + d, r[3] + d}
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
