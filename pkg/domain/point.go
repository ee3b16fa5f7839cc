package domain

import (
	"fmt"
	"math"
)

// Vec3 is a point (or displacement) in world space.
// Y is the vertical axis, matching the host convention.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Dist returns the euclidean distance between v and o.
func (v Vec3) Dist(o Vec3) float64 {
	d := v.Sub(o)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// WithY returns a copy of v with the vertical component replaced.
func (v Vec3) WithY(y float64) Vec3 {
	v.Y = y
	return v
}

// Raised returns a copy of v lifted by dy.
func (v Vec3) Raised(dy float64) Vec3 {
	v.Y += dy
	return v
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}
