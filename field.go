// Package isolod extracts triangle meshes from implicit scalar fields over an
// adaptive tetrahedral hierarchy whose density follows the viewer.
//
// This package holds the field contract shared by the extraction engine
// (package umc) and the hierarchy (package tetra), plus a set of sample fields.
package isolod

import (
	"github.com/soypat/isolod/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Field is a time varying scalar field. The extracted surface is the zero
// level set; points where Evaluate returns a negative value are inside.
// Implementations must be deterministic for fixed arguments.
type Field interface {
	Evaluate(p r3.Vec, t float64) float64
}

// FieldFunc adapts an ordinary function to the Field interface.
type FieldFunc func(p r3.Vec, t float64) float64

// Evaluate calls f(p, t).
func (f FieldFunc) Evaluate(p r3.Vec, t float64) float64 { return f(p, t) }

// GradientStep is the central difference step used for vertex normals.
const GradientStep = 0.1

// Gradient returns the central difference gradient of f at p with step h.
// The result is not normalized.
func Gradient(f Field, p r3.Vec, t, h float64) r3.Vec {
	dx := r3.Vec{X: h}
	dy := r3.Vec{Y: h}
	dz := r3.Vec{Z: h}
	inv := 1 / (2 * h)
	return r3.Vec{
		X: (f.Evaluate(r3.Add(p, dx), t) - f.Evaluate(r3.Sub(p, dx), t)) * inv,
		Y: (f.Evaluate(r3.Add(p, dy), t) - f.Evaluate(r3.Sub(p, dy), t)) * inv,
		Z: (f.Evaluate(r3.Add(p, dz), t) - f.Evaluate(r3.Sub(p, dz), t)) * inv,
	}
}

// Intersect returns the zero crossing of the linear interpolant between
// field values v0 at p0 and v1 at p1. v0 and v1 must differ.
// Swapping the endpoints yields a bit-identical result.
func Intersect(p0, p1 r3.Vec, v0, v1 float64) r3.Vec {
	if d3.Less(p1, p0) {
		p0, p1 = p1, p0
		v0, v1 = v1, v0
	}
	mu := -v0 / (v1 - v0)
	return r3.Add(p0, r3.Scale(mu, r3.Sub(p1, p0)))
}
