package isolod

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// WorldSize is the edge length of the region the sample fields are tuned for.
// It matches a hierarchy built with resolution 8.
const WorldSize = 256

// The sample fields below translate along X with time so that a hierarchy can
// be re-extracted as an animation.

// Sphere returns x²+y²+z²-r², a sphere of radius r centered at the origin.
// The field is not a distance.
func Sphere(r float64) Field {
	r2 := r * r
	return FieldFunc(func(p r3.Vec, t float64) float64 {
		p.X += t
		return r3.Norm2(p) - r2
	})
}

// SphereDistance returns the signed distance to a sphere of radius r.
func SphereDistance(r float64) Field {
	return FieldFunc(func(p r3.Vec, t float64) float64 {
		p.X += t
		return r3.Norm(p) - r
	})
}

// Torus returns the signed distance to a torus lying in the XY plane with
// major radius r1 and minor radius r2.
func Torus(r1, r2 float64) Field {
	return FieldFunc(func(p r3.Vec, t float64) float64 {
		p.X += t
		q := math.Hypot(p.X, p.Y) - r1
		return math.Hypot(q, p.Z) - r2
	})
}

// Plane returns offset-z. Points above z=offset are inside.
func Plane(offset float64) Field {
	return FieldFunc(func(p r3.Vec, t float64) float64 {
		return offset - p.Z
	})
}

// Klein returns the implicit Klein bottle immersion with coordinates scaled by m.
func Klein(m float64) Field {
	return FieldFunc(func(p r3.Vec, t float64) float64 {
		x, y, z := (p.X+t)*m, p.Y*m, p.Z*m
		s := x*x + y*y + z*z
		a := s + 2*y - 1
		b := s - 2*y - 1
		return a*(b*b-8*z*z) + 16*x*z*b
	})
}

// Intersection returns the field whose inside is the intersection of the
// insides of a and b.
func Intersection(a, b Field) Field {
	return FieldFunc(func(p r3.Vec, t float64) float64 {
		return math.Max(a.Evaluate(p, t), b.Evaluate(p, t))
	})
}

// Translate returns f moved by offset.
func Translate(f Field, offset r3.Vec) Field {
	return FieldFunc(func(p r3.Vec, t float64) float64 {
		return f.Evaluate(r3.Sub(p, offset), t)
	})
}

// SlicedSphere is a distance sphere of radius r with the half space y > 0
// removed, exposing a flat cap.
func SlicedSphere(r float64) Field {
	cut := FieldFunc(func(p r3.Vec, t float64) float64 { return p.Y })
	return Intersection(SphereDistance(r), cut)
}
