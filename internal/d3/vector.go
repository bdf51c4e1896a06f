package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// R3 vector helpers. Functions here that combine several vectors do so in
// an order that depends only on the vector values, so that two callers
// holding the same points in a different order get bit-identical results.

func Elem(sides float64) r3.Vec {
	return r3.Vec{X: sides, Y: sides, Z: sides}
}

// MinElem return a vector with the minimum components of two vectors.
func MinElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

// MaxElem return a vector with the maximum components of two vectors.
func MaxElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

// Less orders vectors lexicographically by X, then Y, then Z.
func Less(a, b r3.Vec) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

// Sort sorts vs in place with Less. Meant for the handful of points of a
// simplex or cell, it does not allocate.
func Sort(vs []r3.Vec) {
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && Less(vs[j], vs[j-1]); j-- {
			vs[j], vs[j-1] = vs[j-1], vs[j]
		}
	}
}

// Average returns the unweighted mean of vs. The result does not depend on
// the order of vs. Average reorders vs.
func Average(vs ...r3.Vec) r3.Vec {
	if len(vs) == 0 {
		panic("d3: average of no points")
	}
	Sort(vs)
	var sum r3.Vec
	for _, v := range vs {
		sum = r3.Add(sum, v)
	}
	n := float64(len(vs))
	return r3.Vec{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n}
}

// Midpoint returns the midpoint of segment ab independent of argument order.
func Midpoint(a, b r3.Vec) r3.Vec {
	return Average(a, b)
}

// keyScale sets the resolution of Key. Points closer than 1/keyScale along
// every axis may share a key.
const keyScale = 1 << 20

// Key is a quantized position usable as a map key.
type Key [3]int64

// KeyOf quantizes v to a Key.
func KeyOf(v r3.Vec) Key {
	return Key{
		int64(math.Round(v.X * keyScale)),
		int64(math.Round(v.Y * keyScale)),
		int64(math.Round(v.Z * keyScale)),
	}
}
