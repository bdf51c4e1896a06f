package isolod

import (
	sdfx "github.com/deadsy/sdfx/sdf"
	"gonum.org/v1/gonum/spatial/r3"
)

// SDFX adapts a github.com/deadsy/sdfx signed distance function to a Field.
// Time translates the evaluation point along X as in the sample fields.
type SDFX struct {
	S sdfx.SDF3
}

var _ Field = SDFX{}

// FromSDFX wraps s.
func FromSDFX(s sdfx.SDF3) SDFX { return SDFX{S: s} }

func (f SDFX) Evaluate(p r3.Vec, t float64) float64 {
	return f.S.Evaluate(sdfx.V3{X: p.X + t, Y: p.Y, Z: p.Z})
}

// Bounds returns the bounding box of the wrapped SDF at time zero.
func (f SDFX) Bounds() r3.Box {
	bb := f.S.BoundingBox()
	return r3.Box{
		Min: r3.Vec{X: bb.Min.X, Y: bb.Min.Y, Z: bb.Min.Z},
		Max: r3.Vec{X: bb.Max.X, Y: bb.Max.Y, Z: bb.Max.Z},
	}
}
