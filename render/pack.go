package render

import (
	"github.com/chewxy/math32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/isolod/tetra"
	"github.com/soypat/isolod/umc"
)

// Packed is a single indexed mesh in the float32 layout graphics APIs take:
// tightly packed xyz positions and unit normals.
type Packed struct {
	Positions []float32
	Normals   []float32
	Indices   []uint32
	Bounds    ms3.Box
}

// VertexCount returns the number of vertices.
func (p *Packed) VertexCount() int { return len(p.Positions) / 3 }

// Reset empties p keeping its capacity.
func (p *Packed) Reset() {
	p.Positions = p.Positions[:0]
	p.Normals = p.Normals[:0]
	p.Indices = p.Indices[:0]
	p.Bounds = ms3.Box{}
}

// Append adds the mesh in b to p. Indices are offset past the vertices
// already in p. Normals are normalized, invalid ones are zeroed.
func (p *Packed) Append(b *umc.Buffers) {
	base := uint32(p.VertexCount())
	for i, pos := range b.Positions {
		v := vec32(pos)
		if len(p.Positions) == 0 {
			p.Bounds = ms3.Box{Min: v, Max: v}
		} else {
			p.Bounds = includeBox(p.Bounds, v)
		}
		n := vec32(b.Normals[i])
		if l := ms3.Norm(n); l > 0 && !math32.IsInf(l, 0) {
			n = ms3.Scale(1/l, n)
		} else {
			n = ms3.Vec{}
		}
		p.Positions = append(p.Positions, v.X, v.Y, v.Z)
		p.Normals = append(p.Normals, n.X, n.Y, n.Z)
	}
	for _, idx := range b.Indices {
		p.Indices = append(p.Indices, base+idx)
	}
}

// Pack32 merges the meshes of all extracted leaves of h.
func Pack32(h *tetra.Hierarchy) *Packed {
	p := new(Packed)
	h.Leaves(func(n *tetra.Node) bool {
		if m := n.Mesh(); m != nil {
			p.Append(&m.Buffers)
		}
		return true
	})
	return p
}

func includeBox(b ms3.Box, v ms3.Vec) ms3.Box {
	return ms3.Box{
		Min: ms3.Vec{X: math32.Min(b.Min.X, v.X), Y: math32.Min(b.Min.Y, v.Y), Z: math32.Min(b.Min.Z, v.Z)},
		Max: ms3.Vec{X: math32.Max(b.Max.X, v.X), Y: math32.Max(b.Max.Y, v.Y), Z: math32.Max(b.Max.Z, v.Z)},
	}
}
