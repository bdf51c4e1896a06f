package umc

import "gonum.org/v1/gonum/spatial/r3"

// Buffers receives the output of Chunk.Run: vertex positions, a parallel
// slice of vertex normals and triangle indices into them. Slices grow as
// needed, so element addresses are not stable across a Run.
type Buffers struct {
	Positions []r3.Vec
	Normals   []r3.Vec
	Indices   []uint32
}

// Reset empties the buffers keeping their capacity.
func (b *Buffers) Reset() {
	b.Positions = b.Positions[:0]
	b.Normals = b.Normals[:0]
	b.Indices = b.Indices[:0]
}

// VertexCount returns the number of vertices.
func (b *Buffers) VertexCount() int { return len(b.Positions) }

// PrimitiveCount returns the number of triangles.
func (b *Buffers) PrimitiveCount() int { return len(b.Indices) / 3 }

func (b *Buffers) addVertex(pos, normal r3.Vec) int32 {
	b.Positions = append(b.Positions, pos)
	b.Normals = append(b.Normals, normal)
	return int32(len(b.Positions) - 1)
}

func (b *Buffers) addTriangle(i0, i1, i2 int32) {
	b.Indices = append(b.Indices, uint32(i0), uint32(i1), uint32(i2))
}
