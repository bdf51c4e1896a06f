package tetra

import (
	"github.com/soypat/isolod/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Hexahedron corner i averages the anchor vertex with the tetrahedron
// vertices selected by the set bits of i: bit 0 the first neighbour along the
// rotation, bit 1 the second and bit 2 the third. Corner 7 is the centroid.
var hexVertexMaps = [8][]uint8{
	{0},
	{0, 1},
	{0, 2},
	{0, 1, 2},
	{0, 3},
	{0, 1, 3},
	{0, 2, 3},
	{0, 1, 2, 3},
}

// hexRotations selects the anchor vertex of each of the four hexahedra.
var hexRotations = [4][4]uint8{
	{0, 1, 2, 3},
	{1, 2, 3, 0},
	{2, 3, 0, 1},
	{3, 0, 1, 2},
}

// Decompose returns the corners of hexahedron which (0..3) of the
// tetrahedron t, in the corner order expected by umc.Chunk. With flip set
// corners i and i^1 trade places, mirroring the hexahedron's parametrization
// to fix the winding of tetrahedra with negative orientation.
func Decompose(t *[4]r3.Vec, which int, flip bool) (corners [8]r3.Vec) {
	rot := hexRotations[which]
	for i, m := range hexVertexMaps {
		var buf [4]r3.Vec
		for k, vi := range m {
			buf[k] = t[rot[vi]]
		}
		dst := i
		if flip {
			dst ^= 1
		}
		corners[dst] = d3.Average(buf[:len(m)]...)
	}
	return corners
}

// needsFlip reports whether hexahedron which of a tetrahedron descending from
// top level branch must be mirrored. Top level tetrahedra alternate in
// orientation with their branch and bisection preserves orientation.
func needsFlip(branch, which int) bool {
	return branch&1 == which&1
}
