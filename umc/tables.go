package umc

import "gonum.org/v1/gonum/spatial/r3"

// Cell corner c sits at offset (c&1, c>>1&1, c>>2&1) from the cell origin.
// Edge e joins corners edgeCorners[e][0] < edgeCorners[e][1] along axis edgeAxis[e].
var (
	edgeCorners [12][2]uint8
	edgeAxis    [12]uint8
	cornerEdge  [8][8]int8
)

// mcTable holds the triangles of each of the 256 inside/outside corner
// configurations, three edge indices per triangle, one per nibble starting
// at the least significant. The list ends with a 0xF nibble.
var mcTable [256]uint64

const (
	pemCases = 6561 // 3^8
	// pemCornerSlots is the number of corner slots preceding the edge slots
	// of a PEM triangle table entry.
	pemCornerSlots = 8
	// maxCellTriangles is the most triangles any cell configuration emits.
	maxCellTriangles = 5
)

// pemTable is indexed by the base 3 code Σ class(c)·3^c of a cell's corner
// classes. Entry[0] is the triangle count; the following bytes are slots,
// three per triangle: slots below 8 name a corner lying on the surface,
// slots 8 and above name edge slot-8.
var pemTable [pemCases][1 + 3*maxCellTriangles]uint8

func init() {
	n := 0
	for axis := uint8(0); axis < 3; axis++ {
		bit := uint8(1) << axis
		for c := uint8(0); c < 8; c++ {
			if c&bit != 0 {
				continue
			}
			edgeCorners[n] = [2]uint8{c, c | bit}
			edgeAxis[n] = axis
			n++
		}
	}
	for i := range cornerEdge {
		for j := range cornerEdge[i] {
			cornerEdge[i][j] = -1
		}
	}
	for e, ec := range edgeCorners {
		cornerEdge[ec[0]][ec[1]] = int8(e)
		cornerEdge[ec[1]][ec[0]] = int8(e)
	}

	for mask := 0; mask < 256; mask++ {
		mcTable[mask] = packTriangles(fanTriangles(traceLoops(uint8(mask))))
	}

	for code := 0; code < pemCases; code++ {
		classes := decodeClasses(code)
		var neg uint8
		for c, cl := range classes {
			if cl == classNegative {
				neg |= 1 << c
			}
		}
		entry := &pemTable[code]
		for _, loop := range traceLoops(neg) {
			slots := pemSlots(loop, &classes)
			for _, tri := range fanTriangles([][]uint8{slots}) {
				if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
					continue
				}
				k := 1 + 3*int(entry[0])
				copy(entry[k:k+3], tri[:])
				entry[0]++
			}
		}
	}
}

func decodeClasses(code int) (classes [8]uint8) {
	for c := range classes {
		classes[c] = uint8(code % 3)
		code /= 3
	}
	return classes
}

// pemSlots maps the crossing edges of a loop to PEM slots. A crossing whose
// non negative end lies on the surface collapses onto that corner.
// Consecutive repeated slots are merged.
func pemSlots(loop []uint8, classes *[8]uint8) []uint8 {
	slots := make([]uint8, 0, len(loop))
	for _, e := range loop {
		a, b := edgeCorners[e][0], edgeCorners[e][1]
		other := b
		if classes[b] == classNegative {
			other = a
		}
		slot := pemCornerSlots + e
		if classes[other] == classZero {
			slot = other
		}
		if len(slots) > 0 && slots[len(slots)-1] == slot {
			continue
		}
		slots = append(slots, slot)
	}
	for len(slots) > 1 && slots[0] == slots[len(slots)-1] {
		slots = slots[:len(slots)-1]
	}
	return slots
}

func cornerPos(c uint8) r3.Vec {
	return r3.Vec{X: float64(c & 1), Y: float64(c >> 1 & 1), Z: float64(c >> 2 & 1)}
}

func edgeMid(e uint8) r3.Vec {
	return r3.Scale(0.5, r3.Add(cornerPos(edgeCorners[e][0]), cornerPos(edgeCorners[e][1])))
}

// traceLoops returns the closed polylines, as sequences of crossing edges,
// where the surface separating the inside corners meets the cell faces.
// On a face with two diagonally opposite inside corners the inside corners
// are kept apart. Loops wind counter clockwise seen from the outside, that
// is, from the side the inside corners are not on.
func traceLoops(inside uint8) [][]uint8 {
	in := func(c uint8) bool { return inside&(1<<c) != 0 }
	var next [12]int8
	for i := range next {
		next[i] = -1
	}
	link := func(a, b uint8, ref, normal r3.Vec) {
		pa, pb := edgeMid(a), edgeMid(b)
		mid := r3.Scale(0.5, r3.Add(pa, pb))
		if r3.Dot(r3.Cross(r3.Sub(pb, pa), r3.Sub(ref, mid)), normal) > 0 {
			a, b = b, a
		}
		if next[a] != -1 {
			panic("umc: bad table entry")
		}
		next[a] = int8(b)
	}
	for axis := uint8(0); axis < 3; axis++ {
		u, v := uint8(1)<<((axis+1)%3), uint8(1)<<((axis+2)%3)
		for side := uint8(0); side < 2; side++ {
			base := side << axis
			q := [4]uint8{base, base | u, base | u | v, base | v}
			var normal r3.Vec
			switch axis {
			case 0:
				normal.X = 2*float64(side) - 1
			case 1:
				normal.Y = 2*float64(side) - 1
			case 2:
				normal.Z = 2*float64(side) - 1
			}
			var (
				cross   [4]uint8 // crossing edges
				ncross  int
				ninside int
				ref     r3.Vec
			)
			for i := range q {
				a, b := q[i], q[(i+1)%4]
				if in(a) != in(b) {
					cross[ncross] = uint8(cornerEdge[a][b])
					ncross++
				}
				if in(a) {
					ref = r3.Add(ref, cornerPos(a))
					ninside++
				}
			}
			switch ncross {
			case 0:
			case 2:
				link(cross[0], cross[1], r3.Scale(1/float64(ninside), ref), normal)
			case 4:
				for i := range q {
					if !in(q[i]) {
						continue
					}
					prev := uint8(cornerEdge[q[(i+3)%4]][q[i]])
					nxt := uint8(cornerEdge[q[i]][q[(i+1)%4]])
					link(prev, nxt, cornerPos(q[i]), normal)
				}
			default:
				panic("umc: odd number of face crossings")
			}
		}
	}
	var (
		loops   [][]uint8
		visited [12]bool
	)
	for start := uint8(0); start < 12; start++ {
		if next[start] == -1 || visited[start] {
			continue
		}
		var loop []uint8
		for e := start; !visited[e]; e = uint8(next[e]) {
			if next[e] == -1 {
				panic("umc: open surface loop")
			}
			visited[e] = true
			loop = append(loop, e)
		}
		loops = append(loops, loop)
	}
	return loops
}

// fanTriangles triangulates each polygon as a fan around its first vertex.
func fanTriangles(polys [][]uint8) (tris [][3]uint8) {
	for _, p := range polys {
		for i := 1; i+1 < len(p); i++ {
			tris = append(tris, [3]uint8{p[0], p[i], p[i+1]})
		}
	}
	return tris
}

func packTriangles(tris [][3]uint8) uint64 {
	if len(tris) > maxCellTriangles {
		panic("umc: too many triangles in cell configuration")
	}
	var packed uint64
	shift := 0
	for _, tri := range tris {
		for _, e := range tri {
			packed |= uint64(e) << shift
			shift += 4
		}
	}
	return packed | 0xF<<shift
}
