// Package umc implements Uniform Marching Cubes over a trilinearly warped
// cube, optionally in primal extraction mode (PEM) where grid vertices
// close to the surface are snapped onto it.
package umc

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/soypat/isolod"
	"github.com/soypat/isolod/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Sign classes of grid vertices in primal extraction mode. In standard mode
// a grid vertex is either inside (1) or not (0).
const (
	classNegative uint8 = iota
	classZero
	classPositive
)

// MaxSnapThreshold bounds the snap threshold, expressed as a fraction of the
// length of the grid edge holding the crossing.
const MaxSnapThreshold = 0.71

var (
	ErrBadDim           = errors.New("chunk dimension must be of the form 2^k-1")
	ErrBadSnapThreshold = fmt.Errorf("snap threshold must be within [0, %g]", MaxSnapThreshold)
)

// Params configure a Chunk run.
type Params struct {
	// Dim is the number of cells along each side of the chunk.
	Dim int
	// PEM enables primal extraction mode.
	PEM bool
	// SnapThreshold is used only in PEM.
	SnapThreshold float64
}

// DefaultParams returns a 7x7x7 standard mode configuration.
func DefaultParams() Params {
	return Params{Dim: 7, SnapThreshold: 0.3}
}

func (p Params) Validate() error {
	if p.Dim < 1 || p.Dim&(p.Dim+1) != 0 {
		return ErrBadDim
	}
	if !(p.SnapThreshold >= 0 && p.SnapThreshold <= MaxSnapThreshold) {
		return ErrBadSnapThreshold
	}
	return nil
}

// Stats reports what a single Run emitted.
type Stats struct {
	Vertices   int
	Primitives int
	Snapped    int
	// Crossings is the number of grid edges the surface crosses.
	Crossings int
	Elapsed   time.Duration
}

// Chunk holds the grid scratch memory of one marching cubes cell block.
// The zero value is ready to use. Memory is allocated on the first Run and
// reused by later runs with the same dimension.
type Chunk struct {
	dim  int
	n    int // grid vertices per side
	sdim int // sign words per side
	pem  bool

	values []float64
	pos    []r3.Vec
	// vindex is the output index of grid vertices lying on the surface.
	vindex []int32
	// signs packs the codes of each 2x2x2 vertex block in one word.
	signs []uint16
	// Edge records, indexed 3*vertex+axis. elen is zero for edges
	// without a crossing.
	elen   []float64
	eindex []int32
	epos   []r3.Vec

	candidates []int32
	order      [8]uint8
}

// Dim returns the dimension of the last run, or 0.
func (c *Chunk) Dim() int { return c.dim }

// Run samples f over the hexahedron with the given corners at time t and
// appends the extracted surface to out. Corner i sits at parametric offset
// (i&1, i>>1&1, i>>2&1). With nil corners the grid is axis aligned with unit
// spacing and centered on the origin. Run panics if p is invalid.
func (c *Chunk) Run(f isolod.Field, corners *[8]r3.Vec, t float64, p Params, out *Buffers) Stats {
	if err := p.Validate(); err != nil {
		panic("umc: " + err.Error())
	}
	start := time.Now()
	vstart, istart := len(out.Positions), len(out.Indices)
	c.reset(p.Dim, p.PEM)
	c.labelGrid(f, corners, t)
	var st Stats
	var surface int
	st.Crossings, surface = c.labelEdges(f, t, out)
	if surface > 0 {
		if c.pem {
			st.Snapped = c.snap(p.SnapThreshold)
			c.polygonizePEM(out)
		} else {
			c.polygonize(out)
		}
	}
	st.Vertices = len(out.Positions) - vstart
	st.Primitives = (len(out.Indices) - istart) / 3
	st.Elapsed = time.Since(start)
	return st
}

func (c *Chunk) reset(dim int, pem bool) {
	if dim != c.dim {
		c.dim = dim
		c.n = dim + 1
		c.sdim = c.n / 2
		nv := c.n * c.n * c.n
		c.values = make([]float64, nv)
		c.pos = make([]r3.Vec, nv)
		c.vindex = make([]int32, nv)
		c.signs = make([]uint16, c.sdim*c.sdim*c.sdim)
		c.elen = make([]float64, 3*nv)
		c.eindex = make([]int32, 3*nv)
		c.epos = make([]r3.Vec, 3*nv)
	}
	c.pem = pem
	for i := range c.vindex {
		c.vindex[i] = -1
	}
	for i := range c.signs {
		c.signs[i] = 0
	}
	for i := range c.elen {
		c.elen[i] = 0
		c.eindex[i] = -1
	}
	c.candidates = c.candidates[:0]
}

func (c *Chunk) index(x, y, z int) int {
	return (x*c.n+y)*c.n + z
}

func (c *Chunk) signSlot(x, y, z int) (word int, shift uint) {
	word = ((x>>1)*c.sdim+(y>>1))*c.sdim + z>>1
	shift = uint(z&1 + (y&1)*2 + (x&1)*4)
	if c.pem {
		shift *= 2
	}
	return word, shift
}

func (c *Chunk) code(x, y, z int) uint8 {
	w, s := c.signSlot(x, y, z)
	if c.pem {
		return uint8(c.signs[w]>>s) & 3
	}
	return uint8(c.signs[w]>>s) & 1
}

func (c *Chunk) setCode(x, y, z int, code uint8) {
	w, s := c.signSlot(x, y, z)
	mask := uint16(1)
	if c.pem {
		mask = 3
	}
	c.signs[w] = c.signs[w]&^(mask<<s) | uint16(code)<<s
}

func (c *Chunk) classify(v float64) uint8 {
	switch {
	case !c.pem && v < 0:
		return 1
	case !c.pem:
		return 0
	case v < 0:
		return classNegative
	case v == 0:
		return classZero
	}
	return classPositive
}

func axisWeight(bit uint8, i, dim int) int {
	if bit != 0 {
		return i
	}
	return dim - i
}

// labelGrid computes grid positions, samples the field and packs the sign codes.
// Positions are sums over the corners in position order with exact integer
// weight numerators, so grid points shared with a neighbouring hexahedron
// come out bit-identical.
func (c *Chunk) labelGrid(f isolod.Field, corners *[8]r3.Vec, t float64) {
	dim := c.dim
	if corners != nil {
		for i := range c.order {
			c.order[i] = uint8(i)
		}
		for i := 1; i < 8; i++ {
			for j := i; j > 0 && d3.Less(corners[c.order[j]], corners[c.order[j-1]]); j-- {
				c.order[j], c.order[j-1] = c.order[j-1], c.order[j]
			}
		}
	}
	den := float64(dim * dim * dim)
	half := float64(dim) / 2
	for x := 0; x <= dim; x++ {
		for y := 0; y <= dim; y++ {
			for z := 0; z <= dim; z++ {
				var p r3.Vec
				if corners == nil {
					p = r3.Vec{X: float64(x) - half, Y: float64(y) - half, Z: float64(z) - half}
				} else {
					for _, k := range c.order {
						w := axisWeight(k&1, x, dim) * axisWeight(k>>1&1, y, dim) * axisWeight(k>>2&1, z, dim)
						if w == 0 {
							continue
						}
						p = r3.Add(p, r3.Scale(float64(w)/den, corners[k]))
					}
				}
				i := c.index(x, y, z)
				v := f.Evaluate(p, t)
				c.pos[i] = p
				c.values[i] = v
				c.setCode(x, y, z, c.classify(v))
			}
		}
	}
}

// labelEdges computes an isovertex for every grid edge the surface crosses.
// In PEM grid vertices lying exactly on the surface get their own output
// vertex and the endpoints of crossing edges become snap candidates.
// surface counts the output vertices created.
func (c *Chunk) labelEdges(f isolod.Field, t float64, out *Buffers) (crossings, surface int) {
	n, dim := c.n, c.dim
	stride := [3]int{n * n, n, 1}
	for x := 0; x <= dim; x++ {
		for y := 0; y <= dim; y++ {
			for z := 0; z <= dim; z++ {
				i := c.index(x, y, z)
				s0 := c.code(x, y, z)
				at := [3]int{x, y, z}
				for axis := 0; axis < 3; axis++ {
					if at[axis] == dim {
						continue
					}
					nb := at
					nb[axis]++
					s1 := c.code(nb[0], nb[1], nb[2])
					if s0 == s1 {
						continue
					}
					j := i + stride[axis]
					if c.pem {
						if s0 == classZero && c.surfaceVertex(f, t, i, out) {
							surface++
						}
						if s1 == classZero && c.surfaceVertex(f, t, j, out) {
							surface++
						}
						if s0 == classZero || s1 == classZero {
							continue
						}
						c.candidates = append(c.candidates, int32(i), int32(j))
					}
					c.crossing(f, t, i, j, axis, out)
					crossings++
				}
			}
		}
	}
	return crossings, surface + crossings
}

func (c *Chunk) crossing(f isolod.Field, t float64, i, j, axis int, out *Buffers) {
	e := 3*i + axis
	p := isolod.Intersect(c.pos[i], c.pos[j], c.values[i], c.values[j])
	c.epos[e] = p
	c.elen[e] = r3.Norm(r3.Sub(c.pos[j], c.pos[i]))
	c.eindex[e] = out.addVertex(p, isolod.Gradient(f, p, t, isolod.GradientStep))
}

func (c *Chunk) surfaceVertex(f isolod.Field, t float64, i int, out *Buffers) bool {
	if c.vindex[i] >= 0 {
		return false
	}
	p := c.pos[i]
	c.vindex[i] = out.addVertex(p, isolod.Gradient(f, p, t, isolod.GradientStep))
	return true
}

// snap collapses interior candidates onto the nearest isovertex of their six
// incident edges when it lies within threshold edge lengths.
func (c *Chunk) snap(threshold float64) (snapped int) {
	n, dim := c.n, c.dim
	stride := [3]int{n * n, n, 1}
	for _, ci := range c.candidates {
		i := int(ci)
		x, y, z := i/(n*n), i/n%n, i%n
		if x == 0 || y == 0 || z == 0 || x == dim || y == dim || z == dim {
			continue
		}
		if c.code(x, y, z) == classZero {
			continue // Already snapped.
		}
		best, bestDist := -1, math.Inf(1)
		for axis := 0; axis < 3; axis++ {
			for _, e := range [2]int{3*i + axis, 3*(i-stride[axis]) + axis} {
				if c.elen[e] <= 0 {
					continue
				}
				d := r3.Norm(r3.Sub(c.epos[e], c.pos[i])) / c.elen[e]
				if d < bestDist {
					best, bestDist = e, d
				}
			}
		}
		if best < 0 || bestDist > threshold {
			continue
		}
		c.setCode(x, y, z, classZero)
		c.vindex[i] = c.eindex[best]
		c.pos[i] = c.epos[best]
		snapped++
	}
	return snapped
}

func (c *Chunk) polygonize(out *Buffers) {
	dim := c.dim
	for x := 0; x < dim; x++ {
		for y := 0; y < dim; y++ {
			for z := 0; z < dim; z++ {
				var mask uint8
				for k := uint8(0); k < 8; k++ {
					mask |= c.code(x+int(k&1), y+int(k>>1&1), z+int(k>>2&1)) << k
				}
				for entry := mcTable[mask]; entry&0xF != 0xF; entry >>= 12 {
					out.addTriangle(
						c.edgeVertex(x, y, z, uint8(entry&0xF)),
						c.edgeVertex(x, y, z, uint8(entry>>4&0xF)),
						c.edgeVertex(x, y, z, uint8(entry>>8&0xF)),
					)
				}
			}
		}
	}
}

func (c *Chunk) polygonizePEM(out *Buffers) {
	dim := c.dim
	for x := 0; x < dim; x++ {
		for y := 0; y < dim; y++ {
			for z := 0; z < dim; z++ {
				code, pow := 0, 1
				for k := 0; k < 8; k++ {
					code += int(c.code(x+k&1, y+k>>1&1, z+k>>2&1)) * pow
					pow *= 3
				}
				entry := &pemTable[code]
				for tri := 0; tri < int(entry[0]); tri++ {
					var idx [3]int32
					for j := range idx {
						idx[j] = c.slotVertex(x, y, z, entry[1+3*tri+j])
					}
					if idx[0] == idx[1] || idx[1] == idx[2] || idx[0] == idx[2] {
						continue // Collapsed by snapping.
					}
					out.addTriangle(idx[0], idx[1], idx[2])
				}
			}
		}
	}
}

func (c *Chunk) edgeVertex(x, y, z int, e uint8) int32 {
	k := edgeCorners[e][0]
	i := c.index(x+int(k&1), y+int(k>>1&1), z+int(k>>2&1))
	idx := c.eindex[3*i+int(edgeAxis[e])]
	if idx < 0 {
		panic("umc: unreachable triangle table entry")
	}
	return idx
}

func (c *Chunk) slotVertex(x, y, z int, slot uint8) int32 {
	if slot >= pemCornerSlots {
		return c.edgeVertex(x, y, z, slot-pemCornerSlots)
	}
	idx := c.vindex[c.index(x+int(slot&1), y+int(slot>>1&1), z+int(slot>>2&1))]
	if idx < 0 {
		panic("umc: surface corner without vertex")
	}
	return idx
}
