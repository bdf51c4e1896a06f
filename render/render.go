// Package render turns extracted isosurface meshes into output: float32
// vertex buffers, binary STL files, shaded PNG previews and level of detail
// statistics plots.
package render

import (
	"io"

	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/isolod/tetra"
	"github.com/soypat/isolod/umc"
	"gonum.org/v1/gonum/spatial/r3"
)

// minTriangleArea2 is the squared doubled area below which a float32
// triangle is considered degenerate and dropped.
const minTriangleArea2 = 1e-20

// Renderer streams triangles. ReadTriangles returns io.EOF when no
// triangles remain.
type Renderer interface {
	ReadTriangles(dst []ms3.Triangle) (int, error)
}

// MeshReader reads the triangles of indexed meshes as a triangle soup.
// Degenerate triangles are skipped.
type MeshReader struct {
	meshes []*umc.Buffers
	mesh   int
	tri    int
}

var _ Renderer = (*MeshReader)(nil)

// NewMeshReader returns a Renderer over meshes.
func NewMeshReader(meshes ...*umc.Buffers) *MeshReader {
	return &MeshReader{meshes: meshes}
}

// NewHierarchyReader returns a Renderer over the meshes of every extracted
// leaf of h, in leaf list order.
func NewHierarchyReader(h *tetra.Hierarchy) *MeshReader {
	var meshes []*umc.Buffers
	h.Leaves(func(n *tetra.Node) bool {
		if m := n.Mesh(); m != nil {
			meshes = append(meshes, &m.Buffers)
		}
		return true
	})
	return NewMeshReader(meshes...)
}

func (mr *MeshReader) ReadTriangles(dst []ms3.Triangle) (n int, err error) {
	for n < len(dst) && mr.mesh < len(mr.meshes) {
		b := mr.meshes[mr.mesh]
		if mr.tri >= b.PrimitiveCount() {
			mr.mesh++
			mr.tri = 0
			continue
		}
		i := 3 * mr.tri
		mr.tri++
		t := ms3.Triangle{
			vec32(b.Positions[b.Indices[i]]),
			vec32(b.Positions[b.Indices[i+1]]),
			vec32(b.Positions[b.Indices[i+2]]),
		}
		if degenerate(t) {
			continue
		}
		dst[n] = t
		n++
	}
	if n == 0 && len(dst) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// RenderAll reads the full contents of a Renderer and returns the slice read.
// It does not return error on io.EOF, like the io.ReadAll implementation.
func RenderAll(r Renderer) ([]ms3.Triangle, error) {
	var err error
	var nt int
	result := make([]ms3.Triangle, 0, 1<<12)
	buf := make([]ms3.Triangle, 1024)
	for {
		nt, err = r.ReadTriangles(buf)
		result = append(result, buf[:nt]...)
		if err != nil {
			break
		}
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}

func vec32(v r3.Vec) ms3.Vec {
	return ms3.Vec{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

// cross returns the unnormalized normal of t.
func cross(t ms3.Triangle) ms3.Vec {
	return ms3.Cross(ms3.Sub(t[1], t[0]), ms3.Sub(t[2], t[0]))
}

func degenerate(t ms3.Triangle) bool {
	n := cross(t)
	a2 := float64(n.X)*float64(n.X) + float64(n.Y)*float64(n.Y) + float64(n.Z)*float64(n.Z)
	return a2 < minTriangleArea2
}
