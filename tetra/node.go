package tetra

import (
	"time"

	"github.com/soypat/isolod"
	"github.com/soypat/isolod/internal/d3"
	"github.com/soypat/isolod/internal/pool"
	"github.com/soypat/isolod/umc"
	"gonum.org/v1/gonum/spatial/r3"
)

// tetEdges lists the edges of a tetrahedron in the order the longest edge
// is searched for. Ties go to the first edge found.
var tetEdges = [6][2]uint8{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}

// Node is a tetrahedron of the refinement tree. A node has either no
// children (a leaf) or exactly two.
type Node struct {
	Vertices [4]r3.Vec
	Centroid r3.Vec
	// Radius is the squared length of the longest edge.
	Radius float64
	// RefinementEdge holds the indices into Vertices of the longest edge.
	RefinementEdge [2]uint8
	// Midpoint is the midpoint of the longest edge, where the node is split.
	Midpoint r3.Vec
	Level    int
	// Branch is the top level tetrahedron the node descends from.
	Branch int
	// Type cycles through 0, 1 and 2 with each level. Top level nodes are 2.
	Type int
	// ChildIndex is the half of the parent this node covers.
	ChildIndex int

	key      d3.Key
	parent   pool.Handle
	children [2]pool.Handle
	// Leaf list links.
	prev, next pool.Handle
	inList     bool
	mesh       *LeafMesh
}

// LeafMesh is the geometry extracted from a leaf.
type LeafMesh struct {
	Buffers    umc.Buffers
	Vertices   int
	Primitives int
	Snapped    int
	// Elapsed is the duration of the last extraction.
	Elapsed time.Duration

	hexes [4]hexahedron
	built bool
}

type hexahedron struct {
	corners [8]r3.Vec
	// chunk is only set when chunks are retained between extractions.
	chunk *umc.Chunk
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return n.children[0] == pool.Nil && n.children[1] == pool.Nil
}

// IsTopLevel reports whether n is one of the tetrahedra tiling the root cube.
func (n *Node) IsTopLevel() bool { return n.parent == pool.Nil }

// Mesh returns the geometry of the last extraction of n or nil if n has not
// been extracted since it became a leaf.
func (n *Node) Mesh() *LeafMesh { return n.mesh }

// Hexahedron returns the corners of hexahedron which (0..3) of n in the
// order they are passed to the marching cubes engine.
func (n *Node) Hexahedron(which int) [8]r3.Vec {
	return Decompose(&n.Vertices, which, needsFlip(n.Branch, which))
}

// setGeometry stores v and derives the centroid and refinement edge.
func (n *Node) setGeometry(v [4]r3.Vec) {
	n.Vertices = v
	n.Radius = -1
	for _, e := range tetEdges {
		if d := r3.Norm2(r3.Sub(v[e[0]], v[e[1]])); d > n.Radius {
			n.Radius = d
			n.RefinementEdge = e
		}
	}
	n.Midpoint = d3.Midpoint(v[n.RefinementEdge[0]], v[n.RefinementEdge[1]])
	n.key = d3.KeyOf(n.Midpoint)
	n.Centroid = d3.Average(v[0], v[1], v[2], v[3])
}

func (n *Node) edgeKey(e [2]uint8) d3.Key {
	return d3.KeyOf(d3.Midpoint(n.Vertices[e[0]], n.Vertices[e[1]]))
}

// childVertices returns the corners of child k: the refinement edge vertex
// k is replaced by the edge midpoint.
func (n *Node) childVertices(k int) [4]r3.Vec {
	v := n.Vertices
	v[n.RefinementEdge[k]] = n.Midpoint
	return v
}

// extract reruns the marching cubes engine over the four hexahedra of n,
// replacing the previous mesh. Hexahedra are built on the first call.
// Without retain every hexahedron is run on scratch.
func (n *Node) extract(f isolod.Field, t float64, p umc.Params, scratch *umc.Chunk, retain bool) *LeafMesh {
	m := n.mesh
	if m == nil {
		m = new(LeafMesh)
		n.mesh = m
	}
	if !m.built {
		for i := range m.hexes {
			m.hexes[i].corners = n.Hexahedron(i)
		}
		m.built = true
	}
	m.Buffers.Reset()
	m.Snapped = 0
	m.Elapsed = 0
	for i := range m.hexes {
		hex := &m.hexes[i]
		c := scratch
		if retain {
			if hex.chunk == nil {
				hex.chunk = new(umc.Chunk)
			}
			c = hex.chunk
		}
		st := c.Run(f, &hex.corners, t, p, &m.Buffers)
		m.Snapped += st.Snapped
		m.Elapsed += st.Elapsed
	}
	m.Vertices = m.Buffers.VertexCount()
	m.Primitives = m.Buffers.PrimitiveCount()
	return m
}
