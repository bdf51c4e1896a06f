package tetra

import (
	"testing"

	"github.com/soypat/isolod"
	"github.com/soypat/isolod/internal/d3"
	"github.com/soypat/isolod/internal/pool"
	"gonum.org/v1/gonum/spatial/r3"
)

func newTestHierarchy(t *testing.T, res int, viewer r3.Vec) *Hierarchy {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Resolution = res
	cfg.SubResolution = 1
	cfg.InitialViewer = viewer
	h, err := New(isolod.Sphere(1), cfg)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

// A split edge must be split in every tetrahedron holding it.
func TestDiamondAtomicity(t *testing.T) {
	h := newTestHierarchy(t, 3, r3.Vec{})
	for _, viewer := range []r3.Vec{{X: 3, Y: 3, Z: 3}, {X: -3, Y: 2, Z: 1}, {Y: -3.5}} {
		h.RequestSplitPass(viewer)
		for _, d := range h.diamonds.diamonds {
			k := d3.KeyOf(d.mid)
			split := false
			for _, mh := range d.members {
				if m := h.node(mh); m.key == k && !m.IsLeaf() {
					split = true
				}
			}
			if !split {
				continue
			}
			for _, mh := range d.members {
				if h.node(mh).IsLeaf() {
					t.Fatalf("viewer %v: leaf holds split edge at %v", viewer, d.mid)
				}
			}
		}
	}
}

func TestLeafListIntegrity(t *testing.T) {
	h := newTestHierarchy(t, 3, r3.Vec{})
	for _, viewer := range []r3.Vec{{X: 3, Y: 3, Z: 3}, {X: -3, Y: 2, Z: 1}, {Y: -3.5}, {X: 3, Y: 3, Z: 3}} {
		h.RequestSplitPass(viewer)
		treeLeaves := 0
		var walk func(nh pool.Handle)
		walk = func(nh pool.Handle) {
			n := h.node(nh)
			if n.IsLeaf() {
				treeLeaves++
				if !n.inList {
					t.Fatalf("leaf at level %d missing from leaf list", n.Level)
				}
				return
			}
			if n.inList || n.mesh != nil {
				t.Fatalf("inner node at level %d still listed", n.Level)
			}
			if n.children[0] == pool.Nil || n.children[1] == pool.Nil {
				t.Fatal("node with a single child")
			}
			for k, c := range n.children {
				child := h.node(c)
				if child.Level != n.Level+1 || child.ChildIndex != k || child.Branch != n.Branch {
					t.Fatalf("bad child %d: level %d under %d", k, child.Level, n.Level)
				}
				if child.Type != (n.Type+1)%3 {
					t.Fatalf("child type %d under type %d", child.Type, n.Type)
				}
				walk(c)
			}
		}
		for _, th := range h.top {
			walk(th)
		}
		listed := 0
		prev := pool.Nil
		for nh := h.first; nh != pool.Nil; nh = h.node(nh).next {
			n := h.node(nh)
			if n.prev != prev {
				t.Fatal("broken prev link")
			}
			prev = nh
			listed++
		}
		if prev != h.last {
			t.Error("last leaf mismatch")
		}
		if listed != h.LeafCount() || treeLeaves != h.LeafCount() {
			t.Fatalf("viewer %v: %d listed, %d in tree, count %d", viewer, listed, treeLeaves, h.LeafCount())
		}
		if _, err := h.ExtractAllLeaves(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCorruptLeafList(t *testing.T) {
	h := newTestHierarchy(t, 2, r3.Vec{})
	h.leafCount--
	if _, err := h.ExtractAllLeaves(); err == nil {
		t.Error("overlong leaf list not reported")
	}
	h.leafCount += 2
	if _, err := h.ExtractAllLeaves(); err == nil {
		t.Error("short leaf list not reported")
	}
}

func TestNodeGeometry(t *testing.T) {
	var n Node
	n.setGeometry([4]r3.Vec{{}, {X: 2}, {Y: 2}, {X: 2, Y: 2, Z: 2}})
	if n.RefinementEdge != [2]uint8{0, 3} {
		t.Errorf("refinement edge %v", n.RefinementEdge)
	}
	if n.Radius != 12 {
		t.Errorf("radius %g", n.Radius)
	}
	if n.Midpoint != (r3.Vec{X: 1, Y: 1, Z: 1}) {
		t.Errorf("midpoint %v", n.Midpoint)
	}
	if n.Centroid != (r3.Vec{X: 1, Y: 1, Z: 0.5}) {
		t.Errorf("centroid %v", n.Centroid)
	}
	// Ties go to the first edge in scan order.
	n.setGeometry([4]r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}})
	if n.RefinementEdge != [2]uint8{1, 2} {
		t.Errorf("tie broken towards %v", n.RefinementEdge)
	}
	c0, c1 := n.childVertices(0), n.childVertices(1)
	if c0[1] != n.Midpoint || c0[2] != n.Vertices[2] || c1[2] != n.Midpoint || c1[1] != n.Vertices[1] {
		t.Errorf("bad children %v %v", c0, c1)
	}
}

func TestDecompose(t *testing.T) {
	tet := [4]r3.Vec{{}, {X: 3}, {Y: 3}, {Z: 3}}
	centroid := r3.Vec{X: 0.75, Y: 0.75, Z: 0.75}
	for which := 0; which < 4; which++ {
		c := Decompose(&tet, which, false)
		if c[0] != tet[which] || c[7] != centroid {
			t.Errorf("hexahedron %d: anchor %v centroid %v", which, c[0], c[7])
		}
		f := Decompose(&tet, which, true)
		for i := range c {
			if f[i^1] != c[i] {
				t.Fatalf("hexahedron %d: flip did not swap corner %d", which, i)
			}
		}
	}
}

func jacobian(c [8]r3.Vec) float64 {
	a, b, d := r3.Sub(c[1], c[0]), r3.Sub(c[2], c[0]), r3.Sub(c[4], c[0])
	return r3.Dot(a, r3.Cross(b, d))
}

// Every hexahedron handed to the marching cubes engine must be positively
// oriented, otherwise its triangles face inwards.
func TestHexahedronOrientation(t *testing.T) {
	h := newTestHierarchy(t, 2, r3.Vec{X: 1, Y: -1, Z: 0.5})
	h.Leaves(func(n *Node) bool {
		for i := 0; i < 4; i++ {
			if j := jacobian(n.Hexahedron(i)); j <= 0 {
				t.Fatalf("branch %d level %d hexahedron %d: jacobian %g", n.Branch, n.Level, i, j)
			}
		}
		return true
	})
	for _, th := range h.top {
		n := h.node(th)
		for i := 0; i < 4; i++ {
			if j := jacobian(n.Hexahedron(i)); j <= 0 {
				t.Fatalf("top level branch %d hexahedron %d: jacobian %g", n.Branch, i, j)
			}
		}
	}
}

func TestTopLevelTiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolution = 2
	cfg.SubResolution = 1
	cfg.InitialViewer = r3.Vec{X: 1000}
	h, err := New(isolod.Sphere(1), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if h.LeafCount() != topLevelCount {
		t.Fatalf("far viewer refined the tree: %d leaves", h.LeafCount())
	}
	vol := 0.0
	h.Leaves(func(n *Node) bool {
		v := n.Vertices
		vol += r3.Dot(r3.Sub(v[1], v[0]), r3.Cross(r3.Sub(v[2], v[0]), r3.Sub(v[3], v[0])))
		if n.Midpoint != (r3.Vec{}) || n.Type != 2 {
			t.Errorf("top level node with midpoint %v type %d", n.Midpoint, n.Type)
		}
		return true
	})
	// Alternating orientation cancels out.
	if vol != 0 {
		t.Errorf("signed volumes do not alternate: sum %g", vol)
	}
	if got := len(h.diamonds.members(d3.KeyOf(r3.Vec{}))); got != topLevelCount {
		t.Errorf("root diamond has %d members", got)
	}
}
