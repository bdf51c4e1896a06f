package tetra

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ kdtree.Interface  = leafPoints{}
	_ kdtree.Comparable = leafPoint{}
)

// LeafLocator finds the leaf whose centroid is closest to a point. It is a
// snapshot of the leaves at construction time.
type LeafLocator struct {
	tree *kdtree.Tree
	n    int
}

// NewLeafLocator indexes the current leaves of h.
func NewLeafLocator(h *Hierarchy) *LeafLocator {
	pts := make(leafPoints, 0, h.LeafCount())
	h.Leaves(func(n *Node) bool {
		pts = append(pts, leafPoint{p: n.Centroid, node: n})
		return true
	})
	return &LeafLocator{tree: kdtree.New(pts, false), n: len(pts)}
}

// Len returns the number of indexed leaves.
func (l *LeafLocator) Len() int { return l.n }

// Nearest returns the leaf with centroid closest to p and the squared
// distance to it. It returns nil if no leaves were indexed.
func (l *LeafLocator) Nearest(p r3.Vec) (*Node, float64) {
	if l.n == 0 {
		return nil, math.Inf(1)
	}
	got, d2 := l.tree.Nearest(leafPoint{p: p})
	return got.(leafPoint).node, d2
}

// NearestLeaf returns the leaf with centroid closest to p. The index is
// rebuilt after the leaves change.
func (h *Hierarchy) NearestLeaf(p r3.Vec) *Node {
	if h.locator == nil {
		h.locator = NewLeafLocator(h)
	}
	n, _ := h.locator.Nearest(p)
	return n
}

type leafPoint struct {
	p    r3.Vec
	node *Node
}

// Compare returns the signed distance of a from the plane passing through
// b and perpendicular to the dimension d.
func (a leafPoint) Compare(b kdtree.Comparable, d kdtree.Dim) float64 {
	return elem(a.p, int(d)) - elem(b.(leafPoint).p, int(d))
}

func (a leafPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between centroids.
func (a leafPoint) Distance(b kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(a.p, b.(leafPoint).p))
}

type leafPoints []leafPoint

func (k leafPoints) Index(i int) kdtree.Comparable { return k[i] }

func (k leafPoints) Len() int { return len(k) }

func (k leafPoints) Pivot(d kdtree.Dim) int {
	p := leafPlane{dim: int(d), points: k}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (k leafPoints) Slice(start, end int) kdtree.Interface { return k[start:end] }

type leafPlane struct {
	dim    int
	points leafPoints
}

func (p leafPlane) Less(i, j int) bool {
	return elem(p.points[i].p, p.dim) < elem(p.points[j].p, p.dim)
}

func (p leafPlane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}

func (p leafPlane) Len() int { return len(p.points) }

func (p leafPlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}

func elem(v r3.Vec, d int) float64 {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}
