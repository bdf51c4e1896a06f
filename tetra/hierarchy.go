// Package tetra maintains a level of detail hierarchy of tetrahedra refined
// by longest edge bisection around a viewer and extracts an isosurface from
// its leaves. Tetrahedra sharing an edge are split together so the mesh
// never cracks across a change of detail.
//
// A Hierarchy is not safe for concurrent use.
package tetra

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/soypat/isolod"
	"github.com/soypat/isolod/internal/d3"
	"github.com/soypat/isolod/internal/pool"
	"github.com/soypat/isolod/umc"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxSplitRecursion bounds nested diamond splits. Each nested split acts on
// a strictly longer edge so the bound is never reached by a sound tree.
const maxSplitRecursion = 1024

// topLevelTets holds the root cube corners, in Box.Corner numbering, of the
// tetrahedra around the diagonal from corner 0 to corner 7.
var topLevelTets = [topLevelCount][4]int{
	{3, 1, 0, 7},
	{3, 2, 0, 7},
	{6, 2, 0, 7},
	{6, 4, 0, 7},
	{5, 4, 0, 7},
	{5, 1, 0, 7},
}

// ExtractStats summarizes an extraction over all leaves.
type ExtractStats struct {
	Leaves     int
	Vertices   int
	Primitives int
	Snapped    int
	Elapsed    time.Duration
}

// Hierarchy is the tetrahedral refinement tree over a cube centered on the
// origin.
type Hierarchy struct {
	cfg   Config
	field isolod.Field
	log   logrus.FieldLogger
	t     float64

	nodes    *pool.Pool[Node]
	top      [topLevelCount]pool.Handle
	diamonds diamondTable
	// queue holds nodes created or split since the leaf list was updated.
	queue []pool.Handle

	first, last pool.Handle
	leafCount   int
	maxDepth    int

	scratch umc.Chunk
	stats   ExtractStats
	locator *LeafLocator
}

// New builds the six top level tetrahedra of a cube of side
// 1<<cfg.Resolution, refines them around cfg.InitialViewer and extracts
// every leaf.
func New(f isolod.Field, cfg Config) (*Hierarchy, error) {
	if f == nil {
		return nil, ErrNilField
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := &Hierarchy{
		cfg:   cfg,
		field: f,
		log:   cfg.logger(),
		t:     cfg.Time,
		nodes: pool.New[Node](nodeBlockSize),
	}
	h.diamonds.init(cfg.DiamondCapacity)
	side := float64(int(1) << cfg.Resolution)
	cube := d3.CenteredBox(r3.Vec{}, d3.Elem(side))
	for b, tet := range topLevelTets {
		var v [4]r3.Vec
		for i, corner := range tet {
			v[i] = cube.Corner(corner)
		}
		h.top[b] = h.newNode(v, pool.Nil, b, 0)
	}
	h.RequestSplitPass(cfg.InitialViewer)
	if _, err := h.ExtractAllLeaves(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Hierarchy) node(nh pool.Handle) *Node { return h.nodes.At(nh) }

// newNode allocates a node with vertices v and registers it in the diamond
// table. Top level nodes register under their refinement edge only, the
// rest under all six edges. index is the child index, or the branch of a
// top level node.
func (h *Hierarchy) newNode(v [4]r3.Vec, parent pool.Handle, index, level int) pool.Handle {
	nh := h.nodes.Allocate()
	n := h.node(nh)
	n.setGeometry(v)
	n.parent = parent
	n.Level = level
	if parent == pool.Nil {
		n.Branch = index
		n.Type = 2
		h.diamonds.addTop(n.key, n.Midpoint, nh)
	} else {
		p := h.node(parent)
		n.ChildIndex = index
		n.Branch = p.Branch
		n.Type = (p.Type + 1) % 3
		for _, e := range tetEdges {
			h.diamonds.add(n.edgeKey(e), d3.Midpoint(v[e[0]], v[e[1]]), nh)
		}
	}
	if level > h.maxDepth {
		h.maxDepth = level
	}
	h.queue = append(h.queue, nh)
	return nh
}

// SplitPredicate reports whether n should be split for a viewer at viewer.
// Nodes at level 2*depthCap+4 or deeper are never split.
func SplitPredicate(n *Node, viewer r3.Vec, depthCap int) bool {
	if n.Level >= 2*depthCap+4 {
		return false
	}
	d := r3.Norm2(r3.Sub(viewer, n.Centroid))/n.Radius - 2
	return d < 0.7
}

// RequestSplitPass refines the tree for a viewer at viewer and updates the
// leaf list. New leaves have no mesh until the next extraction.
func (h *Hierarchy) RequestSplitPass(viewer r3.Vec) {
	before := h.leafCount
	for _, th := range h.top {
		if th != pool.Nil {
			h.checkSplit(th, viewer)
		}
	}
	h.updateLeaves()
	h.log.WithFields(logrus.Fields{
		"leaves":   h.leafCount,
		"added":    h.leafCount - before,
		"maxdepth": h.maxDepth,
	}).Info("updated leaves")
}

func (h *Hierarchy) checkSplit(nh pool.Handle, viewer r3.Vec) {
	n := h.node(nh)
	if n.IsLeaf() && SplitPredicate(n, viewer, h.cfg.depthCap()) {
		h.splitDiamond(n.key, 0)
	}
	if n.IsLeaf() {
		return
	}
	children := n.children
	h.checkSplit(children[0], viewer)
	h.checkSplit(children[1], viewer)
}

// splitDiamond bisects every leaf holding the edge keyed by k. A leaf that
// holds the edge but is split elsewhere is first split along its own
// refinement edge. Before a leaf is bisected the diamond its parent was
// split in is completed. Members are looked up again after every nested
// split since the table may have grown.
func (h *Hierarchy) splitDiamond(k d3.Key, depth int) {
	if depth > maxSplitRecursion {
		panic("tetra: diamond split recursion too deep")
	}
	for i := 0; ; i++ {
		members := h.diamonds.members(k)
		if i >= len(members) {
			break
		}
		mh := members[i]
		m := h.node(mh)
		if !m.IsLeaf() {
			continue
		}
		if m.parent != pool.Nil {
			h.splitDiamond(h.node(m.parent).key, depth+1)
			if !m.IsLeaf() {
				continue
			}
		}
		if m.key != k {
			h.splitDiamond(m.key, depth+1)
			continue
		}
		h.bisect(mh)
	}
}

// bisect splits leaf nh at the midpoint of its refinement edge.
func (h *Hierarchy) bisect(nh pool.Handle) {
	n := h.node(nh)
	if !n.IsLeaf() {
		panic("tetra: bisect of inner node")
	}
	for k := range n.children {
		n.children[k] = h.newNode(n.childVertices(k), nh, k, n.Level+1)
	}
	h.queue = append(h.queue, nh)
}

// updateLeaves links new leaves at the end of the leaf list and unlinks
// nodes that were split, dropping their mesh.
func (h *Hierarchy) updateLeaves() {
	for _, nh := range h.queue {
		n := h.node(nh)
		switch leaf := n.IsLeaf(); {
		case leaf && !n.inList:
			h.linkLeaf(nh, n)
		case !leaf && n.inList:
			h.unlinkLeaf(n)
		}
	}
	h.queue = h.queue[:0]
	h.locator = nil
}

func (h *Hierarchy) linkLeaf(nh pool.Handle, n *Node) {
	n.prev, n.next = h.last, pool.Nil
	if h.last == pool.Nil {
		h.first = nh
	} else {
		h.node(h.last).next = nh
	}
	h.last = nh
	n.inList = true
	h.leafCount++
}

func (h *Hierarchy) unlinkLeaf(n *Node) {
	if n.prev == pool.Nil {
		h.first = n.next
	} else {
		h.node(n.prev).next = n.next
	}
	if n.next == pool.Nil {
		h.last = n.prev
	} else {
		h.node(n.next).prev = n.prev
	}
	n.prev, n.next = pool.Nil, pool.Nil
	n.inList = false
	n.mesh = nil
	h.leafCount--
}

// ExtractAllLeaves runs the marching cubes engine on every leaf. It fails
// with ErrLeafListCorrupt if the leaf list does not hold exactly LeafCount
// nodes.
func (h *Hierarchy) ExtractAllLeaves() (ExtractStats, error) {
	start := time.Now()
	var st ExtractStats
	p := h.cfg.chunkParams()
	for nh := h.first; nh != pool.Nil; {
		if st.Leaves >= h.leafCount || st.Leaves >= leafWalkCap {
			return st, fmt.Errorf("walk passed %d leaves: %w", st.Leaves, ErrLeafListCorrupt)
		}
		n := h.node(nh)
		m := n.extract(h.field, h.t, p, &h.scratch, h.cfg.RetainChunks)
		st.Leaves++
		st.Vertices += m.Vertices
		st.Primitives += m.Primitives
		st.Snapped += m.Snapped
		if h.cfg.Verbose {
			h.log.WithFields(logrus.Fields{
				"level":   n.Level,
				"branch":  n.Branch,
				"verts":   m.Vertices,
				"prims":   m.Primitives,
				"snapped": m.Snapped,
				"elapsed": m.Elapsed,
			}).Debug("extracted leaf")
		}
		nh = n.next
	}
	if st.Leaves != h.leafCount {
		return st, fmt.Errorf("walked %d of %d leaves: %w", st.Leaves, h.leafCount, ErrLeafListCorrupt)
	}
	st.Elapsed = time.Since(start)
	h.stats = st
	h.log.WithFields(logrus.Fields{
		"leaves":  st.Leaves,
		"verts":   st.Vertices,
		"prims":   st.Primitives,
		"snapped": st.Snapped,
		"elapsed": st.Elapsed,
	}).Info("extracted mesh")
	return st, nil
}

// Destroy releases every node and the diamond table. The hierarchy is
// empty afterwards. A non-nil error means nodes leaked.
func (h *Hierarchy) Destroy() error {
	var err error
	for i, th := range h.top {
		if th == pool.Nil {
			continue
		}
		err = errors.Join(err, h.release(th))
		h.top[i] = pool.Nil
	}
	err = errors.Join(err, h.nodes.AssertAllReleased())
	h.nodes.Reset()
	h.diamonds.reset()
	h.queue = h.queue[:0]
	h.first, h.last = pool.Nil, pool.Nil
	h.leafCount, h.maxDepth = 0, 0
	h.stats = ExtractStats{}
	h.locator = nil
	return err
}

func (h *Hierarchy) release(nh pool.Handle) error {
	n := h.node(nh)
	n.mesh = nil
	children := n.children
	for _, c := range children {
		if c == pool.Nil {
			continue
		}
		if err := h.release(c); err != nil {
			return err
		}
	}
	return h.nodes.Release(nh)
}

// SetTime sets the time parameter passed to the field on later extractions.
func (h *Hierarchy) SetTime(t float64) { h.t = t }

func (h *Hierarchy) Time() float64 { return h.t }

// Field returns the field the hierarchy extracts.
func (h *Hierarchy) Field() isolod.Field { return h.field }

// Config returns the configuration the hierarchy was built with.
func (h *Hierarchy) Config() Config { return h.cfg }

// LeafCount returns the number of leaves.
func (h *Hierarchy) LeafCount() int { return h.leafCount }

// NodeCount returns the number of nodes in the tree.
func (h *Hierarchy) NodeCount() int { return h.nodes.Len() }

// MaxDepth returns the deepest level reached.
func (h *Hierarchy) MaxDepth() int { return h.maxDepth }

// Stats returns the result of the last successful extraction.
func (h *Hierarchy) Stats() ExtractStats { return h.stats }

// Leaves calls fn on every leaf in leaf list order until fn returns false.
func (h *Hierarchy) Leaves(fn func(n *Node) bool) {
	for nh := h.first; nh != pool.Nil; {
		n := h.node(nh)
		if !fn(n) {
			return
		}
		nh = n.next
	}
}

// LevelHistogram returns the number of leaves at each level.
func (h *Hierarchy) LevelHistogram() []int {
	hist := make([]int, h.maxDepth+1)
	h.Leaves(func(n *Node) bool {
		hist[n.Level]++
		return true
	})
	return hist
}

// MeshBounds returns the bounding box of the extracted vertices. ok is
// false when no leaf holds a surface.
func (h *Hierarchy) MeshBounds() (b r3.Box, ok bool) {
	box := d3.EmptyBox()
	h.Leaves(func(n *Node) bool {
		if n.mesh == nil {
			return true
		}
		for _, p := range n.mesh.Buffers.Positions {
			box = box.Include(p)
			ok = true
		}
		return true
	})
	if !ok {
		return r3.Box{}, false
	}
	return r3.Box(box), true
}

// Diamond returns the nodes registered under the edge with midpoint mid.
func (h *Hierarchy) Diamond(mid r3.Vec) []*Node {
	return h.resolve(h.diamonds.members(d3.KeyOf(mid)))
}

// Diamonds calls fn with the midpoint and members of every diamond until fn
// returns false.
func (h *Hierarchy) Diamonds(fn func(mid r3.Vec, members []*Node) bool) {
	for i := range h.diamonds.diamonds {
		d := &h.diamonds.diamonds[i]
		if !fn(d.mid, h.resolve(d.members)) {
			return
		}
	}
}

// DiamondCount returns the number of diamonds.
func (h *Hierarchy) DiamondCount() int { return h.diamonds.len() }

func (h *Hierarchy) resolve(handles []pool.Handle) []*Node {
	nodes := make([]*Node, len(handles))
	for i, nh := range handles {
		nodes[i] = h.node(nh)
	}
	return nodes
}

// Outline returns the edges of every node of the tree, four vertices and
// six index pairs per node, for wireframe display.
func (h *Hierarchy) Outline() (vertices []r3.Vec, indices []uint32) {
	var walk func(nh pool.Handle)
	walk = func(nh pool.Handle) {
		n := h.node(nh)
		base := uint32(len(vertices))
		vertices = append(vertices, n.Vertices[:]...)
		for _, e := range tetEdges {
			indices = append(indices, base+uint32(e[0]), base+uint32(e[1]))
		}
		if n.IsLeaf() {
			return
		}
		walk(n.children[0])
		walk(n.children[1])
	}
	for _, th := range h.top {
		if th != pool.Nil {
			walk(th)
		}
	}
	return vertices, indices
}
