package tetra

import (
	"github.com/soypat/isolod/internal/d3"
	"github.com/soypat/isolod/internal/pool"
	"gonum.org/v1/gonum/spatial/r3"
)

// diamond groups the nodes that share an edge, keyed by the edge midpoint.
type diamond struct {
	mid     r3.Vec
	members []pool.Handle
}

// diamondTable maps quantized edge midpoints to diamonds. Member slices may
// move when a diamond grows so callers must look members up again after
// any operation that may register nodes.
type diamondTable struct {
	index    map[d3.Key]int32
	diamonds []diamond
	// capacity is the member limit of a diamond. Zero means no limit.
	capacity int
}

func (dt *diamondTable) init(capacity int) {
	dt.index = make(map[d3.Key]int32)
	dt.diamonds = dt.diamonds[:0]
	dt.capacity = capacity
}

func (dt *diamondTable) lookup(k d3.Key) *diamond {
	i, ok := dt.index[k]
	if !ok {
		return nil
	}
	return &dt.diamonds[i]
}

func (dt *diamondTable) members(k d3.Key) []pool.Handle {
	if d := dt.lookup(k); d != nil {
		return d.members
	}
	return nil
}

func (dt *diamondTable) add(k d3.Key, mid r3.Vec, h pool.Handle) *diamond {
	i, ok := dt.index[k]
	if !ok {
		i = int32(len(dt.diamonds))
		dt.index[k] = i
		dt.diamonds = append(dt.diamonds, diamond{mid: mid})
	}
	d := &dt.diamonds[i]
	if dt.capacity > 0 && len(d.members) >= dt.capacity {
		panic("tetra: diamond capacity exceeded")
	}
	d.members = append(d.members, h)
	return d
}

// addTop registers a top level node. All of them share the root cube's
// main diagonal.
func (dt *diamondTable) addTop(k d3.Key, mid r3.Vec, h pool.Handle) {
	if len(dt.members(k)) >= topLevelCount {
		panic("tetra: top level diamond overflow")
	}
	dt.add(k, mid, h)
}

func (dt *diamondTable) len() int { return len(dt.diamonds) }

func (dt *diamondTable) reset() {
	dt.index = nil
	dt.diamonds = nil
}
