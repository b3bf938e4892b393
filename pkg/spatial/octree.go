// Package spatial provides an octree index over 3D points for fast
// proximity queries.
//
// # Overview
//
// The octree answers "which entries lie near this point?" in O(log n) for
// reasonably distributed inputs by recursively subdividing a fixed cubic
// region into eight octants. It is built for the collision-resolution loop,
// which rebuilds the whole index from scratch every iteration: construction
// is cheap, the structure is transient, and nothing is ever rebalanced or
// resized in place.
//
//	tree := spatial.New(geometry.NewBox(min, max))
//	tree.Insert(spatial.Entry{ID: "n1", Center: p, Radius: 1.2, Index: 0})
//	near := tree.FindNearby(p, 5.0)
//
// Entries are points with an attached radius and caller-defined index; the
// index geometry only ever tests centers, so an entry belongs to exactly one
// cell regardless of how large its radius is.
package spatial

import (
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/geometry"
)

// Defaults for cell subdivision. A leaf holding more than DefaultCapacity
// entries splits into octants until DefaultMaxDepth, after which it grows
// without bound (pathologically clustered input stays correct, just slower).
const (
	DefaultCapacity = 8
	DefaultMaxDepth = 8
)

// Entry is one indexed point. Index carries the position of the entry in the
// caller's node slice so query results can be mapped back without a lookup;
// Radius is carried alongside for the same reason and does not affect which
// cell the entry lands in.
type Entry struct {
	ID     string
	Center geometry.Vector3
	Radius float64
	Index  int
}

// Octree is a fixed-bounds spatial index over [Entry] values. The zero value
// is not usable; construct with [New]. An octree is not safe for concurrent
// use.
type Octree struct {
	root     cell
	bounds   geometry.Box
	capacity int
	maxDepth int
	size     int
}

// Option configures an octree at construction time.
type Option func(*Octree)

// WithCapacity overrides the per-leaf entry capacity.
func WithCapacity(n int) Option {
	return func(t *Octree) {
		if n > 0 {
			t.capacity = n
		}
	}
}

// WithMaxDepth overrides the maximum subdivision depth.
func WithMaxDepth(d int) Option {
	return func(t *Octree) {
		if d > 0 {
			t.maxDepth = d
		}
	}
}

// New returns an empty octree covering the given world bounds. The bounds are
// fixed for the lifetime of the tree; entries outside them are rejected by
// [Octree.Insert].
func New(bounds geometry.Box, opts ...Option) *Octree {
	t := &Octree{
		bounds:   bounds,
		capacity: DefaultCapacity,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.root = cell{bounds: bounds}
	return t
}

// Insert adds an entry to the tree. It returns false only when the entry's
// center lies outside the world bounds; every in-bounds insert succeeds, with
// cells subdividing as needed.
func (t *Octree) Insert(e Entry) bool {
	if !t.bounds.Contains(e.Center) {
		return false
	}
	t.root.insert(e, t.capacity, t.maxDepth)
	t.size++
	return true
}

// QueryRange returns all entries whose center lies inside box. Subtrees whose
// cells do not intersect the box are pruned without inspection.
func (t *Octree) QueryRange(box geometry.Box) []Entry {
	var out []Entry
	t.root.queryRange(box, &out)
	return out
}

// FindNearby returns all entries within radius of center, by true Euclidean
// distance. It queries the circumscribing cube first, then filters the small
// candidate set by distance, keeping the sphere test off the full entry set.
func (t *Octree) FindNearby(center geometry.Vector3, radius float64) []Entry {
	candidates := t.QueryRange(geometry.CubeAround(center, radius))
	out := candidates[:0]
	rr := radius * radius
	for _, e := range candidates {
		if e.Center.DistanceSq(center) <= rr {
			out = append(out, e)
		}
	}
	return out
}

// Clear resets the tree to a single empty leaf at its original bounds.
func (t *Octree) Clear() {
	t.root = cell{bounds: t.bounds}
	t.size = 0
}

// Len returns the number of stored entries.
func (t *Octree) Len() int { return t.size }

// Bounds returns the fixed world bounds the tree was constructed with.
func (t *Octree) Bounds() geometry.Box { return t.bounds }

// =============================================================================
// Cells
// =============================================================================

// cell is one cubic region of the tree. children == nil marks a leaf holding
// entries up to capacity; after subdivision the children array is set and the
// entries slice keeps only boundary cases that fit no single octant.
type cell struct {
	bounds   geometry.Box
	depth    int
	entries  []Entry
	children *[8]cell
}

func (c *cell) insert(e Entry, capacity, maxDepth int) {
	if c.children == nil {
		c.entries = append(c.entries, e)
		if len(c.entries) > capacity && c.depth < maxDepth {
			c.subdivide(capacity, maxDepth)
		}
		return
	}

	if i, ok := c.octantFor(e.Center); ok {
		c.children[i].insert(e, capacity, maxDepth)
		return
	}
	// Center sits on an octant boundary: keep it here so insertion always
	// succeeds instead of subdividing forever.
	c.entries = append(c.entries, e)
}

// subdivide splits a leaf into eight octants and redistributes its entries by
// center point. Entries on a boundary plane stay behind in this cell.
func (c *cell) subdivide(capacity, maxDepth int) {
	mid := c.bounds.Center()
	var children [8]cell
	for i := range children {
		children[i] = cell{bounds: c.octantBounds(i, mid), depth: c.depth + 1}
	}
	c.children = &children

	pending := c.entries
	c.entries = nil
	for _, e := range pending {
		c.insert(e, capacity, maxDepth)
	}
}

// octantFor maps a point to the index of the single octant containing it, or
// reports false when the point lies exactly on a bisecting plane.
func (c *cell) octantFor(p geometry.Vector3) (int, bool) {
	mid := c.bounds.Center()
	if p.X == mid.X || p.Y == mid.Y || p.Z == mid.Z {
		return 0, false
	}
	i := 0
	if p.X > mid.X {
		i |= 1
	}
	if p.Y > mid.Y {
		i |= 2
	}
	if p.Z > mid.Z {
		i |= 4
	}
	return i, true
}

// octantBounds returns the bounds of octant i, bisecting each axis at mid.
// Bit 0 selects the upper x half, bit 1 upper y, bit 2 upper z.
func (c *cell) octantBounds(i int, mid geometry.Vector3) geometry.Box {
	b := c.bounds
	min, max := b.Min, b.Max
	if i&1 != 0 {
		min.X = mid.X
	} else {
		max.X = mid.X
	}
	if i&2 != 0 {
		min.Y = mid.Y
	} else {
		max.Y = mid.Y
	}
	if i&4 != 0 {
		min.Z = mid.Z
	} else {
		max.Z = mid.Z
	}
	return geometry.Box{Min: min, Max: max}
}

func (c *cell) queryRange(box geometry.Box, out *[]Entry) {
	if !c.bounds.Intersects(box) {
		return
	}
	for _, e := range c.entries {
		if box.Contains(e.Center) {
			*out = append(*out, e)
		}
	}
	if c.children != nil {
		for i := range c.children {
			c.children[i].queryRange(box, out)
		}
	}
}
