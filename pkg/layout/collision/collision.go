// Package collision enforces a hard minimum separation between node
// footprints after force-directed layout.
//
// The force simulation spreads nodes apart statistically but guarantees
// nothing; this package provides the guarantee. Each pass rebuilds an octree
// over current positions, finds every pair closer than the sum of their
// effective radii plus a separation margin, and pushes the pair apart with
// the smaller node yielding more ground. Passes repeat until a pass finds no
// violations or the iteration budget runs out.
package collision

import (
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/geometry"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/spatial"
)

// Config holds the resolver constants. Zero values fall back to defaults.
type Config struct {
	// MinSeparation is the required clear gap between two node footprints.
	MinSeparation float64 `json:"min_separation"`
	// MaxIterations caps the number of detect-and-push passes.
	MaxIterations int `json:"max_iterations"`
	// NodeRadius is the base footprint radius; a node's effective radius is
	// NodeRadius times its scale.
	NodeRadius float64 `json:"node_radius"`
}

// DefaultConfig returns the standard resolver constants.
func DefaultConfig() Config {
	return Config{
		MinSeparation: 2.0,
		MaxIterations: 20,
		NodeRadius:    1.0,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MinSeparation == 0 {
		c.MinSeparation = def.MinSeparation
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = def.MaxIterations
	}
	if c.NodeRadius == 0 {
		c.NodeRadius = def.NodeRadius
	}
	return c
}

// Collision records one violating pair, addressed by node index. Separation
// is the unit vector from node B toward node A at detection time; Overlap is
// how far inside the required minimum distance the pair sits.
type Collision struct {
	A          int
	B          int
	Overlap    float64
	Separation geometry.Vector3
}

// Result summarizes a resolution run.
type Result struct {
	// Resolved accumulates collision counts across all passes. A pair that
	// stays in violation over several passes is counted once per pass, so
	// this is a work metric, not a distinct-pair count.
	Resolved int
	// Iterations is the number of detect-and-push passes executed.
	Iterations int
	// Converged reports whether some pass found zero collisions. When false
	// the budget ran out; call [Detect] to check the final state.
	Converged bool
}

// Resolve pushes overlapping nodes apart in place until no overlaps remain or
// the iteration budget is exhausted.
func Resolve(nodes []scene.Node, cfg Config) Result {
	cfg = cfg.withDefaults()

	var res Result
	for range cfg.MaxIterations {
		collisions := Detect(nodes, cfg)
		res.Iterations++
		if len(collisions) == 0 {
			res.Converged = true
			break
		}
		res.Resolved += len(collisions)
		push(nodes, collisions)
	}
	return res
}

// Detect returns every pair of nodes whose center distance is below the
// required minimum. It rebuilds a transient octree for the query phase and
// leaves the nodes untouched.
func Detect(nodes []scene.Node, cfg Config) []Collision {
	cfg = cfg.withDefaults()
	if len(nodes) < 2 {
		return nil
	}

	tree := buildIndex(nodes, cfg)

	var collisions []Collision
	for i := range nodes {
		ri := effectiveRadius(&nodes[i], cfg)
		near := tree.FindNearby(nodes[i].Position, ri+cfg.MinSeparation+5)
		for _, e := range near {
			if e.Index <= i {
				continue
			}
			minDist := ri + e.Radius + cfg.MinSeparation
			d := nodes[i].Position.Distance(e.Center)
			if d >= minDist {
				continue
			}
			sep := nodes[i].Position.Sub(e.Center).Normalize()
			if sep == (geometry.Vector3{}) {
				// Coincident centers: pick a fixed axis so the pair still
				// separates deterministically.
				sep = geometry.Vec(1, 0, 0)
			}
			collisions = append(collisions, Collision{
				A:          i,
				B:          e.Index,
				Overlap:    minDist - d,
				Separation: sep,
			})
		}
	}
	return collisions
}

// buildIndex constructs an octree over current positions. World bounds are
// the tightest box around every footprint, padded by 10 units, so every node
// is inside and inserts cannot fail.
func buildIndex(nodes []scene.Node, cfg Config) *spatial.Octree {
	r0 := effectiveRadius(&nodes[0], cfg)
	bounds := geometry.CubeAround(nodes[0].Position, r0)
	for i := 1; i < len(nodes); i++ {
		r := effectiveRadius(&nodes[i], cfg)
		bounds = bounds.Union(geometry.CubeAround(nodes[i].Position, r))
	}
	bounds = bounds.Expand(10)

	tree := spatial.New(bounds)
	for i := range nodes {
		tree.Insert(spatial.Entry{
			ID:     nodes[i].ID,
			Center: nodes[i].Position,
			Radius: effectiveRadius(&nodes[i], cfg),
			Index:  i,
		})
	}
	return tree
}

// push displaces both nodes of every collision along the recorded separation
// vector. The pair's displacements sum to the full overlap, split inversely
// by scale so the lighter node moves further; an equal-scale pair splits the
// overlap 0.5/0.5. Later pushes in the same pass see earlier displacements,
// which is why passes repeat until a clean detection.
func push(nodes []scene.Node, collisions []Collision) {
	for _, c := range collisions {
		a, b := &nodes[c.A], &nodes[c.B]

		sa, sb := positiveScale(a), positiveScale(b)
		total := sa + sb

		moveA := c.Overlap * (sb / total)
		moveB := c.Overlap * (sa / total)

		a.Position = a.Position.Add(c.Separation.Scale(moveA))
		b.Position = b.Position.Sub(c.Separation.Scale(moveB))
	}
}

// effectiveRadius is the node's visual footprint radius. Nodes without a
// positive scale count as scale 1.
func effectiveRadius(n *scene.Node, cfg Config) float64 {
	return cfg.NodeRadius * positiveScale(n)
}

func positiveScale(n *scene.Node) float64 {
	if n.Scale <= 0 {
		return 1
	}
	return n.Scale
}
