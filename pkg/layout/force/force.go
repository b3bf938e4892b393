// Package force implements a force-directed simulation that spreads linked
// nodes into an organic arrangement.
//
// Three forces act on every node each iteration: pairwise repulsion between
// all nodes within range, spring attraction along links that are stretched
// past their rest length, and a weak pull toward the centroid that stops the
// cloud from drifting. Velocities are damped each step and the simulation
// stops once the mean velocity magnitude (the system energy) falls below a
// threshold.
//
// The all-pairs repulsion makes one iteration O(n²). Layout runs once per
// document rather than per frame, so documents with a few hundred sections
// stay well inside interactive budgets.
package force

import (
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/geometry"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// Config holds the simulation constants. Zero values are replaced by the
// corresponding [DefaultConfig] values, so callers can override a single
// constant without spelling out the rest.
type Config struct {
	// Repulsion scales the inverse-square push between nearby nodes.
	Repulsion float64 `json:"repulsion"`
	// Attraction scales the spring pull along links stretched past MinDistance.
	Attraction float64 `json:"attraction"`
	// Centering scales the pull of every node toward the centroid.
	Centering float64 `json:"centering"`
	// Damping multiplies velocity each step; values below 1 bleed energy.
	Damping float64 `json:"damping"`
	// MinDistance is the spring rest length; links shorter than this pull nothing.
	MinDistance float64 `json:"min_distance"`
	// MaxDistance bounds the range of the repulsion force.
	MaxDistance float64 `json:"max_distance"`
	// MaxIterations caps the simulation when energy never converges.
	MaxIterations int `json:"max_iterations"`
	// Threshold is the energy below which the system counts as settled.
	Threshold float64 `json:"threshold"`

	// Observer, when set, receives the iteration index and energy after each
	// step. The simulation itself performs no output.
	Observer Observer `json:"-"`
}

// DefaultConfig returns the standard simulation constants.
func DefaultConfig() Config {
	return Config{
		Repulsion:     50,
		Attraction:    0.1,
		Centering:     0.01,
		Damping:       0.8,
		MinDistance:   3,
		MaxDistance:   30,
		MaxIterations: 100,
		Threshold:     0.01,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig. An explicit zero
// for a force constant cannot be expressed; disable a force by disabling its
// stage or setting a negligible value instead.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Repulsion == 0 {
		c.Repulsion = def.Repulsion
	}
	if c.Attraction == 0 {
		c.Attraction = def.Attraction
	}
	if c.Centering == 0 {
		c.Centering = def.Centering
	}
	if c.Damping == 0 {
		c.Damping = def.Damping
	}
	if c.MinDistance == 0 {
		c.MinDistance = def.MinDistance
	}
	if c.MaxDistance == 0 {
		c.MaxDistance = def.MaxDistance
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = def.MaxIterations
	}
	if c.Threshold == 0 {
		c.Threshold = def.Threshold
	}
	return c
}

// Observer receives per-iteration progress. Implementations must be fast;
// they run inside the simulation loop.
type Observer interface {
	OnIteration(iteration int, energy float64)
}

// Result summarizes one simulation run.
type Result struct {
	// Iterations is the number of steps actually executed.
	Iterations int
	// Energy is the final mean velocity magnitude.
	Energy float64
	// Converged reports whether energy fell below the threshold before the
	// iteration cap.
	Converged bool
}

// Simulate runs the force simulation over nodes, mutating their positions and
// velocities in place. Links are treated as undirected and deduplicated;
// self-links and links naming unknown IDs are ignored. Node velocities are
// not reset, so a run continues wherever a previous run left off; start from
// zeroed velocities for a cold start.
func Simulate(nodes []scene.Node, links []scene.Link, cfg Config) Result {
	cfg = cfg.withDefaults()
	if len(nodes) == 0 {
		return Result{Converged: true}
	}

	adj := buildAdjacency(nodes, links)
	forces := make([]geometry.Vector3, len(nodes))

	var res Result
	for iter := range cfg.MaxIterations {
		step(nodes, adj, forces, cfg)

		energy := systemEnergy(nodes)
		res.Iterations = iter + 1
		res.Energy = energy
		if cfg.Observer != nil {
			cfg.Observer.OnIteration(iter, energy)
		}
		if energy < cfg.Threshold {
			res.Converged = true
			break
		}
	}
	return res
}

// step accumulates forces for every node, then integrates velocity and
// position. The forces buffer is reused across iterations.
func step(nodes []scene.Node, adj [][]int, forces []geometry.Vector3, cfg Config) {
	for i := range forces {
		forces[i] = geometry.Vector3{}
	}

	centroid := centroidOf(nodes)

	for i := range nodes {
		p := nodes[i].Position

		// Repulsion from every other node in range.
		for j := range nodes {
			if i == j {
				continue
			}
			delta := p.Sub(nodes[j].Position)
			dist := delta.Length()
			if dist >= cfg.MaxDistance {
				continue
			}
			dir := delta.Normalize()
			if dist < 1e-9 {
				// Coincident nodes have no direction to push along; fan
				// them out along fixed axes so they separate instead of
				// stacking forever.
				dir = separationDir(i, j)
			}
			mag := cfg.Repulsion / (dist*dist + 0.1)
			forces[i] = forces[i].Add(dir.Scale(mag))
		}

		// Spring attraction along stretched links. The spring only pulls:
		// neighbors closer than the rest length are left to repulsion.
		for _, j := range adj[i] {
			delta := nodes[j].Position.Sub(p)
			dist := delta.Length()
			if dist <= cfg.MinDistance {
				continue
			}
			mag := cfg.Attraction * (dist - cfg.MinDistance)
			forces[i] = forces[i].Add(delta.Normalize().Scale(mag))
		}

		// Gentle pull toward the centroid keeps the cloud anchored.
		forces[i] = forces[i].Add(centroid.Sub(p).Scale(cfg.Centering))
	}

	for i := range nodes {
		v := nodes[i].Velocity.Add(forces[i]).Scale(cfg.Damping)
		nodes[i].Velocity = v
		nodes[i].Position = nodes[i].Position.Add(v)
	}
}

// systemEnergy is the mean per-node sum of absolute velocity components.
func systemEnergy(nodes []scene.Node) float64 {
	var total float64
	for i := range nodes {
		v := nodes[i].Velocity
		total += abs(v.X) + abs(v.Y) + abs(v.Z)
	}
	return total / float64(len(nodes))
}

func centroidOf(nodes []scene.Node) geometry.Vector3 {
	var c geometry.Vector3
	for i := range nodes {
		c = c.Add(nodes[i].Position)
	}
	return c.Scale(1 / float64(len(nodes)))
}

// buildAdjacency converts links to an undirected neighbor list addressed by
// node index. Duplicate and reversed links collapse to one edge.
func buildAdjacency(nodes []scene.Node, links []scene.Link) [][]int {
	index := make(map[string]int, len(nodes))
	for i := range nodes {
		index[nodes[i].ID] = i
	}

	adj := make([][]int, len(nodes))
	seen := make(map[[2]int]bool, len(links))
	for _, l := range links {
		from, ok := index[l.From]
		if !ok {
			continue
		}
		to, ok := index[l.To]
		if !ok || from == to {
			continue
		}
		a, b := from, to
		if a > b {
			a, b = b, a
		}
		if seen[[2]int{a, b}] {
			continue
		}
		seen[[2]int{a, b}] = true
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	return adj
}

// separationDir picks a fixed axis direction for a coincident pair, signed so
// the two nodes move opposite ways.
func separationDir(i, j int) geometry.Vector3 {
	var dir geometry.Vector3
	switch (i + j) % 3 {
	case 0:
		dir = geometry.Vec(1, 0, 0)
	case 1:
		dir = geometry.Vec(0, 1, 0)
	default:
		dir = geometry.Vec(0, 0, 1)
	}
	if i > j {
		return dir.Scale(-1)
	}
	return dir
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
