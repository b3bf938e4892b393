package force

import (
	"math"
	"testing"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/geometry"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

type recordObserver struct {
	iterations []int
	energies   []float64
}

func (r *recordObserver) OnIteration(i int, energy float64) {
	r.iterations = append(r.iterations, i)
	r.energies = append(r.energies, energy)
}

func avgPairwiseDistance(nodes []scene.Node) float64 {
	var sum float64
	var pairs int
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			sum += nodes[i].Position.Distance(nodes[j].Position)
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

func TestSimulateEmptyAndSingle(t *testing.T) {
	res := Simulate(nil, nil, Config{})
	if !res.Converged || res.Iterations != 0 {
		t.Errorf("empty input: got %+v, want immediate convergence", res)
	}

	nodes := []scene.Node{{ID: "only", Position: geometry.Vec(7, -2, 4)}}
	res = Simulate(nodes, nil, Config{})
	if !res.Converged {
		t.Errorf("single node did not converge: %+v", res)
	}
	if nodes[0].Position != geometry.Vec(7, -2, 4) {
		t.Errorf("single node moved to %v with no forces acting", nodes[0].Position)
	}
}

func TestLinkedPairSettlesNearRestLength(t *testing.T) {
	nodes := []scene.Node{
		{ID: "a", Position: geometry.Vec(0, 0, 0)},
		{ID: "b", Position: geometry.Vec(20, 0, 0)},
	}
	links := []scene.Link{{From: "a", To: "b", Kind: scene.LinkReference}}

	// Negligible repulsion and strong damping give a pure, overdamped
	// spring: the pair must come to rest at the rest length.
	cfg := Config{
		Repulsion:   1e-12,
		Attraction:  0.1,
		Centering:   1e-12,
		Damping:     0.5,
		MinDistance: 3,
		MaxDistance: 30,
	}
	res := Simulate(nodes, links, cfg)

	if !res.Converged {
		t.Fatalf("pair did not converge: %+v", res)
	}
	if res.Energy >= 0.01 {
		t.Errorf("final energy = %v, want < 0.01", res.Energy)
	}
	d := nodes[0].Position.Distance(nodes[1].Position)
	if math.Abs(d-cfg.MinDistance) > 1 {
		t.Errorf("final distance = %v, want within 1 of rest length %v", d, cfg.MinDistance)
	}
}

func TestLinkedPairDefaultsReachEquilibrium(t *testing.T) {
	// Start near the repulsion/attraction balance point so the default,
	// underdamped constants settle within the iteration cap.
	nodes := []scene.Node{
		{ID: "a", Position: geometry.Vec(0, 0, 0)},
		{ID: "b", Position: geometry.Vec(8, 0, 0)},
	}
	links := []scene.Link{{From: "a", To: "b", Kind: scene.LinkReference}}

	res := Simulate(nodes, links, DefaultConfig())
	if !res.Converged {
		t.Fatalf("pair did not converge with defaults: %+v", res)
	}

	d := nodes[0].Position.Distance(nodes[1].Position)
	if d <= 3 || d >= 30 {
		t.Errorf("equilibrium distance = %v, want between rest length and repulsion range", d)
	}
	for i := range nodes {
		if !nodes[i].Position.IsFinite() {
			t.Fatalf("node %d position not finite: %v", i, nodes[i].Position)
		}
	}
}

func TestCoincidentNodesSeparate(t *testing.T) {
	nodes := []scene.Node{
		{ID: "a"},
		{ID: "b"},
		{ID: "c"},
	}

	// Velocities persist across runs, so stepping one iteration at a time
	// observes a single continuous simulation.
	cfg := DefaultConfig()
	cfg.MaxIterations = 1

	prev := avgPairwiseDistance(nodes)
	for step := range 5 {
		Simulate(nodes, nil, cfg)
		got := avgPairwiseDistance(nodes)
		if got <= prev {
			t.Fatalf("step %d: avg pairwise distance %v did not increase from %v", step, got, prev)
		}
		prev = got
	}

	for i := range nodes {
		if !nodes[i].Position.IsFinite() {
			t.Fatalf("node %d exploded to %v", i, nodes[i].Position)
		}
	}
}

func TestObserverSeesEveryIteration(t *testing.T) {
	nodes := []scene.Node{
		{ID: "a", Position: geometry.Vec(0, 0, 0)},
		{ID: "b", Position: geometry.Vec(5, 5, 5)},
	}

	obs := &recordObserver{}
	cfg := DefaultConfig()
	cfg.MaxIterations = 10
	cfg.Threshold = 1e-12 // never met in 10 iterations
	cfg.Observer = obs

	res := Simulate(nodes, nil, cfg)
	if res.Converged {
		t.Fatal("unexpected convergence with near-zero threshold")
	}
	if len(obs.iterations) != 10 {
		t.Fatalf("observer saw %d iterations, want 10", len(obs.iterations))
	}
	for i, it := range obs.iterations {
		if it != i {
			t.Errorf("observer iteration %d reported as %d", i, it)
		}
	}
	for i, e := range obs.energies {
		if e < 0 || math.IsNaN(e) {
			t.Errorf("iteration %d: energy = %v, want non-negative", i, e)
		}
	}
	if obs.energies[len(obs.energies)-1] != res.Energy {
		t.Errorf("result energy %v != last observed %v", res.Energy, obs.energies[len(obs.energies)-1])
	}
}

func TestBuildAdjacencyDeduplicates(t *testing.T) {
	nodes := []scene.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	// Reversed and exact duplicates, a self-link, and an unknown endpoint
	// must all collapse or drop out of the adjacency.
	links := []scene.Link{
		{From: "a", To: "b"},
		{From: "b", To: "a"},
		{From: "a", To: "b"},
		{From: "b", To: "b"},
		{From: "a", To: "ghost"},
		{From: "b", To: "c"},
	}

	adj := buildAdjacency(nodes, links)
	if len(adj[0]) != 1 || adj[0][0] != 1 {
		t.Errorf("adj[a] = %v, want [b]", adj[0])
	}
	if len(adj[1]) != 2 {
		t.Errorf("adj[b] = %v, want two neighbors", adj[1])
	}
	if len(adj[2]) != 1 || adj[2][0] != 1 {
		t.Errorf("adj[c] = %v, want [b]", adj[2])
	}
}

func TestConfigWithDefaultsFillsZeroFields(t *testing.T) {
	cfg := Config{Repulsion: 80, MaxIterations: 7}.withDefaults()

	if cfg.Repulsion != 80 {
		t.Errorf("explicit Repulsion overwritten: %v", cfg.Repulsion)
	}
	if cfg.MaxIterations != 7 {
		t.Errorf("explicit MaxIterations overwritten: %v", cfg.MaxIterations)
	}
	def := DefaultConfig()
	if cfg.Attraction != def.Attraction || cfg.Damping != def.Damping ||
		cfg.MinDistance != def.MinDistance || cfg.MaxDistance != def.MaxDistance ||
		cfg.Threshold != def.Threshold {
		t.Errorf("zero fields not defaulted: %+v", cfg)
	}
}
