package collision

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/geometry"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

func clusteredNodes(seed uint64, n int, extent float64) []scene.Node {
	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	nodes := make([]scene.Node, n)
	for i := range nodes {
		nodes[i] = scene.Node{
			ID: fmt.Sprintf("n%d", i),
			Position: geometry.Vec(
				rng.Float64()*extent,
				rng.Float64()*extent,
				rng.Float64()*extent,
			),
			Scale: 0.6 + rng.Float64()*1.6,
		}
	}
	return nodes
}

// bruteForcePairs finds every violating pair by scanning all n² distances.
func bruteForcePairs(nodes []scene.Node, cfg Config) map[[2]int]bool {
	cfg = cfg.withDefaults()
	pairs := make(map[[2]int]bool)
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			minDist := effectiveRadius(&nodes[i], cfg) + effectiveRadius(&nodes[j], cfg) + cfg.MinSeparation
			if nodes[i].Position.Distance(nodes[j].Position) < minDist {
				pairs[[2]int{i, j}] = true
			}
		}
	}
	return pairs
}

func TestDetectFindsOverlappingPair(t *testing.T) {
	nodes := []scene.Node{
		{ID: "a", Position: geometry.Vec(0, 0, 0), Scale: 1},
		{ID: "b", Position: geometry.Vec(3, 0, 0), Scale: 1},
	}

	// Required distance is 1+1+2 = 4, actual is 3.
	got := Detect(nodes, Config{})
	if len(got) != 1 {
		t.Fatalf("Detect() returned %d collisions, want 1", len(got))
	}
	c := got[0]
	if c.A != 0 || c.B != 1 {
		t.Errorf("collision pair = (%d,%d), want (0,1)", c.A, c.B)
	}
	if c.Overlap < 0.999 || c.Overlap > 1.001 {
		t.Errorf("Overlap = %v, want 1", c.Overlap)
	}
	if c.Separation.X > -0.999 {
		t.Errorf("Separation = %v, want unit vector from b toward a", c.Separation)
	}
}

func TestDetectTrivialInputs(t *testing.T) {
	if got := Detect(nil, Config{}); got != nil {
		t.Errorf("Detect(nil) = %v, want nil", got)
	}
	one := []scene.Node{{ID: "a", Scale: 1}}
	if got := Detect(one, Config{}); got != nil {
		t.Errorf("Detect(single) = %v, want nil", got)
	}
}

func TestDetectMatchesBruteForce(t *testing.T) {
	for _, seed := range []uint64{1, 2, 3} {
		nodes := clusteredNodes(seed, 40, 12)

		want := bruteForcePairs(nodes, Config{})
		got := Detect(nodes, Config{})

		if len(got) != len(want) {
			t.Fatalf("seed %d: Detect found %d pairs, brute force %d", seed, len(got), len(want))
		}
		for _, c := range got {
			if !want[[2]int{c.A, c.B}] {
				t.Errorf("seed %d: Detect reported non-violating pair (%d,%d)", seed, c.A, c.B)
			}
		}
	}
}

func TestResolveSeparatesClusteredNodes(t *testing.T) {
	nodes := clusteredNodes(7, 25, 6)

	res := Resolve(nodes, Config{})
	if !res.Converged {
		t.Fatalf("Resolve did not converge: %+v", res)
	}
	if res.Resolved == 0 {
		t.Error("Resolved = 0 for a dense cluster, want > 0")
	}

	if left := Detect(nodes, Config{}); len(left) != 0 {
		t.Errorf("Detect after Resolve found %d collisions, want 0", len(left))
	}
	// Independent: the guarantee holds against a raw distance scan.
	if pairs := bruteForcePairs(nodes, Config{}); len(pairs) != 0 {
		t.Errorf("brute force found %d violating pairs after Resolve", len(pairs))
	}
	for i := range nodes {
		if !nodes[i].Position.IsFinite() {
			t.Fatalf("node %d at non-finite position %v", i, nodes[i].Position)
		}
	}
}

func TestResolveCoincidentNodes(t *testing.T) {
	p := geometry.Vec(5, 5, 5)
	nodes := []scene.Node{
		{ID: "a", Position: p, Scale: 1},
		{ID: "b", Position: p, Scale: 1},
		{ID: "c", Position: p, Scale: 1},
	}

	res := Resolve(nodes, Config{})
	if !res.Converged {
		t.Fatalf("coincident nodes did not converge: %+v", res)
	}
	if pairs := bruteForcePairs(nodes, Config{}); len(pairs) != 0 {
		t.Errorf("%d pairs still violating after Resolve", len(pairs))
	}
}

func TestResolveWeightsByScale(t *testing.T) {
	nodes := []scene.Node{
		{ID: "light", Position: geometry.Vec(0, 0, 0), Scale: 1},
		{ID: "heavy", Position: geometry.Vec(2, 0, 0), Scale: 3},
	}
	start := []geometry.Vector3{nodes[0].Position, nodes[1].Position}

	res := Resolve(nodes, Config{})
	if !res.Converged {
		t.Fatalf("pair did not converge: %+v", res)
	}

	lightMove := nodes[0].Position.Distance(start[0])
	heavyMove := nodes[1].Position.Distance(start[1])
	if lightMove <= heavyMove {
		t.Errorf("light node moved %v, heavy %v; lighter node must move further", lightMove, heavyMove)
	}
	ratio := lightMove / heavyMove
	if ratio < 2.9 || ratio > 3.1 {
		t.Errorf("displacement ratio = %v, want ~3 (inverse of scale ratio)", ratio)
	}
}

func TestResolveLeavesSeparatedNodesAlone(t *testing.T) {
	nodes := []scene.Node{
		{ID: "a", Position: geometry.Vec(0, 0, 0), Scale: 1},
		{ID: "b", Position: geometry.Vec(10, 0, 0), Scale: 1},
	}

	res := Resolve(nodes, Config{})
	if !res.Converged || res.Iterations != 1 || res.Resolved != 0 {
		t.Errorf("clean input: got %+v, want immediate convergence with no work", res)
	}
	if nodes[0].Position != geometry.Vec(0, 0, 0) || nodes[1].Position != geometry.Vec(10, 0, 0) {
		t.Error("Resolve moved nodes that were not colliding")
	}
}
