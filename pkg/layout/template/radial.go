package template

import (
	"math"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/geometry"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// knowledgeBase puts one hub node at the origin and everything else in
// concentric rings of eight around it. The hub is the first node whose title
// looks like an entry point; without one, the first node serves.
func knowledgeBase(nodes []scene.Node, cfg Config) {
	hub := 0
	for i := range nodes {
		if titleHas(&nodes[i], "hub", "home", "index", "main") {
			hub = i
			break
		}
	}
	nodes[hub].Position = geometry.Vector3{}

	k := 0
	for i := range nodes {
		if i == hub {
			continue
		}
		ring, slot := k/8, k%8
		radius := float64(ring+1) * cfg.Spacing * 2
		angle := 2 * math.Pi * float64(slot) / 8

		// Alternate rings above and below the hub plane so spokes from the
		// hub stay visible past the first ring.
		y := cfg.VerticalSpread / 4
		if ring%2 == 1 {
			y = -y
		}
		nodes[i].Position = geometry.Vec(radius*math.Cos(angle), y, radius*math.Sin(angle))
		k++
	}
}

// conceptMap deals nodes round-robin into at most five clusters, places the
// clusters on a circle, and winds each cluster's members around a smaller
// local circle.
func conceptMap(nodes []scene.Node, cfg Config) {
	clusters := min(5, len(nodes))
	if clusters == 0 {
		return
	}

	for i := range nodes {
		c := i % clusters
		slot := i / clusters
		members := (len(nodes) - c + clusters - 1) / clusters

		clusterAngle := 2 * math.Pi * float64(c) / float64(clusters)
		center := geometry.Vec(
			cfg.HorizontalSpread*math.Cos(clusterAngle),
			0,
			cfg.HorizontalSpread*math.Sin(clusterAngle),
		)

		localAngle := 2 * math.Pi * float64(slot) / float64(members)
		local := geometry.Vec(
			cfg.Spacing*2*math.Cos(localAngle),
			0,
			cfg.Spacing*2*math.Sin(localAngle),
		)
		nodes[i].Position = center.Add(local)
	}
}
