package template

import (
	"math"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/geometry"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// tutorial lays nodes on a three-column path that steps down and forward row
// by row, with odd rows reversed so the reading order snakes instead of
// jumping back to the left edge.
func tutorial(nodes []scene.Node, cfg Config) {
	for i := range nodes {
		row, col := i/3, i%3
		if row%2 == 1 {
			col = 2 - col
		}
		nodes[i].Position = geometry.Vec(
			(float64(col)-1)*cfg.HorizontalSpread/2,
			-float64(row)*cfg.VerticalSpread/2,
			float64(row)*cfg.DepthSpread/3,
		)
	}
}

// hierarchical maps heading levels to horizontal bands: level 1 on top and
// toward the viewer, deeper levels lower and further back. Levels outside
// 1..5 are clamped. Nodes inside a band spread along x in input order.
func hierarchical(nodes []scene.Node, cfg Config) {
	byLevel := make(map[int][]int)
	for i := range nodes {
		lv := nodes[i].Level
		if lv < 1 {
			lv = 1
		}
		if lv > 5 {
			lv = 5
		}
		byLevel[lv] = append(byLevel[lv], i)
	}

	for lv, idx := range byLevel {
		y := float64(3-lv) * cfg.VerticalSpread / 2
		z := float64(3-lv) * cfg.DepthSpread / 5
		for k, i := range idx {
			nodes[i].Position = geometry.Vec(centered(k, len(idx), cfg.Spacing), y, z)
		}
	}
}

// timeline spreads nodes chronologically along x with a gentle sine wave in
// y, keeping everything in the z = 0 plane.
func timeline(nodes []scene.Node, cfg Config) {
	for i := range nodes {
		nodes[i].Position = geometry.Vec(
			centered(i, len(nodes), cfg.Spacing*2),
			math.Sin(float64(i)*0.5)*cfg.VerticalSpread/2,
			0,
		)
	}
}
