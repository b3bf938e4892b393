package template

import (
	"math"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/geometry"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// The bucketed templates classify nodes by title keywords into named groups,
// then place each group as a row, column, or grid. A node matching several
// keyword sets lands in the first matching bucket; everything else falls
// through to the template's catch-all placement.

func researchPaper(nodes []scene.Node, cfg Config) {
	var intro, methods, results, conclusion, references, other []int
	for i := range nodes {
		n := &nodes[i]
		switch {
		case titleHas(n, "intro", "abstract", "overview"):
			intro = append(intro, i)
		case titleHas(n, "method", "approach", "implementation"):
			methods = append(methods, i)
		case titleHas(n, "result", "finding", "evaluation", "experiment"):
			results = append(results, i)
		case titleHas(n, "conclusion", "summary", "discussion"):
			conclusion = append(conclusion, i)
		case titleHas(n, "reference", "bibliograph", "citation"):
			references = append(references, i)
		default:
			other = append(other, i)
		}
	}

	// Introduction reads first: top and center.
	for k, i := range intro {
		nodes[i].Position = geometry.Vec(centered(k, len(intro), cfg.Spacing), cfg.VerticalSpread, 0)
	}
	// Methods and results face each other as side columns staggered in depth.
	for k, i := range methods {
		nodes[i].Position = geometry.Vec(-cfg.HorizontalSpread, cfg.VerticalSpread/4, centered(k, len(methods), cfg.Spacing))
	}
	for k, i := range results {
		nodes[i].Position = geometry.Vec(cfg.HorizontalSpread, cfg.VerticalSpread/4, centered(k, len(results), cfg.Spacing))
	}
	// Conclusions close the loop at the bottom center.
	for k, i := range conclusion {
		nodes[i].Position = geometry.Vec(centered(k, len(conclusion), cfg.Spacing), -cfg.VerticalSpread, 0)
	}
	// References sit behind everything.
	for k, i := range references {
		nodes[i].Position = geometry.Vec(centered(k, len(references), cfg.Spacing), -cfg.VerticalSpread/2, -cfg.DepthSpread)
	}
	placeCircle(nodes, other, cfg.HorizontalSpread/2, 0)
}

func documentation(nodes []scene.Node, cfg Config) {
	var toc, api, guides, other []int
	for i := range nodes {
		n := &nodes[i]
		switch {
		case titleHas(n, "table of contents", "contents", "toc", "index"):
			toc = append(toc, i)
		case titleHas(n, "api", "reference", "endpoint"):
			api = append(api, i)
		case titleHas(n, "guide", "tutorial", "getting started", "how to", "howto"):
			guides = append(guides, i)
		default:
			other = append(other, i)
		}
	}

	// Navigation up front, reference material in the back, content between.
	for k, i := range toc {
		nodes[i].Position = geometry.Vec(centered(k, len(toc), cfg.Spacing), cfg.VerticalSpread/2, cfg.DepthSpread)
	}
	for k, i := range guides {
		nodes[i].Position = geometry.Vec(centered(k, len(guides), cfg.Spacing), 0, cfg.DepthSpread/2)
	}
	placeGrid(nodes, other, cfg.Spacing)
	for k, i := range api {
		nodes[i].Position = geometry.Vec(centered(k, len(api), cfg.Spacing), 0, -cfg.DepthSpread)
	}
}

func projectPlanning(nodes []scene.Node, cfg Config) {
	var goals, tasks, completed, blockers, other []int
	for i := range nodes {
		n := &nodes[i]
		switch {
		case titleHas(n, "goal", "objective", "vision"):
			goals = append(goals, i)
		case titleHas(n, "task", "todo", "to do", "action"):
			tasks = append(tasks, i)
		case titleHas(n, "done", "completed", "finished"):
			completed = append(completed, i)
		case titleHas(n, "block", "issue", "risk", "problem"):
			blockers = append(blockers, i)
		default:
			other = append(other, i)
		}
	}

	for k, i := range goals {
		nodes[i].Position = geometry.Vec(centered(k, len(goals), cfg.Spacing), cfg.VerticalSpread, 0)
	}
	// Tasks march left to right like a timeline.
	for k, i := range tasks {
		nodes[i].Position = geometry.Vec(centered(k, len(tasks), cfg.Spacing), 0, 0)
	}
	// Finished work sinks down and forward, out of the main sight line.
	for k, i := range completed {
		nodes[i].Position = geometry.Vec(centered(k, len(completed), cfg.Spacing), -cfg.VerticalSpread/2, cfg.DepthSpread/2)
	}
	// Blockers demand attention in the foreground.
	for k, i := range blockers {
		nodes[i].Position = geometry.Vec(centered(k, len(blockers), cfg.Spacing), 0, cfg.DepthSpread)
	}
	for k, i := range other {
		nodes[i].Position = geometry.Vec(centered(k, len(other), cfg.Spacing), 0, -cfg.DepthSpread/2)
	}
}

// placeCircle arranges the given node indices evenly on a circle in the xz
// plane at the given height.
func placeCircle(nodes []scene.Node, idx []int, radius, y float64) {
	for k, i := range idx {
		angle := 2 * math.Pi * float64(k) / float64(len(idx))
		nodes[i].Position = geometry.Vec(radius*math.Cos(angle), y, radius*math.Sin(angle))
	}
}

// placeGrid arranges the given node indices in a near-square grid in the xz
// plane centered on the origin.
func placeGrid(nodes []scene.Node, idx []int, spacing float64) {
	if len(idx) == 0 {
		return
	}
	cols := int(math.Ceil(math.Sqrt(float64(len(idx)))))
	rows := (len(idx) + cols - 1) / cols
	for k, i := range idx {
		col, row := k%cols, k/cols
		nodes[i].Position = geometry.Vec(
			centered(col, cols, spacing),
			0,
			centered(row, rows, spacing),
		)
	}
}
