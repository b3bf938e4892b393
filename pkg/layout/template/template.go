// Package template provides named initial arrangements for scene nodes based
// on recognizable document archetypes.
//
// A template is a pure function of the node list and a spread configuration:
// it buckets nodes by case-insensitive title keywords or by heading level,
// then applies a fixed geometric rule per bucket. Templates run before the
// force simulation, giving the physics a semantically sensible start instead
// of a random cloud. They involve no randomness, so the same input always
// produces the same positions.
package template

import (
	"maps"
	"slices"
	"strings"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// Config controls how far templates spread nodes along each axis. Zero
// values fall back to defaults.
type Config struct {
	// Spacing is the gap between adjacent nodes in a row or grid.
	Spacing float64 `json:"spacing"`
	// VerticalSpread is the total y-axis budget between top and bottom bands.
	VerticalSpread float64 `json:"vertical_spread"`
	// HorizontalSpread pushes side columns out along x.
	HorizontalSpread float64 `json:"horizontal_spread"`
	// DepthSpread pushes front and back rows out along z.
	DepthSpread float64 `json:"depth_spread"`
}

// DefaultConfig returns the standard spread values.
func DefaultConfig() Config {
	return Config{
		Spacing:          5,
		VerticalSpread:   10,
		HorizontalSpread: 15,
		DepthSpread:      15,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Spacing == 0 {
		c.Spacing = def.Spacing
	}
	if c.VerticalSpread == 0 {
		c.VerticalSpread = def.VerticalSpread
	}
	if c.HorizontalSpread == 0 {
		c.HorizontalSpread = def.HorizontalSpread
	}
	if c.DepthSpread == 0 {
		c.DepthSpread = def.DepthSpread
	}
	return c
}

// Func arranges nodes in place. Implementations position every node and
// never touch any other field.
type Func func(nodes []scene.Node, cfg Config)

// Template names.
const (
	ResearchPaper   = "research-paper"
	Documentation   = "documentation"
	ProjectPlanning = "project-planning"
	KnowledgeBase   = "knowledge-base"
	Tutorial        = "tutorial"
	Hierarchical    = "hierarchical"
	Timeline        = "timeline"
	ConceptMap      = "concept-map"
)

var registry = map[string]Func{
	ResearchPaper:   researchPaper,
	Documentation:   documentation,
	ProjectPlanning: projectPlanning,
	KnowledgeBase:   knowledgeBase,
	Tutorial:        tutorial,
	Hierarchical:    hierarchical,
	Timeline:        timeline,
	ConceptMap:      conceptMap,
}

var descriptions = map[string]string{
	ResearchPaper:   "Academic paper flow: intro on top, methods and results as side columns, references in the back",
	Documentation:   "Docs site: table of contents up front, guides in the middle, API reference in the back",
	ProjectPlanning: "Planning board: goals on top, tasks as a timeline, blockers up front",
	KnowledgeBase:   "Hub and spokes: a central hub with the rest in concentric rings",
	Tutorial:        "Step-by-step: a three-column path descending row by row",
	Hierarchical:    "Heading levels as horizontal bands from top (h1) to bottom",
	Timeline:        "Chronological: a single line along x with a gentle sine wave",
	ConceptMap:      "Clustered concepts: up to five groups arranged on a circle",
}

// Names returns all registered template names, sorted.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}

// Lookup returns the template function registered under name.
func Lookup(name string) (Func, bool) {
	f, ok := registry[name]
	return f, ok
}

// Describe returns a one-line description of the named template, or "".
func Describe(name string) string {
	return descriptions[name]
}

// Apply runs the named template over nodes, reporting false for unknown
// names. Empty node lists are a no-op.
func Apply(name string, nodes []scene.Node, cfg Config) bool {
	f, ok := registry[name]
	if !ok {
		return false
	}
	if len(nodes) == 0 {
		return true
	}
	f(nodes, cfg.withDefaults())
	return true
}

// =============================================================================
// Shared helpers
// =============================================================================

// titleHas reports whether the node title contains any of the given
// substrings, ignoring case.
func titleHas(n *scene.Node, subs ...string) bool {
	title := strings.ToLower(n.Title)
	for _, s := range subs {
		if strings.Contains(title, s) {
			return true
		}
	}
	return false
}

// centered spreads index i of n items around zero with the given step, so a
// row of positions is symmetric about the origin.
func centered(i, n int, step float64) float64 {
	return (float64(i) - float64(n-1)/2) * step
}
