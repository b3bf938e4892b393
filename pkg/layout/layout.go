// Package layout turns an unpositioned scene into a legible 3D arrangement.
//
// # Overview
//
// The [Engine] sequences four stages over one node slice, mutating positions
// in place:
//
//  1. Seeding: a named template from [template], or random placement inside
//     a sphere when no template is chosen.
//  2. Force simulation ([force]): organic spreading along links.
//  3. Collision resolution ([collision]): hard minimum-separation guarantee.
//  4. Axis conventions: fixed semantic nudges (important nodes forward,
//     minor nodes back, shape-specific vertical offsets).
//
// Every stage runs to completion before the next; the context is only
// consulted between stages. Randomness comes exclusively from the engine's
// seeded generator, so equal seeds reproduce equal layouts.
//
// [force]: github.com/MushroomFleet/Markdown3D-MCP/pkg/layout/force
// [collision]: github.com/MushroomFleet/Markdown3D-MCP/pkg/layout/collision
// [template]: github.com/MushroomFleet/Markdown3D-MCP/pkg/layout/template
package layout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/geometry"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/layout/collision"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/layout/force"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/layout/template"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// ErrNoNodes is returned when Optimize is called with an empty node set.
// Centroid and bounds math divides by the node count, so this is a
// precondition rather than a silent no-op.
var ErrNoNodes = errors.New("layout: empty node set")

// DefaultSeed seeds the engine when the caller does not care about
// reproducing a specific layout.
const DefaultSeed uint64 = 42

// Options selects which stages run and carries their overrides.
type Options struct {
	// Template names the initial arrangement. Empty means random seeding.
	Template string `json:"template,omitempty"`
	// TemplateConfig adjusts template spread; zero fields use defaults.
	TemplateConfig template.Config `json:"template_config"`
	// UseForceDirected enables the force simulation stage.
	UseForceDirected bool `json:"use_force_directed"`
	// UseCollisionResolution enables the collision resolution stage.
	UseCollisionResolution bool `json:"use_collision_resolution"`
	// MaxIterations caps the force simulation. Zero keeps the force default.
	MaxIterations int `json:"max_iterations,omitempty"`
	// Force overrides individual simulation constants.
	Force *force.Config `json:"force,omitempty"`
	// MinSeparation overrides the collision resolver's required gap.
	MinSeparation float64 `json:"min_separation,omitempty"`
}

// Result reports what each stage did.
type Result struct {
	// TemplateApplied is the template that seeded positions, or "" for
	// random seeding.
	TemplateApplied string
	Force           force.Result
	Collision       collision.Result
}

// Engine runs the layout pipeline. Create one with [NewEngine]; the zero
// value has no random source and will panic on random seeding.
type Engine struct {
	rng *rand.Rand
}

// NewEngine returns an engine whose random seeding derives entirely from
// seed.
func NewEngine(seed uint64) *Engine {
	return &Engine{rng: rand.New(rand.NewPCG(seed, seed^0xdeadbeef))}
}

// Optimize mutates node positions in place through the enabled stages. The
// node slice is borrowed exclusively for the duration of the call; links are
// read-only. Velocities are zeroed first so every call is a cold start.
//
// The context is checked between stages only; a started stage always runs
// to completion.
func (e *Engine) Optimize(ctx context.Context, nodes []scene.Node, links []scene.Link, opts Options) (*Result, error) {
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}

	for i := range nodes {
		nodes[i].Velocity = geometry.Vector3{}
	}

	res := &Result{}

	if opts.Template != "" {
		if !template.Apply(opts.Template, nodes, opts.TemplateConfig) {
			return nil, fmt.Errorf("layout: unknown template %q", opts.Template)
		}
		res.TemplateApplied = opts.Template
	} else {
		e.seedSphere(nodes)
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	if opts.UseForceDirected {
		cfg := force.DefaultConfig()
		if opts.Force != nil {
			cfg = *opts.Force
		}
		if opts.MaxIterations > 0 {
			cfg.MaxIterations = opts.MaxIterations
		}
		res.Force = force.Simulate(nodes, links, cfg)
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	if opts.UseCollisionResolution {
		res.Collision = collision.Resolve(nodes, collision.Config{
			MinSeparation: opts.MinSeparation,
		})
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	applyAxisConventions(nodes)
	return res, nil
}

// seedSphere scatters nodes inside a sphere whose radius grows with the node
// count, so the force stage starts from separation instead of a single
// degenerate point.
func (e *Engine) seedSphere(nodes []scene.Node) {
	radius := max(10, float64(len(nodes))*2)
	for i := range nodes {
		theta := e.rng.Float64() * 2 * math.Pi
		phi := math.Acos(2*e.rng.Float64() - 1)
		r := e.rng.Float64() * radius
		nodes[i].Position = geometry.Vec(
			r*math.Sin(phi)*math.Cos(theta),
			r*math.Sin(phi)*math.Sin(theta),
			r*math.Cos(phi),
		)
	}
}

// applyAxisConventions nudges nodes along fixed semantic axes: z encodes
// importance (big nodes toward the viewer, small ones back) and y encodes
// abstraction (hierarchy apexes rise, cyclic structures float, technical
// building blocks sink).
func applyAxisConventions(nodes []scene.Node) {
	for i := range nodes {
		n := &nodes[i]
		switch {
		case n.Scale > 1.5:
			n.Position.Z += 5
		case n.Scale > 0 && n.Scale < 0.8:
			n.Position.Z -= 3
		}
		switch {
		case n.Shape == scene.ShapePyramid:
			n.Position.Y += 2
		case n.Shape == scene.ShapeTorus:
			n.Position.Y += 1
		case n.Shape == scene.ShapeCube && (n.HasTag("code") || n.HasTag("technical")):
			n.Position.Y -= 1
		}
	}
}
