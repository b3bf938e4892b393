package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/layout"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/layout/template"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/pipeline"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// layoutCommand creates the layout command for recomputing scene positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output        string
		templateName  string
		noForce       bool
		noCollision   bool
		maxIterations int
		seed          uint64
		separation    float64
		spacing       float64
	)

	cmd := &cobra.Command{
		Use:   "layout [scene.json]",
		Short: "Recompute positions for an exported scene",
		Long: `Recompute positions for an exported scene.

The layout command takes a scene JSON file (produced by 'convert -f json')
and runs the layout engine again: template placement, force-directed
refinement, and collision resolution. Nodes and links are kept as-is; only
positions change. This is useful for trying different templates or seeds
without re-parsing the document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateTemplate(templateName); err != nil {
				return err
			}
			lopts := layout.Options{
				Template:               templateName,
				TemplateConfig:         template.Config{Spacing: spacing},
				UseForceDirected:       !noForce,
				UseCollisionResolution: !noCollision,
				MaxIterations:          maxIterations,
				MinSeparation:          separation,
			}
			return c.runLayout(cmd.Context(), args[0], lopts, seed, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVarP(&templateName, "template", "t", "", "layout template (empty keeps random seeding)")
	cmd.Flags().BoolVar(&noForce, "no-force", false, "skip force-directed refinement")
	cmd.Flags().BoolVar(&noCollision, "no-collision", false, "skip collision resolution")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "force simulation iteration cap (default 100)")
	cmd.Flags().Uint64Var(&seed, "seed", pipeline.DefaultSeed, "random seed for reproducible layouts")
	cmd.Flags().Float64Var(&separation, "separation", 0, "minimum gap between node surfaces (default 2)")
	cmd.Flags().Float64Var(&spacing, "spacing", 0, "template spacing between nodes (default 5)")

	return cmd
}

// runLayout loads the scene, recomputes positions, and writes the result.
func (c *CLI) runLayout(ctx context.Context, input string, lopts layout.Options, seed uint64, output string) error {
	sc, err := scene.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	if len(sc.Nodes) == 0 {
		return fmt.Errorf("scene %s has no nodes", input)
	}

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	engine := layout.NewEngine(seed)
	res, err := engine.Optimize(ctx, sc.Nodes, sc.Links, lopts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	sc.Template = res.TemplateApplied
	sc.GeneratedAt = time.Now().UTC()

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}
	if err := scene.WriteFile(sc, outputPath); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	c.Logger.Debug("layout stages",
		"template", res.TemplateApplied,
		"force_iterations", res.Force.Iterations,
		"collision_iterations", res.Collision.Iterations)
	printStats(len(sc.Nodes), len(sc.Links), false)

	return nil
}
