package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/pipeline"
)

// convertCommand creates the convert command, the main entry point of the CLI.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a markdown document into a 3D scene",
		Long: `Convert a markdown document into a 3D scene.

Sections become shaped nodes, the heading hierarchy and cross-references
become links, and a layout template plus force-directed refinement turn the
structure into spatial positions. The default output is an X3D file next to
the input; use --format for JSON scene data or SVG/DOT/PNG/PDF overview
diagrams (comma-separated for several at once).

Results are cached locally, so repeated conversions of an unchanged document
are nearly instant. Defaults can be set per project in markdown3d.toml;
explicit flags always win.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProjectConfig(".")
			if err != nil {
				return err
			}
			cfg.apply(cmd, &opts, &formatsStr)

			opts.SourcePath = args[0]
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if err := pipeline.ValidateTemplate(opts.Template); err != nil {
				return err
			}
			return c.runConvert(cmd.Context(), args[0], &opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): x3d (default), json, svg, dot, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached results exist")

	// Scene flags
	cmd.Flags().StringVarP(&opts.Template, "template", "t", "", "layout template (see 'markdown3d templates')")
	cmd.Flags().StringVar(&opts.Title, "title", "", "override the scene title")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "detailed labels in overview diagrams")
	cmd.Flags().IntVar(&opts.ChunkThreshold, "chunk-threshold", 0, "sections per scene before chunking (default 60)")

	// Layout flags
	cmd.Flags().BoolVar(&opts.NoForce, "no-force", false, "skip force-directed refinement")
	cmd.Flags().BoolVar(&opts.NoCollision, "no-collision", false, "skip collision resolution")
	cmd.Flags().IntVar(&opts.MaxIterations, "max-iterations", 0, "force simulation iteration cap (default 100)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", pipeline.DefaultSeed, "random seed for reproducible layouts")
	cmd.Flags().Float64Var(&opts.Separation, "separation", 0, "minimum gap between node surfaces (default 2)")
	cmd.Flags().Float64Var(&opts.Spacing, "spacing", 0, "template spacing between nodes (default 5)")

	return cmd
}

// runConvert executes the pipeline and writes the requested artifacts.
func (c *CLI) runConvert(ctx context.Context, input string, opts *pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Converting %s...", filepath.Base(input)))
	spinner.Start()

	result, err := runner.Execute(ctx, *opts)
	if err != nil {
		spinner.StopWithError("Conversion failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := basePath(output, input)
	written, err := writeArtifacts(result.Artifacts, opts.Formats, result.Stats.Chunks, base)
	if err != nil {
		return err
	}

	printSuccess("Conversion complete")
	for _, path := range written {
		printFile(path)
	}
	cached := result.CacheInfo.ParseHit && result.CacheInfo.SceneHit && result.CacheInfo.RenderHit
	printStats(result.Stats.NodeCount, result.Stats.LinkCount, cached)
	printNewline()
	printNextStep("Preview", appName+" serve "+input)

	return nil
}

// =============================================================================
// Artifact Output
// =============================================================================

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input. If output ends in a
// known format extension, that extension is stripped so per-format suffixes
// can be appended.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// artifactPath maps an artifact key to an output file path. Keys are plain
// formats ("x3d") for the first chunk and "format.N" for later chunks, which
// become "base_N.format" files.
func artifactPath(base, key string) string {
	format, chunk, chunked := strings.Cut(key, ".")
	if chunked {
		return fmt.Sprintf("%s_%s.%s", base, chunk, format)
	}
	return base + "." + format
}

// writeArtifacts writes every requested format (for every chunk) under base
// and returns the paths written, in format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, chunks int, base string) ([]string, error) {
	var written []string
	for _, format := range formats {
		for i := 0; i < chunks; i++ {
			key := format
			if i > 0 {
				key = format + "." + strconv.Itoa(i+1)
			}
			data, ok := artifacts[key]
			if !ok {
				continue
			}
			path := artifactPath(base, key)
			if err := os.WriteFile(path, data, 0644); err != nil {
				return written, fmt.Errorf("write %s: %w", path, err)
			}
			written = append(written, path)
		}
	}
	return written, nil
}
