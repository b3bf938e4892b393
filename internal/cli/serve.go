package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MushroomFleet/Markdown3D-MCP/internal/server"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/cache"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/observability"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/pipeline"
)

// serveCommand creates the serve command for live document preview.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		watch bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Preview a document as a 3D scene in the browser",
		Long: `Preview a document as a 3D scene in the browser.

The serve command converts the document and serves an interactive X3DOM
viewer on a local address. While --watch is enabled (the default), saving
the source file rebuilds the scene and reloads connected browsers
automatically. Press Ctrl-C to stop.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProjectConfig(".")
			if err != nil {
				return err
			}
			cfg.apply(cmd, &opts, nil)

			opts.Logger = c.Logger
			observability.SetViewerHooks(viewerLogHooks{logger: c.Logger})

			// Rebuilds happen in-process on every save; a persistent cache
			// would only store scenes this session already has in memory.
			runner := pipeline.NewRunner(cache.NewMemoryCache(), nil, c.Logger)
			defer runner.Close()

			srv, err := server.New(runner, server.Config{
				Addr:       addr,
				SourcePath: args[0],
				Options:    opts,
				Watch:      watch,
				Logger:     c.Logger,
			})
			if err != nil {
				return fmt.Errorf("start preview server: %w", err)
			}

			printInfo("Serving %s on %s", args[0], StyleHighlight.Render("http://"+addr))
			if watch {
				printDetail("Watching for changes; save the file to reload the browser")
			}
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&watch, "watch", true, "rebuild and reload when the source changes")
	cmd.Flags().StringVarP(&opts.Template, "template", "t", "", "layout template (see 'markdown3d templates')")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", pipeline.DefaultSeed, "random seed for reproducible layouts")
	cmd.Flags().BoolVar(&opts.NoForce, "no-force", false, "skip force-directed refinement")
	cmd.Flags().BoolVar(&opts.NoCollision, "no-collision", false, "skip collision resolution")
	cmd.Flags().Float64Var(&opts.Separation, "separation", 0, "minimum gap between node surfaces (default 2)")
	cmd.Flags().Float64Var(&opts.Spacing, "spacing", 0, "template spacing between nodes (default 5)")

	return cmd
}
