package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MushroomFleet/Markdown3D-MCP/internal/mcpserver"
)

// mcpCommand creates the mcp command exposing the converter over stdio.
func (c *CLI) mcpCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Long: `Run the MCP server on stdio.

Exposes convert_markdown, analyze_structure, and list_templates as MCP
tools for clients such as editors and assistants. The protocol runs on
stdin/stdout; logs go to stderr. Typically launched by an MCP client
configuration rather than by hand:

  {"command": "markdown3d", "args": ["mcp"]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			c.Logger.Info("starting MCP server on stdio")
			return mcpserver.New(runner).Serve()
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
