// Package mcpserver exposes the conversion pipeline over the Model Context
// Protocol, so editors and agents can convert Markdown documents into 3D
// scenes without shelling out to the CLI.
//
// The server speaks MCP over stdio and registers three tools:
//
//   - convert_markdown: full pipeline run returning artifacts plus stats
//   - analyze_structure: parse + classify + relate, no output rendering
//   - list_templates: the layout template registry
//
// Tool handlers share one pipeline.Runner, so repeated conversions of the
// same document hit the stage caches.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/buildinfo"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/pipeline"
)

// Server wraps the stdio MCP server and the pipeline runner behind it.
type Server struct {
	runner *pipeline.Runner
	mcp    *server.MCPServer
}

// New creates the MCP server and registers the markdown3d tools.
// The runner must not be nil; the caller owns its lifetime.
func New(runner *pipeline.Runner) *Server {
	s := server.NewMCPServer(
		"markdown3d",
		buildinfo.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	srv := &Server{runner: runner, mcp: s}
	srv.registerTools()
	return srv
}

// Serve runs the stdio transport until the client disconnects or stdin
// closes.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
