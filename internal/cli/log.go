// Package cli implements the markdown3d command-line interface.
//
// This package provides commands for converting markdown documents into 3D
// scenes, inspecting document structure, previewing scenes in a browser, and
// serving the conversion tools over MCP. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - convert: Turn a markdown file into X3D/JSON/SVG scene artifacts
//   - layout: Recompute positions for an exported scene JSON
//   - analyze: Show sections, classifications, and extracted links
//   - templates: List the available layout templates
//   - serve: Live-preview a document in the browser with auto-reload
//   - mcp: Expose the converter as MCP tools over stdio
//   - cache: Manage the local conversion cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and --quiet
// (-q) to suppress everything below warnings. Logs go to stderr so stdout
// stays clean for piped output.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with
// elapsed duration. It is safe for sequential use by a single goroutine.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Converted 42 sections (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
