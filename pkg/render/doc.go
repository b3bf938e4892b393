// Package render provides output rendering for converted scenes.
//
// # Overview
//
// This package contains the rendering surface that turns a positioned
// scene into viewable artifacts. It provides:
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - X3D documents for 3D viewers (in [x3d] subpackage)
//   - 2D structure diagrams (in [overview] subpackage)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats
// using the external rsvg-convert tool (from librsvg). They are used by
// the overview renderer's PDF and PNG outputs.
//
//	svg, err := overview.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// # X3D Output
//
// The [x3d] subpackage writes the declarative XML scene consumed by
// X3DOM and other X3D viewers: one Transform per node, a geometry
// primitive per shape, and strut cylinders for links.
//
// # Overview Diagrams
//
// The [overview] subpackage renders the same scene as a flat Graphviz
// diagram, useful for documentation and quick structural checks.
//
//	dot := overview.ToDOT(s, overview.Options{})
//	svg, err := overview.RenderSVG(dot)
//
// [x3d]: github.com/MushroomFleet/Markdown3D-MCP/pkg/render/x3d
// [overview]: github.com/MushroomFleet/Markdown3D-MCP/pkg/render/overview
package render
