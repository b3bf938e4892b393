// Package overview renders scenes as 2D structure diagrams.
//
// # Overview
//
// This package produces directed graph diagrams using Graphviz, where
// sections appear as colored boxes connected by typed edges. It is the
// flat companion to the 3D output: the same scene, drawn as a document
// map for READMEs, docs sites, and quick inspection.
//
// # Usage
//
// Convert a scene to DOT format, then render to SVG:
//
//	dot := overview.ToDOT(s, overview.Options{Detailed: false})
//	svg, err := overview.RenderSVG(dot)
//
// For PDF or PNG output, use the render functions:
//
//	pdf, err := overview.RenderPDF(dot)
//	png, err := overview.RenderPNG(dot, 2.0)  // 2x scale
//
// # Edge Styling
//
// Each link kind gets a distinct treatment: hierarchy edges are solid
// and constrain the vertical ranking, reference edges are dashed,
// keyword edges are dotted with similarity-scaled width, and sequence
// edges are drawn in the sequence accent color. Non-hierarchy edges set
// constraint=false so the heading structure alone decides placement.
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [RenderSVG]
//   - Saved and processed with external Graphviz tools
//   - Customized before rendering
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package overview
