package overview

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/render"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// Options configures overview diagram rendering.
type Options struct {
	// Detailed includes level, shape and word count in node labels.
	// When false, only the section title is shown.
	Detailed bool
}

// ToDOT converts a scene to Graphviz DOT format for a 2D structure
// overview. The resulting DOT string can be rendered with [RenderSVG],
// [RenderPDF], or [RenderPNG].
//
// Only hierarchy edges constrain the rank layout; reference, keyword
// and sequence edges are drawn without influencing node placement, so
// the diagram keeps the document's heading structure readable.
func ToDOT(s *scene.Scene, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph scene {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	if s.Title != "" {
		fmt.Fprintf(&buf, "  labelloc=\"t\";\n  label=%q;\n", s.Title)
	}
	buf.WriteString("\n")

	for i := range s.Nodes {
		n := &s.Nodes[i]
		label := fmtLabel(n, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, label), ", "))
	}

	buf.WriteString("\n")
	for _, l := range s.Links {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", l.From, l.To, edgeAttrs(l))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *scene.Node, detailed bool) string {
	title := n.Title
	if title == "" {
		title = n.ID
	}
	if !detailed {
		return title
	}
	parts := []string{
		fmt.Sprintf("level: %d", n.Level),
		fmt.Sprintf("shape: %s", n.Shape),
		fmt.Sprintf("words: %d", n.WordCount),
	}
	return title + "\n" + strings.Join(parts, "\n")
}

func nodeAttrs(n *scene.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.Color != "" {
		attrs = append(attrs,
			fmt.Sprintf("fillcolor=%q", n.Color),
			fmt.Sprintf("fontcolor=%s", fontColorFor(n.Color)))
	}
	return attrs
}

func edgeAttrs(l scene.Link) string {
	switch l.Kind {
	case scene.LinkHierarchy:
		return `color="#555b62", penwidth=1.4`
	case scene.LinkReference:
		return `color="#457b9d", style=dashed, constraint=false`
	case scene.LinkKeyword:
		return fmt.Sprintf(`color="#2a9d8f", style=dotted, constraint=false, penwidth=%.2f`, 0.8+l.Weight)
	case scene.LinkSequence:
		return `color="#f4a261", constraint=false`
	default:
		return `color=gray`
	}
}

// fontColorFor keeps labels legible on filled nodes: dark text on light
// fills, light text on dark fills. Unparseable colors get black text.
func fontColorFor(hex string) string {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return "black"
	}
	if 0.299*r+0.587*g+0.114*b > 0.6 {
		return "black"
	}
	return "white"
}

func parseHex(hex string) (r, g, b float64, ok bool) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0, false
	}
	var rgb [3]float64
	for i := range 3 {
		v, err := strconv.ParseUint(hex[1+2*i:3+2*i], 16, 8)
		if err != nil {
			return 0, 0, 0, false
		}
		rgb[i] = float64(v) / 255
	}
	return rgb[0], rgb[1], rgb[2], true
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the opening svg tag so the view box starts
// at the origin and the pixel size matches it. Graphviz emits point
// units with offsets, which makes embedding awkward.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPDF].
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPNG].
//
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
