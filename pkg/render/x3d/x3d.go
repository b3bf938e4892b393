// Package x3d writes scenes as X3D documents.
//
// # Overview
//
// X3D is the declarative XML scene format consumed by browser viewers
// such as X3DOM. The writer emits one Transform per node carrying its
// position and uniform scale, a geometry primitive per shape, a
// Material with the node's palette color, and a thin strut cylinder
// per link. Viewpoints are derived from the scene bounds so the camera
// frames the whole arrangement on load.
//
// Output is built directly into a buffer; all free text passes through
// XML escaping. Rendering is deterministic: the same scene always
// produces byte-identical output.
package x3d

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/geometry"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/layout"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// Options configures X3D output.
type Options struct {
	// LinkRadius is the strut cylinder radius. Default 0.05.
	LinkRadius float64

	// OmitLinks drops the link struts and renders nodes only.
	OmitLinks bool
}

const defaultLinkRadius = 0.05

// Render builds the X3D document for a scene. Nodes must already be
// positioned; links referencing unknown nodes are skipped.
func Render(s *scene.Scene, opts Options) []byte {
	linkRadius := opts.LinkRadius
	if linkRadius <= 0 {
		linkRadius = defaultLinkRadius
	}

	var buf bytes.Buffer
	buf.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	buf.WriteString("<X3D profile=\"Interchange\" version=\"3.3\">\n")
	buf.WriteString("  <Scene>\n")
	fmt.Fprintf(&buf, "    <WorldInfo title=\"%s\"></WorldInfo>\n", escape(s.Title))

	writeViewpoints(&buf, s.Nodes)

	for i := range s.Nodes {
		writeNode(&buf, &s.Nodes[i])
	}

	if !opts.OmitLinks {
		writeLinks(&buf, s, linkRadius)
	}

	buf.WriteString("  </Scene>\n")
	buf.WriteString("</X3D>\n")
	return buf.Bytes()
}

// writeViewpoints frames the scene from the front and from above. The
// camera distance grows with the largest extent so dense scenes still
// fit the frustum.
func writeViewpoints(buf *bytes.Buffer, nodes []scene.Node) {
	b := layout.CalculateBounds(nodes)
	size := b.Box().Size()
	extent := math.Max(size.X, math.Max(size.Y, size.Z))
	dist := extent*1.2 + 20

	front := b.Center.Add(geometry.Vec(0, size.Y*0.15, dist))
	fmt.Fprintf(buf, "    <Viewpoint DEF=\"front\" position=\"%s\" description=\"Front\"></Viewpoint>\n",
		fmtVec(front))

	top := b.Center.Add(geometry.Vec(0, dist, 0))
	fmt.Fprintf(buf, "    <Viewpoint DEF=\"top\" position=\"%s\" orientation=\"1 0 0 -1.5708\" description=\"Top\"></Viewpoint>\n",
		fmtVec(top))
}

func writeNode(buf *bytes.Buffer, n *scene.Node) {
	id := escape("node-" + n.ID)
	fmt.Fprintf(buf, "    <Transform DEF=\"%s\" translation=\"%s\" scale=\"%s\">\n",
		id, fmtVec(n.Position), fmtUniformScale(n.Scale))
	buf.WriteString("      <Shape>\n")
	fmt.Fprintf(buf, "        <Appearance><Material diffuseColor=\"%s\"></Material></Appearance>\n",
		diffuseColor(n.Color))
	writeGeometry(buf, n.Shape)
	buf.WriteString("      </Shape>\n")
	buf.WriteString("    </Transform>\n")
}

// pyramid geometry as an indexed face set: apex over a 2x2 base, all
// faces wound counter-clockwise seen from outside.
const (
	pyramidIndex  = "0 2 1 -1 0 3 2 -1 0 4 3 -1 0 1 4 -1 1 2 3 4 -1"
	pyramidPoints = "0 1 0 -1 -1 -1 1 -1 -1 1 -1 1 -1 -1 1"
)

func writeGeometry(buf *bytes.Buffer, shape scene.Shape) {
	switch shape {
	case scene.ShapeCube:
		buf.WriteString("        <Box size=\"2 2 2\"></Box>\n")
	case scene.ShapeCylinder:
		buf.WriteString("        <Cylinder radius=\"0.8\" height=\"2\"></Cylinder>\n")
	case scene.ShapeCone:
		buf.WriteString("        <Cone bottomRadius=\"1\" height=\"2\"></Cone>\n")
	case scene.ShapePyramid:
		fmt.Fprintf(buf, "        <IndexedFaceSet solid=\"true\" coordIndex=\"%s\">\n", pyramidIndex)
		fmt.Fprintf(buf, "          <Coordinate point=\"%s\"></Coordinate>\n", pyramidPoints)
		buf.WriteString("        </IndexedFaceSet>\n")
	case scene.ShapeTorus:
		// Torus is an X3DOM extension node; standalone X3D viewers
		// without it fall back to nothing rather than erroring.
		buf.WriteString("        <Torus innerRadius=\"0.35\" outerRadius=\"1\"></Torus>\n")
	default:
		buf.WriteString("        <Sphere radius=\"1\"></Sphere>\n")
	}
}

// kindColors are the strut colors per link kind, as X3D diffuse triples.
var kindColors = map[scene.LinkKind]string{
	scene.LinkHierarchy: "0.550 0.570 0.620",
	scene.LinkReference: "0.271 0.482 0.616",
	scene.LinkKeyword:   "0.165 0.616 0.561",
	scene.LinkSequence:  "0.957 0.635 0.380",
}

func writeLinks(buf *bytes.Buffer, s *scene.Scene, radius float64) {
	index := s.NodeIndex()
	for _, l := range s.Links {
		fi, ok := index[l.From]
		if !ok {
			continue
		}
		ti, ok := index[l.To]
		if !ok {
			continue
		}
		writeStrut(buf, s.Nodes[fi].Position, s.Nodes[ti].Position, l.Kind, radius)
	}
}

// writeStrut places a y-axis cylinder at the segment midpoint and
// rotates it onto the segment direction with an axis-angle rotation.
func writeStrut(buf *bytes.Buffer, from, to geometry.Vector3, kind scene.LinkKind, radius float64) {
	d := to.Sub(from)
	length := d.Length()
	if length < 1e-9 {
		return
	}
	mid := from.Add(d.Scale(0.5))
	axis, angle := rotationFromY(d.Scale(1 / length))

	color, ok := kindColors[kind]
	if !ok {
		color = "0.500 0.500 0.500"
	}

	fmt.Fprintf(buf, "    <Transform translation=\"%s\" rotation=\"%s %s\">\n",
		fmtVec(mid), fmtVec(axis), fmtFloat(angle))
	buf.WriteString("      <Shape>\n")
	fmt.Fprintf(buf, "        <Appearance><Material diffuseColor=\"%s\" transparency=\"0.2\"></Material></Appearance>\n", color)
	fmt.Fprintf(buf, "        <Cylinder radius=\"%s\" height=\"%s\"></Cylinder>\n",
		fmtFloat(radius), fmtFloat(length))
	buf.WriteString("      </Shape>\n")
	buf.WriteString("    </Transform>\n")
}

// rotationFromY returns the axis-angle rotation taking the +Y axis onto
// dir, which must be unit length. Parallel directions use the x axis so
// the rotation attribute stays well-formed.
func rotationFromY(dir geometry.Vector3) (geometry.Vector3, float64) {
	dot := dir.Y
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	angle := math.Acos(dot)

	// cross((0,1,0), dir)
	axis := geometry.Vec(dir.Z, 0, -dir.X)
	if axis.Length() < 1e-9 {
		return geometry.Vec(1, 0, 0), angle
	}
	return axis.Normalize(), angle
}

// =============================================================================
// Formatting
// =============================================================================

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

func fmtVec(v geometry.Vector3) string {
	return fmt.Sprintf("%s %s %s", fmtFloat(v.X), fmtFloat(v.Y), fmtFloat(v.Z))
}

func fmtUniformScale(s float64) string {
	if s <= 0 {
		s = 1
	}
	f := fmtFloat(s)
	return fmt.Sprintf("%s %s %s", f, f, f)
}

// diffuseColor converts a "#rrggbb" hex color to an X3D diffuse triple.
// Malformed colors fall back to neutral gray.
func diffuseColor(hex string) string {
	if len(hex) != 7 || hex[0] != '#' {
		return "0.600 0.600 0.600"
	}
	var rgb [3]float64
	for i := range 3 {
		b, err := strconv.ParseUint(hex[1+2*i:3+2*i], 16, 8)
		if err != nil {
			return "0.600 0.600 0.600"
		}
		rgb[i] = float64(b) / 255
	}
	return fmt.Sprintf("%.3f %.3f %.3f", rgb[0], rgb[1], rgb[2])
}

func escape(s string) string {
	var b bytes.Buffer
	// EscapeText only fails on writer errors; a Buffer cannot.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
