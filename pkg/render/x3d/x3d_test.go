package x3d

import (
	"bytes"
	"encoding/xml"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/geometry"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

func testScene() *scene.Scene {
	return &scene.Scene{
		Title: "Sample",
		Nodes: []scene.Node{
			{ID: "a", Title: "A", Shape: scene.ShapeCube, Color: "#ff0000", Scale: 1},
			{ID: "b", Title: "B", Shape: scene.ShapeSphere, Color: "#00ff00", Scale: 1.5,
				Position: geometry.Vec(10, 0, 0)},
		},
		Links: []scene.Link{
			{From: "a", To: "b", Kind: scene.LinkHierarchy, Weight: 1},
		},
	}
}

func TestRenderBasic(t *testing.T) {
	out := string(Render(testScene(), Options{}))

	for _, want := range []string{
		`<X3D profile="Interchange" version="3.3">`,
		`<WorldInfo title="Sample">`,
		`DEF="node-a"`,
		`DEF="node-b"`,
		`translation="0.000 0.000 0.000"`,
		`translation="10.000 0.000 0.000"`,
		`scale="1.500 1.500 1.500"`,
		`<Box size="2 2 2">`,
		`<Sphere radius="1">`,
		`diffuseColor="1.000 0.000 0.000"`,
		`diffuseColor="0.000 1.000 0.000"`,
		`<Viewpoint DEF="front"`,
		`<Viewpoint DEF="top"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s", want)
		}
	}

	// The strut spans a to b: length 10, rotated from +Y onto +X.
	if !strings.Contains(out, `<Cylinder radius="0.050" height="10.000">`) {
		t.Error("output missing link strut cylinder")
	}
	if !strings.Contains(out, `translation="5.000 0.000 0.000" rotation="0.000 0.000 -1.000 1.571"`) {
		t.Error("output missing strut midpoint transform")
	}
}

func TestRenderParsesAsXML(t *testing.T) {
	s := &scene.Scene{Title: "All Shapes"}
	shapes := []scene.Shape{
		scene.ShapeCube, scene.ShapeSphere, scene.ShapeCylinder,
		scene.ShapeCone, scene.ShapePyramid, scene.ShapeTorus,
	}
	for i, shape := range shapes {
		s.Nodes = append(s.Nodes, scene.Node{
			ID:       string(shape),
			Shape:    shape,
			Scale:    1,
			Color:    "#2a9d8f",
			Position: geometry.Vec(float64(i)*5, 0, 0),
		})
	}
	for _, kind := range []scene.LinkKind{
		scene.LinkHierarchy, scene.LinkReference, scene.LinkKeyword, scene.LinkSequence,
	} {
		s.Links = append(s.Links, scene.Link{From: "cube", To: "torus", Kind: kind})
	}

	out := Render(s, Options{})

	dec := xml.NewDecoder(bytes.NewReader(out))
	transforms := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("output is not well-formed XML: %v", err)
		}
		if start, ok := tok.(xml.StartElement); ok && start.Name.Local == "Transform" {
			transforms++
		}
	}
	if want := len(s.Nodes) + len(s.Links); transforms != want {
		t.Errorf("got %d Transform elements, want %d (one per node and link)", transforms, want)
	}
}

func TestRenderSkipsUnusableLinks(t *testing.T) {
	s := testScene()
	s.Nodes[1].Position = geometry.Vec(0, 0, 0) // coincident with a
	s.Links = append(s.Links, scene.Link{From: "a", To: "ghost", Kind: scene.LinkReference})

	out := string(Render(s, Options{}))

	// Both links drop: one zero-length, one dangling.
	if strings.Contains(out, `transparency="0.2"`) {
		t.Error("expected no struts for zero-length or dangling links")
	}
}

func TestRenderOmitLinks(t *testing.T) {
	out := string(Render(testScene(), Options{OmitLinks: true}))
	if strings.Contains(out, `transparency="0.2"`) {
		t.Error("OmitLinks output still contains strut material")
	}
}

func TestRenderEscapesTitle(t *testing.T) {
	s := testScene()
	s.Title = `Notes <"&>`
	out := string(Render(s, Options{}))
	if !strings.Contains(out, "Notes &lt;&#34;&amp;&gt;") {
		t.Errorf("title not escaped: %s", out[:200])
	}
	if strings.Contains(out, `title="Notes <`) {
		t.Error("raw markup leaked into attribute")
	}
}

func TestRenderDeterministic(t *testing.T) {
	a := Render(testScene(), Options{})
	b := Render(testScene(), Options{})
	if !bytes.Equal(a, b) {
		t.Error("identical scenes rendered differently")
	}
}

func TestRenderMalformedColorFallsBack(t *testing.T) {
	s := testScene()
	s.Nodes[0].Color = "tomato"
	out := string(Render(s, Options{}))
	if !strings.Contains(out, `diffuseColor="0.600 0.600 0.600"`) {
		t.Error("malformed color did not fall back to gray")
	}
}

func TestRotationFromY(t *testing.T) {
	tests := []struct {
		name      string
		dir       geometry.Vector3
		wantAxis  geometry.Vector3
		wantAngle float64
	}{
		{"already aligned", geometry.Vec(0, 1, 0), geometry.Vec(1, 0, 0), 0},
		{"opposite", geometry.Vec(0, -1, 0), geometry.Vec(1, 0, 0), math.Pi},
		{"x axis", geometry.Vec(1, 0, 0), geometry.Vec(0, 0, -1), math.Pi / 2},
		{"z axis", geometry.Vec(0, 0, 1), geometry.Vec(1, 0, 0), math.Pi / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			axis, angle := rotationFromY(tt.dir)
			if math.Abs(angle-tt.wantAngle) > 1e-9 {
				t.Errorf("angle = %v, want %v", angle, tt.wantAngle)
			}
			if axis.Distance(tt.wantAxis) > 1e-9 {
				t.Errorf("axis = %+v, want %+v", axis, tt.wantAxis)
			}
		})
	}
}
