package scene

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/geometry"
)

func sampleScene() *Scene {
	return &Scene{
		Title:  "Sample",
		Source: "sample.md",
		Nodes: []Node{
			{ID: "intro", Title: "Introduction", Level: 1, Scale: 1.5, Shape: ShapePyramid, Color: "#4a90d9", Tags: []string{"overview"}},
			{ID: "setup", Title: "Setup", Level: 2, Scale: 1.0, Shape: ShapeCube, Position: geometry.Vec(3, 0, -1)},
		},
		Links: []Link{
			{From: "intro", To: "setup", Kind: LinkHierarchy, Weight: 1},
		},
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSceneRoundTrip(t *testing.T) {
	s := sampleScene()

	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if got.Title != s.Title {
		t.Errorf("Title = %q, want %q", got.Title, s.Title)
	}
	if len(got.Nodes) != 2 || len(got.Links) != 1 {
		t.Fatalf("got %d nodes / %d links, want 2 / 1", len(got.Nodes), len(got.Links))
	}
	if got.Nodes[1].Position != geometry.Vec(3, 0, -1) {
		t.Errorf("Position = %v, want (3,0,-1)", got.Nodes[1].Position)
	}
	if got.Nodes[0].Shape != ShapePyramid {
		t.Errorf("Shape = %q, want %q", got.Nodes[0].Shape, ShapePyramid)
	}
}

func TestVelocityNotSerialized(t *testing.T) {
	s := sampleScene()
	s.Nodes[0].Velocity = geometry.Vec(9, 9, 9)

	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if strings.Contains(string(data), "velocity") || strings.Contains(string(data), `"9"`) {
		t.Error("velocity leaked into serialized scene")
	}
}

func TestSceneFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.json")
	s := sampleScene()

	if err := WriteFile(s, path); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if len(got.Nodes) != len(s.Nodes) {
		t.Errorf("got %d nodes, want %d", len(got.Nodes), len(s.Nodes))
	}
}

func TestUnmarshalRejectsInvalidScenes(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{
			name: "duplicate node id",
			json: `{"title":"x","nodes":[{"id":"a","title":"A"},{"id":"a","title":"B"}]}`,
		},
		{
			name: "empty node id",
			json: `{"title":"x","nodes":[{"id":"","title":"A"}]}`,
		},
		{
			name: "link to unknown node",
			json: `{"title":"x","nodes":[{"id":"a","title":"A"}],"links":[{"from":"a","to":"ghost","kind":"reference"}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tt.json)); err == nil {
				t.Error("Unmarshal() accepted invalid scene")
			}
		})
	}
}

func TestNodeLookups(t *testing.T) {
	s := sampleScene()

	idx := s.NodeIndex()
	if idx["setup"] != 1 {
		t.Errorf("NodeIndex()[setup] = %d, want 1", idx["setup"])
	}

	if n := s.NodeByID("intro"); n == nil || n.Title != "Introduction" {
		t.Errorf("NodeByID(intro) = %+v", n)
	}
	if n := s.NodeByID("missing"); n != nil {
		t.Errorf("NodeByID(missing) = %+v, want nil", n)
	}

	if !s.Nodes[0].HasTag("overview") {
		t.Error("HasTag(overview) = false, want true")
	}
	if s.Nodes[0].HasTag("other") {
		t.Error("HasTag(other) = true, want false")
	}
}
