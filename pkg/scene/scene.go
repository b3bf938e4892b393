// Package scene defines the node/link data model shared by every stage of the
// markdown3d pipeline, plus JSON serialization helpers.
//
// A [Scene] is the unit of work: parsing produces its nodes and links,
// classification fills in visual attributes, the layout engine mutates node
// positions in place, and the renderers consume the final positions. Nodes are
// kept in a slice and addressed by index throughout the engine so that every
// stage operates on the same backing array without copying.
package scene

import (
	"time"

	"github.com/MushroomFleet/Markdown3D-MCP/pkg/geometry"
)

// =============================================================================
// Shapes and Link Kinds
// =============================================================================

// Shape selects the 3D geometry a node is rendered with. Shapes are assigned
// by the classifier and also feed the axis-convention pass in the layout
// engine (pyramids and tori receive fixed vertical nudges).
type Shape string

const (
	ShapeCube     Shape = "cube"
	ShapeSphere   Shape = "sphere"
	ShapeCylinder Shape = "cylinder"
	ShapeCone     Shape = "cone"
	ShapePyramid  Shape = "pyramid"
	ShapeTorus    Shape = "torus"
)

// KnownShapes maps every valid shape name to true.
var KnownShapes = map[Shape]bool{
	ShapeCube:     true,
	ShapeSphere:   true,
	ShapeCylinder: true,
	ShapeCone:     true,
	ShapePyramid:  true,
	ShapeTorus:    true,
}

// LinkKind describes why two nodes are related. The layout engine treats all
// kinds identically (undirected springs); renderers style them differently.
type LinkKind string

const (
	// LinkHierarchy connects a section to its parent heading.
	LinkHierarchy LinkKind = "hierarchy"
	// LinkReference is an explicit intra-document anchor reference.
	LinkReference LinkKind = "reference"
	// LinkKeyword connects sections with overlapping keyword sets.
	LinkKeyword LinkKind = "keyword"
	// LinkSequence connects consecutive siblings under one parent.
	LinkSequence LinkKind = "sequence"
)

// =============================================================================
// Core Types
// =============================================================================

// Node is one positioned content element. The ID is unique and stable within
// a scene; Position is mutated in place by the layout engine. Velocity is
// working state for the force simulation and is never serialized.
type Node struct {
	ID       string           `json:"id" bson:"id"`
	Title    string           `json:"title" bson:"title"`
	Level    int              `json:"level" bson:"level"`
	Position geometry.Vector3 `json:"position" bson:"position"`
	Velocity geometry.Vector3 `json:"-" bson:"-"`
	Scale    float64          `json:"scale" bson:"scale"`
	Shape    Shape            `json:"shape" bson:"shape"`
	Color    string           `json:"color,omitempty" bson:"color,omitempty"`
	Tags     []string         `json:"tags,omitempty" bson:"tags,omitempty"`

	// Source content, carried for analysis output and tooltips.
	Content   string `json:"content,omitempty" bson:"content,omitempty"`
	WordCount int    `json:"word_count,omitempty" bson:"word_count,omitempty"`
}

// HasTag reports whether the node carries the given tag (exact match).
func (n *Node) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Link is a directed relationship between two nodes, addressed by node ID.
// Links are read-only to the layout engine, which treats them as undirected.
type Link struct {
	From   string   `json:"from" bson:"from"`
	To     string   `json:"to" bson:"to"`
	Kind   LinkKind `json:"kind" bson:"kind"`
	Weight float64  `json:"weight,omitempty" bson:"weight,omitempty"`
}

// Scene bundles the nodes and links of one converted document together with
// provenance metadata.
type Scene struct {
	Title       string    `json:"title" bson:"title"`
	Source      string    `json:"source,omitempty" bson:"source,omitempty"`
	Template    string    `json:"template,omitempty" bson:"template,omitempty"`
	Nodes       []Node    `json:"nodes" bson:"nodes"`
	Links       []Link    `json:"links,omitempty" bson:"links,omitempty"`
	GeneratedAt time.Time `json:"generated_at" bson:"generated_at"`
}

// NodeIndex returns a map from node ID to slice index. Later duplicates win;
// IDs are expected to be unique within a scene.
func (s *Scene) NodeIndex() map[string]int {
	idx := make(map[string]int, len(s.Nodes))
	for i, n := range s.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// NodeByID returns a pointer to the node with the given ID, or nil.
func (s *Scene) NodeByID(id string) *Node {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i]
		}
	}
	return nil
}
