package layout

import (
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/geometry"
	"github.com/MushroomFleet/Markdown3D-MCP/pkg/scene"
)

// Minimum per-axis extent for normalization to engage. Below this the axis
// is considered flat and rescaling would blow float noise up to frame size.
const degenerateExtent = 1e-9

// Bounds is the axis-aligned extent of a node set with its midpoint.
type Bounds struct {
	Min    geometry.Vector3 `json:"min"`
	Max    geometry.Vector3 `json:"max"`
	Center geometry.Vector3 `json:"center"`
}

// Box returns the bounds as a plain geometry box.
func (b Bounds) Box() geometry.Box {
	return geometry.Box{Min: b.Min, Max: b.Max}
}

// CalculateBounds returns the tight bounding box around all node centers.
// Empty input yields the zero Bounds.
func CalculateBounds(nodes []scene.Node) Bounds {
	if len(nodes) == 0 {
		return Bounds{}
	}
	box := geometry.Box{Min: nodes[0].Position, Max: nodes[0].Position}
	for i := 1; i < len(nodes); i++ {
		box = box.Union(geometry.Box{Min: nodes[i].Position, Max: nodes[i].Position})
	}
	return Bounds{Min: box.Min, Max: box.Max, Center: box.Center()}
}

// NormalizePositions rescales and recenters node positions into the target
// box, axis by axis. When any current axis extent is degenerate the call
// leaves every position untouched: a flat arrangement (for example a
// timeline in the z = 0 plane) cannot be stretched into a volume without
// inventing coordinates.
func NormalizePositions(nodes []scene.Node, target geometry.Box) {
	if len(nodes) == 0 {
		return
	}
	cur := CalculateBounds(nodes)
	size := cur.Box().Size()
	if size.X < degenerateExtent || size.Y < degenerateExtent || size.Z < degenerateExtent {
		return
	}

	targetSize := target.Size()
	for i := range nodes {
		p := nodes[i].Position
		nodes[i].Position = geometry.Vec(
			target.Min.X+(p.X-cur.Min.X)/size.X*targetSize.X,
			target.Min.Y+(p.Y-cur.Min.Y)/size.Y*targetSize.Y,
			target.Min.Z+(p.Z-cur.Min.Z)/size.Z*targetSize.Z,
		)
	}
}
