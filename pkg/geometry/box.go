package geometry

import "math"

// Box is an axis-aligned bounding box described by its minimum and maximum
// corners. A box where Min equals Max is a degenerate (zero-volume) box that
// still contains its single point.
type Box struct {
	Min Vector3 `json:"min" bson:"min"`
	Max Vector3 `json:"max" bson:"max"`
}

// NewBox returns the box spanning the two corners, normalizing component
// order so that Min ≤ Max on every axis.
func NewBox(a, b Vector3) Box {
	return Box{
		Min: Vector3{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)},
		Max: Vector3{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)},
	}
}

// CubeAround returns the axis-aligned cube centered on c whose faces lie
// halfSide away on every axis.
func CubeAround(c Vector3, halfSide float64) Box {
	h := Vector3{X: halfSide, Y: halfSide, Z: halfSide}
	return Box{Min: c.Sub(h), Max: c.Add(h)}
}

// Contains reports whether p lies inside b. Boundary points count as inside
// on all six faces, so adjacent boxes sharing a face both contain points on
// that face.
func (b Box) Contains(p Vector3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Intersects reports whether b and o overlap, including touching faces.
func (b Box) Intersects(o Box) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Center returns the midpoint of b.
func (b Box) Center() Vector3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the extent of b along each axis.
func (b Box) Size() Vector3 {
	return b.Max.Sub(b.Min)
}

// Expand returns b grown outward by pad on every face. Negative padding
// shrinks the box and may produce an inverted box; callers wanting a valid
// shrunken box should renormalize with [NewBox].
func (b Box) Expand(pad float64) Box {
	p := Vector3{X: pad, Y: pad, Z: pad}
	return Box{Min: b.Min.Sub(p), Max: b.Max.Add(p)}
}

// Union returns the smallest box containing both b and o.
func (b Box) Union(o Box) Box {
	return Box{
		Min: Vector3{X: math.Min(b.Min.X, o.Min.X), Y: math.Min(b.Min.Y, o.Min.Y), Z: math.Min(b.Min.Z, o.Min.Z)},
		Max: Vector3{X: math.Max(b.Max.X, o.Max.X), Y: math.Max(b.Max.Y, o.Max.Y), Z: math.Max(b.Max.Z, o.Max.Z)},
	}
}
