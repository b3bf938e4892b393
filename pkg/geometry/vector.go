package geometry

import "math"

// Vector3 is a point or displacement in 3D space. The zero value is the
// origin. Vectors are plain values: every method returns a new vector and
// never mutates its receiver.
type Vector3 struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
	Z float64 `json:"z" bson:"z"`
}

// Vec is shorthand for constructing a [Vector3].
func Vec(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// Add returns v + w.
func (v Vector3) Add(w Vector3) Vector3 {
	return Vector3{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z}
}

// Sub returns v - w.
func (v Vector3) Sub(w Vector3) Vector3 {
	return Vector3{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z}
}

// Scale returns v with every component multiplied by s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of v and w.
func (v Vector3) Dot(w Vector3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Length returns the Euclidean magnitude of v.
func (v Vector3) Length() float64 {
	return math.Sqrt(v.LengthSq())
}

// LengthSq returns the squared magnitude of v. Prefer this over [Vector3.Length]
// in comparisons to avoid the square root.
func (v Vector3) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Distance returns the Euclidean distance between v and w.
func (v Vector3) Distance(w Vector3) float64 {
	return v.Sub(w).Length()
}

// DistanceSq returns the squared distance between v and w.
func (v Vector3) DistanceSq(w Vector3) float64 {
	return v.Sub(w).LengthSq()
}

// Normalize returns the unit vector pointing in the direction of v.
// The zero vector normalizes to the zero vector rather than producing NaN.
func (v Vector3) Normalize() Vector3 {
	l := v.Length()
	if l == 0 {
		return Vector3{}
	}
	return v.Scale(1 / l)
}

// IsFinite reports whether every component is a finite number.
func (v Vector3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
