package model

import "math"

// AUToKm converts astronomical units to kilometres. All positions in this
// package are expressed in kilometres relative to the owning system's centre.
const AUToKm = 149597870.7

// Vec3 is a position or velocity in system-local coordinates (km).
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// DistanceTo returns the Euclidean distance to other in km.
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Norm returns the magnitude of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}
