package cloud

import "math"

// Dist4 is the Euclidean distance over (x, y, z, angle).
func Dist4(p, q Point) float64 {
	dx := q.X - p.X
	dy := q.Y - p.Y
	dz := q.Z - p.Z
	da := q.Angle - p.Angle
	return math.Sqrt(dx*dx + dy*dy + dz*dz + da*da)
}

// SqrDist3 is the squared Euclidean distance over (x, y, z).
func SqrDist3(p, q Point) float64 {
	dx := q.X - p.X
	dy := q.Y - p.Y
	dz := q.Z - p.Z
	return dx*dx + dy*dy + dz*dz
}
