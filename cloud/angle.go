package cloud

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ComputeTurningAngles returns a copy of points where every interior point
// carries the turning angle between its incoming and outgoing segments,
// normalized to [0, 1]. The first and last points get 0, as does any point
// next to a zero-length segment.
func ComputeTurningAngles(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	if len(out) == 0 {
		return out
	}
	out[0].Angle = 0
	out[len(out)-1].Angle = 0

	for i := 1; i < len(points)-1; i++ {
		in := r3.Sub(points[i].Vec(), points[i-1].Vec())
		outSeg := r3.Sub(points[i+1].Vec(), points[i].Vec())
		dn := r3.Norm(in) * r3.Norm(outSeg)
		if dn == 0 {
			out[i].Angle = 0
			continue
		}
		cos := math.Max(-1, math.Min(1, r3.Dot(in, outSeg)/dn))
		out[i].Angle = math.Acos(cos) / math.Pi
	}
	return out
}
