package cloud

import (
	"math"
	"math/rand"
)

// Synthetic recordings used across the package tests.

func strokeLine(x0, y0, x1, y1 float64, steps, path int) []SamplePoint {
	out := make([]SamplePoint, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		out = append(out, SamplePoint{X: x0 + t*(x1-x0), Y: y0 + t*(y1-y0), Path: path})
	}
	return out
}

func strokeCircle(cx, cy, r float64, steps int) []SamplePoint {
	out := make([]SamplePoint, 0, steps+1)
	for i := 0; i <= steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		out = append(out, SamplePoint{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
	}
	return out
}

func strokeZigzag(teeth int) []SamplePoint {
	var out []SamplePoint
	for i := 0; i <= teeth; i++ {
		y := 0.0
		if i%2 == 1 {
			y = 1
		}
		out = append(out, SamplePoint{X: float64(i), Y: y})
	}
	return out
}

// strokeX is a two-stroke cross.
func strokeX() []SamplePoint {
	a := strokeLine(0, 0, 10, 10, 10, 0)
	b := strokeLine(10, 0, 0, 10, 10, 1)
	return append(a, b...)
}

func jitter(samples []SamplePoint, amount float64, seed int64) []SamplePoint {
	rng := rand.New(rand.NewSource(seed))
	out := make([]SamplePoint, len(samples))
	for i, s := range samples {
		s.X += (rng.Float64()*2 - 1) * amount
		s.Y += (rng.Float64()*2 - 1) * amount
		out[i] = s
	}
	return out
}

func transform(samples []SamplePoint, scale, dx, dy, dz float64) []SamplePoint {
	out := make([]SamplePoint, len(samples))
	for i, s := range samples {
		out[i] = SamplePoint{X: s.X*scale + dx, Y: s.Y*scale + dy, Z: s.Z*scale + dz, Path: s.Path}
	}
	return out
}

func randomCloud(rng *rand.Rand, n int) []Point {
	out := make([]Point, n)
	for i := range out {
		out[i] = Point{X: rng.Float64()*2 - 1, Y: rng.Float64()*2 - 1, Z: rng.Float64()*2 - 1}
	}
	return out
}

// randomStrokes returns a raw multi-stroke sample with points uniform
// samples in the unit cube per stroke.
func randomStrokes(rng *rand.Rand, strokes, points int) []SamplePoint {
	out := make([]SamplePoint, 0, strokes*points)
	for path := 0; path < strokes; path++ {
		for i := 0; i < points; i++ {
			out = append(out, SamplePoint{X: rng.Float64(), Y: rng.Float64(), Z: rng.Float64(), Path: path})
		}
	}
	return out
}

// strokePolygon walks the closed polygon through corners with steps points
// per side.
func strokePolygon(corners [][2]float64, steps int) []SamplePoint {
	var out []SamplePoint
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		side := strokeLine(a[0], a[1], b[0], b[1], steps, 0)
		if i > 0 {
			side = side[1:]
		}
		out = append(out, side...)
	}
	return out
}
