package cloud

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

func (s SamplePoint) vec() r3.Vec {
	return r3.Vec{X: s.X, Y: s.Y, Z: s.Z}
}

// Normalize resamples samples to n points, scales the result so the longest
// bounding box side is 1 and moves its centroid to the origin.
func Normalize(samples []SamplePoint, n int) ([]Point, error) {
	points, err := Resample(samples, n)
	if err != nil {
		return nil, err
	}
	points, err = Scale(points)
	if err != nil {
		return nil, err
	}
	return TranslateToOrigin(points), nil
}

// PathLength sums the distances between consecutive samples that share a
// path identifier. Path boundaries contribute nothing.
func PathLength(samples []SamplePoint) float64 {
	d := 0.0
	for i := 1; i < len(samples); i++ {
		if samples[i].Path == samples[i-1].Path {
			d += r3.Norm(r3.Sub(samples[i].vec(), samples[i-1].vec()))
		}
	}
	return d
}

// Resample returns exactly n points evenly spaced by arc length within each
// path. Interpolation never crosses a path boundary and the caller's slice is
// left untouched.
func Resample(samples []SamplePoint, n int) ([]Point, error) {
	if n < 2 {
		return nil, fmt.Errorf("resample: point count %d is below 2", n)
	}
	if len(samples) < 2 {
		return nil, invalidInput(fmt.Sprintf("sample has %d points, need at least 2", len(samples)))
	}

	length := PathLength(samples)
	if length == 0 || math.IsNaN(length) {
		return nil, invalidInput("total path length is zero")
	}
	interval := length / float64(n-1)

	out := make([]Point, 0, n)
	first := samples[0]
	out = append(out, Point{X: first.X, Y: first.Y, Z: first.Z, Path: first.Path})

	// prev is the predecessor on the conceptually extended source: either the
	// previous sample or the last interpolated point.
	prev := first.vec()
	prevPath := first.Path
	dist := 0.0

	for i := 1; i < len(samples) && len(out) < n; i++ {
		cur := samples[i]
		cv := cur.vec()
		if cur.Path != prevPath {
			prev = cv
			prevPath = cur.Path
			continue
		}

		d := r3.Norm(r3.Sub(cv, prev))
		if d == 0 {
			continue
		}
		for dist+d >= interval && len(out) < n {
			t := (interval - dist) / d
			q := r3.Add(prev, r3.Scale(t, r3.Sub(cv, prev)))
			out = append(out, Point{X: q.X, Y: q.Y, Z: q.Z, Path: cur.Path})
			prev = q
			dist = 0
			d = r3.Norm(r3.Sub(cv, prev))
		}
		dist += d
		prev = cv
	}

	// Floating-point accumulation can end the walk short, usually by a single
	// point. Pad with the last sample until there are n.
	last := samples[len(samples)-1]
	for len(out) < n {
		out = append(out, Point{X: last.X, Y: last.Y, Z: last.Z, Path: last.Path})
	}
	return out, nil
}

// BoundingBox returns the axis-aligned minimum and maximum corners.
func BoundingBox(points []Point) (min, max r3.Vec) {
	if len(points) == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	min = points[0].Vec()
	max = min
	for _, p := range points[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		min.Z = math.Min(min.Z, p.Z)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
		max.Z = math.Max(max.Z, p.Z)
	}
	return min, max
}

// Scale maps every coordinate through (c - min) / size where size is the
// longest bounding box side. Aspect ratio is preserved.
func Scale(points []Point) ([]Point, error) {
	min, max := BoundingBox(points)
	size := math.Max(max.X-min.X, math.Max(max.Y-min.Y, max.Z-min.Z))
	if size == 0 {
		return nil, invalidInput("bounding box has zero size")
	}

	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = p.withVec(r3.Scale(1/size, r3.Sub(p.Vec(), min)))
	}
	return out, nil
}

// Centroid calculates the arithmetic mean of all points, ignoring paths.
func Centroid(points []Point) r3.Vec {
	if len(points) == 0 {
		return r3.Vec{}
	}
	var sum r3.Vec
	for _, p := range points {
		sum = r3.Add(sum, p.Vec())
	}
	return r3.Scale(1/float64(len(points)), sum)
}

// TranslateToOrigin moves the centroid of points to (0, 0, 0).
func TranslateToOrigin(points []Point) []Point {
	c := Centroid(points)
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = p.withVec(r3.Sub(p.Vec(), c))
	}
	return out
}
