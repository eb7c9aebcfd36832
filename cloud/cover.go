package cloud

import "math"

// CoverDistance is the greedy coverage dissimilarity cover(a, b).
//
// Every point of a adds the distance to its nearest point in b; every point
// of b that nobody claimed then adds the distance to its nearest point in a.
// Points may share a nearest neighbour, so this is not a bijection and the
// measure is not symmetric. The sum is abandoned as soon as it reaches
// minSoFar, in which case the returned value is only a lower bound.
func CoverDistance(a, b []Point, minSoFar float64) float64 {
	matched := make([]bool, len(b))
	sum := 0.0

	for i := range a {
		index := -1
		min := math.Inf(1)
		for j := range b {
			if d := Dist4(a[i], b[j]); d < min {
				min = d
				index = j
			}
		}
		if index >= 0 {
			matched[index] = true
		}
		sum += min
		if sum >= minSoFar {
			return sum
		}
	}

	for j := range b {
		if matched[j] {
			continue
		}
		min := math.Inf(1)
		for i := range a {
			if d := Dist4(a[i], b[j]); d < min {
				min = d
			}
		}
		sum += min
		if sum >= minSoFar {
			return sum
		}
	}
	return sum
}

// coverMatch is the angle variant's template distance.
func coverMatch(candidate, template []Point, minSoFar float64) float64 {
	return math.Min(
		CoverDistance(candidate, template, minSoFar),
		CoverDistance(template, candidate, minSoFar),
	)
}
