package cloud

import "math"

// CloudMatch is the quantized variant's template distance.
//
// Starting offsets 0, step, 2*step, ... with step = floor(sqrt(n)) are tried
// in both directions. An offset is only evaluated exactly when its LUT lower
// bound is below the best distance seen so far, which is seeded with
// minSoFar so that pruning carries across templates. Both clouds need a LUT.
func CloudMatch(candidate, template *Template, minSoFar float64) float64 {
	n := len(candidate.Points)
	if n == 0 || len(template.Points) != n {
		return math.Inf(1)
	}
	step := int(math.Floor(math.Sqrt(float64(n))))

	lb1 := computeLowerBound(candidate.Points, template.Points, step, template.LUT.Nearest)
	lb2 := computeLowerBound(template.Points, candidate.Points, step, candidate.LUT.Nearest)

	for i, j := 0, 0; i < n; i, j = i+step, j+1 {
		if lb1[j] < minSoFar {
			minSoFar = math.Min(minSoFar, weightedDistance(candidate.Points, template.Points, i, minSoFar))
		}
		if lb2[j] < minSoFar {
			minSoFar = math.Min(minSoFar, weightedDistance(template.Points, candidate.Points, i, minSoFar))
		}
	}
	return minSoFar
}

// weightedDistance walks pts1 cyclically from start, greedily taking the
// nearest still unmatched point of pts2. Weights fall from n to 1 so points
// visited early count more. The sum is abandoned once it reaches minSoFar.
func weightedDistance(pts1, pts2 []Point, start int, minSoFar float64) float64 {
	n := len(pts1)
	unmatched := make([]int, len(pts2))
	for j := range unmatched {
		unmatched[j] = j
	}

	i := start
	weight := float64(n)
	sum := 0.0
	for {
		u := -1
		b := math.Inf(1)
		for j, idx := range unmatched {
			if d := SqrDist3(pts1[i], pts2[idx]); d < b {
				b = d
				u = j
			}
		}
		unmatched = append(unmatched[:u], unmatched[u+1:]...)

		sum += weight * b
		if sum >= minSoFar {
			return sum
		}
		weight--
		i = (i + 1) % n
		if i == start || len(unmatched) == 0 {
			return sum
		}
	}
}

// computeLowerBound returns, for every starting offset k*step, a cheap
// estimate of the weighted cost of matching pts1 to pts2 from that offset.
// nearest maps a point of pts1 to the index of its (approximate) nearest
// neighbour in pts2.
//
// With d_i the distance to that neighbour and SAT its prefix sum,
// LB[0] = sum (n-i)*d_i and LB for offset s is LB[0] + s*SAT[n-1] - n*SAT[s-1].
func computeLowerBound(pts1, pts2 []Point, step int, nearest func(Point) int) []float64 {
	n := len(pts1)
	lb := make([]float64, n/step+1)
	sat := make([]float64, n)

	for i := 0; i < n; i++ {
		d := SqrDist3(pts1[i], pts2[nearest(pts1[i])])
		if i == 0 {
			sat[i] = d
		} else {
			sat[i] = sat[i-1] + d
		}
		lb[0] += float64(n-i) * d
	}
	for i, j := step, 1; i < n; i, j = i+step, j+1 {
		lb[j] = lb[0] + float64(i)*sat[n-1] - float64(n)*sat[i-1]
	}
	return lb
}
