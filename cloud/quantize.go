package cloud

import "math"

// MakeIntCoords returns a copy of points with integer grid coordinates in
// [0, maxIntCoord-1]. Normalized coordinates are assumed to lie roughly in
// [-1, 1]; anything outside is clamped.
func MakeIntCoords(points []Point, maxIntCoord int) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		p.IX = quantize(p.X, maxIntCoord)
		p.IY = quantize(p.Y, maxIntCoord)
		p.IZ = quantize(p.Z, maxIntCoord)
		out[i] = p
	}
	return out
}

func quantize(c float64, maxIntCoord int) int {
	v := int(math.Round((c + 1) / 2 * float64(maxIntCoord-1)))
	return clampInt(v, 0, maxIntCoord-1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LUT is a size x size x size voxel grid over the quantized coordinate
// space. Each cell holds the index of the nearest cloud point.
type LUT struct {
	size  int
	scale float64
	cells []int32
}

// BuildLUT computes the lookup table for a cloud whose integer coordinates
// are already set. Cost is O(size^3 * len(points)).
func BuildLUT(points []Point, size, maxIntCoord int) *LUT {
	lut := &LUT{
		size:  size,
		scale: float64(maxIntCoord) / float64(size),
		cells: make([]int32, size*size*size),
	}

	cellX := make([]int, len(points))
	cellY := make([]int, len(points))
	cellZ := make([]int, len(points))
	for i, p := range points {
		cellX[i], cellY[i], cellZ[i] = lut.cellOf(p)
	}

	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			for z := 0; z < size; z++ {
				best := -1
				bestDist := math.MaxInt
				for i := range points {
					dx, dy, dz := cellX[i]-x, cellY[i]-y, cellZ[i]-z
					d := dx*dx + dy*dy + dz*dz
					if d < bestDist {
						bestDist = d
						best = i
					}
				}
				lut.cells[lut.index(x, y, z)] = int32(best)
			}
		}
	}
	return lut
}

// Size returns the per-axis resolution.
func (l *LUT) Size() int {
	return l.size
}

// cellOf returns the voxel a point's integer coordinates fall into.
func (l *LUT) cellOf(p Point) (int, int, int) {
	return l.axis(p.IX), l.axis(p.IY), l.axis(p.IZ)
}

func (l *LUT) axis(v int) int {
	return clampInt(int(math.Round(float64(v)/l.scale)), 0, l.size-1)
}

func (l *LUT) index(x, y, z int) int {
	return (x*l.size+y)*l.size + z
}

// At returns the stored point index for voxel (x, y, z).
func (l *LUT) At(x, y, z int) int {
	return int(l.cells[l.index(x, y, z)])
}

// Nearest returns the approximate nearest cloud point index for p.
func (l *LUT) Nearest(p Point) int {
	x, y, z := l.cellOf(p)
	return l.At(x, y, z)
}
