// Package resample interpolates scattered 2D data points onto a regular
// grid. It backs the shadowed-surface deprojection, where an irregular cloud
// of visible surface points must be sampled back onto the sky-plane pixel
// grid. Queries use a k-d tree for efficient neighbor searches.
package resample

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// Method selects the interpolation scheme.
type Method int

const (
	// Nearest assigns each grid point the value of its nearest sample.
	Nearest Method = iota

	// InvDist blends the nearest samples with inverse-square distance
	// weights.
	InvDist
)

// ParseMethod converts a method name into a Method. Only "nearest" and
// "invdist" are recognized.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "nearest":
		return Nearest, nil
	case "invdist":
		return InvDist, nil
	}
	return 0, fmt.Errorf("method must be 'nearest' or 'invdist', got %q", name)
}

// invDistNeighbors is the number of samples blended by the InvDist method.
const invDistNeighbors = 4

// point is a 2D sample with a back-reference into the value array.
type point struct {
	x, y float64
	idx  int
}

// Compare implements the kdtree.Comparable interface.
func (p point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(point)
	switch d {
	case 0:
		return p.x - q.x
	case 1:
		return p.y - q.y
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree.
func (p point) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two points.
func (p point) Distance(c kdtree.Comparable) float64 {
	q := c.(point)
	dx := p.x - q.x
	dy := p.y - q.y
	return dx*dx + dy*dy
}

// points is a collection of point that satisfies kdtree.Interface.
type points []point

func (p points) Index(i int) kdtree.Comparable         { return p[i] }
func (p points) Len() int                              { return len(p) }
func (p points) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p points) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pointPlane{points: p, Dim: d},
		kdtree.MedianOfRandoms(pointPlane{points: p, Dim: d}, 100))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer for points.
type pointPlane struct {
	points
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.points[i].x < p.points[j].x
	case 1:
		return p.points[i].y < p.points[j].y
	default:
		panic("illegal dimension")
	}
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{points: p.points[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.points[i], p.points[j] = p.points[j], p.points[i]
}

// Interpolator resamples scattered samples onto regular grids.
type Interpolator struct {
	// Method is the interpolation scheme.
	Method Method

	// MaxDistance is the largest sample-to-grid-point distance that still
	// yields a value; grid points further from every sample become NaN.
	// Zero or negative means unlimited.
	MaxDistance float64
}

// Grid interpolates the scattered samples (px, py, values) onto the regular
// grid spanned by the axes qx and qy. The result is flat and row-major with
// index iy*len(qx)+ix. Samples with non-finite coordinates or values are
// dropped; grid points that cannot be resolved are NaN. An error is returned
// when no usable samples remain.
func (ip Interpolator) Grid(px, py, values, qx, qy []float64) ([]float64, error) {
	if len(px) != len(py) || len(px) != len(values) {
		return nil, fmt.Errorf("mismatched sample arrays: %d x, %d y, %d values",
			len(px), len(py), len(values))
	}

	pts := make(points, 0, len(px))
	for i := range px {
		if math.IsNaN(px[i]) || math.IsNaN(py[i]) || math.IsNaN(values[i]) {
			continue
		}
		pts = append(pts, point{x: px[i], y: py[i], idx: i})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("no finite samples to interpolate")
	}
	tree := kdtree.New(pts, false)

	maxSq := math.Inf(1)
	if ip.MaxDistance > 0 {
		maxSq = ip.MaxDistance * ip.MaxDistance
	}

	out := make([]float64, len(qx)*len(qy))
	for iy := range qy {
		for ix := range qx {
			q := point{x: qx[ix], y: qy[iy]}
			var v float64
			switch ip.Method {
			case InvDist:
				v = ip.invDist(tree, q, values, maxSq)
			default:
				v = nearestValue(tree, q, values, maxSq)
			}
			out[iy*len(qx)+ix] = v
		}
	}
	return out, nil
}

// nearestValue returns the value of the sample closest to q, or NaN when the
// nearest sample lies beyond the distance cutoff.
func nearestValue(tree *kdtree.Tree, q point, values []float64, maxSq float64) float64 {
	got, dist := tree.Nearest(q)
	if got == nil || dist > maxSq {
		return math.NaN()
	}
	return values[got.(point).idx]
}

// invDist blends the nearest samples with 1/d^2 weights. A sample
// coincident with the grid point short-circuits to its exact value.
func (ip Interpolator) invDist(tree *kdtree.Tree, q point, values []float64, maxSq float64) float64 {
	keeper := kdtree.NewNKeeper(invDistNeighbors)
	tree.NearestSet(keeper, q)

	sum, wsum := 0.0, 0.0
	for _, item := range keeper.Heap {
		if item.Comparable == nil || item.Dist > maxSq {
			continue
		}
		p := item.Comparable.(point)
		if item.Dist < 1e-20 {
			return values[p.idx]
		}
		w := 1.0 / item.Dist
		sum += w * values[p.idx]
		wsum += w
	}
	if wsum == 0 {
		return math.NaN()
	}
	return sum / wsum
}
