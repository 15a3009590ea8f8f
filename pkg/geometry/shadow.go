package geometry

import (
	"math"

	"github.com/joshcalcino/eddy/pkg/resample"
)

// ShadowOptions configures the shadowed-surface solver.
type ShadowOptions struct {
	// Extend scales the disk-frame grid beyond the sky-plane field of view
	// so that surface points tilted into view are not lost at the edges.
	Extend float64

	// Oversample multiplies the pixel count of the disk-frame grid.
	Oversample float64

	// Interp resamples the visible surface points back onto the pixel
	// grid. Grid points the interpolator cannot resolve are NaN.
	Interp resample.Interpolator
}

// DefaultShadowOptions returns the shadowed-surface defaults: a grid
// extended by 1.5x, oversampled 2x, resampled with nearest-neighbor
// interpolation.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{
		Extend:     1.5,
		Oversample: 2.0,
		Interp:     resample.Interpolator{Method: resample.Nearest},
	}
}

// DiskFrameCoords builds an oversampled Cartesian and polar coordinate grid
// directly in the disk frame, extended beyond the sky axes by the given
// factor. The x-axis is reversed so that it runs in the same direction as
// the sky x-axis after the inclination rotation.
func DiskFrameCoords(g Grid, extend, oversample float64) (x, y, r, t []float64, nx, ny int) {
	nx = int(float64(g.Nx()) * oversample)
	ny = int(float64(g.Ny()) * oversample)
	xd := linspace(extend*g.X[0], extend*g.X[g.Nx()-1], nx)
	for i, j := 0, len(xd)-1; i < j; i, j = i+1, j-1 {
		xd[i], xd[j] = xd[j], xd[i]
	}
	yd := linspace(extend*g.Y[0], extend*g.Y[g.Ny()-1], ny)

	n := nx * ny
	x = make([]float64, n)
	y = make([]float64, n)
	r = make([]float64, n)
	t = make([]float64, n)
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			i := iy*nx + ix
			x[i] = xd[ix]
			y[i] = yd[iy]
			r[i] = math.Hypot(xd[ix], yd[iy])
			t[i] = math.Atan2(yd[iy], xd[ix])
		}
	}
	return x, y, r, t, nx, ny
}

// ShadowedCoords solves for the cylindrical disk coordinates of an emission
// surface whose near side can occlude its far side along the line of sight.
// The surface height is evaluated on an oversampled disk-frame grid (no
// iteration is needed there), the grid is inclined about the line of sight,
// and a running min/max filter along the inclination axis keeps only the
// nearest surface point in each column. The surviving points are rotated
// back to the sky orientation and resampled onto the pixel grid; pixels the
// resampler cannot resolve carry NaN coordinates.
func ShadowedCoords(g Grid, p Params, opts ShadowOptions) (Field, error) {
	inc := NormalizeInclination(p.Inc)
	incRad := inc * math.Pi / 180.0

	xDisk, yDisk, rDisk, tDisk, nx, ny := DiskFrameCoords(g, opts.Extend, opts.Oversample)

	// Incline the disk about the line-of-sight axis.
	sinI, cosI := math.Sincos(incRad)
	yDep := make([]float64, len(yDisk))
	for i := range yDisk {
		z := SurfaceHeight(rDisk[i], p) + WarpHeight(rDisk[i], tDisk[i], p)
		yDep[i] = yDisk[i]*cosI - z*sinI
	}

	// Occlusion resolution: accumulate along the inclination axis so that
	// each column keeps only the surface point nearest the observer.
	if incRad < 0 {
		for ix := 0; ix < nx; ix++ {
			for iy := 1; iy < ny; iy++ {
				i := iy*nx + ix
				yDep[i] = math.Max(yDep[i], yDep[i-nx])
			}
		}
	} else {
		for ix := 0; ix < nx; ix++ {
			for iy := ny - 2; iy >= 0; iy-- {
				i := iy*nx + ix
				yDep[i] = math.Min(yDep[i], yDep[i+nx])
			}
		}
	}

	// Rotate back to the sky orientation and position.
	xRot := make([]float64, len(xDisk))
	yRot := make([]float64, len(xDisk))
	for i := range xDisk {
		xr, yr := RotateCoords(xDisk[i], yDep[i], p.PA)
		xRot[i] = xr + p.X0
		yRot[i] = yr + p.Y0
	}

	// Grid the surviving points onto the sky-plane pixels.
	rObs, err := opts.Interp.Grid(xRot, yRot, rDisk, g.X, g.Y)
	if err != nil {
		return Field{}, err
	}
	tObs, err := opts.Interp.Grid(xRot, yRot, tDisk, g.X, g.Y)
	if err != nil {
		return Field{}, err
	}

	f := Field{
		R:  rObs,
		T:  tObs,
		Z:  make([]float64, len(rObs)),
		Nx: g.Nx(),
		Ny: g.Ny(),
	}
	for i := range rObs {
		f.Z[i] = SurfaceHeight(rObs[i], p)
	}
	return f, nil
}

// linspace returns n evenly spaced values from a to b inclusive.
func linspace(a, b float64, n int) []float64 {
	if n < 2 {
		return []float64{a}
	}
	out := make([]float64, n)
	step := (b - a) / float64(n-1)
	for i := range out {
		out[i] = a + float64(i)*step
	}
	out[n-1] = b
	return out
}
