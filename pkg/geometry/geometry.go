// Package geometry maps sky-plane pixel coordinates to cylindrical
// coordinates in the frame of an inclined, rotated disk. It provides the
// flat-disk deprojection, an iterative solver for flared and warped emission
// surfaces, and an occlusion-resolving solver for shadowed surfaces seen at
// high inclination.
package geometry

import (
	"fmt"
	"math"
)

// Frame selects the coordinate frame of the returned disk coordinates.
type Frame int

const (
	// Cylindrical returns (radius, azimuth, height).
	Cylindrical Frame = iota

	// Cartesian returns (x, y, z) in the disk plane.
	Cartesian
)

// ParseFrame converts a frame name into a Frame. Only "cylindrical" and
// "cartesian" are recognized.
func ParseFrame(name string) (Frame, error) {
	switch name {
	case "cylindrical":
		return Cylindrical, nil
	case "cartesian":
		return Cartesian, nil
	}
	return 0, fmt.Errorf("frame must be 'cylindrical' or 'cartesian', got %q", name)
}

// Grid holds the pixel-center offsets of a map in [arcsec]. X runs along the
// fast (column) axis and Y along the slow (row) axis; 2D arrays built against
// a Grid are flat and row-major with index iy*len(X)+ix.
type Grid struct {
	X []float64
	Y []float64
}

// Nx returns the number of pixels along the x-axis.
func (g Grid) Nx() int { return len(g.X) }

// Ny returns the number of pixels along the y-axis.
func (g Grid) Ny() int { return len(g.Y) }

// Dx returns the mean absolute pixel spacing of the x-axis.
func (g Grid) Dx() float64 {
	if len(g.X) < 2 {
		return 0
	}
	sum := 0.0
	for i := 1; i < len(g.X); i++ {
		sum += math.Abs(g.X[i] - g.X[i-1])
	}
	return sum / float64(len(g.X)-1)
}

// Field holds per-pixel disk-plane cylindrical coordinates: radius R in
// [arcsec], azimuth T in [radians] and surface height Z in [arcsec]. Arrays
// are flat and row-major, aligned with the Grid that produced them.
type Field struct {
	R, T, Z []float64
	Nx, Ny  int
}

// Cartesian converts the cylindrical field to disk-plane Cartesian
// coordinates (x, y, z).
func (f Field) Cartesian() (x, y, z []float64) {
	x = make([]float64, len(f.R))
	y = make([]float64, len(f.R))
	z = make([]float64, len(f.R))
	for i := range f.R {
		x[i] = f.R[i] * math.Cos(f.T[i])
		y[i] = f.R[i] * math.Sin(f.T[i])
		z[i] = f.Z[i]
	}
	return x, y, z
}

// Coords returns the field in the requested frame as three flat arrays,
// either (r, t, z) or (x, y, z).
func (f Field) Coords(frame Frame) (a, b, z []float64) {
	if frame == Cartesian {
		return f.Cartesian()
	}
	return f.R, f.T, f.Z
}

// Params holds the geometric description of the disk: the source center
// offset, viewing orientation, the power-law emission surface and an optional
// warp.
type Params struct {
	// X0, Y0 are the source center offsets in [arcsec].
	X0, Y0 float64

	// Inc is the disk inclination in [degrees]. The sign sets the tilt
	// direction; values outside (-90, 90] are normalized on use.
	Inc float64

	// PA is the position angle in [degrees], measured between north and the
	// red-shifted semi-major axis in an easterly direction.
	PA float64

	// Z0 is the surface aspect ratio at 1 arcsec and Psi the flaring
	// exponent. Negative Z0 selects the far side of the disk.
	Z0, Psi float64

	// RCavity is the outer radius of an inner cavity inside which the
	// surface sits at the midplane, in [arcsec].
	RCavity float64

	// RTaper and QTaper describe the exponential taper of the surface in
	// the outer disk.
	RTaper, QTaper float64

	// WI, WR, WT describe the warp: inclination amplitude at the disk
	// center in [degrees], Gaussian scale radius in [arcsec] and the angle
	// of nodes in [degrees].
	WI, WR, WT float64
}

// NormalizeInclination maps an inclination in [degrees] into (-90, 90].
// Values of 90 or above have 180 subtracted, which flips the emission
// surface to the far side of the disk.
func NormalizeInclination(inc float64) float64 {
	if inc >= 90.0 {
		return inc - 180.0
	}
	return inc
}

// RotateCoords rotates (x, y) by the position angle pa in [degrees]. The
// transform is involutive: applying it twice recovers the input.
func RotateCoords(x, y, pa float64) (float64, float64) {
	sin, cos := math.Sincos(pa * math.Pi / 180.0)
	return y*cos + x*sin, x*cos - y*sin
}

// Deproject stretches the axis perpendicular to the disk major axis by the
// inclination inc in [degrees].
func Deproject(x, y, inc float64) (float64, float64) {
	return x, y / math.Cos(inc*math.Pi/180.0)
}

// MidplaneCart returns the Cartesian midplane coordinates of every pixel:
// the sky coordinates are recentred on (x0, y0), rotated by the position
// angle and deprojected by the inclination. Angles are in [degrees].
func MidplaneCart(g Grid, x0, y0, inc, pa float64) (xMid, yMid []float64) {
	nx, ny := g.Nx(), g.Ny()
	xMid = make([]float64, nx*ny)
	yMid = make([]float64, nx*ny)
	for iy := 0; iy < ny; iy++ {
		ys := g.Y[iy] - y0
		for ix := 0; ix < nx; ix++ {
			xs := g.X[ix] - x0
			xr, yr := RotateCoords(xs, ys, pa)
			xd, yd := Deproject(xr, yr, inc)
			i := iy*nx + ix
			xMid[i] = xd
			yMid[i] = yd
		}
	}
	return xMid, yMid
}

// FlatCoords returns the cylindrical disk coordinates of a razor-thin disk,
// with the surface height identically zero.
func FlatCoords(g Grid, p Params) Field {
	inc := NormalizeInclination(p.Inc)
	r, t := MidplanePolar(g, p.X0, p.Y0, inc, p.PA)
	return Field{
		R:  r,
		T:  t,
		Z:  make([]float64, len(r)),
		Nx: g.Nx(),
		Ny: g.Ny(),
	}
}

// MidplanePolar returns the polar midplane coordinates of every pixel, with
// radius in [arcsec] and azimuth in [radians].
func MidplanePolar(g Grid, x0, y0, inc, pa float64) (r, t []float64) {
	xMid, yMid := MidplaneCart(g, x0, y0, inc, pa)
	r = make([]float64, len(xMid))
	t = make([]float64, len(xMid))
	for i := range xMid {
		r[i] = math.Hypot(xMid[i], yMid[i])
		t[i] = math.Atan2(yMid[i], xMid[i])
	}
	return r, t
}
