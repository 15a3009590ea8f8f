package geometry

import "math"

// DefaultIterations is the fixed-point iteration count used by FlaredCoords
// when no explicit count is given. A fixed count, rather than a convergence
// tolerance, keeps the cost of a model evaluation predictable; fits of
// strongly warped or highly inclined surfaces should raise it.
const DefaultIterations = 5

// SurfaceHeight evaluates the emission surface height at radius r:
//
//	z(r) = z0 * max(r - rCavity, 0)^psi * exp(-(max(r - rCavity, 0)/rTaper)^qTaper)
//
// clamped to be non-negative. All radii are in [arcsec].
func SurfaceHeight(r float64, p Params) float64 {
	rr := math.Max(r-p.RCavity, 0.0)
	z := p.Z0 * math.Pow(rr, p.Psi) * math.Exp(-math.Pow(rr/p.RTaper, p.QTaper))
	return math.Max(z, 0.0)
}

// WarpHeight evaluates the warp contribution to the surface height at radius
// r and azimuth t. The warp inclination falls off as a Gaussian of scale
// radius WR and is zero along the line of nodes WT.
func WarpHeight(r, t float64, p Params) float64 {
	rr := math.Max(r-p.RCavity, 0.0)
	warp := p.WI * math.Pi / 180.0 * math.Exp(-0.5*math.Pow(rr/p.WR, 2))
	return rr * math.Tan(warp*math.Sin(t-p.WT*math.Pi/180.0))
}

// FlaredCoords solves for the cylindrical disk coordinates of a flared,
// optionally warped, emission surface. A non-zero surface height shifts the
// effective sky-plane y coordinate by z*tan(inc), so radius and azimuth are
// found by fixed-point iteration: starting from the flat-disk solution, the
// height is recomputed from the current (r, t), the y coordinate shifted,
// and (r, t) rederived. niter <= 0 selects DefaultIterations. With a zero
// surface (z0 and warp amplitude both zero) the flat-disk solution is the
// fixed point and any iteration count returns it unchanged.
func FlaredCoords(g Grid, p Params, niter int) Field {
	return FlaredCoordsTol(g, p, niter, 0.0)
}

// FlaredCoordsTol is FlaredCoords with an optional early-exit tolerance: if
// tol > 0 the per-pixel iteration stops once the radius update falls below
// tol [arcsec]. tol <= 0 reproduces the fixed-count behavior exactly.
func FlaredCoordsTol(g Grid, p Params, niter int, tol float64) Field {
	if niter <= 0 {
		niter = DefaultIterations
	}
	inc := NormalizeInclination(p.Inc)
	tanInc := math.Tan(inc * math.Pi / 180.0)

	xMid, yMid := MidplaneCart(g, p.X0, p.Y0, inc, p.PA)
	n := len(xMid)
	f := Field{
		R:  make([]float64, n),
		T:  make([]float64, n),
		Z:  make([]float64, n),
		Nx: g.Nx(),
		Ny: g.Ny(),
	}
	for i := 0; i < n; i++ {
		x, y := xMid[i], yMid[i]
		r := math.Hypot(x, y)
		t := math.Atan2(y, x)
		for it := 0; it < niter; it++ {
			z := SurfaceHeight(r, p) + WarpHeight(r, t, p)
			ys := y + z*tanInc
			rNext := math.Hypot(x, ys)
			t = math.Atan2(ys, x)
			if tol > 0 && math.Abs(rNext-r) < tol {
				r = rNext
				break
			}
			r = rNext
		}
		f.R[i] = r
		f.T[i] = t
		f.Z[i] = SurfaceHeight(r, p)
	}
	return f
}
