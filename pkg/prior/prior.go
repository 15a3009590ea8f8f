// Package prior provides log-prior densities for model parameters. A Set
// maps parameter names to priors and carries the defaults used when a fit
// does not override them.
package prior

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Prior returns the log-probability density at p. Values outside the
// support return -Inf.
type Prior func(p float64) float64

// Flat is a uniform prior between a and b, inclusive at both ends. The
// bounds may be given in either order.
func Flat(a, b float64) Prior {
	u := distuv.Uniform{Min: math.Min(a, b), Max: math.Max(a, b)}
	return u.LogProb
}

// Gaussian is a normal prior with mean mu and standard deviation sigma.
func Gaussian(mu, sigma float64) Prior {
	n := distuv.Normal{Mu: mu, Sigma: sigma}
	return func(p float64) float64 {
		return n.LogProb(p)
	}
}

// Set maps parameter names to their priors.
type Set map[string]Prior

// Eval returns the log-prior for a named parameter. Parameters without a
// registered prior contribute zero.
func (s Set) Eval(name string, p float64) float64 {
	if prior, ok := s[name]; ok {
		return prior(p)
	}
	return 0.0
}

// Set registers or replaces the prior for a named parameter.
func (s Set) Set(name string, p Prior) {
	s[name] = p
}

// Defaults returns the default priors. vmin and vmax bound the systemic
// velocity and are given in [km/s] as read from the data, xmax is the
// largest on-sky offset in [arcsec].
func Defaults(vmin, vmax, xmax float64) Set {
	return Set{
		"x0":    Flat(-2.0, 2.0),
		"y0":    Flat(-2.0, 2.0),
		"inc":   Flat(-90.0, 90.0),
		"PA":    Flat(-360.0, 360.0),
		"mstar": Flat(0.1, 5.0),
		"vlsr":  Flat(vmin*1e3, vmax*1e3),

		"z0":       Flat(0.0, 5.0),
		"psi":      Flat(0.0, 5.0),
		"r_cavity": Flat(0.0, 1e30),
		"r_taper":  Flat(0.0, 1e30),
		"q_taper":  Flat(0.0, 5.0),

		"w_i": Flat(-90.0, 90.0),
		"w_r": Flat(0.0, xmax),
		"w_t": Flat(-180.0, 180.0),

		"vp_100":    Flat(0.0, 1e4),
		"vp_q":      Flat(-2.0, 0.0),
		"vp_rtaper": Flat(0.0, 1e30),
		"vp_qtaper": Flat(0.0, 5.0),
		"vr_100":    Flat(-1e3, 1e3),
		"vr_q":      Flat(-2.0, 2.0),
	}
}
