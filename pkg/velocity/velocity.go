// Package velocity builds line-of-sight projected velocity fields from
// disk-plane cylindrical coordinates. Two rotation laws are available,
// Keplerian and power-law, expressed as a sealed variant type so that
// exactly one law is active per model.
package velocity

import (
	"math"

	"github.com/joshcalcino/eddy/pkg/geometry"
)

// Physical constants in SI units.
const (
	// AU is the astronomical unit in [m].
	AU = 1.495978707e11

	// G is the gravitational constant in [m^3 kg^-1 s^-2].
	G = 6.67430e-11

	// MSun is the solar mass in [kg].
	MSun = 1.988e30
)

// RotationLaw is the rotation profile of the disk. Implementations project
// the rotational (and, for the power-law variant, radial) motion onto the
// line of sight, returning velocities in [m/s]. The systemic velocity is
// added by the caller.
type RotationLaw interface {
	// Project returns the projected velocity at every pixel of the field.
	// dist is the source distance in [pc] and inc the disk inclination in
	// [degrees].
	Project(f geometry.Field, dist, inc float64) []float64

	isRotationLaw()
}

// Keplerian rotation around a central star, including the correction for a
// non-zero emission height.
type Keplerian struct {
	// MStar is the stellar mass in [Msun].
	MStar float64
}

func (Keplerian) isRotationLaw() {}

// Project returns the projected Keplerian rotation in [m/s].
func (k Keplerian) Project(f geometry.Field, dist, inc float64) []float64 {
	out := make([]float64, len(f.R))
	for i := range f.R {
		r := f.R[i] * AU * dist
		z := f.Z[i] * AU * dist
		vphi := G * k.MStar * MSun * r * r
		vphi = math.Sqrt(vphi * math.Pow(math.Hypot(r, z), -3))
		out[i] = projectPhi(vphi, f.T[i], inc)
	}
	return out
}

// PowerLaw is a parametric rotation profile with an exponential outer taper
// and an optional radial velocity component.
type PowerLaw struct {
	// VP100 is the rotation velocity at 100 au in [m/s], VPQ the power-law
	// exponent, and VPRTaper/VPQTaper the taper radius [arcsec] and
	// exponent.
	VP100, VPQ, VPRTaper, VPQTaper float64

	// VR100 is the radial velocity at 100 au in [m/s] and VRQ its
	// power-law exponent. A zero VR100 disables the radial term.
	VR100, VRQ float64
}

func (PowerLaw) isRotationLaw() {}

// Project returns the projected power-law rotation, plus the projected
// radial component, in [m/s].
func (p PowerLaw) Project(f geometry.Field, dist, inc float64) []float64 {
	out := make([]float64, len(f.R))
	for i := range f.R {
		r100 := f.R[i] * dist / 100.0
		vphi := p.VP100 * math.Pow(r100, p.VPQ)
		vphi *= math.Exp(-math.Pow(f.R[i]/p.VPRTaper, p.VPQTaper))
		v := projectPhi(vphi, f.T[i], inc)
		if p.VR100 != 0.0 {
			vrad := p.VR100 * math.Pow(r100, p.VRQ)
			v += projectRad(vrad, f.T[i], inc)
		}
		out[i] = v
	}
	return out
}

// projectPhi projects a rotational velocity onto the line of sight.
func projectPhi(vphi, t, inc float64) float64 {
	return vphi * math.Cos(t) * math.Abs(math.Sin(inc*math.Pi/180.0))
}

// projectRad projects a radial velocity onto the line of sight.
func projectRad(vrad, t, inc float64) float64 {
	return vrad * math.Sin(t) * math.Abs(math.Sin(inc*math.Pi/180.0))
}
