package params

import (
	"math"

	"github.com/joshcalcino/eddy/pkg/geometry"
	"github.com/joshcalcino/eddy/pkg/velocity"
)

// MaskParams selects the pixels entering the fit. Each of the radial,
// azimuthal and velocity cuts can be inverted with its exclude flag, and
// AbsPA folds the polar angle about the major axis before the azimuthal
// cut.
type MaskParams struct {
	RMin, RMax float64
	ExcludeR   bool

	PAMin, PAMax float64
	ExcludePA    bool
	AbsPA        bool

	VMin, VMax float64
	ExcludeV   bool
}

// Model is a verified set of model parameters ready for evaluation.
type Model struct {
	Geometry geometry.Params
	Rotation velocity.RotationLaw

	// Dist is the source distance in [pc] and VLSR the systemic velocity
	// in [m/s].
	Dist, VLSR float64

	Shadowed bool
	Beam     bool

	Mask MaskParams
}

// Defaults supplies the data-driven fallbacks used during verification:
// the systemic velocity in [m/s], the velocity extrema of the data in
// [km/s] and half the largest on-sky offset in [arcsec].
type Defaults struct {
	VLSR       float64
	VMin, VMax float64
	WarpRadius float64
}

// Model verifies the dictionary and builds the typed model, filling
// defaults for non-essential parameters. Inclination and position angle
// are required, as is exactly one of mstar and vp_100.
func (d Dict) Model(def Defaults) (Model, error) {
	if !d.has("inc") {
		return Model{}, &ConfigError{Param: "inc", Msg: "must be provided"}
	}
	if !d.has("PA") {
		return Model{}, &ConfigError{Param: "PA", Msg: "must be provided"}
	}

	hasMStar := d.has("mstar")
	hasVP100 := d.has("vp_100")
	if hasMStar && hasVP100 {
		return Model{}, &ConfigError{Msg: "only provide either mstar or vp_100"}
	}
	if !hasMStar && !hasVP100 {
		return Model{}, &ConfigError{Msg: "must provide either mstar or vp_100"}
	}

	m := Model{
		Geometry: geometry.Params{
			X0:      d.Get("x0", 0.0),
			Y0:      d.Get("y0", 0.0),
			Inc:     d.Get("inc", 0.0),
			PA:      d.Get("PA", 0.0),
			Z0:      d.Get("z0", 0.0),
			Psi:     d.Get("psi", 1.0),
			RCavity: d.Get("r_cavity", 0.0),
			RTaper:  d.Get("r_taper", 1e10),
			QTaper:  d.Get("q_taper", 1.0),
			WI:      d.Get("w_i", 0.0),
			WR:      d.Get("w_r", def.WarpRadius),
			WT:      d.Get("w_t", 0.0),
		},
		Dist:     d.Get("dist", 100.0),
		VLSR:     d.Get("vlsr", def.VLSR),
		Shadowed: d.GetFlag("shadowed", false),
		Beam:     d.GetFlag("beam", false),
		Mask: MaskParams{
			RMin:      d.Get("r_min", 0.0),
			RMax:      d.Get("r_max", 1e10),
			ExcludeR:  d.GetFlag("exclude_r", false),
			PAMin:     d.Get("PA_min", -math.Pi),
			PAMax:     d.Get("PA_max", math.Pi),
			ExcludePA: d.GetFlag("exclude_PA", false),
			AbsPA:     d.GetFlag("abs_PA", false),
			VMin:      d.Get("v_min", def.VMin),
			VMax:      d.Get("v_max", def.VMax),
			ExcludeV:  d.GetFlag("exclude_v", false),
		},
	}

	if hasMStar {
		m.Rotation = velocity.Keplerian{MStar: d.Get("mstar", 0.0)}
	} else {
		m.Rotation = velocity.PowerLaw{
			VP100:    d.Get("vp_100", 0.0),
			VPQ:      d.Get("vp_q", -0.5),
			VPRTaper: d.Get("vp_rtaper", 1e10),
			VPQTaper: d.Get("vp_qtaper", 1.0),
			VR100:    d.Get("vr_100", 0.0),
			VRQ:      d.Get("vr_q", 0.0),
		}
	}

	if m.Mask.RMin >= m.Mask.RMax {
		return Model{}, &ConfigError{Param: "r_min", Msg: "r_max must be greater than r_min"}
	}
	if m.Mask.PAMin >= m.Mask.PAMax {
		return Model{}, &ConfigError{Param: "PA_min", Msg: "PA_max must be greater than PA_min"}
	}
	if m.Mask.VMin >= m.Mask.VMax {
		return Model{}, &ConfigError{Param: "v_min", Msg: "v_max must be greater than v_min"}
	}

	return m, nil
}
