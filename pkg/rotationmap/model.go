package rotationmap

import (
	"math"
	"sort"

	"golang.org/x/exp/rand"

	"github.com/joshcalcino/eddy/pkg/geometry"
	"github.com/joshcalcino/eddy/pkg/params"
)

// diskCoords deprojects the sky grid into disk frame cylindrical
// coordinates for the given model, picking the flat, flared or shadowed
// solver as appropriate.
func (m *Map) diskCoords(mod params.Model) (geometry.Field, error) {
	g := m.Grid()
	switch {
	case mod.Shadowed:
		return geometry.ShadowedCoords(g, mod.Geometry, m.shadow)
	case mod.Geometry.Z0 != 0.0 || mod.Geometry.WI != 0.0:
		return geometry.FlaredCoords(g, mod.Geometry, m.niter), nil
	default:
		return geometry.FlatCoords(g, mod.Geometry), nil
	}
}

// DiskCoords returns the deprojected coordinates of every pixel in the
// requested frame, either (r, t, z) or (x, y, z).
func (m *Map) DiskCoords(mod params.Model, frame geometry.Frame) (a, b, z []float64, err error) {
	f, err := m.diskCoords(mod)
	if err != nil {
		return nil, nil, nil, err
	}
	a, b, z = f.Coords(frame)
	return a, b, z, nil
}

// VPhi returns the projected line of sight velocity of the model in
// [m/s], including the systemic velocity.
func (m *Map) VPhi(mod params.Model) ([]float64, error) {
	f, err := m.diskCoords(mod)
	if err != nil {
		return nil, err
	}
	v := mod.Rotation.Project(f, mod.Dist, mod.Geometry.Inc)
	for i := range v {
		v[i] += mod.VLSR
	}
	return v, nil
}

// MakeModel builds the model velocity map in [m/s], convolving with the
// beam when the model requests it.
func (m *Map) MakeModel(mod params.Model) ([]float64, error) {
	v, err := m.VPhi(mod)
	if err != nil {
		return nil, err
	}
	if mod.Beam {
		v = m.Beam.Kernel(m.DPix).Convolve(v, m.Nx, m.Ny)
	}
	return v, nil
}

// verifyDefaults returns the data-driven fallbacks used when verifying a
// parameter dictionary against this map.
func (m *Map) verifyDefaults() params.Defaults {
	vmin, vmax := nanMinMax(m.Data)
	return params.Defaults{
		VLSR:       m.VLSR * 1e3,
		VMin:       vmin,
		VMax:       vmax,
		WarpRadius: 0.5 * maxOf(m.X),
	}
}

// EvaluateModel verifies the resolved dictionary and returns the model
// velocity map in [m/s].
func (m *Map) EvaluateModel(d params.Dict) ([]float64, error) {
	mod, err := d.Model(m.verifyDefaults())
	if err != nil {
		return nil, err
	}
	return m.MakeModel(mod)
}

// EvaluateModelCoords verifies the resolved dictionary and returns the
// deprojected coordinates instead of the velocity model.
func (m *Map) EvaluateModelCoords(d params.Dict, frame geometry.Frame) (a, b, z []float64, err error) {
	mod, err := d.Model(m.verifyDefaults())
	if err != nil {
		return nil, nil, nil, err
	}
	return m.DiskCoords(mod, frame)
}

// Draws selects how EvaluateModels collapses posterior samples into a
// single model. A positive N averages that many random draws, otherwise
// Percentile evaluates the model at the given sample percentile in (0, 1].
// The zero value evaluates the median sample.
type Draws struct {
	N          int
	Percentile float64
	Seed       uint64
}

// EvaluateModels collapses posterior samples into a single model map in
// [m/s]. samples is indexed [sample][free parameter], matching the
// ordering of spec.FreeNames.
func (m *Map) EvaluateModels(samples [][]float64, spec params.Spec, draws Draws) ([]float64, error) {
	if len(samples) == 0 {
		return nil, &params.ConfigError{Msg: "no samples provided"}
	}

	if draws.N <= 0 {
		p := draws.Percentile
		if p == 0.0 {
			p = 0.5
		}
		if p < 0.0 || p > 1.0 {
			return nil, &params.ConfigError{Param: "draws",
				Msg: "percentile must lie between 0 and 1"}
		}
		theta := samplePercentile(samples, p)
		d, err := spec.Resolve(theta)
		if err != nil {
			return nil, err
		}
		return m.EvaluateModel(d)
	}

	seed := draws.Seed
	if seed == 0 {
		seed = 42
	}
	rng := rand.New(rand.NewSource(seed))
	var sum []float64
	for n := 0; n < draws.N; n++ {
		theta := samples[rng.Intn(len(samples))]
		d, err := spec.Resolve(theta)
		if err != nil {
			return nil, err
		}
		model, err := m.EvaluateModel(d)
		if err != nil {
			return nil, err
		}
		if sum == nil {
			sum = make([]float64, len(model))
		}
		for i, v := range model {
			sum[i] += v
		}
	}
	for i := range sum {
		sum[i] /= float64(draws.N)
	}
	return sum, nil
}

// samplePercentile returns the per parameter percentile of the samples,
// with p in [0, 1].
func samplePercentile(samples [][]float64, p float64) []float64 {
	ndim := len(samples[0])
	out := make([]float64, ndim)
	col := make([]float64, len(samples))
	for j := 0; j < ndim; j++ {
		for i, s := range samples {
			col[i] = s[j]
		}
		sort.Float64s(col)
		out[j] = quantile(col, p)
	}
	return out
}

// quantile linearly interpolates the pth quantile of sorted values.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1.0-frac) + sorted[hi]*frac
}
