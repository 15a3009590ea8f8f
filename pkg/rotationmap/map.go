// Package rotationmap fits parametric rotation models to observed line of
// sight velocity maps. A Map holds the data, uncertainties and sky axes,
// builds model velocity fields through pkg/geometry and pkg/velocity, and
// samples the posterior with the ensemble sampler in pkg/sampler.
package rotationmap

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/joshcalcino/eddy/pkg/beam"
	"github.com/joshcalcino/eddy/pkg/geometry"
	"github.com/joshcalcino/eddy/pkg/params"
	"github.com/joshcalcino/eddy/pkg/prior"
)

// Header carries the subset of image metadata needed to reconstruct the
// sky axes and the restoring beam. CDelt values are in [degrees/pixel]
// and the beam axes in [degrees], as stored in image headers.
type Header struct {
	NAxis [2]int
	CRPix [2]float64
	CDelt [2]float64

	BMaj, BMin, BPA float64
	HasBeam         bool
}

// Input bundles a velocity map with its metadata. Data is row major with
// NAxis[0] columns. Uncertainty is optional; when nil a fractional
// uncertainty is derived from the data.
type Input struct {
	Data        []float64
	Uncertainty []float64
	Header      Header

	// Unit is the velocity unit of Data, either "m/s" or "km/s". Empty
	// means "m/s".
	Unit string
}

// Options control the preprocessing applied when attaching a map.
type Options struct {
	// X0 and Y0 recentre the image by this offset in [arcsec].
	X0, Y0 float64

	// FOV clips the map to a square field of view of this size in
	// [arcsec]. Zero disables clipping.
	FOV float64

	// Downsample keeps every Nth pixel along both axes. Values below two
	// disable downsampling.
	Downsample int

	// UncertaintyFrac scales |data - median| into an uncertainty map when
	// no explicit uncertainties are given. Zero means 0.1.
	UncertaintyFrac float64

	// SurfaceIterations is the fixed point iteration count for flared
	// surfaces. Zero means geometry.DefaultIterations.
	SurfaceIterations int

	// Shadow configures the shadowed surface solver.
	Shadow geometry.ShadowOptions

	Logger *zap.Logger
}

// Map is a velocity map prepared for fitting. Data and Err are held in
// [km/s]; models are produced in [m/s] and the conversion happens inside
// the likelihood.
type Map struct {
	Data []float64
	Err  []float64

	X, Y   []float64
	Nx, Ny int
	DPix   float64

	Beam    beam.Beam
	HasBeam bool

	// VLSR is the systemic velocity estimate in [km/s], the median of the
	// finite data.
	VLSR float64

	// Priors holds the per parameter priors used by the fit.
	Priors prior.Set

	niter  int
	shadow geometry.ShadowOptions
	log    *zap.Logger
}

// NewMap attaches a velocity map, converting it to [km/s], reconstructing
// the sky axes from the header and applying the requested recentring,
// clipping and downsampling.
func NewMap(in Input, o Options) (*Map, error) {
	nx, ny := in.Header.NAxis[0], in.Header.NAxis[1]
	if nx <= 0 || ny <= 0 || len(in.Data) != nx*ny {
		return nil, &params.ConfigError{Msg: fmt.Sprintf(
			"data length %d does not match %d x %d axes", len(in.Data), nx, ny)}
	}

	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}

	m := &Map{
		Data: append([]float64(nil), in.Data...),
		Nx:   nx,
		Ny:   ny,
		log:  log,
	}

	// Uncertainties default to a fraction of the offset from the median.
	if in.Uncertainty != nil {
		if len(in.Uncertainty) != nx*ny {
			return nil, &params.ConfigError{Param: "uncertainty",
				Msg: "shape does not match the data"}
		}
		m.Err = make([]float64, nx*ny)
		for i, e := range in.Uncertainty {
			m.Err[i] = math.Abs(e)
		}
	} else {
		frac := o.UncertaintyFrac
		if frac <= 0.0 {
			frac = 0.1
		}
		log.Info("no uncertainties provided, assuming a fraction of the data",
			zap.Float64("fraction", frac))
		med := nanMedian(m.Data)
		m.Err = make([]float64, nx*ny)
		for i, d := range m.Data {
			m.Err[i] = frac * math.Abs(d-med)
		}
	}
	for i, e := range m.Err {
		if math.IsNaN(e) {
			m.Err[i] = 0.0
		}
	}

	switch strings.ToLower(in.Unit) {
	case "", "m/s":
		for i := range m.Data {
			m.Data[i] *= 1e-3
			m.Err[i] *= 1e-3
		}
	case "km/s":
	default:
		return nil, &params.ConfigError{Param: "unit", Msg: "must be 'm/s' or 'km/s'"}
	}

	m.X = positionAxis(in.Header, 0)
	m.Y = positionAxis(in.Header, 1)
	m.DPix = m.Grid().Dx()

	if o.X0 != 0.0 || o.Y0 != 0.0 {
		m.shiftCenter(o.X0, o.Y0)
	}

	if in.Header.HasBeam {
		m.Beam = beam.Beam{
			Maj: in.Header.BMaj * 3600.0,
			Min: in.Header.BMin * 3600.0,
			PA:  in.Header.BPA,
		}
		m.HasBeam = true
	} else {
		m.Beam = beam.Beam{Maj: m.DPix, Min: m.DPix, PA: 0.0}
	}

	if o.Downsample > 1 {
		m.downsample(o.Downsample)
		m.DPix = m.Grid().Dx()
	}
	if o.FOV > 0.0 {
		m.clip(o.FOV / 2.0)
	}

	m.VLSR = nanMedian(m.Data)

	m.niter = o.SurfaceIterations
	if m.niter <= 0 {
		m.niter = geometry.DefaultIterations
	}
	m.shadow = o.Shadow
	if m.shadow.Extend <= 0.0 {
		m.shadow = geometry.DefaultShadowOptions()
	}

	vmin, vmax := nanMinMax(m.Data)
	m.Priors = prior.Defaults(vmin, vmax, maxAbs(m.X))

	return m, nil
}

// Grid returns the sky plane grid of the map.
func (m *Map) Grid() geometry.Grid {
	return geometry.Grid{X: m.X, Y: m.Y}
}

// FiniteMask reports which pixels hold finite data.
func (m *Map) FiniteMask() []bool {
	mask := make([]bool, len(m.Data))
	for i, d := range m.Data {
		mask[i] = !math.IsNaN(d) && !math.IsInf(d, 0)
	}
	return mask
}

func positionAxis(h Header, a int) []float64 {
	axis := make([]float64, h.NAxis[a])
	for i := range axis {
		axis[i] = 3600.0 * (float64(i) - h.CRPix[a] + 1.5) * h.CDelt[a]
	}
	return axis
}

// shiftCenter moves the image origin by (dx, dy) arcseconds using
// bilinear interpolation. Non-finite pixels are treated as zero before
// interpolating.
func (m *Map) shiftCenter(dx, dy float64) {
	px := dx / m.DPix
	py := -dy / m.DPix
	m.Data = shiftImage(m.Data, m.Nx, m.Ny, px, py)
	m.Err = shiftImage(m.Err, m.Nx, m.Ny, px, py)
}

func shiftImage(img []float64, nx, ny int, px, py float64) []float64 {
	src := make([]float64, len(img))
	for i, v := range img {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			src[i] = 0.0
		} else {
			src[i] = v
		}
	}
	at := func(i, j int) float64 {
		if i < 0 || i >= nx || j < 0 || j >= ny {
			return 0.0
		}
		return src[j*nx+i]
	}
	out := make([]float64, len(img))
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			x := float64(i) - px
			y := float64(j) - py
			x0, y0 := math.Floor(x), math.Floor(y)
			fx, fy := x-x0, y-y0
			i0, j0 := int(x0), int(y0)
			v := (1-fx)*(1-fy)*at(i0, j0) +
				fx*(1-fy)*at(i0+1, j0) +
				(1-fx)*fy*at(i0, j0+1) +
				fx*fy*at(i0+1, j0+1)
			out[j*nx+i] = v
		}
	}
	return out
}

// downsample keeps every Nth pixel, starting from N/2 so the retained
// pixels straddle the original centre.
func (m *Map) downsample(n int) {
	n0 := n / 2
	var xi, yi []int
	for i := n0; i < m.Nx; i += n {
		xi = append(xi, i)
	}
	for j := n0; j < m.Ny; j += n {
		yi = append(yi, j)
	}
	data := make([]float64, 0, len(xi)*len(yi))
	errs := make([]float64, 0, len(xi)*len(yi))
	for _, j := range yi {
		for _, i := range xi {
			data = append(data, m.Data[j*m.Nx+i])
			errs = append(errs, m.Err[j*m.Nx+i])
		}
	}
	x := make([]float64, len(xi))
	for k, i := range xi {
		x[k] = m.X[i]
	}
	y := make([]float64, len(yi))
	for k, j := range yi {
		y[k] = m.Y[j]
	}
	m.Data, m.Err = data, errs
	m.X, m.Y = x, y
	m.Nx, m.Ny = len(x), len(y)
}

// clip trims the map to +/- radius arcseconds about the origin. Maps
// already smaller than the requested field of view are left unchanged.
func (m *Map) clip(radius float64) {
	if radius >= maxOf(m.X) || radius >= maxOf(m.Y) {
		m.log.Info("field of view smaller than requested clip",
			zap.Float64("fov", 2.0*math.Max(maxOf(m.X), maxOf(m.Y))))
		return
	}
	// X runs positive to negative, Y negative to positive.
	xa := argminAbsOffset(m.X, radius)
	if m.X[xa] < radius {
		xa--
	}
	xb := argminAbsOffset(m.X, -radius)
	if -m.X[xb] < radius {
		xb++
	}
	xb++
	ya := argminAbsOffset(m.Y, -radius)
	if -m.Y[ya] < radius {
		ya--
	}
	yb := argminAbsOffset(m.Y, radius)
	if m.Y[yb] < radius {
		yb++
	}
	yb++

	nx := xb - xa
	ny := yb - ya
	data := make([]float64, 0, nx*ny)
	errs := make([]float64, 0, nx*ny)
	for j := ya; j < yb; j++ {
		for i := xa; i < xb; i++ {
			data = append(data, m.Data[j*m.Nx+i])
			errs = append(errs, m.Err[j*m.Nx+i])
		}
	}
	m.Data, m.Err = data, errs
	m.X = append([]float64(nil), m.X[xa:xb]...)
	m.Y = append([]float64(nil), m.Y[ya:yb]...)
	m.Nx, m.Ny = nx, ny
}

func argminAbsOffset(axis []float64, target float64) int {
	best, bestVal := 0, math.Inf(1)
	for i, v := range axis {
		if d := math.Abs(v - target); d < bestVal {
			best, bestVal = i, d
		}
	}
	return best
}

func maxOf(x []float64) float64 {
	out := math.Inf(-1)
	for _, v := range x {
		if v > out {
			out = v
		}
	}
	return out
}

func maxAbs(x []float64) float64 {
	out := 0.0
	for _, v := range x {
		if a := math.Abs(v); a > out {
			out = a
		}
	}
	return out
}

func nanMedian(x []float64) float64 {
	vals := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return 0.5 * (vals[n/2-1] + vals[n/2])
}

func nanMinMax(x []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
