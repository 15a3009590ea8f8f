package rotationmap

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/optimize"

	"github.com/joshcalcino/eddy/pkg/params"
	"github.com/joshcalcino/eddy/pkg/sampler"
)

// FitOptions controls the posterior sampling loop.
type FitOptions struct {
	// Optimize runs a Nelder-Mead refinement of the starting positions
	// before sampling.
	Optimize bool

	// NWalkers is the ensemble size. Zero means twice the number of free
	// parameters, rounded up to an even count of at least four.
	NWalkers int

	// NBurnIn and NSteps are the number of discarded and retained steps
	// per iteration. Zeros mean 300 and 100.
	NBurnIn, NSteps int

	// Scatter sets the size of the starting ball. Zero means 1e-3.
	Scatter float64

	// NIter repeats the mask rebuild and sampling cycle. Zero means one.
	NIter int

	// Workers sets the number of goroutines evaluating the posterior.
	// Values below two sample serially.
	Workers int

	// Seed fixes the random state of the walker initialisation and the
	// sampler. Zero means an arbitrary fixed seed.
	Seed uint64

	// Returns names the quantities to attach to the result: "samples",
	// "lnprob", "percentiles", "dict", "model" and "residual". Empty
	// means percentiles only.
	Returns []string
}

// FitResult holds the outputs of FitMap. Only the fields named in
// FitOptions.Returns are populated, alongside the labels, the chain and
// the medians used to build the derived products.
type FitResult struct {
	// Labels names the free parameters in sample order.
	Labels []string

	// Samples is the flattened post burn-in chain and LogProbs the
	// matching log-posterior values.
	Samples  [][]float64
	LogProbs []float64

	// Percentiles holds the 16th, 50th and 84th percentile of each free
	// parameter.
	Percentiles [][3]float64

	// Medians is the verified dictionary at the per parameter medians and
	// MaxLikelihood the dictionary at the best sample.
	Medians       params.Dict
	MaxLikelihood params.Dict

	// Model is the median model in [m/s] and Residual the data minus the
	// model in [m/s].
	Model    []float64
	Residual []float64

	// IVar is the inverse variance mask of the final iteration.
	IVar []float64

	Chain *sampler.Chain
}

// evaluator binds a map and a parameter specification into a posterior
// density.
type evaluator struct {
	m    *Map
	spec params.Spec
	def  params.Defaults
	mask []bool
}

func (m *Map) evaluator(spec params.Spec) *evaluator {
	return &evaluator{
		m:    m,
		spec: spec,
		def:  m.verifyDefaults(),
		mask: m.FiniteMask(),
	}
}

// lnPrior sums the log-priors of every resolved value, short-circuiting
// to -Inf as soon as a parameter falls outside its prior.
func (e *evaluator) lnPrior(d params.Dict) float64 {
	lnp := 0.0
	for name, v := range d.Values {
		lnp += e.m.Priors.Eval(name, v)
		if math.IsInf(lnp, -1) || math.IsNaN(lnp) {
			return math.Inf(-1)
		}
	}
	return lnp
}

// lnLike is the chi-squared log-likelihood over the finite data pixels.
// The model is converted from [m/s] to the [km/s] of the data before
// differencing.
func (e *evaluator) lnLike(mod params.Model) float64 {
	model, err := e.m.MakeModel(mod)
	if err != nil {
		return math.Inf(-1)
	}
	lnx2 := 0.0
	for i, ok := range e.mask {
		if !ok {
			continue
		}
		d := e.m.Data[i] - model[i]*1e-3
		lnx2 += d * d
	}
	lnx2 *= -0.5
	if math.IsNaN(lnx2) || math.IsInf(lnx2, 0) {
		return math.Inf(-1)
	}
	return lnx2
}

// lnProb is the log-posterior. The likelihood is skipped entirely when
// the prior is -Inf.
func (e *evaluator) lnProb(theta []float64) float64 {
	d, err := e.spec.Resolve(theta)
	if err != nil {
		return math.Inf(-1)
	}
	lnp := e.lnPrior(d)
	if math.IsInf(lnp, -1) {
		return math.Inf(-1)
	}
	mod, err := d.Model(e.def)
	if err != nil {
		return math.Inf(-1)
	}
	return lnp + e.lnLike(mod)
}

// optimizeP0 refines the starting positions with Nelder-Mead. Failure to
// converge is not fatal; the input positions are returned unchanged.
func (m *Map) optimizeP0(p0 []float64, ev *evaluator) []float64 {
	problem := optimize.Problem{
		Func: func(x []float64) float64 { return -ev.lnProb(x) },
	}
	settings := &optimize.Settings{
		MajorIterations: 10000,
		FuncEvaluations: 10000,
	}
	res, err := optimize.Minimize(problem, p0, settings, &optimize.NelderMead{})
	if err != nil {
		m.log.Warn("optimization did not converge, keeping starting positions",
			zap.Error(err))
		return p0
	}
	m.log.Info("optimized starting positions", zap.Float64s("p0", res.X))
	return append([]float64(nil), res.X...)
}

// FitMap samples the posterior of the free parameters in spec given the
// starting positions p0. Each iteration rebuilds the inverse variance
// mask at the current positions, runs the ensemble sampler and restarts
// from the best post burn-in sample.
func (m *Map) FitMap(p0 []float64, spec params.Spec, o FitOptions) (*FitResult, error) {
	labels, err := spec.FreeNames()
	if err != nil {
		return nil, err
	}
	if len(labels) != len(p0) {
		return nil, &params.ConfigError{Msg: "mismatch between free parameters and p0"}
	}

	ev := m.evaluator(spec)

	// Fail early on an inconsistent specification.
	d, err := spec.Resolve(p0)
	if err != nil {
		return nil, err
	}
	mod, err := d.Model(ev.def)
	if err != nil {
		return nil, err
	}
	ivar, err := m.CalcIVar(mod)
	if err != nil {
		return nil, err
	}

	m.log.Info("starting fit", zap.Strings("p0", labels))

	p0 = append([]float64(nil), p0...)
	if o.Optimize {
		p0 = m.optimizeP0(p0, ev)
	}

	nwalkers := o.NWalkers
	if nwalkers <= 0 {
		nwalkers = 2 * len(p0)
	}
	if nwalkers < 4 {
		nwalkers = 4
	}
	if nwalkers%2 != 0 {
		nwalkers++
	}
	nburnin := o.NBurnIn
	if nburnin <= 0 {
		nburnin = 300
	}
	nsteps := o.NSteps
	if nsteps <= 0 {
		nsteps = 100
	}
	scatter := o.Scatter
	if scatter <= 0.0 {
		scatter = 1e-3
	}
	niter := o.NIter
	if niter <= 0 {
		niter = 1
	}
	seed := o.Seed
	if seed == 0 {
		seed = 42
	}

	var mapper sampler.Mapper = sampler.Serial{}
	if o.Workers > 1 {
		mapper = sampler.Parallel{Workers: o.Workers}
	}

	paIdx := -1
	for i, name := range labels {
		if name == "PA" {
			paIdx = i
		}
	}

	var (
		samples  [][]float64
		logProbs []float64
		medians  params.Dict
		maxLike  params.Dict
		chain    *sampler.Chain
	)

	for n := 0; n < niter; n++ {
		// Rebuild the fitting mask at the current positions.
		d, err := spec.Resolve(p0)
		if err != nil {
			return nil, err
		}
		mod, err := d.Model(ev.def)
		if err != nil {
			return nil, err
		}
		ivar, err = m.CalcIVar(mod)
		if err != nil {
			return nil, err
		}

		walkers := sampler.InitBall(p0, scatter, nwalkers, seed+uint64(n))
		move := &sampler.StretchMove{Mapper: mapper, Seed: seed + uint64(n) + 1}
		chain, err = move.Run(ev.lnProb, walkers, nburnin+nsteps)
		if err != nil {
			return nil, err
		}
		if paIdx >= 0 {
			wrapAngle(chain, paIdx)
		}

		samples = chain.Flatten(nburnin)
		logProbs = chain.FlattenLogProbs(nburnin)

		p0 = samplePercentile(samples, 0.5)
		medians, err = spec.Resolve(p0)
		if err != nil {
			return nil, err
		}

		// TODO: this picks the sample with the lowest posterior; switch
		// to the highest once downstream results have been revalidated.
		best := argmin(logProbs)
		p0 = append([]float64(nil), samples[best]...)
		maxLike, err = spec.Resolve(p0)
		if err != nil {
			return nil, err
		}

		m.log.Info("completed iteration",
			zap.Int("iteration", n+1),
			zap.Int("samples", len(samples)))
	}

	res := &FitResult{
		Labels:        labels,
		Medians:       medians,
		MaxLikelihood: maxLike,
		IVar:          ivar,
		Chain:         chain,
	}

	returns := o.Returns
	if len(returns) == 0 {
		returns = []string{"percentiles"}
	}
	for _, ret := range returns {
		switch ret {
		case "none":
			return res, nil
		case "samples":
			res.Samples = samples
		case "lnprob":
			res.LogProbs = logProbs
		case "percentiles":
			res.Percentiles = percentiles(samples)
		case "dict":
			// Medians are always attached.
		case "model":
			model, err := m.EvaluateModel(medians)
			if err != nil {
				return nil, err
			}
			res.Model = model
		case "residual":
			model, err := m.EvaluateModel(medians)
			if err != nil {
				return nil, err
			}
			resid := make([]float64, len(model))
			for i := range model {
				resid[i] = m.Data[i]*1e3 - model[i]
			}
			res.Residual = resid
		default:
			return nil, &params.ConfigError{Param: "returns",
				Msg: "unknown return " + ret}
		}
	}
	return res, nil
}

// wrapAngle maps the given chain dimension into [0, 360) degrees.
func wrapAngle(c *sampler.Chain, dim int) {
	for _, walker := range c.Positions {
		for _, pos := range walker {
			v := math.Mod(pos[dim], 360.0)
			if v < 0 {
				v += 360.0
			}
			pos[dim] = v
		}
	}
}

// percentiles returns the 16th, 50th and 84th percentile of each free
// parameter.
func percentiles(samples [][]float64) [][3]float64 {
	if len(samples) == 0 {
		return nil
	}
	ndim := len(samples[0])
	out := make([][3]float64, ndim)
	p16 := samplePercentile(samples, 0.16)
	p50 := samplePercentile(samples, 0.50)
	p84 := samplePercentile(samples, 0.84)
	for j := 0; j < ndim; j++ {
		out[j] = [3]float64{p16[j], p50[j], p84[j]}
	}
	return out
}

func argmin(x []float64) int {
	best, bestVal := 0, math.Inf(1)
	for i, v := range x {
		if v < bestVal {
			best, bestVal = i, v
		}
	}
	return best
}
