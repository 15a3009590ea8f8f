// Package sampler implements affine-invariant ensemble MCMC using the
// Goodman and Weare stretch move. Walkers are updated in two halves so
// that each half can be evaluated concurrently.
package sampler

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// LogProb evaluates the log-posterior at theta. It must be safe for
// concurrent use when paired with a parallel mapper.
type LogProb func(theta []float64) float64

// Mapper evaluates fn over every row of positions, writing the results
// into out. len(out) must equal len(positions).
type Mapper interface {
	Map(fn LogProb, positions [][]float64, out []float64)
}

// Serial evaluates positions one at a time.
type Serial struct{}

func (Serial) Map(fn LogProb, positions [][]float64, out []float64) {
	for i, p := range positions {
		out[i] = fn(p)
	}
}

// Parallel evaluates positions across Workers goroutines.
type Parallel struct {
	Workers int
}

func (m Parallel) Map(fn LogProb, positions [][]float64, out []float64) {
	workers := m.Workers
	if workers < 1 {
		workers = 1
	}
	type result struct {
		idx int
		lp  float64
	}
	jobs := make(chan int, len(positions))
	results := make(chan result, len(positions))
	for w := 0; w < workers; w++ {
		go func() {
			for i := range jobs {
				results <- result{i, fn(positions[i])}
			}
		}()
	}
	for i := range positions {
		jobs <- i
	}
	close(jobs)
	for range positions {
		r := <-results
		out[r.idx] = r.lp
	}
}

// Chain holds the sampled positions, indexed [walker][step][param], and
// the log-posterior values, indexed [step][walker].
type Chain struct {
	Positions [][][]float64
	LogProbs  [][]float64
}

// NWalkers returns the number of walkers in the chain.
func (c *Chain) NWalkers() int { return len(c.Positions) }

// NSteps returns the number of stored steps.
func (c *Chain) NSteps() int { return len(c.LogProbs) }

// Flatten discards the first `discard` steps of every walker and stacks
// the remainder into a single [sample][param] slice. Samples are ordered
// walker-major so that indices line up with FlattenLogProbs.
func (c *Chain) Flatten(discard int) [][]float64 {
	if discard < 0 {
		discard = 0
	}
	steps := c.NSteps()
	if discard > steps {
		discard = steps
	}
	flat := make([][]float64, 0, (steps-discard)*c.NWalkers())
	for w := range c.Positions {
		for s := discard; s < steps; s++ {
			flat = append(flat, c.Positions[w][s])
		}
	}
	return flat
}

// FlattenLogProbs discards the first `discard` steps and stacks the
// log-posterior values walker-major, matching Flatten.
func (c *Chain) FlattenLogProbs(discard int) []float64 {
	if discard < 0 {
		discard = 0
	}
	steps := c.NSteps()
	if discard > steps {
		discard = steps
	}
	flat := make([]float64, 0, (steps-discard)*c.NWalkers())
	for w := 0; w < c.NWalkers(); w++ {
		for s := discard; s < steps; s++ {
			flat = append(flat, c.LogProbs[s][w])
		}
	}
	return flat
}

// StretchMove runs the ensemble with the a=2 stretch proposal.
type StretchMove struct {
	// A is the stretch scale. Zero means the standard value of 2.
	A float64

	// Mapper evaluates the log-posterior over a half ensemble. Nil means
	// Serial.
	Mapper Mapper

	// Seed initialises the random source. Zero means an arbitrary fixed
	// seed.
	Seed uint64
}

// Run advances nwalkers walkers from p0 for nsteps iterations, returning
// every visited position. p0 is indexed [walker][param]; nwalkers must be
// even and at least four, and larger than twice the parameter count for
// the proposal to remain well conditioned.
func (m *StretchMove) Run(fn LogProb, p0 [][]float64, nsteps int) (*Chain, error) {
	nwalkers := len(p0)
	if nwalkers < 4 || nwalkers%2 != 0 {
		return nil, fmt.Errorf("need an even number of walkers >= 4, got %d", nwalkers)
	}
	ndim := len(p0[0])
	for _, p := range p0 {
		if len(p) != ndim {
			return nil, fmt.Errorf("inconsistent walker dimensions")
		}
	}

	a := m.A
	if a <= 1.0 {
		a = 2.0
	}
	mapper := m.Mapper
	if mapper == nil {
		mapper = Serial{}
	}
	seed := m.Seed
	if seed == 0 {
		seed = 42
	}
	rng := rand.New(rand.NewSource(seed))
	uni := distuv.Uniform{Min: 0, Max: 1, Src: rng}

	cur := make([][]float64, nwalkers)
	for w := range cur {
		cur[w] = append([]float64(nil), p0[w]...)
	}
	lp := make([]float64, nwalkers)
	mapper.Map(fn, cur, lp)

	chain := &Chain{
		Positions: make([][][]float64, nwalkers),
		LogProbs:  make([][]float64, 0, nsteps),
	}
	for w := range chain.Positions {
		chain.Positions[w] = make([][]float64, 0, nsteps)
	}

	half := nwalkers / 2
	proposals := make([][]float64, half)
	propLP := make([]float64, half)
	zs := make([]float64, half)
	partners := make([]int, half)

	for step := 0; step < nsteps; step++ {
		for _, split := range [][2]int{{0, half}, {half, nwalkers}} {
			lo, hi := split[0], split[1]
			clo := (lo + half) % nwalkers

			for i := lo; i < hi; i++ {
				k := i - lo
				// Stretch variable drawn from g(z) ~ 1/sqrt(z) on [1/a, a].
				u := uni.Rand()
				z := (u*(math.Sqrt(a)-math.Sqrt(1/a)) + math.Sqrt(1/a))
				zs[k] = z * z
				partners[k] = clo + rng.Intn(half)
				prop := make([]float64, ndim)
				for j := 0; j < ndim; j++ {
					cj := cur[partners[k]][j]
					prop[j] = cj + zs[k]*(cur[i][j]-cj)
				}
				proposals[k] = prop
			}

			mapper.Map(fn, proposals, propLP)

			for i := lo; i < hi; i++ {
				k := i - lo
				lnratio := float64(ndim-1)*math.Log(zs[k]) + propLP[k] - lp[i]
				if lnratio > 0 || math.Log(uni.Rand()) < lnratio {
					cur[i] = proposals[k]
					lp[i] = propLP[k]
				}
			}
		}

		stepLP := make([]float64, nwalkers)
		copy(stepLP, lp)
		chain.LogProbs = append(chain.LogProbs, stepLP)
		for w := 0; w < nwalkers; w++ {
			pos := make([]float64, ndim)
			copy(pos, cur[w])
			chain.Positions[w] = append(chain.Positions[w], pos)
		}
	}

	return chain, nil
}

// InitBall scatters nwalkers starting positions around p0. The scatter is
// multiplicative except where the corresponding entry of p0 is zero, in
// which case it is additive.
func InitBall(p0 []float64, scatter float64, nwalkers int, seed uint64) [][]float64 {
	if seed == 0 {
		seed = 42
	}
	rng := rand.New(rand.NewSource(seed))
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	walkers := make([][]float64, nwalkers)
	for w := range walkers {
		pos := make([]float64, len(p0))
		for j, p := range p0 {
			dp := scatter * norm.Rand()
			if p != 0.0 {
				pos[j] = p * (1.0 + dp)
			} else {
				pos[j] = dp
			}
		}
		walkers[w] = pos
	}
	return walkers
}
