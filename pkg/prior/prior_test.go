package prior

import (
	"math"
	"testing"
)

// TestFlatInterior verifies the density of a flat prior inside its support
func TestFlatInterior(t *testing.T) {
	p := Flat(-2.0, 2.0)
	want := math.Log(1.0 / 4.0)
	for _, x := range []float64{-2.0, -1.0, 0.0, 1.999, 2.0} {
		if got := p(x); math.Abs(got-want) > 1e-12 {
			t.Errorf("p(%v) = %v, want %v", x, got, want)
		}
	}
}

// TestFlatOutside verifies that values beyond the bounds are rejected
func TestFlatOutside(t *testing.T) {
	p := Flat(-2.0, 2.0)
	for _, x := range []float64{-2.0001, 2.0001, 1e10} {
		if got := p(x); !math.IsInf(got, -1) {
			t.Errorf("p(%v) = %v, want -Inf", x, got)
		}
	}
}

// TestFlatReversedBounds verifies that the bound order does not matter
func TestFlatReversedBounds(t *testing.T) {
	a := Flat(0.0, 5.0)
	b := Flat(5.0, 0.0)
	for _, x := range []float64{-1.0, 0.0, 2.5, 5.0, 6.0} {
		if a(x) != b(x) {
			t.Errorf("bound order changed the prior at %v: %v vs %v", x, a(x), b(x))
		}
	}
}

// TestGaussian verifies the normal density at and away from the mean
func TestGaussian(t *testing.T) {
	p := Gaussian(1.0, 2.0)
	want := -math.Log(math.Sqrt(2.0*math.Pi) * 2.0)
	if got := p(1.0); math.Abs(got-want) > 1e-12 {
		t.Errorf("p(mu) = %v, want %v", got, want)
	}
	if got := p(3.0); math.Abs(got-(want-0.5)) > 1e-12 {
		t.Errorf("p(mu+sigma) = %v, want %v", got, want-0.5)
	}
}

// TestSetEval verifies that unregistered parameters contribute nothing
func TestSetEval(t *testing.T) {
	s := Set{"inc": Flat(-90.0, 90.0)}
	if got := s.Eval("inc", 100.0); !math.IsInf(got, -1) {
		t.Errorf("expected -Inf outside the prior, got %v", got)
	}
	if got := s.Eval("unknown", 1e6); got != 0.0 {
		t.Errorf("unregistered parameter should contribute zero, got %v", got)
	}
}

// TestDefaults verifies the data-driven systemic velocity and warp bounds
func TestDefaults(t *testing.T) {
	s := Defaults(-4.0, 4.0, 3.0)

	for _, name := range []string{"x0", "y0", "inc", "PA", "mstar", "vlsr",
		"z0", "psi", "r_cavity", "r_taper", "q_taper", "w_i", "w_r", "w_t",
		"vp_100", "vp_q", "vp_rtaper", "vp_qtaper", "vr_100", "vr_q"} {
		if _, ok := s[name]; !ok {
			t.Errorf("missing default prior for %q", name)
		}
	}

	// The systemic velocity bounds are scaled from [km/s] to [m/s].
	if got := s.Eval("vlsr", 3999.0); math.IsInf(got, -1) {
		t.Error("vlsr prior should accept velocities inside the data range")
	}
	if got := s.Eval("vlsr", 4001.0); !math.IsInf(got, -1) {
		t.Error("vlsr prior should reject velocities outside the data range")
	}

	if got := s.Eval("w_r", 2.9); math.IsInf(got, -1) {
		t.Error("w_r prior should span the field of view")
	}
	if got := s.Eval("w_r", 3.1); !math.IsInf(got, -1) {
		t.Error("w_r prior should reject radii beyond the field of view")
	}
}
