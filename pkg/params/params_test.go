package params

import (
	"math"
	"testing"

	"github.com/joshcalcino/eddy/pkg/velocity"
)

func testDefaults() Defaults {
	return Defaults{VLSR: 5100.0, VMin: -4.0, VMax: 4.0, WarpRadius: 1.5}
}

// TestResolveSubstitution verifies that free parameters are filled from
// the sample vector while fixed values and flags pass through
func TestResolveSubstitution(t *testing.T) {
	spec := Spec{
		"inc":   Fixed(30.0),
		"PA":    Free(0),
		"mstar": Free(1),
		"beam":  Flag(true),
	}
	d, err := spec.Resolve([]float64{151.0, 0.88})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if d.Values["inc"] != 30.0 {
		t.Errorf("fixed value altered: %v", d.Values["inc"])
	}
	if d.Values["PA"] != 151.0 || d.Values["mstar"] != 0.88 {
		t.Errorf("free values not substituted: %v", d.Values)
	}
	if !d.Flags["beam"] {
		t.Error("flag lost during resolution")
	}
}

// TestResolveLengthMismatch verifies the check on the sample vector length
func TestResolveLengthMismatch(t *testing.T) {
	spec := Spec{"inc": Free(0), "PA": Free(1)}
	if _, err := spec.Resolve([]float64{1.0}); err == nil {
		t.Error("expected an error for a short sample vector")
	}
	if _, err := spec.Resolve([]float64{1.0, 2.0, 3.0}); err == nil {
		t.Error("expected an error for a long sample vector")
	}
}

// TestFreeNames verifies the index ordering of the free parameter labels
func TestFreeNames(t *testing.T) {
	spec := Spec{
		"vlsr":  Free(2),
		"inc":   Free(1),
		"mstar": Free(0),
		"PA":    Fixed(45.0),
	}
	names, err := spec.FreeNames()
	if err != nil {
		t.Fatalf("FreeNames failed: %v", err)
	}
	want := []string{"mstar", "inc", "vlsr"}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("label %d: expected %q, got %q", i, n, names[i])
		}
	}
}

// TestFreeNamesGap verifies that non-contiguous indices are rejected
func TestFreeNamesGap(t *testing.T) {
	spec := Spec{"mstar": Free(0), "vlsr": Free(2)}
	if _, err := spec.FreeNames(); err == nil {
		t.Error("expected an error for a gap in the free indices")
	}
	spec = Spec{"mstar": Free(0), "vlsr": Free(0)}
	if _, err := spec.FreeNames(); err == nil {
		t.Error("expected an error for duplicate free indices")
	}
}

// TestModelRequiredParameters verifies that inclination, position angle
// and exactly one rotation profile are required
func TestModelRequiredParameters(t *testing.T) {
	base := func() Dict {
		d, _ := Spec{
			"inc":   Fixed(30.0),
			"PA":    Fixed(45.0),
			"mstar": Fixed(1.0),
		}.Resolve(nil)
		return d
	}

	if _, err := base().Model(testDefaults()); err != nil {
		t.Fatalf("valid dictionary rejected: %v", err)
	}

	d := base()
	delete(d.Values, "inc")
	if _, err := d.Model(testDefaults()); err == nil {
		t.Error("expected an error without inc")
	}

	d = base()
	delete(d.Values, "PA")
	if _, err := d.Model(testDefaults()); err == nil {
		t.Error("expected an error without PA")
	}

	d = base()
	d.Values["vp_100"] = 2000.0
	if _, err := d.Model(testDefaults()); err == nil {
		t.Error("expected an error with both mstar and vp_100")
	}

	d = base()
	delete(d.Values, "mstar")
	if _, err := d.Model(testDefaults()); err == nil {
		t.Error("expected an error with neither mstar nor vp_100")
	}
}

// TestModelDefaults verifies the fallbacks for non-essential parameters
func TestModelDefaults(t *testing.T) {
	d, _ := Spec{
		"inc":   Fixed(30.0),
		"PA":    Fixed(45.0),
		"mstar": Fixed(1.0),
	}.Resolve(nil)
	m, err := d.Model(testDefaults())
	if err != nil {
		t.Fatalf("Model failed: %v", err)
	}

	if m.Dist != 100.0 {
		t.Errorf("expected default distance 100, got %v", m.Dist)
	}
	if m.VLSR != 5100.0 {
		t.Errorf("expected the data-driven vlsr, got %v", m.VLSR)
	}
	if m.Geometry.Psi != 1.0 || m.Geometry.RTaper != 1e10 || m.Geometry.QTaper != 1.0 {
		t.Errorf("unexpected surface defaults: %+v", m.Geometry)
	}
	if m.Geometry.WR != 1.5 {
		t.Errorf("expected the data-driven warp radius, got %v", m.Geometry.WR)
	}
	if m.Mask.RMax != 1e10 || m.Mask.PAMin != -math.Pi || m.Mask.PAMax != math.Pi {
		t.Errorf("unexpected mask defaults: %+v", m.Mask)
	}
	if m.Mask.VMin != -4.0 || m.Mask.VMax != 4.0 {
		t.Errorf("unexpected velocity mask defaults: %+v", m.Mask)
	}
	if m.Shadowed || m.Beam {
		t.Error("flags should default to false")
	}

	k, ok := m.Rotation.(velocity.Keplerian)
	if !ok {
		t.Fatalf("expected a Keplerian rotation law, got %T", m.Rotation)
	}
	if k.MStar != 1.0 {
		t.Errorf("expected mstar 1.0, got %v", k.MStar)
	}
}

// TestModelPowerLaw verifies the power law rotation with its defaults
func TestModelPowerLaw(t *testing.T) {
	d, _ := Spec{
		"inc":    Fixed(30.0),
		"PA":     Fixed(45.0),
		"vp_100": Fixed(2000.0),
	}.Resolve(nil)
	m, err := d.Model(testDefaults())
	if err != nil {
		t.Fatalf("Model failed: %v", err)
	}
	p, ok := m.Rotation.(velocity.PowerLaw)
	if !ok {
		t.Fatalf("expected a PowerLaw rotation law, got %T", m.Rotation)
	}
	if p.VP100 != 2000.0 || p.VPQ != -0.5 || p.VPRTaper != 1e10 || p.VPQTaper != 1.0 {
		t.Errorf("unexpected power law defaults: %+v", p)
	}
	if p.VR100 != 0.0 || p.VRQ != 0.0 {
		t.Errorf("radial term should default to zero: %+v", p)
	}
}

// TestModelInvertedBounds verifies the ordering checks on the mask limits
func TestModelInvertedBounds(t *testing.T) {
	build := func(mutate func(Dict)) error {
		d, _ := Spec{
			"inc":   Fixed(30.0),
			"PA":    Fixed(45.0),
			"mstar": Fixed(1.0),
		}.Resolve(nil)
		mutate(d)
		_, err := d.Model(testDefaults())
		return err
	}

	if err := build(func(d Dict) { d.Values["r_min"] = 2.0; d.Values["r_max"] = 1.0 }); err == nil {
		t.Error("expected an error for r_min >= r_max")
	}
	if err := build(func(d Dict) { d.Values["PA_min"] = 1.0; d.Values["PA_max"] = 0.0 }); err == nil {
		t.Error("expected an error for PA_min >= PA_max")
	}
	if err := build(func(d Dict) { d.Values["v_min"] = 1.0; d.Values["v_max"] = -1.0 }); err == nil {
		t.Error("expected an error for v_min >= v_max")
	}
}
