package velocity

import (
	"math"
	"testing"

	"github.com/joshcalcino/eddy/pkg/geometry"
)

// fieldAt builds a single pixel field at the given cylindrical coordinates.
func fieldAt(r, t, z float64) geometry.Field {
	return geometry.Field{
		R:  []float64{r},
		T:  []float64{t},
		Z:  []float64{z},
		Nx: 1,
		Ny: 1,
	}
}

// TestKeplerianMidplane verifies the rotation speed of a solar mass star
// at 100 au seen edge-on along the major axis
func TestKeplerianMidplane(t *testing.T) {
	k := Keplerian{MStar: 1.0}
	// r = 1 arcsec at 100 pc is 100 au.
	v := k.Project(fieldAt(1.0, 0.0, 0.0), 100.0, 90.0)
	want := math.Sqrt(G * MSun / (100.0 * AU))
	if math.Abs(v[0]-want) > 1.0 {
		t.Errorf("expected %v m/s, got %v m/s", want, v[0])
	}
}

// TestKeplerianHeight verifies that an elevated surface rotates slower
// than the midplane
func TestKeplerianHeight(t *testing.T) {
	k := Keplerian{MStar: 1.0}
	mid := k.Project(fieldAt(1.0, 0.0, 0.0), 100.0, 45.0)
	high := k.Project(fieldAt(1.0, 0.0, 0.3), 100.0, 45.0)
	if high[0] >= mid[0] {
		t.Errorf("elevated surface should rotate slower: %v vs %v", high[0], mid[0])
	}
}

// TestKeplerianProjection verifies the azimuthal and inclination factors
func TestKeplerianProjection(t *testing.T) {
	k := Keplerian{MStar: 1.0}
	major := k.Project(fieldAt(1.0, 0.0, 0.0), 100.0, 30.0)
	minor := k.Project(fieldAt(1.0, math.Pi/2.0, 0.0), 100.0, 30.0)
	if math.Abs(minor[0]) > 1e-9 {
		t.Errorf("minor axis projection should vanish, got %v", minor[0])
	}
	edge := k.Project(fieldAt(1.0, 0.0, 0.0), 100.0, 90.0)
	want := edge[0] * math.Abs(math.Sin(30.0*math.Pi/180.0))
	if math.Abs(major[0]-want) > 1e-6 {
		t.Errorf("expected %v, got %v", want, major[0])
	}

	// The sign of the inclination does not change the projection.
	pos := k.Project(fieldAt(1.0, 0.5, 0.0), 100.0, 30.0)
	neg := k.Project(fieldAt(1.0, 0.5, 0.0), 100.0, -30.0)
	if math.Abs(pos[0]-neg[0]) > 1e-9 {
		t.Errorf("projection should use |sin(i)|: %v vs %v", pos[0], neg[0])
	}
}

// TestPowerLawProfile verifies the normalisation and exponent of the
// power law rotation
func TestPowerLawProfile(t *testing.T) {
	p := PowerLaw{VP100: 2000.0, VPQ: -0.5, VPRTaper: 1e10, VPQTaper: 1.0}

	// At r = 1 arcsec and 100 pc the radius is exactly 100 au.
	v := p.Project(fieldAt(1.0, 0.0, 0.0), 100.0, 90.0)
	if math.Abs(v[0]-2000.0) > 1e-6 {
		t.Errorf("expected 2000 m/s at 100 au, got %v", v[0])
	}

	// Doubling the radius scales the speed by 2^q.
	v2 := p.Project(fieldAt(2.0, 0.0, 0.0), 100.0, 90.0)
	want := 2000.0 * math.Pow(2.0, -0.5)
	if math.Abs(v2[0]-want) > 1e-6 {
		t.Errorf("expected %v m/s at 200 au, got %v", want, v2[0])
	}
}

// TestPowerLawTaper verifies the exponential outer taper
func TestPowerLawTaper(t *testing.T) {
	p := PowerLaw{VP100: 2000.0, VPQ: 0.0, VPRTaper: 1.0, VPQTaper: 1.0}
	v := p.Project(fieldAt(1.0, 0.0, 0.0), 100.0, 90.0)
	want := 2000.0 * math.Exp(-1.0)
	if math.Abs(v[0]-want) > 1e-6 {
		t.Errorf("expected %v m/s with taper, got %v", want, v[0])
	}
}

// TestPowerLawRadial verifies the projected radial component
func TestPowerLawRadial(t *testing.T) {
	p := PowerLaw{VP100: 2000.0, VPQ: -0.5, VPRTaper: 1e10, VPQTaper: 1.0,
		VR100: 100.0, VRQ: 0.0}

	// Along the major axis the radial term projects to zero.
	noRad := PowerLaw{VP100: 2000.0, VPQ: -0.5, VPRTaper: 1e10, VPQTaper: 1.0}
	with := p.Project(fieldAt(1.0, 0.0, 0.0), 100.0, 90.0)
	without := noRad.Project(fieldAt(1.0, 0.0, 0.0), 100.0, 90.0)
	if math.Abs(with[0]-without[0]) > 1e-9 {
		t.Errorf("radial term should vanish on the major axis: %v vs %v", with[0], without[0])
	}

	// Along the minor axis only the radial term survives.
	v := p.Project(fieldAt(1.0, math.Pi/2.0, 0.0), 100.0, 90.0)
	if math.Abs(v[0]-100.0) > 1e-6 {
		t.Errorf("expected 100 m/s radial projection, got %v", v[0])
	}
}
